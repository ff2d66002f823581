package queue

import "errors"

// ErrFull is returned by callers that surface a refused Enqueue.
var ErrFull = errors.New("recompute queue full")
