package service

import "errors"

// Sentinel errors returned by Service. Adapter errors from the repository
// (ErrStoreNotFound, ErrGameNotFound, ErrWinNotFound, ErrNotFound,
// ErrInvalidLimit) are wrapped and pass through errors.Is unchanged.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrBackpressure  = errors.New("recompute queue full, retry later")
	ErrDuplicateWin  = errors.New("duplicate win submission")
	ErrInvalidWin    = errors.New("invalid win submission")
	ErrInvalidStore  = errors.New("invalid store location")
	ErrInvalidGame   = errors.New("invalid game")
	ErrInvalidBudget = errors.New("budget must be positive")
	ErrInvalidGeo    = errors.New("invalid geo filter")
	ErrUnusableGame  = errors.New("game has no usable prize data")
)
