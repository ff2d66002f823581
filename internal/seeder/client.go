package seeder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxRetries     = 5
	defaultBackoff = 200 * time.Millisecond
)

// ErrStatus is returned for an unexpected HTTP status.
var ErrStatus = errors.New("unexpected status")

// Client talks to the lottoheat HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client. A positive perSecond throttles win
// submissions on the client side.
func NewClient(baseURL string, timeout time.Duration, perSecond float64) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
	if perSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return c
}

// do sends a JSON request and decodes a JSON response into out when the
// status is one of want. It returns the status code either way.
func (c *Client) do(ctx context.Context, method, path string, body, out any, want ...int) (int, error) {
	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	for _, code := range want {
		if resp.StatusCode == code {
			if out != nil {
				if err := json.Unmarshal(data, out); err != nil {
					return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
				}
			}
			return resp.StatusCode, nil
		}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return resp.StatusCode, retryAfterError{after: retryAfter(resp.Header.Get("Retry-After"))}
	}
	return resp.StatusCode, fmt.Errorf("%w: %s %s -> %d: %s", ErrStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
}

type retryAfterError struct{ after time.Duration }

func (e retryAfterError) Error() string { return "rate limited, retry after " + e.after.String() }

func retryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultBackoff
}

// Get fetches path into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	_, err := c.do(ctx, http.MethodGet, path, nil, out, http.StatusOK)
	return err
}

// Put sends body to path and decodes the reply into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	_, err := c.do(ctx, http.MethodPut, path, body, out, http.StatusOK)
	return err
}

// SubmitResult classifies one win submission.
type SubmitResult int

// Submission outcomes.
const (
	SubmitCreated SubmitResult = iota
	SubmitDuplicate
	SubmitRejected
	SubmitFailed
)

// SubmitWin posts one win, waiting on the client limiter and retrying
// server-side rate limiting a few times.
func (c *Client) SubmitWin(ctx context.Context, w any) (SubmitResult, error) {
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return SubmitFailed, fmt.Errorf("wait for limiter: %w", err)
			}
		}
		code, err := c.do(ctx, http.MethodPost, "/wins", w, nil, http.StatusCreated)
		var ra retryAfterError
		switch {
		case err == nil:
			return SubmitCreated, nil
		case code == http.StatusConflict:
			return SubmitDuplicate, nil
		case errors.As(err, &ra) && attempt < maxRetries:
			select {
			case <-ctx.Done():
				return SubmitFailed, ctx.Err()
			case <-time.After(ra.after):
			}
		case code == http.StatusBadRequest || code == http.StatusNotFound:
			return SubmitRejected, err
		default:
			return SubmitFailed, err
		}
	}
}
