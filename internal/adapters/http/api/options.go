package api

import (
	"github.com/okian/lottoheat/pkg/logger"
	"golang.org/x/time/rate"
)

// Option configures a Server.
type Option func(*Server)

// WithMaxHotLimit caps the limit accepted by GET /stores/hot.
func WithMaxHotLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxHotLimit = n
		}
	}
}

// WithSubmitRate limits POST /wins to perSecond requests with the given burst.
// A non-positive rate disables the limit.
func WithSubmitRate(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.submitLimiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.submitLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the request error logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}
