package service

import (
	"time"

	"github.com/okian/lottoheat/internal/domain/heat"
	"github.com/okian/lottoheat/internal/domain/ranking"
	"github.com/okian/lottoheat/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the recompute queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRefreshSchedule sets the cron spec of the full rebuild. Empty disables it.
func WithRefreshSchedule(spec string) Option {
	return func(s *Service) {
		s.refreshSchedule = spec
	}
}

// WithHeatOptions tunes the heat calculator.
func WithHeatOptions(opts ...heat.Option) Option {
	return func(s *Service) {
		s.heatOpts = append(s.heatOpts, opts...)
	}
}

// WithRankingOptions tunes the recommendation ranker.
func WithRankingOptions(opts ...ranking.Option) Option {
	return func(s *Service) {
		s.rankOpts = append(s.rankOpts, opts...)
	}
}

// WithClock overrides the wall clock used for recency.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
