package seeder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/lottoheat/internal/domain/types"
	"github.com/okian/lottoheat/pkg/logger"
)

const progressInterval = time.Second

// submitWins posts wins with a fixed pool of workers and tallies outcomes.
func submitWins(ctx context.Context, cfg *Config, client *Client, wins []types.WinSubmission, stats *Stats) {
	log := logger.Get().Named("seeder")
	log.Info(ctx, "submitting wins", logger.Int("wins", len(wins)), logger.Int("workers", cfg.Workers))

	var counts [SubmitFailed + 1]atomic.Int64
	var submitted atomic.Int64
	var lastReport atomic.Int64

	work := make(chan types.WinSubmission, cfg.Workers*2)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range work {
				res, err := client.SubmitWin(ctx, w)
				counts[res].Add(1)
				n := submitted.Add(1)
				if err != nil && cfg.Verbose {
					log.Warn(ctx, "win not accepted", logger.String("win_id", w.ID), logger.Error(err))
				}
				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "progress",
						logger.Int64("submitted", n),
						logger.Int("total", len(wins)),
						logger.Int64("created", counts[SubmitCreated].Load()),
						logger.Int64("duplicate", counts[SubmitDuplicate].Load()),
					)
				}
			}
		}()
	}

feed:
	for _, w := range wins {
		select {
		case <-ctx.Done():
			break feed
		case work <- w:
		}
	}
	close(work)
	wg.Wait()

	stats.WinsSubmitted = int(submitted.Load())
	stats.WinsCreated = int(counts[SubmitCreated].Load())
	stats.WinsDuplicate = int(counts[SubmitDuplicate].Load())
	stats.WinsRejected = int(counts[SubmitRejected].Load())
	stats.WinsFailed = int(counts[SubmitFailed].Load())
	log.Info(ctx, "win submission completed",
		logger.Int("created", stats.WinsCreated),
		logger.Int("duplicate", stats.WinsDuplicate),
		logger.Int("rejected", stats.WinsRejected),
		logger.Int("failed", stats.WinsFailed),
	)
}
