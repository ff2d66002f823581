package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/okian/lottoheat/internal/domain/types"
	"github.com/okian/lottoheat/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	settlePoll          = 100 * time.Millisecond
	settleIdlePolls     = 2
	rankCheckLimit      = 50
)

// Run generates a dataset, loads it, and checks what the service returns.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get().Named("seeder")
	stats := &Stats{StartTime: time.Now()}

	budget, err := decimal.NewFromString(cfg.Budget)
	if err != nil || !budget.IsPositive() {
		return fmt.Errorf("budget %q must be a positive number", cfg.Budget)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	log.Info(ctx, "starting lottoheat seeding",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("stores", cfg.Stores),
		logger.Int("games", cfg.Games),
		logger.Int("wins", cfg.Wins),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", cfg.Seed),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout, cfg.Rate)
	if err := client.Get(ctx, "/stats", nil); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	ds := NewGenerator(cfg.Seed, time.Now()).Generate(cfg.Stores, cfg.Games, cfg.Wins)
	if err := client.Put(ctx, "/stores", ds.Stores, nil); err != nil {
		return fmt.Errorf("load stores: %w", err)
	}
	if err := client.Put(ctx, "/games", ds.Games, nil); err != nil {
		return fmt.Errorf("load games: %w", err)
	}
	log.Info(ctx, "catalog loaded", logger.Int("stores", len(ds.Stores)), logger.Int("games", len(ds.Games)))

	submitWins(ctx, cfg, client, ds.Wins, stats)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("win submission interrupted: %w", err)
	}
	if stats.WinsFailed > 0 {
		return fmt.Errorf("%d win submissions failed", stats.WinsFailed)
	}

	if err := waitForQueue(ctx, client, cfg.Settle); err != nil {
		log.Warn(ctx, "recompute queue did not drain", logger.Error(err))
	}

	if err := checkLeaderboard(ctx, client, cfg.Workers, stats); err != nil {
		return err
	}
	if err := checkRecommendations(ctx, client, budget, stats); err != nil {
		return err
	}

	if cfg.OutputFile != "" {
		if err := saveDataset(cfg.OutputFile, ds); err != nil {
			log.Warn(ctx, "failed to save dataset", logger.Error(err))
		} else {
			log.Info(ctx, "dataset saved", logger.String("file", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return nil
}

// waitForQueue polls /stats until no recompute job is pending.
func waitForQueue(ctx context.Context, client *Client, limit time.Duration) error {
	deadline := time.Now().Add(limit)
	idle := 0
	for {
		var stats map[string]any
		if err := client.Get(ctx, "/stats", &stats); err != nil {
			return err
		}
		queued, _ := stats["queueLength"].(float64)
		busy, _ := stats["activeWorkers"].(float64)
		if queued == 0 && busy == 0 {
			// a worker holds a received job briefly before it counts as active
			idle++
			if idle >= settleIdlePolls {
				return nil
			}
		} else {
			idle = 0
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("queue still busy after %s", limit)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settlePoll):
		}
	}
}

// checkLeaderboard verifies the hot list and cross-checks each listed
// store's own rank concurrently.
func checkLeaderboard(ctx context.Context, client *Client, workers int, stats *Stats) error {
	var rows []types.HotStore
	if err := client.Get(ctx, fmt.Sprintf("/stores/hot?limit=%d", rankCheckLimit), &rows); err != nil {
		return fmt.Errorf("fetch hot stores: %w", err)
	}
	stats.HotStores = len(rows)
	if err := verifyHotStores(rows); err != nil {
		return err
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
		next  = make(chan types.HotStore)
	)
	for i := 0; i < min(workers, max(1, len(rows))); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range next {
				var own types.HotStore
				err := client.Get(ctx, "/stores/"+url.PathEscape(row.StoreID)+"/rank", &own)
				if err == nil {
					err = verifyRank(row, own)
				}
				mu.Lock()
				if err != nil && first == nil {
					first = err
				}
				if err == nil {
					stats.RanksChecked++
				}
				mu.Unlock()
			}
		}()
	}
	for _, r := range rows {
		next <- r
	}
	close(next)
	wg.Wait()
	return first
}

func checkRecommendations(ctx context.Context, client *Client, budget decimal.Decimal, stats *Stats) error {
	var recs model.Recommendations
	if err := client.Get(ctx, "/recommendations?budget="+url.QueryEscape(budget.String()), &recs); err != nil {
		return fmt.Errorf("fetch recommendations: %w", err)
	}
	stats.Recommended = recs.Len()
	return verifyRecommendations(recs, budget)
}

func saveDataset(filename string, ds Dataset) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.WinsSubmitted) / stats.Duration.Seconds()
	}
	logger.Get().Named("seeder").Info(ctx, "final statistics",
		logger.Int("winsSubmitted", stats.WinsSubmitted),
		logger.Int("winsCreated", stats.WinsCreated),
		logger.Int("winsDuplicate", stats.WinsDuplicate),
		logger.Int("winsRejected", stats.WinsRejected),
		logger.Int("hotStores", stats.HotStores),
		logger.Int("ranksChecked", stats.RanksChecked),
		logger.Int("recommended", stats.Recommended),
		logger.Duration("duration", stats.Duration),
		logger.Float64("winsPerSecond", perSecond),
	)
}
