// Package service wires the catalog, the heat leaderboard, and the
// recommendation ranker behind one API used by the HTTP layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jobqueue "github.com/okian/lottoheat/internal/adapters/mq/queue"
	workerpool "github.com/okian/lottoheat/internal/adapters/mq/worker"
	"github.com/okian/lottoheat/internal/adapters/repository"
	"github.com/okian/lottoheat/internal/domain/dedupe"
	"github.com/okian/lottoheat/internal/domain/heat"
	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/okian/lottoheat/internal/domain/ranking"
	"github.com/okian/lottoheat/internal/domain/types"
	"github.com/okian/lottoheat/pkg/logger"
	"github.com/okian/lottoheat/pkg/metrics"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

const stopTimeout = 10 * time.Second

// winDateLayouts are tried in order; anything else is kept as an undated win.
var winDateLayouts = []string{ //nolint:gochecknoglobals // read-only
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Service owns the mutable state around the pure engines.
type Service struct {
	mu sync.RWMutex

	catalog     *repository.Catalog
	leaderboard repository.Leaderboard
	deduper     dedupe.Deduper
	jobs        jobqueue.Queue
	pool        *workerpool.Pool
	scheduler   *cron.Cron
	heat        *heat.Calculator
	ranker      *ranking.Ranker

	workerCount     int
	queueSize       int
	dedupeSize      int
	refreshSchedule string
	heatOpts        []heat.Option
	rankOpts        []ranking.Option
	now             func() time.Time

	started bool
	logger  logger.Logger
}

// New creates a service. Ingestion and queries work immediately; win
// submission needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  100_000,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.catalog = repository.NewCatalog()
	s.leaderboard = repository.NewTreapStore()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.heat = heat.NewCalculator(s.heatOpts...)
	s.ranker = ranking.NewRanker(s.rankOpts...)
	return s
}

// Start launches the worker pool and the refresh schedule.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.jobs = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.jobs, s, s.leaderboard)
	s.pool.Start(ctx)

	if s.refreshSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(s.refreshSchedule, func() { _ = s.Refresh(ctx) }); err != nil {
			_ = s.pool.Shutdown(ctx)
			return fmt.Errorf("refresh schedule %q: %w", s.refreshSchedule, err)
		}
		c.Start()
		s.scheduler = c
	}

	s.started = true
	s.logger.Info(ctx, "lottoheat service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.String("refresh_schedule", s.refreshSchedule),
	)
	return nil
}

// Stop halts the schedule and drains the worker pool. A refresh that is
// already running finishes first.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	sched, pool := s.scheduler, s.pool
	s.scheduler = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if sched != nil {
		<-sched.Stop().Done()
	}
	if err := pool.Shutdown(ctx); err != nil {
		s.log().Warn(ctx, "worker pool did not drain, stopping workers", logger.Error(err))
		pool.Stop()
	}
	s.log().Info(ctx, "lottoheat service stopped")
}

// Score computes a store's heat from its current records. It is the
// worker pool's Scorer.
func (s *Service) Score(ctx context.Context, storeID string) (model.StoreHeatScore, error) {
	wins, version := s.catalog.WinsForStore(ctx, storeID)
	h := s.heat.Compute(storeID, wins, s.now())
	h.Version = version
	return h, nil
}

// SubmitWin validates and records a win, then schedules its store for a
// recompute. A refused schedule undoes the record so the client can retry
// with the same id.
func (s *Service) SubmitWin(ctx context.Context, sub types.WinSubmission) (model.WinRecord, error) {
	rec, err := s.normalizeWin(ctx, sub)
	if err != nil {
		metrics.RecordWinRejected()
		return model.WinRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.WinRecord{}, ErrNotStarted
	}

	if s.deduper.SeenAndRecord(ctx, rec.ID) {
		metrics.RecordWinDuplicate()
		return model.WinRecord{}, fmt.Errorf("%w: %s", ErrDuplicateWin, rec.ID)
	}
	if err := s.catalog.AddWin(ctx, rec); err != nil {
		metrics.RecordWinDuplicate()
		return model.WinRecord{}, fmt.Errorf("%w: %w", ErrDuplicateWin, err)
	}

	if !s.jobs.Enqueue(ctx, jobqueue.Job{StoreID: rec.StoreID, Reason: jobqueue.ReasonWin}) {
		s.catalog.RemoveWin(ctx, rec.ID)
		s.deduper.Unrecord(ctx, rec.ID)
		metrics.RecordWinRejected()
		if err := ctx.Err(); err != nil {
			return model.WinRecord{}, fmt.Errorf("schedule recompute for %s: %w", rec.StoreID, err)
		}
		s.logger.Warn(ctx, "win refused by backpressure",
			logger.String("win_id", rec.ID),
			logger.String("store_id", rec.StoreID),
		)
		return model.WinRecord{}, fmt.Errorf("%w: %w", ErrBackpressure, jobqueue.ErrFull)
	}

	metrics.RecordWinSubmitted()
	s.logger.Debug(ctx, "win recorded",
		logger.String("win_id", rec.ID),
		logger.String("store_id", rec.StoreID),
		logger.String("prize", rec.PrizeAmount.String()),
	)
	return rec, nil
}

func (s *Service) normalizeWin(ctx context.Context, sub types.WinSubmission) (model.WinRecord, error) {
	storeID := strings.TrimSpace(sub.StoreID)
	if storeID == "" {
		return model.WinRecord{}, fmt.Errorf("%w: store_id is required", ErrInvalidWin)
	}
	if _, err := s.catalog.Store(ctx, storeID); err != nil {
		return model.WinRecord{}, fmt.Errorf("store %s: %w", storeID, err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(sub.PrizeAmount))
	if err != nil {
		return model.WinRecord{}, fmt.Errorf("%w: prize_amount %q", ErrInvalidWin, sub.PrizeAmount)
	}
	if amount.IsNegative() {
		return model.WinRecord{}, fmt.Errorf("%w: prize_amount must not be negative", ErrInvalidWin)
	}

	rec := model.WinRecord{
		ID:          strings.TrimSpace(sub.ID),
		StoreID:     storeID,
		GameID:      strings.TrimSpace(sub.GameID),
		GameName:    strings.TrimSpace(sub.GameName),
		PrizeAmount: amount,
		WinDate:     parseWinDate(sub.WinDate),
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.GameName == "" && rec.GameID != "" {
		if g, err := s.catalog.Game(ctx, rec.GameID); err == nil {
			rec.GameName = g.Name
		}
	}
	return rec, nil
}

// parseWinDate returns the zero time for dates it cannot read. Such wins
// still count toward totals but never toward recency or streaks.
func parseWinDate(v string) time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range winDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Vote applies a community vote to a win record.
func (s *Service) Vote(ctx context.Context, winID string, up bool) (model.WinRecord, error) {
	rec, verified, err := s.catalog.Vote(ctx, winID, up)
	if err != nil {
		return model.WinRecord{}, fmt.Errorf("vote on %s: %w", winID, err)
	}
	metrics.RecordVote(up)
	if verified {
		metrics.RecordWinVerified()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.started {
		if verified {
			s.logger.Info(ctx, "win verified", logger.String("win_id", rec.ID), logger.Int("upvotes", rec.Upvotes))
		}
		if !s.jobs.Enqueue(ctx, jobqueue.Job{StoreID: rec.StoreID, Reason: jobqueue.ReasonVote}) {
			s.logger.Warn(ctx, "vote recompute skipped, queue full", logger.String("store_id", rec.StoreID))
		}
	}
	return rec, nil
}

// UpsertStores validates and stores locations. It returns how many were new.
func (s *Service) UpsertStores(ctx context.Context, stores []model.StoreLocation) (int, error) {
	clean := make([]model.StoreLocation, len(stores))
	for i, st := range stores {
		st.ID = strings.TrimSpace(st.ID)
		if st.ID == "" {
			return 0, fmt.Errorf("%w: store %d has no id", ErrInvalidStore, i)
		}
		if !validLatitude(st.Latitude) || !validLongitude(st.Longitude) {
			return 0, fmt.Errorf("%w: store %s coordinates out of range", ErrInvalidStore, st.ID)
		}
		st.Category = model.ParseStoreCategory(string(st.Category))
		clean[i] = st
	}
	return s.catalog.UpsertStores(ctx, clean), nil
}

// ReplaceGames swaps in a new game snapshot. Malformed prize tiers are kept
// as-is; the ranker excludes what it cannot use.
func (s *Service) ReplaceGames(ctx context.Context, games []model.Game) error {
	seen := make(map[string]bool, len(games))
	clean := make([]model.Game, len(games))
	for i, g := range games {
		g.ID = strings.TrimSpace(g.ID)
		if g.ID == "" {
			return fmt.Errorf("%w: game %d has no id", ErrInvalidGame, i)
		}
		if seen[g.ID] {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidGame, g.ID)
		}
		seen[g.ID] = true
		g.Status = model.ParseGameStatus(string(g.Status))
		clean[i] = g
	}
	s.catalog.ReplaceGames(ctx, clean)
	return nil
}

// StoreHeat computes a store's heat score on demand.
func (s *Service) StoreHeat(ctx context.Context, storeID string) (model.StoreHeatScore, error) {
	if _, err := s.catalog.Store(ctx, storeID); err != nil {
		return model.StoreHeatScore{}, fmt.Errorf("store %s: %w", storeID, err)
	}
	return s.Score(ctx, storeID)
}

// StoreRank returns a store's leaderboard row.
func (s *Service) StoreRank(ctx context.Context, storeID string) (types.HotStore, error) {
	entry, err := s.leaderboard.Rank(ctx, storeID)
	if err != nil {
		return types.HotStore{}, fmt.Errorf("rank %s: %w", storeID, err)
	}
	return s.hotStore(ctx, entry, nil), nil
}

// HotStores returns up to limit stores by heat. With a filter, only stores
// within its radius are listed; ranks stay global.
func (s *Service) HotStores(ctx context.Context, limit int, near *GeoFilter) ([]types.HotStore, error) {
	if limit < 1 {
		return nil, fmt.Errorf("hot stores: %w", repository.ErrInvalidLimit)
	}
	out := []types.HotStore{}

	if near == nil {
		entries, err := s.leaderboard.TopN(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("hot stores: %w", err)
		}
		for _, e := range entries {
			out = append(out, s.hotStore(ctx, e, nil))
		}
		return out, nil
	}

	if err := near.Validate(); err != nil {
		return nil, err
	}
	total := s.leaderboard.Count(ctx)
	if total == 0 {
		return out, nil
	}
	entries, err := s.leaderboard.TopN(ctx, total)
	if err != nil {
		return nil, fmt.Errorf("hot stores: %w", err)
	}
	for _, e := range entries {
		loc, err := s.catalog.Store(ctx, e.Heat.StoreID)
		if err != nil {
			continue
		}
		d := DistanceKM(near.Latitude, near.Longitude, loc.Latitude, loc.Longitude)
		if d > near.RadiusKM {
			continue
		}
		out = append(out, s.hotStore(ctx, e, &d))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Service) hotStore(ctx context.Context, e repository.Entry, distance *float64) types.HotStore {
	h := types.HotStore{
		Rank:        e.Rank,
		StoreID:     e.Heat.StoreID,
		Score:       e.Heat.Score,
		TotalWins:   e.Heat.TotalWins,
		RecentWins:  e.Heat.RecentWins,
		BigWins:     e.Heat.BigWins,
		WinStreak:   e.Heat.WinStreak,
		TotalPayout: e.Heat.TotalPayout,
		LastWinDate: e.Heat.LastWinDate,
		HotGames:    e.Heat.HotGames,
		DistanceKM:  distance,
	}
	if loc, err := s.catalog.Store(ctx, e.Heat.StoreID); err == nil {
		h.Name = loc.Name
		h.Category = loc.Category
		h.Latitude = loc.Latitude
		h.Longitude = loc.Longitude
	}
	return h
}

// Recommend ranks the current game snapshot for a budget.
func (s *Service) Recommend(ctx context.Context, budget decimal.Decimal) (model.Recommendations, error) {
	if !budget.IsPositive() {
		return model.Recommendations{}, ErrInvalidBudget
	}
	start := time.Now()
	games := s.catalog.Games(ctx)
	recs := s.ranker.Rank(games, budget)

	affordable := 0
	for _, g := range games {
		if g.Price.LessThanOrEqual(budget) {
			affordable++
		}
	}
	metrics.RecordGamesExcluded(affordable - recs.Len())
	metrics.UpdateRecommendationTiers(len(recs.Safe), len(recs.Moderate), len(recs.Insane))
	metrics.RecordRecommendation("rank", time.Since(start))
	return recs, nil
}

// Analyze evaluates one game for a purchase of tickets tickets. A positive
// bankroll adds the fractional Kelly stake.
func (s *Service) Analyze(ctx context.Context, gameID string, tickets int64, bankroll decimal.Decimal) (types.GameAnalysis, error) {
	start := time.Now()
	g, err := s.catalog.Game(ctx, gameID)
	if err != nil {
		return types.GameAnalysis{}, fmt.Errorf("game %s: %w", gameID, err)
	}
	rec, ok := s.ranker.Recommendation(g)
	if !ok {
		metrics.RecordGamesExcluded(1)
		return types.GameAnalysis{}, fmt.Errorf("game %s: %w", gameID, ErrUnusableGame)
	}
	if tickets < 1 {
		tickets = 1
	}
	chance, _ := ranking.WinChanceForTickets(g, tickets)

	out := types.GameAnalysis{Recommendation: rec, Tickets: tickets, WinChance: chance}
	if bankroll.IsPositive() {
		stake := rec.Risk.SuggestedStake(bankroll)
		out.SuggestedStake = &stake
	}
	metrics.RecordRecommendation("analysis", time.Since(start))
	return out, nil
}

// Refresh recomputes every store with records and republishes it, so
// recency decays even when no new wins arrive.
func (s *Service) Refresh(ctx context.Context) error {
	start := time.Now()
	ids := s.catalog.StoreIDsWithWins(ctx)

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		h, err := s.Score(ctx, id)
		if err == nil {
			err = s.leaderboard.Upsert(ctx, h)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("refresh %s: %w", id, err))
		}
	}
	err := errors.Join(errs...)
	metrics.RecordRefresh(time.Since(start), err)

	if l := s.log(); l != nil {
		if err != nil {
			l.Error(ctx, "refresh failed", logger.Int("stores", len(ids)), logger.Error(err))
		} else {
			l.Info(ctx, "refresh completed", logger.Int("stores", len(ids)), logger.Duration("took", time.Since(start)))
		}
	}
	return err
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stores, games, wins := s.catalog.Counts(ctx)
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"dedupeEntries":   s.deduper.Size(),
		"refreshSchedule": s.refreshSchedule,
		"stores":          stores,
		"games":           games,
		"wins":            wins,
		"leaderboardSize": s.leaderboard.Count(ctx),
	}
	if s.started {
		queueLen := s.jobs.Len(ctx)
		stats["queueLength"] = queueLen
		stats["activeWorkers"] = s.pool.Active()
	}
	return stats
}
