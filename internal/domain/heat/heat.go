// Package heat computes a bounded reputation score for a retail location
// from the prize wins reported there.
package heat

import (
	"math"
	"sort"
	"time"

	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Score bounds.
const (
	minScore = 0
	maxScore = 100
)

// Calculator computes StoreHeatScore values under a Policy.
// A Calculator is immutable after construction and safe for concurrent use.
type Calculator struct {
	policy Policy
}

// NewCalculator creates a calculator with the default policy adjusted by opts.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the calculator's policy.
func (c *Calculator) Policy() Policy { return c.policy }

var defaultCalculator = NewCalculator() //nolint:gochecknoglobals // immutable default

// Compute scores storeID using the default policy.
func Compute(storeID string, records []model.WinRecord, now time.Time) model.StoreHeatScore {
	return defaultCalculator.Compute(storeID, records, now)
}

// ComputeAll scores every store referenced by records using the default policy.
func ComputeAll(records []model.WinRecord, now time.Time) []model.StoreHeatScore {
	return defaultCalculator.ComputeAll(records, now)
}

// Compute aggregates the records of storeID into a heat score. Records of
// other stores are ignored, so callers may pass an unfiltered slice.
// An empty match yields the neutral score rather than an error.
func (c *Calculator) Compute(storeID string, records []model.WinRecord, now time.Time) model.StoreHeatScore {
	out := model.StoreHeatScore{
		StoreID:     storeID,
		TotalPayout: decimal.Zero,
		HotGames:    []string{},
	}

	matched := make([]model.WinRecord, 0, len(records))
	for i := range records {
		if records[i].StoreID == storeID {
			matched = append(matched, records[i])
		}
	}
	if len(matched) == 0 {
		return out
	}

	windowStart := now.Add(-c.policy.RecentWindow)
	gameCounts := make(map[string]int)
	gameOrder := make([]string, 0)
	for i := range matched {
		r := &matched[i]
		out.TotalWins++

		amount := r.PrizeAmount
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		out.TotalPayout = out.TotalPayout.Add(amount)
		if amount.GreaterThanOrEqual(c.policy.BigWinThreshold) {
			out.BigWins++
		}

		if !r.WinDate.IsZero() && !r.WinDate.Before(windowStart) && !r.WinDate.After(now) {
			out.RecentWins++
		}

		if r.GameName != "" {
			if _, seen := gameCounts[r.GameName]; !seen {
				gameOrder = append(gameOrder, r.GameName)
			}
			gameCounts[r.GameName]++
		}
	}

	for _, name := range gameOrder {
		if gameCounts[name] >= c.policy.HotGameMinWins {
			out.HotGames = append(out.HotGames, name)
		}
	}

	dated := datedNewestFirst(matched)
	if len(dated) > 0 {
		last := dated[0]
		out.LastWinDate = &last
	}
	out.WinStreak = streak(dated, c.policy.StreakGap)

	out.Score = c.score(out)
	return out
}

// ComputeAll returns one score per distinct store, in first-seen order.
func (c *Calculator) ComputeAll(records []model.WinRecord, now time.Time) []model.StoreHeatScore {
	order := make([]string, 0)
	seen := make(map[string]struct{})
	for i := range records {
		id := records[i].StoreID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		order = append(order, id)
	}

	out := make([]model.StoreHeatScore, 0, len(order))
	for _, id := range order {
		out = append(out, c.Compute(id, records, now))
	}
	return out
}

// score applies the saturating weighted sum. Each component is capped
// before summation and the total is clamped to [0, 100].
func (c *Calculator) score(s model.StoreHeatScore) float64 {
	p := c.policy
	payout := s.TotalPayout.InexactFloat64()

	recency := math.Min(float64(s.RecentWins)*p.RecentWinPoints, p.RecencyCap)
	payoutScore := math.Min(payout/p.PayoutDivisor, p.PayoutCap)
	big := math.Min(float64(s.BigWins)*p.BigWinPoints, p.BigWinCap)
	streakScore := math.Min(float64(s.WinStreak)*p.StreakPoints, p.StreakCap)

	total := recency + payoutScore + big + streakScore
	return math.Max(minScore, math.Min(maxScore, total))
}

// datedNewestFirst returns the known win dates sorted descending.
// Records with an unparseable (zero) date are left out.
func datedNewestFirst(records []model.WinRecord) []time.Time {
	dates := make([]time.Time, 0, len(records))
	for i := range records {
		if !records[i].WinDate.IsZero() {
			dates = append(dates, records[i].WinDate)
		}
	}
	sort.SliceStable(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates
}

// streak walks newest-first and counts the chain of wins whose consecutive
// dates are at most gap apart. A lone win has no consecutive pair and
// therefore a streak of 0; otherwise the streak is the chain length.
func streak(newestFirst []time.Time, gap time.Duration) int {
	if len(newestFirst) < 2 {
		return 0
	}
	chain := 1
	for i := 1; i < len(newestFirst); i++ {
		if newestFirst[i-1].Sub(newestFirst[i]) > gap {
			break
		}
		chain++
	}
	if chain < 2 {
		return 0
	}
	return chain
}
