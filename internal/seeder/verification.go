package seeder

import (
	"errors"
	"fmt"

	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/okian/lottoheat/internal/domain/types"
	"github.com/shopspring/decimal"
)

// ErrInconsistent reports a result that breaks an ordering or range rule.
var ErrInconsistent = errors.New("inconsistent result")

// tieTolerance matches the leaderboard's fixed-point score resolution.
const tieTolerance = 1e-9

// verifyHotStores checks the leaderboard is sorted by score with
// competition ranks and scores within [0, 100]. Rows sharing a rank are ties.
func verifyHotStores(rows []types.HotStore) error {
	for i, r := range rows {
		if r.Score < 0 || r.Score > 100 {
			return fmt.Errorf("%w: store %s score %.3f out of range", ErrInconsistent, r.StoreID, r.Score)
		}
		if i == 0 {
			if r.Rank != 1 {
				return fmt.Errorf("%w: first row has rank %d", ErrInconsistent, r.Rank)
			}
			continue
		}
		prev := rows[i-1]
		switch {
		case r.Score > prev.Score+tieTolerance:
			return fmt.Errorf("%w: row %d scores above row %d", ErrInconsistent, i, i-1)
		case r.Rank == prev.Rank:
			if prev.Score-r.Score > tieTolerance {
				return fmt.Errorf("%w: rows %d and %d share rank %d with different scores", ErrInconsistent, i-1, i, r.Rank)
			}
		case r.Rank != i+1:
			return fmt.Errorf("%w: row %d has rank %d, want %d", ErrInconsistent, i, r.Rank, i+1)
		case prev.Score-r.Score <= 0:
			return fmt.Errorf("%w: tied rows %d and %d have ranks %d and %d", ErrInconsistent, i-1, i, prev.Rank, r.Rank)
		}
	}
	return nil
}

// verifyRank checks that a store's own rank agrees with its leaderboard row.
func verifyRank(row, own types.HotStore) error {
	if row.StoreID != own.StoreID || row.Rank != own.Rank || row.Score != own.Score {
		return fmt.Errorf("%w: store %s listed as rank %d score %.3f but reports rank %d score %.3f",
			ErrInconsistent, row.StoreID, row.Rank, row.Score, own.Rank, own.Score)
	}
	return nil
}

// verifyRecommendations checks tier membership, budget, and ordering.
func verifyRecommendations(recs model.Recommendations, budget decimal.Decimal) error {
	tiers := []struct {
		tier model.Tier
		recs []model.Recommendation
	}{
		{model.TierSafe, recs.Safe},
		{model.TierModerate, recs.Moderate},
		{model.TierInsane, recs.Insane},
	}
	seen := make(map[string]bool)
	for _, t := range tiers {
		for i, r := range t.recs {
			if r.Tier != t.tier {
				return fmt.Errorf("%w: game %s tagged %s in %s", ErrInconsistent, r.Game.ID, r.Tier, t.tier)
			}
			if r.Game.Price.GreaterThan(budget) {
				return fmt.Errorf("%w: game %s costs %s over budget %s", ErrInconsistent, r.Game.ID, r.Game.Price, budget)
			}
			if seen[r.Game.ID] {
				return fmt.Errorf("%w: game %s listed twice", ErrInconsistent, r.Game.ID)
			}
			seen[r.Game.ID] = true
			if i > 0 && r.EV.AdjustedEV > t.recs[i-1].EV.AdjustedEV {
				return fmt.Errorf("%w: %s tier not sorted by adjusted EV at %d", ErrInconsistent, t.tier, i)
			}
		}
	}
	return nil
}
