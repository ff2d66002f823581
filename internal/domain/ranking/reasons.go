package ranking

import (
	"fmt"

	"github.com/okian/lottoheat/internal/domain/model"
)

// Presentation cutoffs for reasons. They do not affect ranking.
const (
	highTopMultiple      = 1_000.0
	strongWinRate        = 0.25
	lowWinRate           = 0.1
	goodReturnRate       = 0.7
	topPrizesMostlyLeft  = 0.5
	evImprovementEpsilon = 1e-9
)

// reasons returns human-readable hints explaining a placement.
func (r *Ranker) reasons(g model.Game, tier model.Tier, ev model.EVResult, risk model.RiskMetrics) []string {
	out := make([]string, 0, 6)
	switch tier {
	case model.TierSafe:
		out = append(out, "Consistent small-to-moderate prizes")
	case model.TierInsane:
		out = append(out, "Jackpot chaser: big swings for a shot at the top prize")
	default:
		out = append(out, "Balanced risk and reward")
	}

	switch {
	case risk.Volatility <= r.thresholds.SafeMaxVolatility:
		out = append(out, "Low volatility")
	case risk.Volatility >= r.thresholds.InsaneMinVolatility:
		out = append(out, "High volatility")
	}

	if risk.TopPrizeMultiple >= highTopMultiple {
		out = append(out, fmt.Sprintf("High top prize potential ($%.0f)", risk.TopPrize))
	}

	switch {
	case ev.AdjustedEV > 0:
		out = append(out, "Positive expected value")
	case ev.ReturnRate >= goodReturnRate:
		out = append(out, fmt.Sprintf("Returns %.0f%% of the ticket price on average", ev.ReturnRate*100))
	}
	if ev.AdjustedEV-ev.RawEV > evImprovementEpsilon {
		out = append(out, "Odds improved since launch")
	}

	switch {
	case risk.WinRate >= strongWinRate:
		out = append(out, fmt.Sprintf("Strong win rate (1 in %.2f)", 1/risk.WinRate))
	case risk.WinRate > 0 && risk.WinRate < lowWinRate:
		out = append(out, fmt.Sprintf("Low win rate (1 in %.1f)", 1/risk.WinRate))
	case risk.WinRate == 0:
		out = append(out, "No prizes left")
	}

	if ratio, ok := topPrizesLeft(g); ok && ratio >= topPrizesMostlyLeft {
		out = append(out, "Most top prizes still unclaimed")
	}

	if risk.KellyStake > 0 {
		out = append(out, fmt.Sprintf("Kelly suggests staking %.1f%% of bankroll", risk.KellyStake*100))
	}

	if g.Status == model.GameEnding {
		out = append(out, "Game is ending soon")
	}
	return out
}

// topPrizesLeft returns remaining/total for the largest tier.
func topPrizesLeft(g model.Game) (float64, bool) {
	p, ok := newPool(g)
	if !ok {
		return 0, false
	}
	var top tierCount
	for i, t := range p.tiers {
		if i == 0 || t.amount > top.amount {
			top = t
		}
	}
	return float64(top.remaining) / float64(top.total), true
}
