package ranking

import (
	"math"

	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/okian/lottoheat/internal/domain/probability"
)

// maxTickets bounds pool estimates so int64 arithmetic cannot overflow.
const maxTickets = int64(1) << 52

// tierCount is a sanitized prize tier.
type tierCount struct {
	amount    float64
	total     int64
	remaining int64
}

// pool is the estimated ticket population of one game.
type pool struct {
	price            float64
	tiers            []tierCount
	totalPrizes      int64
	remainingPrizes  int64
	totalTickets     int64
	remainingTickets int64
}

// newPool sanitizes a game's tiers and estimates its ticket pool.
//
// The print run is Σ total × overall odds. Tickets are assumed to leave the
// pool at the same rate as prizes, so the remaining pool is the print run
// scaled by the share of prizes still unclaimed, and never smaller than the
// number of unclaimed prizes. Games without a usable tier, price, or odds
// are reported as not ok.
func newPool(g model.Game) (pool, bool) {
	p := pool{price: g.Price.InexactFloat64()}
	if p.price <= 0 || math.IsNaN(g.OverallOdds) || math.IsInf(g.OverallOdds, 0) || g.OverallOdds < 1 {
		return pool{}, false
	}

	for _, t := range g.PrizeTiers {
		amount := t.Amount.InexactFloat64()
		if amount <= 0 || t.TotalCount <= 0 {
			continue
		}
		remaining := t.RemainingCount
		if remaining < 0 {
			remaining = 0
		}
		if remaining > t.TotalCount {
			remaining = t.TotalCount
		}
		p.tiers = append(p.tiers, tierCount{amount: amount, total: t.TotalCount, remaining: remaining})
		p.totalPrizes += t.TotalCount
		p.remainingPrizes += remaining
	}
	if len(p.tiers) == 0 || p.totalPrizes <= 0 || p.totalPrizes > maxTickets {
		return pool{}, false
	}

	p.totalTickets = clampTickets(math.Round(float64(p.totalPrizes)*g.OverallOdds), p.totalPrizes)
	share := float64(p.remainingPrizes) / float64(p.totalPrizes)
	p.remainingTickets = clampTickets(math.Round(float64(p.totalTickets)*share), p.remainingPrizes)
	return p, true
}

func clampTickets(v float64, floor int64) int64 {
	if v >= float64(maxTickets) {
		return maxTickets
	}
	n := int64(v)
	if n < floor {
		return floor
	}
	return n
}

// remainingDistribution is the payout of one ticket drawn from the remaining pool.
func (p pool) remainingDistribution() probability.Distribution {
	return p.distribution(p.remainingTickets, func(t tierCount) int64 { return t.remaining }, p.remainingPrizes)
}

// printRunDistribution is the payout of one ticket drawn from the full print run.
func (p pool) printRunDistribution() probability.Distribution {
	return p.distribution(p.totalTickets, func(t tierCount) int64 { return t.total }, p.totalPrizes)
}

// distribution builds the single-ticket payout distribution: one outcome
// per tier with P = Hypergeometric(N, K_tier, 1).PMF(1), plus the no-prize
// outcome P = Hypergeometric(N, ΣK, 1).PMF(0).
func (p pool) distribution(tickets int64, count func(tierCount) int64, prizes int64) probability.Distribution {
	if tickets <= 0 {
		return probability.Certain(0)
	}
	outcomes := make([]probability.Outcome, 0, len(p.tiers)+1)
	for _, t := range p.tiers {
		hg := probability.Hypergeometric{Population: tickets, Successes: count(t), Draws: 1}
		outcomes = append(outcomes, probability.Outcome{Payout: t.amount, Probability: hg.PMF(1)})
	}
	none := probability.Hypergeometric{Population: tickets, Successes: prizes, Draws: 1}
	outcomes = append(outcomes, probability.Outcome{Payout: 0, Probability: none.PMF(0)})
	return probability.Distribution{Outcomes: outcomes}
}

// topTier returns the largest tier still holding unclaimed prizes.
func (p pool) topTier() (tierCount, bool) {
	var top tierCount
	found := false
	for _, t := range p.tiers {
		if t.remaining > 0 && (!found || t.amount > top.amount) {
			top = t
			found = true
		}
	}
	return top, found
}
