// Package ranking turns priced scratch-off games into tiered recommendation
// lists annotated with expected value and risk statistics.
package ranking

import (
	"math"
	"sort"

	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/okian/lottoheat/internal/domain/probability"
	"github.com/shopspring/decimal"
)

// Ranker evaluates and buckets games. It holds only immutable policy and is
// safe for concurrent use.
type Ranker struct {
	thresholds Thresholds
	kellyScale float64
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithThresholds replaces the tier policy. Non-positive fields keep defaults.
func WithThresholds(t Thresholds) Option {
	return func(r *Ranker) {
		if t.SafeMaxVolatility > 0 {
			r.thresholds.SafeMaxVolatility = t.SafeMaxVolatility
		}
		if t.SafeMaxTopMultiple > 0 {
			r.thresholds.SafeMaxTopMultiple = t.SafeMaxTopMultiple
		}
		if t.InsaneMinVolatility > 0 {
			r.thresholds.InsaneMinVolatility = t.InsaneMinVolatility
		}
		if t.InsaneMinTopMultiple > 0 {
			r.thresholds.InsaneMinTopMultiple = t.InsaneMinTopMultiple
		}
	}
}

// WithKellyScale sets the fraction of full Kelly used as the stake suggestion.
func WithKellyScale(scale float64) Option {
	return func(r *Ranker) {
		if scale > 0 && scale <= 1 {
			r.kellyScale = scale
		}
	}
}

// NewRanker creates a ranker with the default policy adjusted by opts.
func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{
		thresholds: DefaultThresholds(),
		kellyScale: DefaultKellyScale,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Thresholds returns the ranker's tier policy.
func (r *Ranker) Thresholds() Thresholds { return r.thresholds }

var defaultRanker = NewRanker() //nolint:gochecknoglobals // immutable default

// Rank buckets games with the default policy.
func Rank(games []model.Game, budget decimal.Decimal) model.Recommendations {
	return defaultRanker.Rank(games, budget)
}

// Evaluate analyses one game with the default policy.
func Evaluate(g model.Game) (model.EVResult, model.RiskMetrics, bool) {
	return defaultRanker.Evaluate(g)
}

// Rank evaluates every game priced at or below budget and places each usable
// one in exactly one tier. Games without usable prize data are skipped.
// Each tier is ordered by adjusted EV desc, Sharpe desc, price asc, id asc.
func (r *Ranker) Rank(games []model.Game, budget decimal.Decimal) model.Recommendations {
	out := model.Recommendations{
		Safe:     []model.Recommendation{},
		Moderate: []model.Recommendation{},
		Insane:   []model.Recommendation{},
	}
	if !budget.IsPositive() {
		return out
	}

	for i := range games {
		g := games[i]
		if g.Price.GreaterThan(budget) {
			continue
		}
		rec, ok := r.Recommendation(g)
		if !ok {
			continue
		}
		switch rec.Tier {
		case model.TierSafe:
			out.Safe = append(out.Safe, rec)
		case model.TierInsane:
			out.Insane = append(out.Insane, rec)
		default:
			out.Moderate = append(out.Moderate, rec)
		}
	}

	sortTier(out.Safe)
	sortTier(out.Moderate)
	sortTier(out.Insane)
	return out
}

// Recommendation evaluates, classifies, and annotates one game regardless
// of budget. ok is false when the game has no usable prize data.
func (r *Ranker) Recommendation(g model.Game) (model.Recommendation, bool) {
	ev, risk, ok := r.Evaluate(g)
	if !ok {
		return model.Recommendation{}, false
	}
	tier := r.thresholds.Classify(risk)
	return model.Recommendation{
		Game:    g,
		EV:      ev,
		Risk:    risk,
		Tier:    tier,
		Reasons: r.reasons(g, tier, ev, risk),
	}, true
}

// Evaluate computes EV and risk metrics for one game from its remaining
// prize pool. ok is false when the game has no usable prize data.
func (r *Ranker) Evaluate(g model.Game) (model.EVResult, model.RiskMetrics, bool) {
	p, ok := newPool(g)
	if !ok {
		return model.EVResult{}, model.RiskMetrics{}, false
	}

	remaining := p.remainingDistribution()
	printRun := p.printRunDistribution()

	expected := remaining.Mean()
	ev := model.EVResult{
		ExpectedPayout: expected,
		RawEV:          printRun.Mean() - p.price,
		AdjustedEV:     expected - p.price,
		ReturnRate:     expected / p.price,
	}

	variance := remaining.Variance()
	stdDev := math.Sqrt(variance)
	risk := model.RiskMetrics{
		Variance:   variance,
		StdDev:     stdDev,
		Volatility: stdDev / p.price,
		WinRate:    1 - noPrizeProbability(remaining),
	}
	if variance > 0 {
		risk.SharpeRatio = ev.AdjustedEV / stdDev
	}
	if top, ok := p.topTier(); ok {
		risk.TopPrize = top.amount
		risk.TopPrizeMultiple = top.amount / p.price
	}
	risk.KellyFraction = kellyFraction(remaining, p.price)
	risk.KellyStake = math.Max(0, r.kellyScale*risk.KellyFraction)

	return ev, risk, true
}

// WinChanceForTickets returns the probability that buying tickets tickets
// from the game's remaining pool wins at least one prize.
func WinChanceForTickets(g model.Game, tickets int64) (float64, bool) {
	p, ok := newPool(g)
	if !ok {
		return 0, false
	}
	if tickets <= 0 || p.remainingTickets <= 0 {
		return 0, true
	}
	if tickets > p.remainingTickets {
		tickets = p.remainingTickets
	}
	hg := probability.Hypergeometric{Population: p.remainingTickets, Successes: p.remainingPrizes, Draws: tickets}
	return hg.AtLeastOne(), true
}

// noPrizeProbability returns the probability mass of the zero payout.
func noPrizeProbability(d probability.Distribution) float64 {
	var p float64
	for _, o := range d.Outcomes {
		if o.Payout == 0 {
			p += o.Probability
		}
	}
	return p
}

// kellyFraction is full Kelly on the dominant payout event, the outcome with
// the largest amount × probability (ties go to the larger amount). The bet
// is the ticket: it returns amount − price with probability p and loses the
// price otherwise, so b = (amount − price) / price.
func kellyFraction(d probability.Distribution, price float64) float64 {
	var amount, p float64
	for _, o := range d.Outcomes {
		if o.Payout <= 0 || o.Probability <= 0 {
			continue
		}
		contrib, best := o.Payout*o.Probability, amount*p
		if contrib > best || (contrib == best && o.Payout > amount) {
			amount, p = o.Payout, o.Probability
		}
	}
	if p <= 0 || price <= 0 {
		return 0
	}
	b := (amount - price) / price
	if b <= 0 {
		return 0
	}
	return (b*p - (1 - p)) / b
}

func sortTier(recs []model.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.EV.AdjustedEV != b.EV.AdjustedEV {
			return a.EV.AdjustedEV > b.EV.AdjustedEV
		}
		if a.Risk.SharpeRatio != b.Risk.SharpeRatio {
			return a.Risk.SharpeRatio > b.Risk.SharpeRatio
		}
		if c := a.Game.Price.Cmp(b.Game.Price); c != 0 {
			return c < 0
		}
		return a.Game.ID < b.Game.ID
	})
}
