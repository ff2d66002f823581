package ranking

import "github.com/okian/lottoheat/internal/domain/model"

// Default tier policy. Volatility is the payout standard deviation per unit
// of ticket price; the top prize multiple is top prize / ticket price.
const (
	DefaultSafeMaxVolatility    = 10.0
	DefaultSafeMaxTopMultiple   = 5_000.0
	DefaultInsaneMinVolatility  = 40.0
	DefaultInsaneMinTopMultiple = 100_000.0
	DefaultKellyScale           = 0.25
)

// Thresholds is the tunable tier assignment policy.
type Thresholds struct {
	SafeMaxVolatility    float64
	SafeMaxTopMultiple   float64
	InsaneMinVolatility  float64
	InsaneMinTopMultiple float64
}

// DefaultThresholds returns the standard tier policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SafeMaxVolatility:    DefaultSafeMaxVolatility,
		SafeMaxTopMultiple:   DefaultSafeMaxTopMultiple,
		InsaneMinVolatility:  DefaultInsaneMinVolatility,
		InsaneMinTopMultiple: DefaultInsaneMinTopMultiple,
	}
}

// Classify assigns exactly one tier. Insane is checked first, then safe;
// everything else is moderate.
func (t Thresholds) Classify(r model.RiskMetrics) model.Tier {
	if r.Volatility >= t.InsaneMinVolatility || r.TopPrizeMultiple >= t.InsaneMinTopMultiple {
		return model.TierInsane
	}
	if r.Volatility <= t.SafeMaxVolatility && r.TopPrizeMultiple <= t.SafeMaxTopMultiple {
		return model.TierSafe
	}
	return model.TierModerate
}
