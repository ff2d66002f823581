package model

import (
	"github.com/shopspring/decimal"
)

// Tier is a risk-appetite bucket.
type Tier string

// Recommendation tiers.
const (
	TierSafe     Tier = "safe"
	TierModerate Tier = "moderate"
	TierInsane   Tier = "insane"
)

// EVResult holds the expected value of one ticket.
type EVResult struct {
	// ExpectedPayout is Σ amount × P(amount) on the remaining pool.
	ExpectedPayout float64 `json:"expected_payout"`
	// RawEV uses the full print run, i.e. the printed odds.
	RawEV float64 `json:"raw_ev"`
	// AdjustedEV is the net expected gain per ticket on the remaining pool.
	AdjustedEV float64 `json:"adjusted_ev"`
	// ReturnRate is ExpectedPayout / price.
	ReturnRate float64 `json:"return_rate"`
}

// RiskMetrics describes the payout distribution of one ticket.
type RiskMetrics struct {
	Variance         float64 `json:"variance"`
	StdDev           float64 `json:"std_dev"`
	Volatility       float64 `json:"volatility"` // StdDev per unit of ticket price
	SharpeRatio      float64 `json:"sharpe_ratio"`
	WinRate          float64 `json:"win_rate"`
	TopPrize         float64 `json:"top_prize"`
	TopPrizeMultiple float64 `json:"top_prize_multiple"`
	KellyFraction    float64 `json:"kelly_fraction"`
	KellyStake       float64 `json:"kelly_stake"`
}

// SuggestedStake converts the fractional Kelly stake into currency for the
// given bankroll, rounded down to cents. Non-positive bankrolls yield zero.
func (r RiskMetrics) SuggestedStake(bankroll decimal.Decimal) decimal.Decimal {
	if !bankroll.IsPositive() || r.KellyStake <= 0 {
		return decimal.Zero
	}
	return bankroll.Mul(decimal.NewFromFloat(r.KellyStake)).RoundFloor(2)
}

// Recommendation is a ranked game with its analytics and placement reasons.
type Recommendation struct {
	Game    Game        `json:"game"`
	EV      EVResult    `json:"ev"`
	Risk    RiskMetrics `json:"risk"`
	Tier    Tier        `json:"tier"`
	Reasons []string    `json:"reasons"`
}

// Recommendations buckets ranked games by tier.
type Recommendations struct {
	Safe     []Recommendation `json:"safe"`
	Moderate []Recommendation `json:"moderate"`
	Insane   []Recommendation `json:"insane"`
}

// Len returns the number of recommendations across all tiers.
func (r Recommendations) Len() int {
	return len(r.Safe) + len(r.Moderate) + len(r.Insane)
}
