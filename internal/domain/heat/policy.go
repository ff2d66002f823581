package heat

import (
	"time"

	"github.com/shopspring/decimal"
)

// Default policy constants.
const (
	defaultRecentWindow    = 30 * 24 * time.Hour
	defaultStreakGap       = 24 * time.Hour
	defaultBigWinThreshold = 1000
	defaultHotGameMinWins  = 2
)

// Policy holds the thresholds and caps of the heat formula:
//
//	score = clamp(min(recent*10, 40) + min(payout/10000, 30) + min(big*5, 20) + min(streak*2, 10), 0, 100)
type Policy struct {
	RecentWindow    time.Duration
	StreakGap       time.Duration
	BigWinThreshold decimal.Decimal
	HotGameMinWins  int

	RecentWinPoints float64
	RecencyCap      float64
	PayoutDivisor   float64
	PayoutCap       float64
	BigWinPoints    float64
	BigWinCap       float64
	StreakPoints    float64
	StreakCap       float64
}

// DefaultPolicy returns the standard heat formula.
func DefaultPolicy() Policy {
	return Policy{
		RecentWindow:    defaultRecentWindow,
		StreakGap:       defaultStreakGap,
		BigWinThreshold: decimal.NewFromInt(defaultBigWinThreshold),
		HotGameMinWins:  defaultHotGameMinWins,
		RecentWinPoints: 10,
		RecencyCap:      40,
		PayoutDivisor:   10000,
		PayoutCap:       30,
		BigWinPoints:    5,
		BigWinCap:       20,
		StreakPoints:    2,
		StreakCap:       10,
	}
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithRecentWindow sets how far back a win counts as recent.
func WithRecentWindow(window time.Duration) Option {
	return func(c *Calculator) {
		if window > 0 {
			c.policy.RecentWindow = window
		}
	}
}

// WithStreakGap sets the maximum gap between consecutive streak wins.
func WithStreakGap(gap time.Duration) Option {
	return func(c *Calculator) {
		if gap > 0 {
			c.policy.StreakGap = gap
		}
	}
}

// WithBigWinThreshold sets the prize amount from which a win counts as big.
func WithBigWinThreshold(threshold decimal.Decimal) Option {
	return func(c *Calculator) {
		if threshold.IsPositive() {
			c.policy.BigWinThreshold = threshold
		}
	}
}
