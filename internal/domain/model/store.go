// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StoreCategory classifies a retail location.
type StoreCategory string

// Known store categories.
const (
	CategoryGasStation  StoreCategory = "gas_station"
	CategoryConvenience StoreCategory = "convenience"
	CategoryGrocery     StoreCategory = "grocery"
	CategoryLiquor      StoreCategory = "liquor"
	CategoryOther       StoreCategory = "other"
)

// ParseStoreCategory maps a free-form category to a known one.
// Unknown values map to CategoryOther.
func ParseStoreCategory(s string) StoreCategory {
	switch StoreCategory(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryGasStation:
		return CategoryGasStation
	case CategoryConvenience:
		return CategoryConvenience
	case CategoryGrocery:
		return CategoryGrocery
	case CategoryLiquor:
		return CategoryLiquor
	default:
		return CategoryOther
	}
}

// StoreLocation is immutable reference data for a lottery retailer.
type StoreLocation struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Category  StoreCategory `json:"category"`
}

// StoreHeatScore aggregates every win reported at one store.
// It is derived on demand and never stored as a source of truth.
type StoreHeatScore struct {
	StoreID     string          `json:"store_id"`
	Score       float64         `json:"score"` // always within [0, 100]
	TotalWins   int             `json:"total_wins"`
	TotalPayout decimal.Decimal `json:"total_payout"`
	RecentWins  int             `json:"recent_wins"`
	BigWins     int             `json:"big_wins"`
	WinStreak   int             `json:"win_streak"`
	LastWinDate *time.Time      `json:"last_win_date,omitempty"`
	HotGames    []string        `json:"hot_games"`

	// Version is the catalog sequence of the records the score was computed
	// from. The leaderboard keeps the highest version it has seen.
	Version uint64 `json:"-"`
}
