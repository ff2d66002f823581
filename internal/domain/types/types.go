// Package types contains request and response shapes shared by the service
// and the HTTP API.
package types

import (
	"time"

	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/shopspring/decimal"
)

// HotStore is one row of the hot-store leaderboard.
type HotStore struct {
	Rank        int                 `json:"rank"`
	StoreID     string              `json:"store_id"`
	Name        string              `json:"name,omitempty"`
	Category    model.StoreCategory `json:"category,omitempty"`
	Latitude    float64             `json:"latitude"`
	Longitude   float64             `json:"longitude"`
	Score       float64             `json:"score"`
	TotalWins   int                 `json:"total_wins"`
	RecentWins  int                 `json:"recent_wins"`
	BigWins     int                 `json:"big_wins"`
	WinStreak   int                 `json:"win_streak"`
	TotalPayout decimal.Decimal     `json:"total_payout"`
	LastWinDate *time.Time          `json:"last_win_date,omitempty"`
	HotGames    []string            `json:"hot_games"`
	DistanceKM  *float64            `json:"distance_km,omitempty"`
}

// WinSubmission is a reported win as received from a client. PrizeAmount
// and WinDate are kept as text so malformed values can be handled by the
// service rather than the decoder.
type WinSubmission struct {
	ID          string `json:"id,omitempty"`
	StoreID     string `json:"store_id"`
	GameID      string `json:"game_id"`
	GameName    string `json:"game_name"`
	PrizeAmount string `json:"prize_amount"`
	WinDate     string `json:"win_date"`
}

// GameAnalysis is the detailed evaluation of one game.
type GameAnalysis struct {
	model.Recommendation
	Tickets        int64            `json:"tickets"`
	WinChance      float64          `json:"win_chance"`
	SuggestedStake *decimal.Decimal `json:"suggested_stake,omitempty"`
}
