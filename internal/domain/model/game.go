package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// GameStatus is the sales status of a scratch-off game.
type GameStatus string

// Known game statuses.
const (
	GameActive GameStatus = "active"
	GameEnding GameStatus = "ending"
	GameEnded  GameStatus = "ended"
)

// ParseGameStatus maps a free-form status to a known one; unknown means active.
func ParseGameStatus(s string) GameStatus {
	switch GameStatus(strings.ToLower(strings.TrimSpace(s))) {
	case GameEnding:
		return GameEnding
	case GameEnded:
		return GameEnded
	default:
		return GameActive
	}
}

// PrizeTier is one prize level of a game's print run.
type PrizeTier struct {
	Amount         decimal.Decimal `json:"amount"`
	TotalCount     int64           `json:"total_count"`
	RemainingCount int64           `json:"remaining_count"`
}

// Game is read-only reference data owned by ingestion.
type Game struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	OverallOdds float64         `json:"overall_odds"` // "1 in X", X >= 1
	Status      GameStatus      `json:"status"`
	PrizeTiers  []PrizeTier     `json:"prize_tiers"`
}

// TopPrize returns the largest tier amount, or zero without tiers.
func (g Game) TopPrize() decimal.Decimal {
	top := decimal.Zero
	for _, t := range g.PrizeTiers {
		if t.Amount.GreaterThan(top) {
			top = t.Amount
		}
	}
	return top
}
