// Package repository holds the in-memory state of the service: the hot-store
// leaderboard and the catalog of stores, games, and win records.
package repository

import (
	"context"

	"github.com/okian/lottoheat/internal/domain/model"
)

// Entry is one leaderboard row. Stores with equal scores share a rank.
type Entry struct {
	Rank int
	Heat model.StoreHeatScore
}

// Leaderboard orders stores by heat score.
type Leaderboard interface {
	// Upsert sets the store's current score unless the stored one was
	// computed from a newer catalog version.
	Upsert(ctx context.Context, heat model.StoreHeatScore) error

	// Remove drops the store. It reports whether the store was present.
	Remove(ctx context.Context, storeID string) bool

	// Rank returns the current rank and score for a store.
	// Returns ErrNotFound if the store is unknown.
	Rank(ctx context.Context, storeID string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc, store id asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of stores on the leaderboard.
	Count(ctx context.Context) int
}
