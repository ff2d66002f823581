// Package seeder generates a synthetic catalog of stores, games, and wins,
// loads it into a running lottoheat service, and checks the leaderboard and
// recommendations it gets back.
package seeder

import (
	"time"

	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/okian/lottoheat/internal/domain/types"
)

// Config holds seeding parameters.
type Config struct {
	BaseURL    string        // base URL of the service
	Stores     int           // stores to generate
	Games      int           // games to generate
	Wins       int           // win submissions to generate
	Workers    int           // concurrent submitters
	Rate       float64       // client-side submissions per second, 0 for unlimited
	Timeout    time.Duration // per-request timeout
	Settle     time.Duration // how long to wait for the recompute queue to drain
	Budget     string        // budget for the recommendation check
	Seed       int64         // generator seed
	OutputFile string        // where to save the generated dataset, empty to skip
	Verbose    bool
}

// Dataset is everything the generator produced.
type Dataset struct {
	Stores []model.StoreLocation `json:"stores"`
	Games  []model.Game          `json:"games"`
	Wins   []types.WinSubmission `json:"wins"`
}

// Stats holds run statistics.
type Stats struct {
	WinsSubmitted int
	WinsCreated   int
	WinsDuplicate int
	WinsRejected  int
	WinsFailed    int
	RanksChecked  int
	HotStores     int
	Recommended   int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
