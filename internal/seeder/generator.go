package seeder

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/okian/lottoheat/internal/domain/model"
	"github.com/okian/lottoheat/internal/domain/types"
	"github.com/shopspring/decimal"
)

// Catalog area and shape constants.
const (
	centerLat      = 40.7128
	centerLon      = -74.0060
	spreadDegrees  = 0.5
	winHistoryDays = 60
	duplicateRatio = 0.02
	undatedRatio   = 0.03
	minOdds        = 3.0
	oddsRange      = 2.0
	minPrintRun    = 100_000
	printRunRange  = 900_000
	minRemaining   = 0.1
	remainingRange = 0.8
	tierShareDecay = 0.35
)

// seedNamespace keeps generated ids stable for a given seed.
var seedNamespace = uuid.MustParse("7b0c3f55-0a39-4b9c-9a55-0f1f3e6b8c21") //nolint:gochecknoglobals // constant namespace

//nolint:gochecknoglobals // read-only tables
var (
	ticketPrices  = []int64{1, 2, 3, 5, 10, 20, 30, 50}
	tierMultiples = []int64{1, 2, 5, 10, 50, 100, 1000}
	topMultiples  = []int64{500, 2000, 5000, 20_000, 100_000, 250_000}
	gameWords     = []string{"Lucky", "Cash", "Gold", "Diamond", "Jackpot", "Wild", "Triple", "Mega"}

	storeCategories = []model.StoreCategory{
		model.CategoryGasStation,
		model.CategoryConvenience,
		model.CategoryGrocery,
		model.CategoryLiquor,
		model.CategoryOther,
	}
)

// Generator produces a reproducible dataset from a seed.
type Generator struct {
	rng  *rand.Rand
	seed int64
	now  time.Time
}

// NewGenerator creates a generator. Wins are dated relative to now.
func NewGenerator(seed int64, now time.Time) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), seed: seed, now: now.UTC()} //nolint:gosec // synthetic data
}

func (g *Generator) id(kind string, i int) string {
	return uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("%s-%d-%d", kind, g.seed, i))).String()
}

// Generate builds stores, games, and wins. Roughly two percent of the wins
// reuse an earlier id and a few carry an unreadable date.
func (g *Generator) Generate(stores, games, wins int) Dataset {
	ds := Dataset{
		Stores: g.Stores(stores),
		Games:  g.Games(games),
	}
	ds.Wins = g.Wins(ds.Stores, ds.Games, wins)
	return ds
}

// Stores places n stores around the catalog center.
func (g *Generator) Stores(n int) []model.StoreLocation {
	out := make([]model.StoreLocation, n)
	for i := range out {
		out[i] = model.StoreLocation{
			ID:        g.id("store", i),
			Name:      fmt.Sprintf("Store %03d", i+1),
			Latitude:  centerLat + (g.rng.Float64()*2-1)*spreadDegrees,
			Longitude: centerLon + (g.rng.Float64()*2-1)*spreadDegrees,
			Category:  storeCategories[g.rng.Intn(len(storeCategories))],
		}
	}
	return out
}

// Games builds n games with geometric prize tiers and a partly claimed pool.
func (g *Generator) Games(n int) []model.Game {
	out := make([]model.Game, n)
	for i := range out {
		price := ticketPrices[g.rng.Intn(len(ticketPrices))]
		odds := math.Round((minOdds+g.rng.Float64()*oddsRange)*100) / 100
		printRun := minPrintRun + g.rng.Int63n(printRunRange)
		winners := int64(float64(printRun) / odds)
		remainingFrac := minRemaining + g.rng.Float64()*remainingRange

		multiples := append(append([]int64(nil), tierMultiples...), topMultiples[g.rng.Intn(len(topMultiples))])
		tiers := make([]model.PrizeTier, 0, len(multiples))
		left := winners
		for t, m := range multiples {
			count := int64(float64(left) * (1 - tierShareDecay))
			if t == len(multiples)-1 || count < 1 {
				count = max(1, left)
			}
			left -= count
			remaining := int64(math.Round(float64(count) * remainingFrac * (0.8 + 0.4*g.rng.Float64())))
			tiers = append(tiers, model.PrizeTier{
				Amount:         decimal.NewFromInt(price * m),
				TotalCount:     count,
				RemainingCount: min(remaining, count),
			})
			if left <= 0 {
				break
			}
		}

		status := model.GameActive
		if remainingFrac < 0.2 {
			status = model.GameEnding
		}
		out[i] = model.Game{
			ID:          g.id("game", i),
			Name:        fmt.Sprintf("%s %s %d", gameWords[g.rng.Intn(len(gameWords))], gameWords[g.rng.Intn(len(gameWords))], i+1),
			Price:       decimal.NewFromInt(price),
			OverallOdds: odds,
			Status:      status,
			PrizeTiers:  tiers,
		}
	}
	return out
}

// Wins reports n wins. Stores early in the list win more often so the
// leaderboard has a clear head.
func (g *Generator) Wins(stores []model.StoreLocation, games []model.Game, n int) []types.WinSubmission {
	if len(stores) == 0 {
		return nil
	}
	out := make([]types.WinSubmission, n)
	for i := range out {
		store := stores[int(float64(len(stores))*math.Pow(g.rng.Float64(), 2))]
		w := types.WinSubmission{
			ID:          g.id("win", i),
			StoreID:     store.ID,
			PrizeAmount: "1",
			WinDate:     g.now.Add(-time.Duration(g.rng.Int63n(int64(winHistoryDays * 24 * time.Hour)))).Format(time.RFC3339),
		}
		if len(games) > 0 {
			game := games[g.rng.Intn(len(games))]
			w.GameID = game.ID
			w.GameName = game.Name
			w.PrizeAmount = g.prize(game).String()
		}
		if g.rng.Float64() < undatedRatio {
			w.WinDate = "unknown"
		}
		if i > 0 && g.rng.Float64() < duplicateRatio {
			w.ID = out[g.rng.Intn(i)].ID
		}
		out[i] = w
	}
	return out
}

// prize picks a tier amount, low tiers far more often than high ones.
func (g *Generator) prize(game model.Game) decimal.Decimal {
	if len(game.PrizeTiers) == 0 {
		return game.Price
	}
	idx := int(float64(len(game.PrizeTiers)) * math.Pow(g.rng.Float64(), 3))
	return game.PrizeTiers[idx].Amount
}

// DistinctWinIDs returns how many unique ids the wins carry.
func DistinctWinIDs(wins []types.WinSubmission) int {
	seen := make(map[string]struct{}, len(wins))
	for _, w := range wins {
		seen[w.ID] = struct{}{}
	}
	return len(seen)
}
