// Command seed loads a synthetic catalog into a running lottoheat service
// and checks the results it serves.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/lottoheat/internal/seeder"
	"github.com/okian/lottoheat/pkg/logger"
)

// Default configuration constants.
const (
	defaultStores   = 200
	defaultGames    = 40
	defaultWins     = 2000
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
	defaultRate     = 15
	defaultTimeout  = 30 * time.Second
	defaultSettle   = 30 * time.Second
	defaultDeadline = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		stores  = flag.Int("stores", defaultStores, "Stores to generate")
		games   = flag.Int("games", defaultGames, "Games to generate")
		wins    = flag.Int("wins", defaultWins, "Win reports to submit")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent submitters")
		rate    = flag.Float64("rate", defaultRate, "Client-side submissions per second, 0 for unlimited")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle  = flag.Duration("settle", defaultSettle, "Time to wait for recomputes to finish")
		budget  = flag.String("budget", "20", "Budget for the recommendation check")
		seed    = flag.Int64("seed", 1, "Generator seed")
		output  = flag.String("output", "", "Save the generated dataset as JSON")
		format  = flag.String("format", logger.FormatText, "Log format, text or json")
		verbose = flag.Bool("verbose", false, "Log every refused submission")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seeder.ShowHelp()
		return
	}

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultDeadline)
	defer cancel()

	cfg := &seeder.Config{
		BaseURL:    *baseURL,
		Stores:     *stores,
		Games:      *games,
		Wins:       *wins,
		Workers:    *workers,
		Rate:       *rate,
		Timeout:    *timeout,
		Settle:     *settle,
		Budget:     *budget,
		Seed:       *seed,
		OutputFile: *output,
		Verbose:    *verbose,
	}
	if err := seeder.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "seeding failed", logger.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
}
