package seeder

import "os"

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`lottoheat seed tool
===================

Generates stores, scratch-off games, and win reports, loads them into a
running service, and checks the hot-store leaderboard and recommendations.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -stores int        Stores to generate (default 200)
  -games int         Games to generate (default 40)
  -wins int          Win reports to submit (default 2000)
  -workers int       Concurrent submitters (default CPU cores * 2)
  -rate float        Client-side submissions per second, 0 for unlimited (default 15)
  -timeout duration  HTTP request timeout (default 30s)
  -settle duration   Time to wait for recomputes to finish (default 30s)
  -budget string     Budget for the recommendation check (default "20")
  -seed int          Generator seed (default 1)
  -output string     Save the generated dataset as JSON
  -format string     Log format, text or json (default "text")
  -verbose           Log every refused submission
  -help              Show this help message

Examples:
  go run ./cmd/seed -wins 10000 -rate 0 -url http://localhost:8080
  go run ./cmd/seed -seed 42 -output data/seed42.json
`)
}
