// Command gen-pool writes a synthetic athlete table and performance table
// that the optimizer can load.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/okian/snakedraft/internal/fixtures"
	"github.com/okian/snakedraft/pkg/logger"
)

func main() {
	def := fixtures.DefaultConfig()
	var (
		out     = flag.String("out", "data", "Output directory")
		seed    = flag.Int64("seed", def.Seed, "Random seed")
		size    = flag.Int("size", def.Size, "Number of athletes")
		missing = flag.Float64("missing", def.MissingRate, "Share of athletes left out of the performance table")
		noise   = flag.Float64("noise", def.Noise, "Stddev of weekly points around expectation")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	ctx := context.Background()
	log := logger.Named("gen-pool")

	athletes, perf, err := fixtures.WriteFiles(*out, fixtures.Config{
		Seed:        *seed,
		Size:        *size,
		MissingRate: *missing,
		Noise:       *noise,
	})
	if err != nil {
		log.Fatal(ctx, "failed to generate pool", logger.Error(err))
	}
	log.Info(ctx, "pool written",
		logger.String("athletes", athletes),
		logger.String("performance", perf),
		logger.Int("size", *size),
		logger.Int64("seed", *seed),
	)
}
