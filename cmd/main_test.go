package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/snakedraft/internal/adapters/checkpoint"
	app "github.com/okian/snakedraft/internal/app"
	"github.com/okian/snakedraft/internal/config"
	"github.com/okian/snakedraft/internal/domain/draft"
	"github.com/okian/snakedraft/internal/domain/types"
	"github.com/okian/snakedraft/internal/fixtures"
	"github.com/okian/snakedraft/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	athletes, perf, err := fixtures.WriteFiles(dir, fixtures.Config{Seed: 3, Size: 200, MissingRate: 0.1, Noise: 4})
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.New(context.Background())
	cfg.AthletesPath = athletes
	cfg.PerformancePath = perf
	cfg.PopulationSize = 6
	cfg.Rounds = 10
	cfg.Survivors = 2
	cfg.Generations = 3
	cfg.Seed = 17
	cfg.WorkerCount = 2
	return cfg
}

func TestRun(t *testing.T) {
	convey.Convey("Given a configuration over generated data", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cfg := testConfig(t)

		convey.Convey("When running without an address", func() {
			var out bytes.Buffer
			err := run(ctx, cfg, false, &out)

			convey.Convey("Then it finishes and prints the best strategy", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldStartWith, "best strategy ")
				lines := strings.Split(strings.TrimSpace(out.String()), "\n")
				convey.So(lines, convey.ShouldHaveLength, 2+cfg.Rounds)
			})
		})

		convey.Convey("When checkpoints are enabled and the run is resumed", func() {
			cfg.CheckpointDir = filepath.Join(t.TempDir(), "ckpt")
			cfg.CheckpointEvery = 1
			convey.So(run(ctx, cfg, false, &bytes.Buffer{}), convey.ShouldBeNil)

			cfg.Generations = 5
			convey.So(run(ctx, cfg, true, &bytes.Buffer{}), convey.ShouldBeNil)

			convey.Convey("Then the latest checkpoint covers every generation", func() {
				cp, err := checkpoint.NewFileStore(cfg.CheckpointDir).Latest(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cp.Generation, convey.ShouldEqual, 5)
				convey.So(cp.History, convey.ShouldHaveLength, 5)
			})
		})

		convey.Convey("When the run is interrupted before its generations finish", func() {
			cfg.CheckpointDir = filepath.Join(t.TempDir(), "ckpt")
			cfg.CheckpointEvery = 1
			interrupted, stop := context.WithCancel(ctx)
			stop()

			var out bytes.Buffer
			err := run(interrupted, cfg, false, &out)

			convey.Convey("Then the cancellation is returned instead of success", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
				convey.So(out.String(), convey.ShouldBeEmpty)
			})

			convey.Convey("Then the unfinished run is still checkpointed for resume", func() {
				cp, cpErr := checkpoint.NewFileStore(cfg.CheckpointDir).Latest(ctx)
				convey.So(cpErr, convey.ShouldBeNil)
				convey.So(cp.Generation, convey.ShouldEqual, 0)
				convey.So(cp.Population, convey.ShouldHaveLength, cfg.PopulationSize)
			})
		})

		convey.Convey("When the athlete file is missing", func() {
			cfg.AthletesPath = filepath.Join(t.TempDir(), "missing.csv")

			convey.Convey("Then run fails", func() {
				convey.So(run(ctx, cfg, false, &bytes.Buffer{}), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the pool cannot fill every roster", func() {
			cfg.Rounds = 40

			convey.Convey("Then the draft failure names the generation", func() {
				err := run(ctx, cfg, false, &bytes.Buffer{})
				var genErr *app.GenerationError
				convey.So(errors.As(err, &genErr), convey.ShouldBeTrue)
				convey.So(genErr.Stage, convey.ShouldEqual, app.StageDraft)
				convey.So(errors.Is(err, draft.ErrPoolExhausted), convey.ShouldBeTrue)
				convey.So(len(errorFields(err)), convey.ShouldEqual, 5)
			})
		})
	})
}

func TestPrepare(t *testing.T) {
	convey.Convey("Given a resume request with an empty checkpoint store", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.CheckpointDir = t.TempDir()
		store, closeStore := newCheckpointStore(cfg)
		defer closeStore()

		runner := app.New(nil, nil, app.WithPopulationSize(2), app.WithSurvivors(1), app.WithRounds(1))
		convey.So(runner.Start(ctx), convey.ShouldBeNil)
		defer runner.Stop(ctx)

		convey.Convey("Then a fresh population is created", func() {
			convey.So(prepare(ctx, runner, store, true), convey.ShouldBeNil)
			convey.So(runner.Population(), convey.ShouldHaveLength, 2)
			convey.So(runner.Generation(), convey.ShouldEqual, 0)
		})
	})
}

func TestNewCheckpointStore(t *testing.T) {
	convey.Convey("Given checkpoint settings", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then no settings means no store", func() {
			store, closeStore := newCheckpointStore(cfg)
			defer closeStore()
			convey.So(store, convey.ShouldBeNil)
		})

		convey.Convey("Then a directory selects the file store", func() {
			cfg.CheckpointDir = t.TempDir()
			store, closeStore := newCheckpointStore(cfg)
			defer closeStore()
			_, ok := store.(*checkpoint.FileStore)
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("Then a Redis address takes precedence", func() {
			cfg.CheckpointDir = t.TempDir()
			cfg.RedisAddr = "127.0.0.1:1"
			store, closeStore := newCheckpointStore(cfg)
			defer closeStore()
			rs, ok := store.(*checkpoint.RedisStore)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(rs.LatestKey(), convey.ShouldEqual, "snakedraft:latest")
		})
	})
}

func TestPrintStrategy(t *testing.T) {
	convey.Convey("Given a two-round strategy", t, func() {
		st := types.Strategy{
			Entry:   types.Entry{Rank: 1, StrategyID: "abc", Generation: 4, Fitness: 101.256},
			Weights: [][]float64{{1, 0, 0, 0, 0, 0}, {0, 0.5, 0.5, 0, 0, 0}},
		}
		var out bytes.Buffer
		printStrategy(&out, st)
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")

		convey.Convey("Then a header and one row per round are printed", func() {
			convey.So(lines, convey.ShouldHaveLength, 4)
			convey.So(lines[0], convey.ShouldEqual, "best strategy abc (generation 4, fitness 101.26)")
			convey.So(lines[1], convey.ShouldContainSubstring, "QB")
			convey.So(lines[1], convey.ShouldContainSubstring, "DEF")
			convey.So(lines[2], convey.ShouldStartWith, "    1  1.000")
			convey.So(lines[3], convey.ShouldContainSubstring, "0.500")
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then it returns when the context ends", func() {
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
