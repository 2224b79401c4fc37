package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/snakedraft/internal/adapters/checkpoint"
	"github.com/okian/snakedraft/internal/app"
	"github.com/okian/snakedraft/internal/domain/draft"
	"github.com/okian/snakedraft/internal/domain/genome"
	"github.com/okian/snakedraft/internal/domain/model"
	"github.com/okian/snakedraft/internal/domain/scoring"
	"github.com/okian/snakedraft/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

func oneHot(idx int) []float64 {
	v := make([]float64, model.NumPositions)
	v[idx] = 1
	return v
}

func mustGenome(rounds ...[]float64) genome.Genome {
	g, err := genome.New(rounds)
	if err != nil {
		panic(err)
	}
	return g
}

func scenarioPool() []model.Athlete {
	return []model.Athlete{
		{Name: "A", Position: model.QB, Desirability: 10},
		{Name: "B", Position: model.WR, Desirability: 8},
		{Name: "C", Position: model.RB, Desirability: 6},
		{Name: "D", Position: model.PK, Desirability: 4},
	}
}

func testContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func TestRunner_Start(t *testing.T) {
	Convey("Given a runner with default options", t, func() {
		r := app.New(scenarioPool(), scoring.Lookup{"A": 20}, app.WithPopulationSize(2), app.WithSurvivors(1), app.WithRounds(1))
		ctx, cancel := testContext()
		defer cancel()
		defer r.Stop(ctx)

		Convey("When starting the runner", func() {
			err := r.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(r.GetStats()["started"], ShouldEqual, true)
			})

			Convey("And starting twice is a no-op", func() {
				So(r.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When running a generation before Initialize", func() {
			So(r.Start(ctx), ShouldBeNil)
			_, err := r.RunGeneration(ctx)

			Convey("Then it should report a missing population", func() {
				So(errors.Is(err, app.ErrNotInitialized), ShouldBeTrue)
			})
		})
	})

	Convey("Given a runner that was never started", t, func() {
		r := app.New(scenarioPool(), scoring.Lookup{})
		ctx, cancel := testContext()
		defer cancel()

		Convey("Then every operation reports it", func() {
			So(errors.Is(r.Initialize(ctx), app.ErrNotStarted), ShouldBeTrue)
			_, err := r.RunGeneration(ctx)
			So(errors.Is(err, app.ErrNotStarted), ShouldBeTrue)
			_, err = r.TopN(ctx, 1)
			So(errors.Is(err, app.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given invalid runner options", t, func() {
		ctx, cancel := testContext()
		defer cancel()

		Convey("When survivors exceed the population", func() {
			r := app.New(scenarioPool(), scoring.Lookup{}, app.WithPopulationSize(2), app.WithSurvivors(3))
			err := r.Start(ctx)

			Convey("Then Start should fail", func() {
				So(errors.Is(err, app.ErrInvalidArgument), ShouldBeTrue)
			})
		})

		Convey("When the pool repeats a name", func() {
			pool := append(scenarioPool(), model.Athlete{Name: "A", Position: model.TE, Desirability: 1})
			r := app.New(pool, scoring.Lookup{}, app.WithPopulationSize(2), app.WithSurvivors(1))
			err := r.Start(ctx)

			Convey("Then Start should fail", func() {
				So(errors.Is(err, app.ErrInvalidArgument), ShouldBeTrue)
				So(errors.Is(err, model.ErrMalformedAthlete), ShouldBeTrue)
			})
		})
	})
}

func TestRunner_ScenarioGeneration(t *testing.T) {
	Convey("Given the four-athlete scenario resumed into a runner", t, func() {
		ctx, cancel := testContext()
		defer cancel()

		var callbacks []int
		r := app.New(scenarioPool(), scoring.Lookup{"A": 20, "B": 5},
			app.WithPopulationSize(2),
			app.WithSurvivors(1),
			app.WithRounds(1),
			app.WithWorkerCount(2),
			app.WithOnGenerationComplete(func(_ context.Context, res app.GenerationResult) {
				callbacks = append(callbacks, res.Generation)
			}),
		)
		So(r.Start(ctx), ShouldBeNil)
		defer r.Stop(ctx)

		qb := mustGenome(oneHot(0))
		pk := mustGenome(oneHot(4))
		So(r.Resume(ctx, &checkpoint.Checkpoint{
			RunID:      "scenario",
			Seed:       7,
			Rounds:     1,
			Population: genome.Population{qb, pk},
		}), ShouldBeNil)

		Convey("When one generation runs", func() {
			res, err := r.RunGeneration(ctx)
			So(err, ShouldBeNil)

			Convey("Then rosters, lineups and fitness are index-aligned", func() {
				So(res.Generation, ShouldEqual, 0)
				So(res.Rosters[0][0].Name, ShouldEqual, "A")
				So(res.Rosters[1][0].Name, ShouldEqual, "D")
				So(res.Fitness, ShouldResemble, []float64{20, 0})
				So(res.Lineups[0].Total(), ShouldEqual, 20)
				So(res.Lineups[1].Total(), ShouldEqual, 0)
			})

			Convey("Then the stats summarize the generation", func() {
				So(res.Stats.BestFitness, ShouldEqual, 20)
				So(res.Stats.BestID, ShouldEqual, qb.ID)
				So(res.Stats.MeanFitness, ShouldEqual, 10)
				So(res.Stats.Picks, ShouldEqual, 2)
				So(r.History(), ShouldHaveLength, 1)
				So(r.Generation(), ShouldEqual, 1)
			})

			Convey("Then the hall of fame ranks the scored genomes", func() {
				top, err := r.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 2)
				So(top[0].StrategyID, ShouldEqual, qb.ID)
				So(top[0].Rank, ShouldEqual, 1)

				entry, err := r.Rank(ctx, pk.ID)
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 2)
				So(entry.Fitness, ShouldEqual, 0)

				best, err := r.Best(ctx)
				So(err, ShouldBeNil)
				So(best.StrategyID, ShouldEqual, qb.ID)
				So(best.Weights, ShouldResemble, [][]float64{oneHot(0)})
			})

			Convey("Then the next population is bred from the best genome only", func() {
				next := r.Population()
				So(next, ShouldHaveLength, 2)
				So(next.Validate(), ShouldBeNil)
			})

			Convey("Then the callback saw the generation", func() {
				So(callbacks, ShouldResemble, []int{0})
			})
		})
	})
}

func TestRunner_Errors(t *testing.T) {
	Convey("Given a pool too small for the draft", t, func() {
		ctx, cancel := testContext()
		defer cancel()

		r := app.New(scenarioPool(), scoring.Lookup{},
			app.WithPopulationSize(2),
			app.WithSurvivors(1),
			app.WithRounds(3),
			app.WithSeed(1),
		)
		So(r.Start(ctx), ShouldBeNil)
		defer r.Stop(ctx)
		So(r.Initialize(ctx), ShouldBeNil)

		Convey("When a generation runs", func() {
			_, err := r.RunGeneration(ctx)

			Convey("Then the draft stage fails with pool exhaustion", func() {
				var genErr *app.GenerationError
				So(errors.As(err, &genErr), ShouldBeTrue)
				So(genErr.Stage, ShouldEqual, app.StageDraft)
				So(genErr.Generation, ShouldEqual, 0)
				So(errors.Is(err, draft.ErrPoolExhausted), ShouldBeTrue)
				So(r.Generation(), ShouldEqual, 0)
				So(r.History(), ShouldBeEmpty)
			})

			Convey("Then nothing reaches the hall of fame", func() {
				top, err := r.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a resume with mismatched rounds", t, func() {
		ctx, cancel := testContext()
		defer cancel()

		r := app.New(scenarioPool(), scoring.Lookup{}, app.WithPopulationSize(2), app.WithSurvivors(1), app.WithRounds(2))
		So(r.Start(ctx), ShouldBeNil)
		defer r.Stop(ctx)

		err := r.Resume(ctx, &checkpoint.Checkpoint{
			Rounds:     1,
			Population: genome.Population{mustGenome(oneHot(0))},
		})

		Convey("Then the checkpoint is rejected", func() {
			So(errors.Is(err, app.ErrInvalidArgument), ShouldBeTrue)
		})
	})

	Convey("Given a resume whose population size differs from the runner", t, func() {
		ctx, cancel := testContext()
		defer cancel()

		r := app.New(scenarioPool(), scoring.Lookup{"A": 20},
			app.WithPopulationSize(3),
			app.WithSurvivors(3),
			app.WithRounds(1),
		)
		So(r.Start(ctx), ShouldBeNil)
		defer r.Stop(ctx)

		err := r.Resume(ctx, &checkpoint.Checkpoint{
			Seed:       7,
			Generation: 2,
			Rounds:     1,
			Population: genome.Population{mustGenome(oneHot(0)), mustGenome(oneHot(4))},
		})

		Convey("Then the checkpoint is rejected before any state changes", func() {
			So(errors.Is(err, app.ErrInvalidArgument), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "2 genomes")
			So(r.Generation(), ShouldEqual, 0)
			So(r.Population(), ShouldBeEmpty)

			_, runErr := r.RunGeneration(ctx)
			So(errors.Is(runErr, app.ErrNotInitialized), ShouldBeTrue)

			top, topErr := r.TopN(ctx, 10)
			So(topErr, ShouldBeNil)
			So(top, ShouldBeEmpty)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := testContext()
		defer cancel()

		r := app.New(scenarioPool(), scoring.Lookup{}, app.WithPopulationSize(2), app.WithSurvivors(1), app.WithRounds(1), app.WithSeed(1))
		So(r.Start(ctx), ShouldBeNil)
		defer r.Stop(ctx)
		So(r.Initialize(ctx), ShouldBeNil)

		runCtx, runCancel := context.WithCancel(ctx)
		runCancel()

		Convey("Then Run stops before the first generation", func() {
			So(errors.Is(r.Run(runCtx, 3), context.Canceled), ShouldBeTrue)
			So(r.Generation(), ShouldEqual, 0)
		})
	})
}
