package app_test

import (
	"sort"
	"testing"

	"github.com/okian/snakedraft/internal/adapters/checkpoint"
	"github.com/okian/snakedraft/internal/app"
	"github.com/okian/snakedraft/internal/domain/types"
	"github.com/okian/snakedraft/internal/fixtures"
	. "github.com/smartystreets/goconvey/convey"
)

func fixtureRunner(seed int64, workers int, opts ...app.Option) *app.Runner {
	pool, lookup, err := fixtures.Generate(fixtures.Config{Seed: 11, Size: 240, MissingRate: 0.1, Noise: 4})
	if err != nil {
		panic(err)
	}
	base := []app.Option{
		app.WithPopulationSize(12),
		app.WithRounds(15),
		app.WithSurvivors(4),
		app.WithSeed(seed),
		app.WithWorkerCount(workers),
		app.WithQueueSize(16),
	}
	return app.New(pool, lookup, append(base, opts...)...)
}

func fitnessTrace(h []types.GenerationStats) [][2]float64 {
	out := make([][2]float64, len(h))
	for i, s := range h {
		out[i] = [2]float64{s.BestFitness, s.MeanFitness}
	}
	return out
}

func TestRunner_Integration(t *testing.T) {
	Convey("Given two runners over the same synthetic pool and seed", t, func() {
		ctx, cancel := testContext()
		defer cancel()

		single := fixtureRunner(99, 1)
		parallel := fixtureRunner(99, 4)
		for _, r := range []*app.Runner{single, parallel} {
			So(r.Start(ctx), ShouldBeNil)
			So(r.Initialize(ctx), ShouldBeNil)
		}
		defer single.Stop(ctx)
		defer parallel.Stop(ctx)

		Convey("When both run five generations", func() {
			So(single.Run(ctx, 5), ShouldBeNil)
			So(parallel.Run(ctx, 5), ShouldBeNil)

			Convey("Then the fitness trace does not depend on worker count", func() {
				So(fitnessTrace(single.History()), ShouldResemble, fitnessTrace(parallel.History()))
			})

			Convey("Then every generation drafted the full population", func() {
				for i, s := range single.History() {
					So(s.Generation, ShouldEqual, i)
					So(s.Picks, ShouldEqual, 12*15)
					So(s.BestFitness, ShouldBeGreaterThanOrEqualTo, s.MeanFitness)
				}
			})

			Convey("Then the hall of fame is ordered by fitness", func() {
				top, err := single.TopN(ctx, 20)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 20)
				So(sort.SliceIsSorted(top, func(i, j int) bool { return top[i].Fitness > top[j].Fitness }), ShouldBeTrue)

				best := 0.0
				for _, s := range single.History() {
					if s.BestFitness > best {
						best = s.BestFitness
					}
				}
				So(top[0].Fitness, ShouldEqual, best)

				st, err := single.Strategy(ctx, top[0].StrategyID)
				So(err, ShouldBeNil)
				So(st.Weights, ShouldHaveLength, 15)
				So(st.Rank, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a runner that checkpoints to disk", t, func() {
		ctx, cancel := testContext()
		defer cancel()

		store := checkpoint.NewFileStore(t.TempDir())
		r := fixtureRunner(5, 2, app.WithCheckpointStore(store, 2))
		So(r.Start(ctx), ShouldBeNil)
		defer r.Stop(ctx)
		So(r.Initialize(ctx), ShouldBeNil)

		Convey("When it runs four generations", func() {
			So(r.Run(ctx, 4), ShouldBeNil)

			cp, err := store.Latest(ctx)
			So(err, ShouldBeNil)

			Convey("Then the latest checkpoint holds the next population", func() {
				So(cp.Generation, ShouldEqual, 4)
				So(cp.Seed, ShouldEqual, 5)
				So(cp.History, ShouldHaveLength, 4)
				So(cp.Population, ShouldHaveLength, 12)
				So(cp.Population[0].ID, ShouldEqual, r.Population()[0].ID)
			})

			Convey("Then a new runner resumes from it", func() {
				resumed := fixtureRunner(0, 2)
				So(resumed.Start(ctx), ShouldBeNil)
				defer resumed.Stop(ctx)
				So(resumed.Resume(ctx, cp), ShouldBeNil)
				So(resumed.Generation(), ShouldEqual, 4)

				res, err := resumed.RunGeneration(ctx)
				So(err, ShouldBeNil)
				So(res.Generation, ShouldEqual, 4)
				So(resumed.History(), ShouldHaveLength, 5)
				So(resumed.GetStats()["seed"], ShouldEqual, int64(5))
			})
		})
	})
}
