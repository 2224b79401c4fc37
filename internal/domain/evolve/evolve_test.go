package evolve_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/snakedraft/internal/domain/evolve"
	"github.com/okian/snakedraft/internal/domain/genome"
	"github.com/okian/snakedraft/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/floats"
)

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

func TestSelectSurvivors(t *testing.T) {
	Convey("Given a population with tied fitness values", t, func() {
		pop := genome.Population{
			mustGenome(oneHot(0)),
			mustGenome(oneHot(1)),
			mustGenome(oneHot(2)),
			mustGenome(oneHot(3)),
			mustGenome(oneHot(4)),
		}
		fitness := []float64{5, 9, 9, 1, 5}

		Convey("When ranking it", func() {
			Convey("Then ties keep population order", func() {
				So(evolve.Ranking(fitness), ShouldResemble, []int{1, 2, 0, 4, 3})
			})
		})

		Convey("When selecting three survivors repeatedly", func() {
			first, err := evolve.SelectSurvivors(pop, fitness, 3)
			So(err, ShouldBeNil)
			second, err := evolve.SelectSurvivors(pop, fitness, 3)
			So(err, ShouldBeNil)

			Convey("Then the same genomes come back best first", func() {
				So(first, ShouldHaveLength, 3)
				So(first[0].ID, ShouldEqual, pop[1].ID)
				So(first[1].ID, ShouldEqual, pop[2].ID)
				So(first[2].ID, ShouldEqual, pop[0].ID)
				for i := range first {
					So(second[i].ID, ShouldEqual, first[i].ID)
				}
			})
		})

		Convey("When the arguments are invalid", func() {
			_, zero := evolve.SelectSurvivors(pop, fitness, 0)
			_, tooMany := evolve.SelectSurvivors(pop, fitness, 6)
			_, short := evolve.SelectSurvivors(pop, fitness[:4], 2)
			_, nan := evolve.SelectSurvivors(pop, []float64{1, 2, math.NaN(), 4, 5}, 2)

			Convey("Then each is rejected", func() {
				for _, err := range []error{zero, tooMany, short, nan} {
					So(errors.Is(err, evolve.ErrInvalidArgument), ShouldBeTrue)
				}
			})
		})
	})
}

func TestAdvanceGeneration(t *testing.T) {
	Convey("Given a random population", t, func() {
		pop, err := genome.CreatePopulation(rand.New(rand.NewSource(5)), 12, 4)
		So(err, ShouldBeNil)
		fitness := make([]float64, len(pop))
		for i := range fitness {
			fitness[i] = float64(i % 5)
		}

		Convey("When advancing with mutation", func() {
			next, err := evolve.AdvanceGeneration(rand.New(rand.NewSource(9)), pop, fitness, 10, 1.0, 4)

			Convey("Then every child round is normalized", func() {
				So(err, ShouldBeNil)
				So(next, ShouldHaveLength, 10)
				So(next.Validate(), ShouldBeNil)
				for _, g := range next {
					for _, v := range g.Rounds {
						So(math.Abs(floats.Sum(v)-1), ShouldBeLessThanOrEqualTo, genome.Tolerance)
					}
				}
			})

			Convey("Then children are new genomes", func() {
				old := map[string]bool{}
				for _, g := range pop {
					old[g.ID] = true
				}
				for _, g := range next {
					So(old[g.ID], ShouldBeFalse)
				}
			})

			Convey("Then the same seed reproduces the same weights", func() {
				again, err := evolve.AdvanceGeneration(rand.New(rand.NewSource(9)), pop, fitness, 10, 1.0, 4)
				So(err, ShouldBeNil)
				for i := range next {
					So(again[i].Rounds, ShouldResemble, next[i].Rounds)
				}
			})
		})

		Convey("When the arguments are invalid", func() {
			rng := rand.New(rand.NewSource(1))
			_, size := evolve.AdvanceGeneration(rng, pop, fitness, 0, 1, 4)
			_, rate := evolve.AdvanceGeneration(rng, pop, fitness, 4, -1, 4)
			_, survivors := evolve.AdvanceGeneration(rng, pop, fitness, 4, 1, 13)

			Convey("Then each is rejected", func() {
				So(errors.Is(size, evolve.ErrInvalidArgument), ShouldBeTrue)
				So(errors.Is(rate, evolve.ErrInvalidArgument), ShouldBeTrue)
				So(errors.Is(survivors, evolve.ErrInvalidArgument), ShouldBeTrue)
			})
		})
	})

	Convey("Given two one-hot survivors and no mutation", t, func() {
		qb := mustGenome(oneHot(0), oneHot(1))
		def := mustGenome(oneHot(5), oneHot(2))
		loser := mustGenome(oneHot(3), oneHot(3))
		pop := genome.Population{loser, qb, def}
		fitness := []float64{0, 10, 10}

		Convey("When advancing", func() {
			next, err := evolve.AdvanceGeneration(rand.New(rand.NewSource(2)), pop, fitness, 20, 0, 2)

			Convey("Then each child round is the mean of two survivor rounds", func() {
				So(err, ShouldBeNil)
				allowed := [][]float64{
					genome.Mean(qb.Rounds[0], qb.Rounds[0]),
					genome.Mean(qb.Rounds[0], def.Rounds[0]),
					genome.Mean(def.Rounds[0], def.Rounds[0]),
				}
				for _, g := range next {
					So(allowed, ShouldContain, g.Rounds[0])
					// The loser never contributes its TE weight.
					So(g.Rounds[0][3], ShouldEqual, 0)
					So(g.Rounds[1][3], ShouldEqual, 0)
				}
			})
		})
	})
}

func TestEvolver(t *testing.T) {
	Convey("Given an evolver with defaults", t, func() {
		ev := evolve.NewEvolver()
		pop, err := genome.CreatePopulation(rand.New(rand.NewSource(8)), 6, 3)
		So(err, ShouldBeNil)
		fitness := []float64{1, 2, 3, 4, 5, 6}

		Convey("When calling Next without a configured size", func() {
			next, err := ev.Next(context.Background(), rand.New(rand.NewSource(8)), pop, fitness)

			Convey("Then the population size is kept", func() {
				So(err, ShouldBeNil)
				So(next, ShouldHaveLength, len(pop))
			})
		})

		Convey("When a size is configured", func() {
			sized := evolve.NewEvolver(evolve.WithPopulationSize(9), evolve.WithSurvivors(2), evolve.WithMutationRate(0.5))
			next, err := sized.Next(context.Background(), rand.New(rand.NewSource(8)), pop, fitness)

			Convey("Then that many children are produced", func() {
				So(err, ShouldBeNil)
				So(next, ShouldHaveLength, 9)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := ev.Next(ctx, rand.New(rand.NewSource(8)), pop, fitness)

			Convey("Then it stops before breeding", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
