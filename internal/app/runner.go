// Package app wires the draft simulator, the scoring worker pool, the
// evolver and the hall of fame into a generation loop.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/snakedraft/internal/adapters/checkpoint"
	"github.com/okian/snakedraft/internal/adapters/mq/queue"
	"github.com/okian/snakedraft/internal/adapters/mq/worker"
	"github.com/okian/snakedraft/internal/adapters/repository"
	"github.com/okian/snakedraft/internal/domain/draft"
	"github.com/okian/snakedraft/internal/domain/evolve"
	"github.com/okian/snakedraft/internal/domain/genome"
	"github.com/okian/snakedraft/internal/domain/model"
	"github.com/okian/snakedraft/internal/domain/scoring"
	"github.com/okian/snakedraft/internal/domain/types"
	"github.com/okian/snakedraft/pkg/logger"
	"github.com/okian/snakedraft/pkg/metrics"
)

// resumeSeedStride spreads reseeded sources apart for successive checkpoints.
const resumeSeedStride = 1_000_003

// GenerationResult holds everything one generation produced. Population,
// Rosters, Lineups and Fitness are index-aligned.
type GenerationResult struct {
	Generation int
	Population genome.Population
	Rosters    []model.Roster
	Lineups    []model.Lineup
	Fitness    []float64
	Stats      types.GenerationStats
}

// Runner drives a run generation by generation.
type Runner struct {
	// runMu serializes generations; mu guards the state readers see.
	runMu sync.Mutex
	mu    sync.RWMutex

	// Inputs
	pool   []model.Athlete
	lookup scoring.Lookup

	// Configuration
	populationSize  int
	rounds          int
	mutationRate    float64
	survivors       int
	seed            int64
	workerCount     int
	queueSize       int
	hallOfFameSize  int
	checkpointEvery int
	slots           []scoring.Slot

	// Components
	simulator   *draft.Simulator
	evolver     *evolve.Evolver
	queue       *queue.InMemoryQueue
	workers     *worker.Pool
	hallOfFame  repository.Store
	checkpoints checkpoint.Store

	// Run state
	rng        *rand.Rand
	runID      string
	generation int // next generation to run
	population genome.Population
	history    []types.GenerationStats
	bestEver   types.GenerationStats
	started    bool

	onGeneration func(ctx context.Context, res GenerationResult)
	logger       logger.Logger
}

// New constructs a Runner over an athlete pool and a performance lookup.
func New(pool []model.Athlete, lookup scoring.Lookup, opts ...Option) *Runner {
	r := &Runner{
		pool:           append([]model.Athlete(nil), pool...),
		lookup:         lookup,
		populationSize: 12,
		rounds:         15,
		mutationRate:   evolve.DefaultMutationRate,
		survivors:      evolve.DefaultSurvivors,
		workerCount:    runtime.NumCPU(),
		queueSize:      1024,
		hallOfFameSize: 100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start validates the configuration and starts the scoring workers.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("runner")
	}
	if err := r.validate(); err != nil {
		return err
	}

	r.simulator = draft.NewSimulator(draft.WithLogger(r.logger.Named("draft")))
	r.evolver = evolve.NewEvolver(
		evolve.WithPopulationSize(r.populationSize),
		evolve.WithMutationRate(r.mutationRate),
		evolve.WithSurvivors(r.survivors),
		evolve.WithLogger(r.logger.Named("evolve")),
	)
	r.hallOfFame = repository.NewTreapStore(repository.WithCapacity(r.hallOfFameSize))
	r.queue = queue.NewInMemoryQueue(queue.WithCapacity(r.queueSize))

	var scorerOpts []scoring.Option
	if len(r.slots) > 0 {
		scorerOpts = append(scorerOpts, scoring.WithSlots(r.slots...))
	}
	r.workers = worker.NewPool(r.workerCount, r.queue, scoring.NewLineupScorer(r.lookup, scorerOpts...))
	r.workers.Start(ctx)

	r.started = true
	r.logger.Info(ctx, "runner started",
		logger.Int("athletes", len(r.pool)),
		logger.Int("population_size", r.populationSize),
		logger.Int("rounds", r.rounds),
		logger.Int("workers", r.workers.Size()),
		logger.Int("hall_of_fame_size", r.hallOfFameSize),
	)
	return nil
}

func (r *Runner) validate() error {
	if r.populationSize < 1 {
		return fmt.Errorf("%w: population size must be positive, got %d", ErrInvalidArgument, r.populationSize)
	}
	if r.rounds < 1 {
		return fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidArgument, r.rounds)
	}
	if r.survivors < 1 || r.survivors > r.populationSize {
		return fmt.Errorf("%w: survivors must be in [1, %d], got %d", ErrInvalidArgument, r.populationSize, r.survivors)
	}
	if err := model.ValidatePool(r.pool); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}

// Initialize seeds the random source and creates the first population.
func (r *Runner) Initialize(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return ErrNotStarted
	}
	if r.seed == 0 {
		r.seed = time.Now().UnixNano()
	}
	r.rng = rand.New(rand.NewSource(r.seed)) //nolint:gosec // reproducible simulation, not crypto
	pop, err := genome.CreatePopulation(r.rng, r.populationSize, r.rounds)
	if err != nil {
		return err
	}

	r.runID = uuid.NewString()
	r.generation = 0
	r.population = pop
	r.history = nil
	r.bestEver = types.GenerationStats{}

	r.logger.Info(ctx, "population initialized",
		logger.String("run_id", r.runID),
		logger.Int64("seed", r.seed),
		logger.Int("size", len(pop)),
	)
	return nil
}

// Resume restores the population and history from a checkpoint. The random
// source is reseeded from the checkpoint seed and generation, so a resumed
// run is reproducible but does not replay the draws of an uninterrupted one.
func (r *Runner) Resume(ctx context.Context, cp *checkpoint.Checkpoint) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return ErrNotStarted
	}
	if cp == nil {
		return fmt.Errorf("%w: nil checkpoint", ErrInvalidArgument)
	}
	if err := cp.Population.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if cp.Rounds != r.rounds {
		return fmt.Errorf("%w: checkpoint has %d rounds, runner expects %d", ErrInvalidArgument, cp.Rounds, r.rounds)
	}
	if len(cp.Population) != r.populationSize {
		return fmt.Errorf("%w: checkpoint has %d genomes, runner expects %d", ErrInvalidArgument, len(cp.Population), r.populationSize)
	}

	r.seed = cp.Seed
	r.rng = rand.New(rand.NewSource(cp.Seed + int64(cp.Generation)*resumeSeedStride)) //nolint:gosec // reproducible simulation
	r.runID = cp.RunID
	r.generation = cp.Generation
	r.population = clonePopulation(cp.Population)
	r.history = append([]types.GenerationStats(nil), cp.History...)
	r.bestEver = types.GenerationStats{}
	for _, h := range r.history {
		if r.bestEver.BestID == "" || h.BestFitness > r.bestEver.BestFitness {
			r.bestEver = h
		}
	}
	if r.bestEver.BestID != "" {
		metrics.UpdateBestEverFitness(r.bestEver.BestFitness)
	}

	r.logger.Info(ctx, "run resumed from checkpoint",
		logger.String("run_id", r.runID),
		logger.Int("generation", r.generation),
		logger.Int("size", len(r.population)),
	)
	return nil
}

// RunGeneration drafts, scores, evolves and records one generation. Nothing
// is written to the hall of fame unless every earlier stage succeeded.
func (r *Runner) RunGeneration(ctx context.Context) (GenerationResult, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.mu.RLock()
	started, gen, pop := r.started, r.generation, r.population
	r.mu.RUnlock()
	if !started {
		return GenerationResult{}, ErrNotStarted
	}
	if len(pop) == 0 {
		return GenerationResult{}, ErrNotInitialized
	}
	start := time.Now()
	fail := func(stage Stage, err error) (GenerationResult, error) {
		metrics.RecordErrorByComponent("runner", string(stage))
		return GenerationResult{}, &GenerationError{Generation: gen, Stage: stage, Err: err}
	}

	rosters, err := r.simulator.SimulateDraft(ctx, r.pool, pop, r.rounds)
	if err != nil {
		return fail(StageDraft, err)
	}

	inputs := make([]scoring.Input, len(rosters))
	for i, roster := range rosters {
		inputs[i] = scoring.Input{Genome: i, Roster: roster}
	}
	results, err := r.workers.ScoreAll(ctx, inputs)
	if err != nil {
		return fail(StageScore, err)
	}
	fitness := make([]float64, len(results))
	lineups := make([]model.Lineup, len(results))
	for i, res := range results {
		fitness[i] = res.Fitness
		lineups[i] = res.Lineup
	}

	stats := summarize(gen, pop, fitness)

	next, err := r.evolver.Next(ctx, r.rng, pop, fitness)
	if err != nil {
		return fail(StageEvolve, err)
	}

	for i, g := range pop {
		if _, err := r.hallOfFame.Record(ctx, repository.Strategy{
			ID:         g.ID,
			Generation: gen,
			Fitness:    fitness[i],
			Weights:    g.Rounds,
		}); err != nil {
			return fail(StageRecord, err)
		}
	}

	stats.ElapsedMs = float64(time.Since(start).Nanoseconds()) / 1e6

	r.mu.Lock()
	r.population = next
	r.generation = gen + 1
	r.history = append(r.history, stats)
	if r.bestEver.BestID == "" || stats.BestFitness > r.bestEver.BestFitness {
		r.bestEver = stats
		metrics.UpdateBestEverFitness(stats.BestFitness)
	}
	r.mu.Unlock()

	metrics.RecordGeneration(stats.BestFitness, stats.MeanFitness, stats.StdDev, stats.Diversity)
	r.logger.Info(ctx, "generation complete",
		logger.Int("generation", gen),
		logger.Float64("best_fitness", stats.BestFitness),
		logger.Float64("mean_fitness", stats.MeanFitness),
		logger.Float64("stddev", stats.StdDev),
		logger.Float64("diversity", stats.Diversity),
		logger.Float64("elapsed_ms", stats.ElapsedMs),
	)

	if r.checkpoints != nil && (gen+1)%r.checkpointEvery == 0 {
		// A failed save does not undo a completed generation.
		if err := r.SaveCheckpoint(ctx); err != nil {
			r.logger.Warn(ctx, "checkpoint failed", logger.Int("generation", gen), logger.Error(err))
		}
	}

	res := GenerationResult{
		Generation: gen,
		Population: pop,
		Rosters:    rosters,
		Lineups:    lineups,
		Fitness:    fitness,
		Stats:      stats,
	}
	if r.onGeneration != nil {
		r.onGeneration(ctx, res)
	}
	return res, nil
}

// Run executes n generations, stopping early on error or cancellation.
func (r *Runner) Run(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.RunGeneration(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SaveCheckpoint persists the current population and history.
func (r *Runner) SaveCheckpoint(ctx context.Context) error {
	if r.checkpoints == nil {
		return nil
	}
	r.mu.RLock()
	cp := &checkpoint.Checkpoint{
		RunID:      r.runID,
		Seed:       r.seed,
		Generation: r.generation,
		Rounds:     r.rounds,
		Population: r.population,
		History:    append([]types.GenerationStats(nil), r.history...),
	}
	r.mu.RUnlock()

	if err := r.checkpoints.Save(ctx, cp); err != nil {
		metrics.RecordCheckpointError()
		return &GenerationError{Generation: cp.Generation, Stage: StageCheckpoint, Err: err}
	}
	metrics.RecordCheckpoint()
	r.logger.Debug(ctx, "checkpoint saved", logger.Int("generation", cp.Generation))
	return nil
}

// summarize computes the fitness statistics of one scored generation.
func summarize(gen int, pop genome.Population, fitness []float64) types.GenerationStats {
	best := evolve.Ranking(fitness)[0]
	mean, std := stat.MeanStdDev(fitness, nil)
	if len(fitness) < 2 {
		std = 0
	}
	return types.GenerationStats{
		Generation:  gen,
		BestFitness: fitness[best],
		BestID:      pop[best].ID,
		MeanFitness: mean,
		StdDev:      std,
		Diversity:   pop.Diversity(),
		Picks:       len(pop) * pop.Rounds(),
	}
}

// History returns the stats of every completed generation.
func (r *Runner) History() []types.GenerationStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.GenerationStats(nil), r.history...)
}

// Generation returns the number of the next generation to run.
func (r *Runner) Generation() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// Population returns a copy of the population the next generation drafts with.
func (r *Runner) Population() genome.Population {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clonePopulation(r.population)
}

// TopN returns the best n strategies of the run.
func (r *Runner) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	store, err := r.store()
	if err != nil {
		return nil, err
	}
	entries, err := store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{
			Rank:       e.Rank,
			StrategyID: e.StrategyID,
			Generation: e.Generation,
			Fitness:    e.Fitness,
		}
	}
	return out, nil
}

// Rank returns the hall of fame rank of a strategy.
func (r *Runner) Rank(ctx context.Context, id string) (types.Entry, error) {
	store, err := r.store()
	if err != nil {
		return types.Entry{}, err
	}
	e, err := store.Rank(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}
	return types.Entry{
		Rank:       e.Rank,
		StrategyID: e.StrategyID,
		Generation: e.Generation,
		Fitness:    e.Fitness,
	}, nil
}

// Strategy returns a hall of fame strategy with its rank and weights.
func (r *Runner) Strategy(ctx context.Context, id string) (types.Strategy, error) {
	entry, err := r.Rank(ctx, id)
	if err != nil {
		return types.Strategy{}, err
	}
	st, err := r.hallOfFame.Get(ctx, id)
	if err != nil {
		return types.Strategy{}, err
	}
	return types.Strategy{Entry: entry, Weights: st.Weights}, nil
}

// Best returns the highest ranked strategy of the run.
func (r *Runner) Best(ctx context.Context) (types.Strategy, error) {
	top, err := r.TopN(ctx, 1)
	if err != nil {
		return types.Strategy{}, err
	}
	if len(top) == 0 {
		return types.Strategy{}, repository.ErrNotFound
	}
	return r.Strategy(ctx, top[0].StrategyID)
}

func (r *Runner) store() (repository.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.started {
		return nil, ErrNotStarted
	}
	return r.hallOfFame, nil
}

// GetStats returns runner statistics for monitoring.
func (r *Runner) GetStats() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        r.started,
		"runId":          r.runID,
		"seed":           r.seed,
		"generation":     r.generation,
		"populationSize": r.populationSize,
		"rounds":         r.rounds,
		"athletes":       len(r.pool),
		"workerCount":    r.workerCount,
	}

	if r.started {
		stats["queueLength"] = r.queue.Len(context.Background())
		stats["hallOfFameSize"] = r.hallOfFame.Count(context.Background())
	}
	if len(r.history) > 0 {
		last := r.history[len(r.history)-1]
		stats["bestFitness"] = last.BestFitness
		stats["meanFitness"] = last.MeanFitness
		stats["bestEverFitness"] = r.bestEver.BestFitness
		stats["bestEverId"] = r.bestEver.BestID
	}
	return stats
}

// Stop shuts down the worker pool and closes the queue.
func (r *Runner) Stop(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return
	}
	r.logger.Info(ctx, "stopping runner...")
	if err := r.workers.Shutdown(ctx); err != nil {
		r.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	r.started = false
	r.logger.Info(ctx, "runner stopped", logger.Int("generations", r.generation))
}

func clonePopulation(pop genome.Population) genome.Population {
	out := make(genome.Population, len(pop))
	for i, g := range pop {
		rounds := make([][]float64, len(g.Rounds))
		for r, v := range g.Rounds {
			rounds[r] = append([]float64(nil), v...)
		}
		out[i] = genome.Genome{ID: g.ID, Rounds: rounds}
	}
	return out
}
