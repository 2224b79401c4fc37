package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/snakedraft/internal/adapters/checkpoint"
	"github.com/okian/snakedraft/internal/adapters/http/api"
	"github.com/okian/snakedraft/internal/adapters/http/site"
	"github.com/okian/snakedraft/internal/adapters/http/swagger"
	"github.com/okian/snakedraft/internal/adapters/loader"
	app "github.com/okian/snakedraft/internal/app"
	"github.com/okian/snakedraft/internal/config"
	"github.com/okian/snakedraft/internal/domain/draft"
	"github.com/okian/snakedraft/internal/domain/model"
	"github.com/okian/snakedraft/internal/domain/types"
	"github.com/okian/snakedraft/pkg/logger"
	"github.com/okian/snakedraft/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

// exitInterrupted is the status of a run stopped by SIGINT/SIGTERM before
// it finished its generations.
const exitInterrupted = 130

func main() {
	resume := flag.Bool("resume", false, "Resume from the latest checkpoint when one exists")
	flag.Parse()

	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Init(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithConstLabels(cfg.MetricsLabels),
	)

	if err := run(ctx, cfg, *resume, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn(ctx, "run interrupted", logger.Error(err))
			os.Exit(exitInterrupted)
		}
		log.Error(ctx, "run failed", errorFields(err)...)
		os.Exit(1)
	}
}

// run executes the configured generations and, when an address is set,
// keeps serving the API until ctx is cancelled. A run cancelled before its
// last generation still checkpoints and reports its best strategy, then
// returns the cancellation.
func run(ctx context.Context, cfg *config.Config, resume bool, out io.Writer) error {
	log := logger.Named("main")

	pool, err := loader.LoadAthletes(cfg.AthletesPath)
	if err != nil {
		return err
	}
	lookup, err := loader.LoadPerformance(cfg.PerformancePath)
	if err != nil {
		return err
	}
	log.Info(ctx, "data loaded",
		logger.Int("athletes", len(pool)),
		logger.Int("performances", len(lookup)),
	)

	store, closeStore := newCheckpointStore(cfg)
	defer closeStore()

	runner := app.New(pool, lookup,
		app.WithLogger(logger.Named("runner")),
		app.WithPopulationSize(cfg.PopulationSize),
		app.WithRounds(cfg.Rounds),
		app.WithMutationRate(cfg.MutationRate),
		app.WithSurvivors(cfg.Survivors),
		app.WithSeed(cfg.Seed),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithHallOfFameSize(cfg.HallOfFameSize),
		app.WithCheckpointStore(store, cfg.CheckpointEvery),
	)
	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer runner.Stop(context.Background())

	if err := prepare(ctx, runner, store, resume); err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)

	var srv *http.Server
	if cfg.Addr != "" {
		srv = newServer(ctx, cfg, runner)
		go func() {
			log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "HTTP server failed", logger.Error(err))
			}
		}()
	}

	remaining := cfg.Generations - runner.Generation()
	runErr := runner.Run(ctx, remaining)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		log.Warn(ctx, "run interrupted",
			logger.Int("generation", runner.Generation()),
			logger.Int("generations", cfg.Generations),
		)
	}
	if store != nil && cfg.CheckpointEvery > 0 {
		if err := runner.SaveCheckpoint(context.Background()); err != nil {
			log.Warn(ctx, "final checkpoint failed", logger.Error(err))
		}
	}

	if best, err := runner.Best(context.Background()); err == nil {
		log.Info(ctx, "best strategy",
			logger.String("id", best.StrategyID),
			logger.Int("generation", best.Generation),
			logger.Float64("fitness", best.Fitness),
		)
		printStrategy(out, best)
	}

	if srv == nil {
		return runErr
	}
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return runErr
}

// prepare resumes from the latest checkpoint when asked and one exists;
// otherwise it starts a fresh population.
func prepare(ctx context.Context, runner *app.Runner, store checkpoint.Store, resume bool) error {
	if resume && store != nil {
		cp, err := store.Latest(ctx)
		switch {
		case err == nil:
			return runner.Resume(ctx, cp)
		case !errors.Is(err, checkpoint.ErrNotFound):
			return err
		}
		logger.Named("main").Info(ctx, "no checkpoint found; starting a new run")
	}
	return runner.Initialize(ctx)
}

// newCheckpointStore picks Redis when an address is configured, else a
// directory, else no checkpoints.
func newCheckpointStore(cfg *config.Config) (checkpoint.Store, func()) {
	switch {
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return checkpoint.NewRedisStore(client, cfg.RedisKey, 0), func() { _ = client.Close() }
	case cfg.CheckpointDir != "":
		return checkpoint.NewFileStore(cfg.CheckpointDir), func() {}
	default:
		return nil, func() {}
	}
}

func newServer(ctx context.Context, cfg *config.Config, runner *app.Runner) *http.Server {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(runner, cfg.MaxLeaderboardLimit).Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// printStrategy writes one row of position weights per round.
func printStrategy(w io.Writer, st types.Strategy) {
	fmt.Fprintf(w, "best strategy %s (generation %d, fitness %.2f)\n", st.StrategyID, st.Generation, st.Fitness)
	header := make([]string, len(model.Positions))
	for i, p := range model.Positions {
		header[i] = fmt.Sprintf("%6s", p)
	}
	fmt.Fprintf(w, "round %s\n", strings.Join(header, " "))
	for r, weights := range st.Weights {
		cols := make([]string, len(weights))
		for i, v := range weights {
			cols[i] = fmt.Sprintf("%6.3f", v)
		}
		fmt.Fprintf(w, "%5d %s\n", r+1, strings.Join(cols, " "))
	}
}

// errorFields flattens a generation failure into log fields.
func errorFields(err error) []logger.Field {
	fields := []logger.Field{logger.Error(err)}
	var genErr *app.GenerationError
	if errors.As(err, &genErr) {
		fields = append(fields,
			logger.Int("generation", genErr.Generation),
			logger.String("stage", string(genErr.Stage)),
		)
	}
	var unknown *draft.UnknownPositionError
	var exhausted *draft.PoolExhaustedError
	switch {
	case errors.As(err, &unknown):
		fields = append(fields, logger.Int("round", unknown.Round), logger.Int("genome", unknown.Genome))
	case errors.As(err, &exhausted):
		fields = append(fields, logger.Int("round", exhausted.Round), logger.Int("genome", exhausted.Genome))
	}
	return fields
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
