// Package app provides the application lifecycle management for the
// linking engine service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/linkengine/internal/anchor"
	"github.com/jonesrussell/linkengine/internal/api"
	"github.com/jonesrussell/linkengine/internal/authority"
	"github.com/jonesrussell/linkengine/internal/cache"
	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/contentindex"
	"github.com/jonesrussell/linkengine/internal/database"
	"github.com/jonesrussell/linkengine/internal/discovery"
	"github.com/jonesrussell/linkengine/internal/domain"
	"github.com/jonesrussell/linkengine/internal/engine"
	"github.com/jonesrussell/linkengine/internal/keywords"
	"github.com/jonesrussell/linkengine/internal/logger"
	"github.com/jonesrussell/linkengine/internal/metrics"
	"github.com/jonesrussell/linkengine/internal/notify"
	"github.com/jonesrussell/linkengine/internal/placement"
	"github.com/jonesrussell/linkengine/internal/scorer"
	"github.com/jonesrussell/linkengine/internal/searchclient"
	"github.com/jonesrussell/linkengine/internal/selector"
	"github.com/jonesrussell/linkengine/internal/verifier"
)

// DefaultShutdownTimeout is the default timeout for graceful shutdown
const DefaultShutdownTimeout = 30 * time.Second

// App represents the linking engine application with all its dependencies
type App struct {
	config      *config.Config
	logger      logger.Logger
	redisClient *redis.Client
	db          *sqlx.DB

	graph      *authority.Graph
	propagator *authority.Propagator
	debouncer  *authority.Debouncer
	engine     *engine.Engine
	verifier   *verifier.Verifier
	discovery  *discovery.Service
	linkRepo   *database.LinkRepository
	authRepo   *database.AuthorityRepository
	metrics    *metrics.Metrics

	cron       *cron.Cron
	httpServer *http.Server
	version    string
}

// Options contains configuration for creating a new App
type Options struct {
	ConfigPath string
	Version    string
}

// New creates a new App instance with all dependencies initialized
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", "linkengine"),
		logger.String("version", opts.Version),
	)

	redisClient, err := cache.NewClient(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		redisClient.Close()
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
	}

	esClient, err := contentindex.NewClient(cfg.Elasticsearch)
	if err != nil {
		db.Close()
		redisClient.Close()
		_ = appLogger.Sync()
		return nil, fmt.Errorf("create Elasticsearch client: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	store := cache.NewRedisStore(redisClient)
	index := contentindex.NewIndex(esClient, cfg.Elasticsearch, appLogger)
	linkRepo := database.NewLinkRepository(db)
	authRepo := database.NewAuthorityRepository(db)
	notifier := notify.NewHTTPNotifier(cfg.Notifier, appLogger)

	graph := authority.NewGraph()
	propagator := authority.NewPropagator(graph, cfg.Authority, appLogger)

	app := &App{
		config:      cfg,
		logger:      appLogger,
		redisClient: redisClient,
		db:          db,
		graph:       graph,
		propagator:  propagator,
		linkRepo:    linkRepo,
		authRepo:    authRepo,
		metrics:     m,
		version:     opts.Version,
	}

	app.debouncer = authority.NewDebouncer(cfg.Authority.DebounceDelay, app.runPropagation)
	app.discovery = discovery.NewService(
		searchclient.NewClient(cfg.Search), store, cfg.Discovery, appLogger)

	app.engine = engine.New(engine.Config{
		Index:       index,
		Vectors:     keywords.NewVectorProvider(cfg.Keywords, store, appLogger),
		Selector:    selector.New(cfg.Linking),
		Scorer:      scorer.New(cfg.Linking, graph),
		Distributor: anchor.New(cfg.Anchors),
		Planner:     placement.New(cfg.Linking),
		Links:       linkRepo,
		Graph:       graph,
		Dirty:       app.debouncer,
		Sources:     app.discovery,
		Metrics:     m,
		Linking:     cfg.Linking,
		Logger:      appLogger,
	})

	app.verifier = verifier.New(linkRepo, notifier, cfg.Verification, appLogger)

	return app, nil
}

// Run starts the application and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if err := a.warmStart(ctx); err != nil {
		return err
	}
	if err := a.startSchedules(); err != nil {
		return err
	}
	defer a.cron.Stop()
	defer a.debouncer.Stop()

	handlers := api.NewHandlers(a.engine, a.linkRepo, a.graph, a.verifier, a.discovery, a.logger, a.version)
	router := api.NewRouter(a.config, handlers)

	a.httpServer = &http.Server{
		Addr:         a.config.Server.Address,
		Handler:      router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server",
			logger.String("address", a.config.Server.Address))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	return a.waitForShutdown(ctx, serverErr)
}

// warmStart rebuilds the link graph and score snapshot from persistence so
// scoring has authority data before the first propagation pass.
func (a *App) warmStart(ctx context.Context) error {
	links, err := a.linkRepo.AllInternal(ctx)
	if err != nil {
		return fmt.Errorf("load link graph: %w", err)
	}
	bySource := make(map[string][]string)
	for _, l := range links {
		bySource[l.SourceID] = append(bySource[l.SourceID], l.TargetID)
	}
	for sourceID, targets := range bySource {
		a.graph.SetLinks(sourceID, targets)
	}

	scores, err := a.authRepo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load authority snapshot: %w", err)
	}
	a.graph.SeedScores(scores)

	a.logger.Info("Warm start complete",
		logger.Int("graph_nodes", a.graph.Size()),
		logger.Int("persisted_scores", len(scores)))
	return nil
}

// startSchedules registers the cron jobs: scheduled verification and the
// authority recompute safety net.
func (a *App) startSchedules() error {
	a.cron = cron.New()

	if _, err := a.cron.AddFunc(a.config.Verification.Schedule, func() {
		if _, err := a.verifier.Run(context.Background()); err != nil {
			a.logger.Error("Scheduled verification failed", logger.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("register verification schedule: %w", err)
	}

	if _, err := a.cron.AddFunc(a.config.Authority.RecomputeSchedule, func() {
		a.runPropagation(context.Background())
	}); err != nil {
		return fmt.Errorf("register recompute schedule: %w", err)
	}

	a.cron.Start()
	return nil
}

// runPropagation executes one propagation pass and persists the snapshot.
// Shared by the debouncer and the cron safety net.
func (a *App) runPropagation(ctx context.Context) {
	res, ok := a.propagator.Run(ctx)
	if !ok || res.Scores == nil {
		return
	}

	outcome := "converged"
	if !res.Converged {
		outcome = "max_iterations"
	}
	a.metrics.PropagationRuns.WithLabelValues(outcome).Inc()
	a.metrics.PropagationIterations.Observe(float64(res.Iterations))
	a.metrics.PropagationDuration.Observe(res.Elapsed.Seconds())

	now := time.Now().UTC()
	scores := make([]domain.AuthorityScore, 0, len(res.Scores))
	for id, s := range res.Scores {
		scores = append(scores, domain.AuthorityScore{
			ItemID:     id,
			Score:      s,
			Converged:  res.Converged,
			Iterations: res.Iterations,
			ComputedAt: now,
		})
	}
	if err := a.authRepo.SaveSnapshot(ctx, scores); err != nil {
		a.logger.Error("Failed to persist authority snapshot", logger.Error(err))
	}
}

// RunVerification runs one verification pass outside the schedule.
func (a *App) RunVerification(ctx context.Context) (*verifier.Summary, error) {
	return a.verifier.Run(ctx)
}

// Relink rebuilds the link plan for one item outside the API.
func (a *App) Relink(ctx context.Context, itemID string) (*engine.Result, error) {
	return a.engine.OnContentChanged(ctx, itemID)
}

// waitForShutdown handles graceful shutdown
func (a *App) waitForShutdown(ctx context.Context, serverErr chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("Shutting down gracefully", logger.String("signal", sig.String()))
	case <-ctx.Done():
		a.logger.Info("Shutting down, context cancelled")
	case err := <-serverErr:
		a.logger.Error("Server error", logger.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown error", logger.Error(err))
		return err
	}

	a.logger.Info("Service stopped")
	return nil
}

// Close cleans up resources
func (a *App) Close() error {
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("Failed to close database", logger.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("Failed to close Redis client", logger.Error(err))
		}
	}
	return a.logger.Sync()
}

// Logger returns the application logger
func (a *App) Logger() logger.Logger {
	return a.logger
}
