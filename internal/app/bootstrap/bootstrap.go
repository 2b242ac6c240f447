package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	votingservice "ballotbox/contexts/polling/voting-service"
	"ballotbox/contexts/polling/voting-service/adapters/memory"
	postgresadapter "ballotbox/contexts/polling/voting-service/adapters/postgres"
	prometheusadapter "ballotbox/contexts/polling/voting-service/adapters/prometheus"
	workerapp "ballotbox/contexts/polling/voting-service/application/workers"
	"ballotbox/internal/platform/config"
	"ballotbox/internal/platform/db"
	"ballotbox/internal/platform/httpserver"
	"ballotbox/internal/platform/messaging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const (
	metricsNamespace = "ballotbox"
	shutdownTimeout  = 10 * time.Second
)

type APIApp struct {
	server       *httpserver.Server
	polls        votingservice.Module
	postgres     *db.Postgres
	outboxRelay  *workerapp.OutboxRelay
	activity     *workerapp.PollActivityConsumer
	pollInterval time.Duration
	logger       *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	activity     workerapp.PollActivityConsumer
	pollInterval time.Duration
	logger       *slog.Logger
}

// BuildAPI wires the HTTP process. Without POSTGRES_DSN the polls live in one
// process-local store and its outbox is relayed in-process.
func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := prometheusadapter.NewMetrics(metricsNamespace, registry)
	if err != nil {
		return nil, err
	}

	app := &APIApp{
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}
	deps := votingservice.Dependencies{
		Metrics: metrics,
		OwnerID: cfg.PollOwnerID,
		Logger:  logger,
	}

	var store *memory.Store
	if cfg.PostgresDSN == "" {
		kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
		if err != nil {
			return nil, err
		}
		store = memory.NewStore()
		deps.Catalog = store
		deps.Polls = store
		deps.Tallies = store
		deps.Random = store
		deps.Outbox = store
		deps.Clock = store
		deps.IDGen = store
		app.outboxRelay = &workerapp.OutboxRelay{
			Outbox:    store,
			Publisher: kafka,
			Clock:     store,
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		}
		app.activity = &workerapp.PollActivityConsumer{
			Subscriber: kafka,
			Dedup:      store,
			Logger:     logger,
		}
		logger.Warn("POSTGRES_DSN is empty; polls are kept in process memory",
			"event", "bootstrap_memory_store_selected",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	} else {
		pg, err := db.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		if err := repo.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		app.postgres = pg
		deps.Catalog = repo
		deps.Polls = repo
		deps.Tallies = repo
		deps.Random = postgresadapter.SystemRandom{}
		deps.Outbox = repo
		deps.Clock = postgresadapter.SystemClock{}
		deps.IDGen = postgresadapter.UUIDGenerator{}
	}
	if !cfg.EnablePollEvents {
		deps.Outbox = nil
	}

	app.polls = buildPollModule(deps, store)
	app.server = httpserver.New(app.polls, registry, logger, normalizeAddr(cfg.HTTPPort))
	return app, nil
}

// BuildWorker wires the relay process. It needs the shared Postgres outbox; a
// memory-backed API relays its own events.
func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	if err := repo.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		activity: workerapp.PollActivityConsumer{
			Subscriber: kafka,
			Dedup:      repo,
			Logger:     logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.activity != nil {
		if err := a.activity.Start(ctx); err != nil {
			return err
		}
	}
	if a.outboxRelay != nil {
		go func() {
			_ = a.outboxRelay.Run(ctx, a.pollInterval)
		}()
	}

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"in_process_relay", a.outboxRelay != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.activity.Start(ctx); err != nil {
		return err
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)
	return w.outboxRelay.Run(ctx, w.pollInterval)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// buildPollModule exposes the memory store on the module only when one backs
// it; Postgres-backed modules keep Store nil.
func buildPollModule(deps votingservice.Dependencies, store *memory.Store) votingservice.Module {
	module := votingservice.NewModule(deps)
	if store != nil {
		module.Store = store
	}
	return module
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
