package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"proposal_sync/internal/archive"
	"proposal_sync/internal/partners/client"
	"proposal_sync/internal/pipeline"
	"proposal_sync/internal/scheduler"
	"proposal_sync/internal/staging"
	"proposal_sync/internal/status"
	"proposal_sync/internal/syncstate"
	"proposal_sync/platform/config"
	"proposal_sync/platform/db"
	"proposal_sync/platform/events"
	"proposal_sync/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting syncer", "env", cfg.Env, "partners", len(cfg.GetPartners()), "deep_scan", cfg.GetDeepScan())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.WithRetry(ctx, log, "database migrations", cfg.GetDBConnectAttempts(), cfg.GetDBConnectBaseDelay(), func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run migrations", "error", err)
		panic("failed to run migrations: " + err.Error())
	}

	session := db.NewSession(cfg, log)
	if err := session.Connect(ctx); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer session.Close(context.Background())

	var stateDB syncstate.Querier
	if cfg.GetStateBackend() == syncstate.BackendPostgres {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			log.Error("failed to open state pool", "error", err)
			panic("failed to open state pool: " + err.Error())
		}
		defer pool.Close()
		stateDB = pool
	}
	store, err := syncstate.Open(cfg, stateDB)
	if err != nil {
		log.Error("failed to open sync state", "error", err)
		panic("failed to open sync state: " + err.Error())
	}

	eventBus := events.NewInMemoryBus()
	tracker := status.NewTracker()
	tracker.RegisterHandlers(eventBus)
	if cfg.IsStatusEnabled() {
		go func() {
			if err := status.Serve(ctx, cfg.GetStatusAddr(), status.NewRouter(tracker, log), log); err != nil {
				log.Error("status server stopped", "error", err)
			}
		}()
	}

	var opts []pipeline.Option
	if cfg.IsArchiveEnabled() {
		if arch := openArchive(ctx, cfg, log); arch != nil {
			opts = append(opts, pipeline.WithArchiver(arch))
		}
	}

	merger := staging.NewMerger(staging.NewPostgresTarget(session), cfg.GetStageBatchSize(), log)
	runner := pipeline.New(client.New(cfg, log), merger, log, opts...)
	sched := scheduler.New(runner, session, store, eventBus, nil, scheduler.SettingsFromConfig(cfg), log)

	if err := sched.Run(ctx); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
	log.Info("shutdown complete")
}

// openArchive returns nil when the archive cannot be reached; syncing
// continues without it.
func openArchive(ctx context.Context, cfg config.ArchiveConfig, log *logger.Logger) *archive.Archive {
	arch, err := archive.New(cfg)
	if err != nil {
		log.Error("payload archive disabled", "error", err)
		return nil
	}
	if err := db.WithRetry(ctx, log, "ensure archive bucket", 3, 2*time.Second, func() error {
		return arch.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("payload archive disabled", "error", err, "bucket", cfg.GetArchiveBucket())
		return nil
	}
	return arch
}
