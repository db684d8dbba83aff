package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/gatehouse/gatehouse/internal/app"
	"github.com/gatehouse/gatehouse/internal/platform/db"
	"github.com/gatehouse/gatehouse/internal/session"
	"github.com/gatehouse/gatehouse/jobs"
)

// pgSweeper evicts expired rows from the durable session table. Redis-backed
// sessions expire through key TTLs and need no sweeping.
type pgSweeper struct {
	store  *session.PGStore
	config *app.Config
	logger *slog.Logger
}

func (s pgSweeper) Sweep(ctx context.Context) int {
	n, err := s.store.SweepExpired(ctx, s.config.SessionTTL())
	if err != nil {
		s.logger.Warn("sweep durable sessions", slog.Any("error", err))
		return 0
	}
	return n
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskTypeResetEmail, Handler: jobs.NewResetEmailHandler(logger)},
	}
	cron := []jobs.CronRegistration{}

	if cfg.AuthType == app.AuthTypeSessionDB && cfg.SessionStore == app.SessionStorePostgres {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()

		sweeper := pgSweeper{store: session.NewPGStore(pool), config: cfg, logger: logger}
		handlers = append(handlers, jobs.TaskHandler{
			Type:    jobs.TaskTypeSessionSweep,
			Handler: jobs.NewSessionSweepHandler(sweeper),
		})
		cron = append(cron, jobs.CronRegistration{
			Spec: "@every 10m",
			Task: jobs.NewSessionSweepTask(),
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron:      cron,
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shutdown complete")
}
