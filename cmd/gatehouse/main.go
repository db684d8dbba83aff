package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/gatehouse/gatehouse/internal/access"
	"github.com/gatehouse/gatehouse/internal/app"
	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/password"
	"github.com/gatehouse/gatehouse/internal/platform/cache"
	"github.com/gatehouse/gatehouse/internal/platform/db"
	"github.com/gatehouse/gatehouse/internal/session"
	"github.com/gatehouse/gatehouse/internal/shared"
	"github.com/gatehouse/gatehouse/internal/users"
	"github.com/gatehouse/gatehouse/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	repo := users.NewRepository(pool)
	hasher := password.NewHasher(0)

	var store session.Store
	if cfg.AuthType == app.AuthTypeSessionDB {
		switch cfg.SessionStore {
		case app.SessionStorePostgres:
			store = session.NewPGStore(pool)
		default:
			redisClient, err := cache.New(ctx, cfg.RedisAddr)
			if err != nil {
				logger.Error("connect redis", slog.Any("error", err))
				os.Exit(1)
			}
			defer func() {
				_ = redisClient.Close()
			}()
			store = session.NewRedisStore(redisClient)
		}
	}
	authority := session.NewAuthority(repo, cfg.SessionTTL(), store)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	service := auth.NewService(repo, hasher, authority, shared.NewAuditLogger(pool), jobs.NewResetNotifier(asynqClient), logger)
	handler := auth.NewHandler(logger, service, cfg.SessionName, cfg.IsProduction())

	var strategy access.Strategy
	if cfg.AuthType == app.AuthTypeBasic {
		strategy = access.NewBasicStrategy(repo, hasher)
	} else {
		strategy = access.NewSessionStrategy(repo, authority, cfg.SessionName)
	}
	metrics := observability.NewMetrics(func() float64 { return float64(authority.Len()) })

	gate := access.Middleware(access.GateConfig{
		Strategy:   strategy,
		Excluded:   cfg.ExcludedPaths,
		CookieName: cfg.SessionName,
		Logger:     logger,
		Recorder:   metrics,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		AuthHandler: handler,
		Gate:        gate,
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("auth_type", cfg.AuthType))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if ttl := cfg.SessionTTL(); ttl > 0 {
		// the in-memory map only shrinks when swept
		group.Go(func() error {
			ticker := time.NewTicker(ttl)
			defer ticker.Stop()
			for {
				select {
				case <-groupCtx.Done():
					return nil
				case <-ticker.C:
					if n := authority.Sweep(groupCtx); n > 0 {
						logger.Info("swept expired sessions", slog.Int("count", n))
					}
				}
			}
		})
	}

	if err := group.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
