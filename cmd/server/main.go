// Package main is the entry point for the HireVault API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/dharsanguruparan/hirevault/internal/api"
	"github.com/dharsanguruparan/hirevault/internal/assets"
	"github.com/dharsanguruparan/hirevault/internal/config"
	"github.com/dharsanguruparan/hirevault/internal/database"
	"github.com/dharsanguruparan/hirevault/internal/logging"
	"github.com/dharsanguruparan/hirevault/internal/processing"
	"github.com/dharsanguruparan/hirevault/internal/queue"
	"github.com/dharsanguruparan/hirevault/internal/realtime"
	"github.com/dharsanguruparan/hirevault/internal/repository"
	"github.com/dharsanguruparan/hirevault/internal/s3storage"
	"github.com/dharsanguruparan/hirevault/internal/signing"
	"github.com/dharsanguruparan/hirevault/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	users := repository.NewUserRepository(pool)
	collaborators := repository.NewCollaboratorRepository(pool)

	store, err := s3storage.New(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	hub := realtime.NewHub(logger, cfg.OriginAllowed)
	defer hub.Close()
	jobs, notifier := backgroundServices(ctx, cfg, hub, store, users, logger)

	manager := assets.New(store, users, collaborators, assets.Options{
		UsersRoot:   cfg.UsersRoot,
		ChatsRoot:   cfg.ChatsRoot,
		ProfileSize: cfg.ProfileImageSize,
		Notifier:    notifier,
		Purger:      jobs,
		Indexer:     jobs,
		Logger:      logger,
	})

	srv := api.New(cfg, api.Deps{
		Users:         users,
		Jobs:          repository.NewJobRepository(pool),
		Applications:  repository.NewApplicationRepository(pool),
		Appointments:  repository.NewAppointmentRepository(pool),
		Collaborators: collaborators,
		Assets:        manager,
		Notifier:      notifier,
		Hub:           hub,
		Signer:        signing.NewSigner(cfg.SigningSecret, cfg.SignedURLTTL),
		Ping:          pool.Ping,
		Logger:        logger,
	})
	return srv.Run(ctx)
}

// backgroundServices wires task scheduling and realtime fan-out through Redis
// when it is reachable, so every instance's sockets see every event, including
// those sent by browser clients, and the worker binary runs the tasks. Without Redis, tasks run on an in-process pool
// and events stay on the local hub.
func backgroundServices(ctx context.Context, cfg *config.Config, hub *realtime.Hub, store *s3storage.Storage, users *repository.UserRepository, logger *log.Logger) (*queue.Client, realtime.Notifier) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, running tasks in-process", "err", err)
		_ = rdb.Close()
		pool := processing.New(worker.NewProcessor(store, users, logger).Handler(), cfg.WorkerConcurrency, logger)
		pool.Start(ctx)
		return queue.NewClient(pool), hub
	}

	tasks := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	notifier := realtime.NewRedisNotifier(rdb)
	hub.SetUpstream(notifier)
	go func() {
		if err := realtime.Relay(ctx, rdb, hub, logger); err != nil {
			logger.Error("realtime relay stopped", "err", err)
		}
		<-ctx.Done()
		_ = tasks.Close()
		_ = rdb.Close()
	}()
	return queue.NewClient(tasks), notifier
}
