package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/hirevault/internal/config"
	"github.com/dharsanguruparan/hirevault/internal/database"
	"github.com/dharsanguruparan/hirevault/internal/logging"
	"github.com/dharsanguruparan/hirevault/internal/repository"
	"github.com/dharsanguruparan/hirevault/internal/s3storage"
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
	logger := logging.New(os.Stderr, cfg.LogLevel).WithPrefix("worker")

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect database", "err", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("ensure schema", "err", err)
	}
	users := repository.NewUserRepository(pool)

	store, err := s3storage.New(cfg)
	if err != nil {
		logger.Fatal("init storage", "err", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Fatal("ensure bucket", "err", err)
	}

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
	})
	processor := worker.NewProcessor(store, users, logger)
	mux := processor.Handler()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	logger.Info("worker started", "concurrency", cfg.WorkerConcurrency)
	if err := server.Run(mux); err != nil {
		logger.Error("worker stopped", "err", err)
		os.Exit(1)
	}
}
