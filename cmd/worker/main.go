package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/illegalcall/glow-up/internal/app"
	"github.com/illegalcall/glow-up/internal/config"
	"github.com/illegalcall/glow-up/internal/jobs"
	"github.com/illegalcall/glow-up/internal/worker"
	"github.com/illegalcall/glow-up/pkg/database"
	"github.com/illegalcall/glow-up/pkg/kafka"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.LoadConfig()
	if !cfg.Kafka.Enabled() {
		slog.Error("❌ KAFKA_BROKER is required for the worker")
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		// jobs are created by the API, an in-memory store would never see them
		slog.Error("❌ DATABASE_URL is required for the worker")
		os.Exit(1)
	}

	db, err := database.NewClients(cfg.Database.URL, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("❌ Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("✅ Connected to databases")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.New(ctx, cfg, db, logger)
	if err != nil {
		slog.Error("❌ Failed to initialize components", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	consumer, err := kafka.NewConsumer(cfg.Kafka.Broker, cfg.Kafka.Group)
	if err != nil {
		slog.Error("❌ Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()
	slog.Info("✅ Connected to Kafka")

	handlers := jobs.Handlers(components.Service, jobs.FreshSessions(components.Data, nil, logger))
	w := worker.NewWorker(cfg, db.Redis, components.Data, handlers, consumer, logger)
	if err := w.Start(ctx); err != nil {
		slog.Error("❌ Worker error", "error", err)
		os.Exit(1)
	}
}
