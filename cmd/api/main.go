package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"

	"github.com/illegalcall/glow-up/internal/api"
	"github.com/illegalcall/glow-up/internal/app"
	"github.com/illegalcall/glow-up/internal/config"
	"github.com/illegalcall/glow-up/internal/jobs"
	"github.com/illegalcall/glow-up/internal/profile"
	"github.com/illegalcall/glow-up/pkg/database"
	"github.com/illegalcall/glow-up/pkg/kafka"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.LoadConfig()
	if cfg.DemoMode() {
		slog.Info("⚠️ Running in demo mode: no Supabase or Gemini credentials")
	}

	db, err := database.NewClients(cfg.Database.URL, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("❌ Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("✅ Connected to databases")

	if err := db.CreateSchema(); err != nil {
		slog.Error("❌ Failed to create schema", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	components, err := app.New(ctx, cfg, db, logger)
	if err != nil {
		slog.Error("❌ Failed to initialize components", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	deps := api.Deps{
		Service:    components.Service,
		Profiles:   profile.NewRegistry(components.Data, profile.NewRedisPersister(db.Redis, cfg.JWT.Expiration), logger),
		UploadsDir: components.UploadsDir,
	}
	if components.Supabase != nil {
		deps.Auth = components.Supabase
	}

	if cfg.Kafka.Enabled() {
		var producer sarama.SyncProducer
		producer, err = kafka.NewProducer(cfg.Kafka.Broker, cfg.Kafka.RetryMax, cfg.Kafka.RetryBackoff)
		if err != nil {
			slog.Error("❌ Failed to create Kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		deps.Jobs = jobs.NewQueue(components.Data, db.Redis, producer, cfg.Kafka.Topic, cfg.Storage.TTL, logger)
		slog.Info("✅ Connected to Kafka")
	} else {
		slog.Info("⚠️ No Kafka broker configured, analyses run inline")
	}

	server := api.NewServer(cfg, deps, logger)
	go func() {
		slog.Info("🚀 Server running", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			slog.Error("❌ Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("❌ Shutdown error", "error", err)
	}
}
