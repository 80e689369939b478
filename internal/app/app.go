// Package app wires the shared components of the API and the worker from
// configuration. Missing credentials select the demo variants.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/illegalcall/glow-up/internal/ai"
	"github.com/illegalcall/glow-up/internal/config"
	"github.com/illegalcall/glow-up/internal/datastore"
	"github.com/illegalcall/glow-up/internal/pkg/supabase"
	"github.com/illegalcall/glow-up/internal/service"
	"github.com/illegalcall/glow-up/internal/storage"
	"github.com/illegalcall/glow-up/pkg/database"
)

type App struct {
	Blobs    storage.Storage
	Data     datastore.DataStore
	AI       *ai.Service
	Service  *service.Service
	Supabase *supabase.Client // nil without credentials

	// UploadsDir is set when images are kept on local disk.
	UploadsDir string

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, clients *database.Clients, logger *slog.Logger) (*App, error) {
	a := &App{}

	if cfg.Supabase.Enabled() {
		a.Supabase = supabase.New(cfg.Supabase.URL, cfg.Supabase.Key, logger)
		if err := a.Supabase.Ping(); err != nil {
			logger.Warn("⚠️ Supabase auth is not reachable yet", "error", err)
		}
	}

	blobs, err := a.newStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Blobs = blobs

	if clients.DB != nil {
		var opts []datastore.Option
		if a.Supabase != nil {
			opts = append(opts, datastore.WithRPC(a.Supabase))
		}
		a.Data = datastore.New(clients.DB, blobs, logger, opts...)
		logger.Info("✅ Using Postgres data store")
	} else {
		a.Data = datastore.NewMemory(blobs, logger)
		logger.Info("⚠️ No database configured, using in-memory data store")
	}

	var gen ai.Generator
	if cfg.Gemini.Enabled() {
		gemini, err := ai.NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		a.closers = append(a.closers, gemini.Close)
		gen = gemini
		logger.Info("✅ Gemini analysis enabled", "model", cfg.Gemini.Model)
	} else {
		logger.Info("⚠️ No Gemini API key, AI results are simulated")
	}
	a.AI = ai.NewService(gen, logger)
	a.Service = service.New(a.Data, a.AI, logger)

	return a, nil
}

func (a *App) newStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	sc := cfg.Storage
	switch sc.Backend {
	case "s3":
		s3, err := storage.NewS3Storage(ctx, sc.AWSRegion, sc.Bucket, sc.TTL, sc.MaxImageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		logger.Info("✅ Storing images in S3", "bucket", sc.Bucket)
		return s3, nil
	case "supabase":
		if a.Supabase != nil {
			logger.Info("✅ Storing images in Supabase Storage", "bucket", sc.Bucket)
			return storage.NewSupabaseStorage(cfg.Supabase.URL, cfg.Supabase.Key, sc.Bucket, sc.MaxImageSize), nil
		}
		logger.Warn("⚠️ Supabase storage selected without credentials, falling back to local disk")
	}

	local, err := storage.NewLocalStorage(sc.LocalDir, sc.PublicBaseURL, sc.MaxImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.UploadsDir = local.Dir()
	logger.Info("✅ Storing images on local disk", "dir", local.Dir())
	return local, nil
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("Failed to close component", "error", err)
		}
	}
}
