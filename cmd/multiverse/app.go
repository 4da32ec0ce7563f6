package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jwebster45206/multiverse-fugitive/internal/config"
	"github.com/jwebster45206/multiverse-fugitive/internal/engine"
	"github.com/jwebster45206/multiverse-fugitive/internal/logger"
	istorage "github.com/jwebster45206/multiverse-fugitive/internal/storage"
	"github.com/jwebster45206/multiverse-fugitive/internal/universes"
	"github.com/jwebster45206/multiverse-fugitive/pkg/storage"
	"github.com/jwebster45206/multiverse-fugitive/pkg/storyarc"
	"github.com/jwebster45206/multiverse-fugitive/pkg/textfmt"
	"github.com/jwebster45206/multiverse-fugitive/pkg/universe"
)

const (
	redisRetries    = 3
	redisRetryDelay = 500 * time.Millisecond
)

// app bundles what every command needs: configuration, logging and the
// save store.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  storage.SaveStore // nil when saves are disabled

	logFile io.Closer
}

// newApp loads configuration and opens the save store. Interactive
// commands log to LOG_FILE or nowhere, so log lines never land on top of
// the game.
func newApp(ctx context.Context, stderr io.Writer, interactive bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	out := stderr
	switch {
	case cfg.LogFile != "":
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = f
		out = f
	case interactive:
		out = io.Discard
	}
	a.logger = logger.Setup(cfg, out)

	a.store, err = openStore(ctx, cfg, a.logger)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.SaveStore, error) {
	switch cfg.SaveBackend {
	case config.BackendNone:
		return nil, nil
	case config.BackendRedis:
		r, err := istorage.NewRedisStorage(cfg.RedisURL, cfg.SaveTTL, log)
		if err != nil {
			return nil, err
		}
		if err := r.WaitForConnection(ctx, redisRetries, redisRetryDelay); err != nil {
			_ = r.Close()
			return nil, err
		}
		return r, nil
	default:
		s, err := istorage.OpenSQLite(ctx, cfg.SavePath, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.LogError(a.logger, "Failed to close save store", err)
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// requireStore fails when SAVE_BACKEND=none.
func (a *app) requireStore() error {
	if a.store == nil {
		return fmt.Errorf("saves are disabled (SAVE_BACKEND=%s)", a.cfg.SaveBackend)
	}
	return nil
}

// registry builds the universe registry: built-ins first, then any arc
// files named with --universe.
func (a *app) registry(opts *rootOptions) (*universe.Registry, error) {
	seed := opts.seed
	if seed == 0 {
		seed = a.cfg.Seed
	}
	roller := storyarc.NewRoller(seed)

	reg := universe.NewRegistry()
	if err := universes.RegisterAll(reg, roller, a.logger); err != nil {
		return nil, fmt.Errorf("failed to register built-in universes: %w", err)
	}
	if err := universes.RegisterFiles(reg, opts.universes, roller, a.logger); err != nil {
		return nil, fmt.Errorf("failed to register universe files: %w", err)
	}
	return reg, nil
}

func (a *app) engineOptions() []engine.Option {
	return []engine.Option{
		engine.WithLogger(a.logger),
		engine.WithStore(a.store),
		engine.WithAutosave(a.cfg.Autosave),
	}
}

// filter returns the family filter when the content rating asks for one.
func (a *app) filter() *textfmt.FamilyFilter {
	if textfmt.FilterEnabled(a.cfg.ContentRating) {
		return textfmt.NewFamilyFilter()
	}
	return nil
}
