package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kalambet/smartfill/internal/accessibility"
	"github.com/kalambet/smartfill/internal/classify"
	"github.com/kalambet/smartfill/internal/config"
	"github.com/kalambet/smartfill/internal/fill"
	"github.com/kalambet/smartfill/internal/llm"
	"github.com/kalambet/smartfill/internal/profile"
	"github.com/kalambet/smartfill/internal/resolve"
	"github.com/kalambet/smartfill/internal/storage"
	"github.com/kalambet/smartfill/internal/vault"
)

// app is everything a command needs, built from config on every run.
type app struct {
	cfg      *config.Store
	store    *profile.Store
	profiles *profile.Manager
	history  *storage.Store
	backend  *liveBackend
	fills    *fill.Service
}

var openApp = func(ctx context.Context) (*app, error) {
	cfgStore, err := config.Open()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := cfgStore.Config()
	setupLogging(cfg.Log.Level)
	if cfg.UI.NoColor {
		noColor = true
	}

	return buildApp(ctx, cfgStore, config.Dir())
}

func buildApp(ctx context.Context, cfgStore *config.Store, dir string) (*app, error) {
	cfg := cfgStore.Config()

	cipher, err := vault.Open(filepath.Join(dir, "enckey"))
	var store *profile.Store
	if err != nil {
		slog.Warn("encryption key unavailable, profiles are read-only", "error", err)
		store = profile.NewStore(filepath.Join(dir, "profiles"), nil)
	} else {
		store = profile.NewStore(filepath.Join(dir, "profiles"), cipher)
	}
	profiles := profile.NewManager(store, cfg.ActiveProfile)

	a := &app{cfg: cfgStore, store: store, profiles: profiles, backend: &liveBackend{}}
	if err := a.reloadBackend(ctx, cfg); err != nil {
		return nil, err
	}

	fc := fill.Config{
		AX:             accessibility.New(),
		Classifier:     classify.New(a.backend),
		Resolver:       resolve.New(a.backend),
		Profiles:       profiles,
		KeystrokeDelay: time.Duration(cfg.Accessibility.KeystrokeDelayMS) * time.Millisecond,
	}
	if cfg.Privacy.KeepHistory {
		h, err := storage.Open(dir)
		if err != nil {
			slog.Warn("fill history unavailable", "error", err)
		} else {
			a.history = h
			fc.History = h
		}
	}
	a.fills = fill.New(fc)
	return a, nil
}

// reloadBackend rebuilds the completion gateway from cfg.
func (a *app) reloadBackend(ctx context.Context, cfg config.AppConfig) error {
	key, err := a.cfg.APIKey()
	if err != nil {
		slog.Warn("reading API key failed", "error", err)
	}
	g, err := llm.Select(ctx, cfg, key)
	if err != nil {
		return err
	}
	a.backend.set(g)
	return nil
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			slog.Warn("closing history", "error", err)
		}
	}
}

// liveBackend lets a running server swap the gateway when config changes
// without rebuilding the classifier and resolver.
type liveBackend struct {
	mu sync.RWMutex
	g  *llm.Gateway
}

func (l *liveBackend) set(g *llm.Gateway) {
	l.mu.Lock()
	l.g = g
	l.mu.Unlock()
}

func (l *liveBackend) gateway() *llm.Gateway {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.g
}

func (l *liveBackend) Complete(ctx context.Context, req llm.Request) (string, error) {
	return l.gateway().Complete(ctx, req)
}

func setupLogging(level string) {
	lvl := slog.LevelWarn
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
