package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever the file at path changes on disk and
// passes the new effective configuration to onChange. It blocks until ctx
// is done. The parent directory is watched because editors replace files
// instead of writing them in place.
func (s *Store) Watch(ctx context.Context, path string, onChange func(AppConfig)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	name := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := s.Load(); err != nil {
				slog.Warn("config reload failed", "error", err)
				continue
			}
			slog.Debug("config reloaded", "path", path)
			if onChange != nil {
				onChange(s.Config())
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}
