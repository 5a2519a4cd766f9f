// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/aitalkmaster/aitalkmaster/internal/log"
)

// Watch re-reads the config file whenever it changes and pushes the new
// allow-lists into the registry. Only the allow-lists are hot-reloadable;
// everything else (ports, worker counts, client modes) requires a restart.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, reg *Registry) error {
	logger := log.WithComponent("config")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory, not the file: editors and config writers often
	// replace the file via rename, which drops a file-level watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := NewLoader(path).Load()
			if err != nil {
				logger.Warn().Err(err).
					Str(log.FieldEvent, "config.reload_failed").
					Str(log.FieldPath, path).
					Msg("keeping previous allow-lists")
				continue
			}
			reg.Update(&cfg)
			logger.Info().
				Str(log.FieldEvent, "config.reloaded").
				Str(log.FieldPath, path).
				Msg("allow-lists reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Str(log.FieldEvent, "config.watch_error").Msg("watch error")
		}
	}
}
