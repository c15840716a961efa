// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/monosub/services/cipher/score"
)

// Watcher reloads a dictionary file whenever it changes.
//
// # Description
//
// The parent directory is watched so editors that replace the file by rename
// are still observed. A reload that fails keeps the previous dictionary and
// logs a warning.
//
// # Thread Safety
//
// Start should only be called once. Stop is safe to call multiple times.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onReload func(*score.Dictionary)
	logger   *slog.Logger
}

// NewWatcher creates a watcher for path.
//
// # Inputs
//
//   - path: Dictionary file to watch.
//   - onReload: Called with each successfully reloaded dictionary.
//   - logger: Logger. Nil uses slog.Default.
//
// # Outputs
//
//   - *Watcher: Ready-to-start watcher.
//   - error: Non-nil if the fsnotify watcher cannot be created.
func NewWatcher(path string, onReload func(*score.Dictionary), logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create dictionary watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Watcher{
		path:     filepath.Clean(abs),
		watcher:  fw,
		onReload: onReload,
		logger:   logger.With(slog.String("component", "dictionary_watcher")),
	}, nil
}

// Start watches until ctx is cancelled. Run it in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Debug("Started watching dictionary", slog.String("path", w.path))

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Dictionary watcher error", slog.String("error", err.Error()))

		case <-ctx.Done():
			w.logger.Debug("Dictionary watcher stopping")
			return nil
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	d, stats, err := Load(w.path)
	if err != nil {
		w.logger.Warn("Dictionary reload failed, keeping previous",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}
	w.logger.Info("Dictionary reloaded",
		slog.String("path", w.path),
		slog.Int("words", stats.Words),
		slog.Int("skipped", stats.Skipped))
	if w.onReload != nil {
		w.onReload(d)
	}
}

// Stop releases the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
