// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the Watcher waits for writes to settle.
const DefaultDebounce = 200 * time.Millisecond

// ReloadHandler receives each successfully reloaded config.
type ReloadHandler func(cfg *Config)

// Watcher reloads a config file when it changes on disk.
//
// # Description
//
// Watches the directory holding the file, so editors that save by rename
// are seen. Bursts of events are debounced into one reload. A file that
// fails to load or validate is logged and ignored; the previous config
// stays in effect.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	handler  ReloadHandler
	debounce time.Duration
	logger   *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a Watcher for path. Call Start to begin watching.
//
// # Inputs
//
//   - path: Config file to watch. Must not be empty.
//   - handler: Called with each reloaded config.
//   - debounce: Settle window. Zero uses DefaultDebounce.
//   - logger: Nil uses slog.Default.
//
// # Outputs
//
//   - *Watcher: Ready to Start.
//   - error: Non-nil if path is empty or the OS watcher cannot be created.
func NewWatcher(path string, handler ReloadHandler, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("config watcher: empty path")
	}
	if handler == nil {
		return nil, errors.New("config watcher: nil handler")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		path:     abs,
		watcher:  fw,
		handler:  handler,
		debounce: debounce,
		logger:   logger.With(slog.String("config", abs)),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. Watching stops when ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload rejected", slog.String("error", err.Error()))
		return
	}
	w.logger.Info("config reloaded", slog.String("policy", cfg.Policy.Key()))
	w.handler(cfg)
}
