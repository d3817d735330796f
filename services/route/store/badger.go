// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces route entries inside the database.
const keyPrefix = "route/v1/"

// BadgerConfig holds configuration for a BadgerDB-backed store.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files.
	// Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// TTL expires entries after the given duration. Zero keeps entries
	// until the database is deleted.
	TTL time.Duration

	// GCInterval is how often to run value log garbage collection.
	// Zero disables GC.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	GCDiscardRatio float64

	// Logger receives BadgerDB's internal logs. Nil disables them.
	Logger *slog.Logger
}

// DefaultBadgerConfig returns production defaults for a persistent store at
// path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryBadgerConfig returns a configuration for tests.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// openBadger opens the database described by cfg.
func openBadger(cfg BadgerConfig) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

// GCRunner runs periodic value log garbage collection on a BadgerDB.
type GCRunner struct {
	db       *badger.DB
	interval time.Duration
	ratio    float64
	stopCh   chan struct{}
	doneCh   chan struct{}
	logger   *slog.Logger
}

// NewGCRunner creates a garbage collection runner. Call Start to begin.
//
// Inputs:
//
//	db - The BadgerDB instance. Must not be nil.
//	interval - How often to run GC. Must be positive.
//	ratio - Minimum garbage ratio to trigger GC (0.0-1.0).
//	logger - Optional logger for GC events.
func NewGCRunner(db *badger.DB, interval time.Duration, ratio float64, logger *slog.Logger) (*GCRunner, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	if interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if ratio < 0 || ratio > 1 {
		return nil, errors.New("ratio must be between 0 and 1")
	}

	return &GCRunner{
		db:       db,
		interval: interval,
		ratio:    ratio,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   logger,
	}, nil
}

// Start begins periodic garbage collection in a goroutine.
func (r *GCRunner) Start() {
	go r.run()
}

// Stop signals the GC goroutine to stop and waits for it to finish.
func (r *GCRunner) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *GCRunner) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.runGC()
		}
	}
}

func (r *GCRunner) runGC() {
	err := r.db.RunValueLogGC(r.ratio)
	if err == nil {
		if r.logger != nil {
			r.logger.Debug("badger value log GC completed")
		}
	} else if !errors.Is(err, badger.ErrNoRewrite) {
		// ErrNoRewrite means nothing to collect
		if r.logger != nil {
			r.logger.Warn("badger value log GC error", slog.String("error", err.Error()))
		}
	}
}

// BadgerStore is a persistent Store backed by BadgerDB.
//
// Entries are JSON-encoded under "route/v1/<key>".
//
// Thread Safety: Safe for concurrent use.
type BadgerStore struct {
	db       *badger.DB
	gcRunner *GCRunner
	ttl      time.Duration
	closed   atomic.Bool
}

// OpenBadgerStore opens a BadgerDB-backed store.
//
// Description:
//
//	Opens the database at cfg.Path (or in memory) and starts a GC runner
//	when cfg.GCInterval is positive and the database is persistent.
//
// Outputs:
//
//	*BadgerStore - The store. Call Close when done.
//	error - Non-nil if the database cannot be opened.
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	db, err := openBadger(cfg)
	if err != nil {
		return nil, err
	}

	s := &BadgerStore{db: db, ttl: cfg.TTL}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		runner, err := NewGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create GC runner: %w", err)
		}
		s.gcRunner = runner
		runner.Start()
	}
	return s, nil
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("context cancelled: %w", err)
	}

	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return &entry, true, nil
}

// Put implements Store.
func (s *BadgerStore) Put(ctx context.Context, key string, entry *Entry) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+key), data)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Len counts stored entries.
func (s *BadgerStore) Len() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close stops the GC runner and closes the database. Safe to call more
// than once.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.gcRunner != nil {
		s.gcRunner.Stop()
	}
	return s.db.Close()
}
