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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendTiered = "tiered"
)

// Tiered checks a hot store before a warm one and promotes warm hits.
type Tiered struct {
	hot  Store
	warm Store
}

// NewTiered layers hot in front of warm.
func NewTiered(hot, warm Store) *Tiered {
	return &Tiered{hot: hot, warm: warm}
}

// Get implements Store.
func (t *Tiered) Get(ctx context.Context, key string) (*Entry, bool, error) {
	if e, ok, err := t.hot.Get(ctx, key); err != nil || ok {
		return e, ok, err
	}

	e, ok, err := t.warm.Get(ctx, key)
	if err != nil || !ok {
		return e, ok, err
	}
	if err := t.hot.Put(ctx, key, e); err != nil {
		return nil, false, fmt.Errorf("promote %s: %w", key, err)
	}
	return e, true, nil
}

// Put writes to both tiers.
func (t *Tiered) Put(ctx context.Context, key string, entry *Entry) error {
	if err := t.warm.Put(ctx, key, entry); err != nil {
		return err
	}
	return t.hot.Put(ctx, key, entry)
}

// Close closes both tiers.
func (t *Tiered) Close() error {
	return errors.Join(t.hot.Close(), t.warm.Close())
}

// Options selects and configures a store backend.
type Options struct {
	Backend  string
	Capacity int
	Path     string
	TTL      time.Duration
	Logger   *slog.Logger
}

// Open builds the store named by opts.Backend.
//
// Outputs:
//
//	Store - The store. Call Close when done.
//	error - ErrUnknownBackend, or a BadgerDB open error.
func Open(opts Options) (Store, error) {
	badgerCfg := func() BadgerConfig {
		var cfg BadgerConfig
		if opts.Path == "" {
			cfg = InMemoryBadgerConfig()
		} else {
			cfg = DefaultBadgerConfig(opts.Path)
		}
		cfg.TTL = opts.TTL
		cfg.Logger = opts.Logger
		return cfg
	}

	switch strings.ToLower(opts.Backend) {
	case "", BackendNone:
		return NopStore{}, nil
	case BackendMemory:
		return NewLRUStore(opts.Capacity), nil
	case BackendBadger:
		return OpenBadgerStore(badgerCfg())
	case BackendTiered:
		warm, err := OpenBadgerStore(badgerCfg())
		if err != nil {
			return nil, err
		}
		return NewTiered(NewLRUStore(opts.Capacity), warm), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
