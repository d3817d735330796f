// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store caches route search outcomes.
//
// A search is deterministic in its inputs (grid contents, policy, endpoints
// and start headings), so both found routes and "no path" outcomes can be
// cached indefinitely under a key derived from those inputs.
//
// Two backends are provided:
//
//	Hot (RAM, LRUStore) → Warm (BadgerDB, BadgerStore)
//
// # Thread Safety
//
// All Store implementations are safe for concurrent use.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/crucible/services/route/grid"
	"github.com/AleutianAI/crucible/services/route/search"
)

// Sentinel errors for store operations.
var (
	// ErrClosed is returned when using a store after Close.
	ErrClosed = errors.New("store is closed")

	// ErrUnknownBackend is returned by Open for unrecognized backends.
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Entry is a cached search outcome.
type Entry struct {
	// Result is the search result. Nil when NoPath is true.
	Result *search.Result `json:"result,omitempty"`

	// NoPath records that the search exhausted without reaching the goal.
	NoPath bool `json:"no_path,omitempty"`
}

// Store caches search outcomes by key.
type Store interface {
	// Get returns the entry for key. The bool is false on a miss.
	Get(ctx context.Context, key string) (*Entry, bool, error)

	// Put stores entry under key, replacing any existing entry.
	Put(ctx context.Context, key string, entry *Entry) error

	// Close releases resources. The store must not be used afterwards.
	Close() error
}

// KeyInput is everything that determines a search outcome.
type KeyInput struct {
	GridDigest string
	PolicyKey  string
	Starts     []grid.Position
	Goal       grid.Position
	Headings   []grid.Heading
}

// Key derives a cache key from the search inputs.
//
// The key is a hex SHA-256 so it has a fixed length regardless of how many
// start positions are involved.
func Key(in KeyInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "grid=%s;policy=%s;goal=%d,%d;starts=", in.GridDigest, in.PolicyKey, in.Goal.X, in.Goal.Y)
	for _, s := range in.Starts {
		fmt.Fprintf(&b, "%d,%d|", s.X, s.Y)
	}
	b.WriteString(";headings=")
	for _, h := range in.Headings {
		b.WriteString(h.String())
		b.WriteByte('|')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// NopStore never stores anything.
type NopStore struct{}

// Get implements Store.
func (NopStore) Get(context.Context, string) (*Entry, bool, error) { return nil, false, nil }

// Put implements Store.
func (NopStore) Put(context.Context, string, *Entry) error { return nil }

// Close implements Store.
func (NopStore) Close() error { return nil }
