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
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// LRUCache is a thread-safe fixed-size LRU cache.
//
// Description:
//
//	Evicts the least recently used entry when capacity is reached. Uses
//	container/list for O(1) access and eviction.
//
// Thread Safety: All methods are safe for concurrent use.
type LRUCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List // Front = most recent, Back = least recent

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRUCache creates a cache holding at most capacity entries.
// A non-positive capacity defaults to 256.
func NewLRUCache[K comparable, V any](capacity int) *LRUCache[K, V] {
	if capacity <= 0 {
		capacity = 256
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the value for key and marks it most recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		c.hits.Add(1)
		return elem.Value.(*lruEntry[K, V]).value, true
	}

	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set adds or replaces the value for key, evicting the oldest entry when
// full.
func (c *LRUCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*lruEntry[K, V]).value = value
		return
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry[K, V]).key)
			c.evictions.Add(1)
		}
	}

	c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
}

// Len returns the number of entries.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns hit, miss and eviction counts.
func (c *LRUCache[K, V]) Stats() (hits, misses, evictions int64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}

// LRUStore is an in-memory Store backed by an LRUCache.
type LRUStore struct {
	cache  *LRUCache[string, *Entry]
	closed atomic.Bool
}

// NewLRUStore creates an in-memory store holding at most capacity entries.
func NewLRUStore(capacity int) *LRUStore {
	return &LRUStore{cache: NewLRUCache[string, *Entry](capacity)}
}

// Get implements Store.
func (s *LRUStore) Get(_ context.Context, key string) (*Entry, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	e, ok := s.cache.Get(key)
	return e, ok, nil
}

// Put implements Store.
func (s *LRUStore) Put(_ context.Context, key string, entry *Entry) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.cache.Set(key, entry)
	return nil
}

// Close implements Store.
func (s *LRUStore) Close() error {
	s.closed.Store(true)
	return nil
}

// Len returns the number of cached entries.
func (s *LRUStore) Len() int {
	return s.cache.Len()
}

// Stats exposes the underlying cache statistics.
func (s *LRUStore) Stats() (hits, misses, evictions int64) {
	return s.cache.Stats()
}
