// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"context"
	"sync"
	"time"

	"github.com/navimedi/reporter/pkg/constant"
)

// Cache holds fetched values with a staleness window.
// Entries are never edited in place by callers: they are replaced by Put, dropped by Invalidate
// or kept for display but forced to re-fetch by SetStale.
//
// Every key carries a generation bumped by Invalidate and SetStale. A fetch reads the generation
// first and stores its result with PutIfGeneration, so a result fetched before an invalidation
// is never written back over it.
type Cache[T any] interface {
	// Get returns the value only while it is fresh.
	Get(ctx context.Context, key string) (T, bool, error)

	// Peek returns the value whether fresh or stale.
	Peek(ctx context.Context, key string) (T, bool, error)

	Put(ctx context.Context, key string, value T) error

	// Generation returns the current generation of key, zero when never invalidated.
	Generation(ctx context.Context, key string) (int64, error)

	// PutIfGeneration stores value only while key is still at generation gen.
	PutIfGeneration(ctx context.Context, key string, value T, gen int64) (bool, error)

	Invalidate(ctx context.Context, key string) error
	SetStale(ctx context.Context, key string) error
}

// ListCacheKey is the cache key of the report list seen by scope (typically a tenant or user).
func ListCacheKey(scope string) string {
	if scope == "" {
		return constant.ReportListCacheKeyPrefix
	}

	return constant.ReportListCacheKeyPrefix + ":" + scope
}

type memoryEntry[T any] struct {
	value     T
	fetchedAt time.Time
	stale     bool
}

// MemoryCache is an in-process Cache.
type MemoryCache[T any] struct {
	mu          sync.RWMutex
	entries     map[string]memoryEntry[T]
	generations map[string]int64
	staleTime   time.Duration
	now       func() time.Time
}

// NewMemoryCache returns an empty cache trusting entries for staleTime.
// A non-positive staleTime uses constant.ReportListStaleTime.
func NewMemoryCache[T any](staleTime time.Duration) *MemoryCache[T] {
	if staleTime <= 0 {
		staleTime = constant.ReportListStaleTime
	}

	return &MemoryCache[T]{
		entries:     make(map[string]memoryEntry[T]),
		generations: make(map[string]int64),
		staleTime:   staleTime,
		now:         time.Now,
	}
}

// Get implements Cache.
func (c *MemoryCache[T]) Get(_ context.Context, key string) (T, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.stale || c.now().Sub(e.fetchedAt) >= c.staleTime {
		var zero T
		return zero, false, nil
	}

	return e.value, true, nil
}

// Peek implements Cache.
func (c *MemoryCache[T]) Peek(_ context.Context, key string) (T, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]

	return e.value, ok, nil
}

// Put implements Cache.
func (c *MemoryCache[T]) Put(_ context.Context, key string, value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry[T]{value: value, fetchedAt: c.now()}

	return nil
}

// Generation implements Cache.
func (c *MemoryCache[T]) Generation(_ context.Context, key string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.generations[key], nil
}

// PutIfGeneration implements Cache.
func (c *MemoryCache[T]) PutIfGeneration(_ context.Context, key string, value T, gen int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[key] != gen {
		return false, nil
	}

	c.entries[key] = memoryEntry[T]{value: value, fetchedAt: c.now()}

	return true, nil
}

// Invalidate implements Cache.
func (c *MemoryCache[T]) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	c.generations[key]++

	return nil
}

// SetStale implements Cache.
func (c *MemoryCache[T]) SetStale(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[key]++

	if e, ok := c.entries[key]; ok {
		e.stale = true
		c.entries[key] = e
	}

	return nil
}
