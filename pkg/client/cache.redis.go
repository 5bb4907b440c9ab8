// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/redis"
)

// redisRetentionFactor is how many staleness windows a stale entry is kept for display.
const redisRetentionFactor = 10

type redisEntry[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetchedAt"`
	Stale     bool      `json:"stale,omitempty"`
}

// RedisCache is a Cache shared through Redis, so short lived processes see the same staleness window.
type RedisCache[T any] struct {
	repo      redis.RedisRepository
	staleTime time.Duration
	retention time.Duration
	now       func() time.Time
}

// NewRedisCache returns a cache over repo trusting entries for staleTime.
func NewRedisCache[T any](repo redis.RedisRepository, staleTime time.Duration) *RedisCache[T] {
	if staleTime <= 0 {
		staleTime = constant.ReportListStaleTime
	}

	return &RedisCache[T]{
		repo:      repo,
		staleTime: staleTime,
		retention: staleTime * redisRetentionFactor,
		now:       time.Now,
	}
}

// Get implements Cache.
func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T

	e, ok, err := c.load(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	if e.Stale || c.now().Sub(e.FetchedAt) >= c.staleTime {
		return zero, false, nil
	}

	return e.Value, true, nil
}

// Peek implements Cache.
func (c *RedisCache[T]) Peek(ctx context.Context, key string) (T, bool, error) {
	var zero T

	e, ok, err := c.load(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	return e.Value, true, nil
}

// Put implements Cache.
func (c *RedisCache[T]) Put(ctx context.Context, key string, value T) error {
	return c.store(ctx, key, redisEntry[T]{Value: value, FetchedAt: c.now().UTC()})
}

// Generation implements Cache.
func (c *RedisCache[T]) Generation(ctx context.Context, key string) (int64, error) {
	raw, err := c.repo.Get(ctx, generationKey(key))
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return 0, nil
		}

		return 0, err
	}

	return strconv.ParseInt(raw, 10, 64)
}

// PutIfGeneration implements Cache. The generation check and the write run as one script on the server.
func (c *RedisCache[T]) PutIfGeneration(ctx context.Context, key string, value T, gen int64) (bool, error) {
	raw, err := json.Marshal(redisEntry[T]{Value: value, FetchedAt: c.now().UTC()})
	if err != nil {
		return false, err
	}

	return c.repo.SetIfEqual(ctx, generationKey(key), strconv.FormatInt(gen, 10), key, string(raw), c.retention)
}

// Invalidate implements Cache.
func (c *RedisCache[T]) Invalidate(ctx context.Context, key string) error {
	if err := c.bump(ctx, key); err != nil {
		return err
	}

	return c.repo.Del(ctx, key)
}

// SetStale implements Cache.
func (c *RedisCache[T]) SetStale(ctx context.Context, key string) error {
	if err := c.bump(ctx, key); err != nil {
		return err
	}

	e, ok, err := c.load(ctx, key)
	if err != nil || !ok {
		return err
	}

	e.Stale = true

	return c.store(ctx, key, e)
}

// bump moves key to its next generation. The counter outlives the entry it guards.
func (c *RedisCache[T]) bump(ctx context.Context, key string) error {
	_, err := c.repo.Incr(ctx, generationKey(key), c.retention*redisRetentionFactor)
	return err
}

func generationKey(key string) string {
	return key + ":gen"
}

func (c *RedisCache[T]) load(ctx context.Context, key string) (redisEntry[T], bool, error) {
	var e redisEntry[T]

	raw, err := c.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return e, false, nil
		}

		return e, false, err
	}

	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		pkg.NewLoggerFromContext(ctx).Warnf("Dropping unreadable cache entry %s: %v", key, err)

		return e, false, c.repo.Del(ctx, key)
	}

	return e, true, nil
}

func (c *RedisCache[T]) store(ctx context.Context, key string, e redisEntry[T]) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return c.repo.Set(ctx, key, string(raw), c.retention)
}
