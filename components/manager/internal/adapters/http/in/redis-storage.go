// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package in

import (
	"context"
	"time"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
	"github.com/navimedi/reporter/pkg/redis"

	"github.com/gofiber/fiber/v2"
)

// RateLimitStorage is the counter backend of the rate limiter.
type RateLimitStorage = fiber.Storage

// rateLimitKeyPrefix keeps limiter counters apart from idempotency locks and list caches.
const rateLimitKeyPrefix = "reporter:ratelimit:"

// RedisStorage adapts a RedisConnection to fiber.Storage so every manager replica
// shares the same counters. Redis errors let traffic through instead of blocking it.
type RedisStorage struct {
	conn   *redis.RedisConnection
	logger log.Logger
}

// Compile-time interface satisfaction check.
var _ fiber.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new RedisStorage wrapping the given connection.
func NewRedisStorage(conn *redis.RedisConnection, logger log.Logger) *RedisStorage {
	return &RedisStorage{
		conn:   conn,
		logger: logger,
	}
}

// Get returns nil for missing keys and on Redis errors.
func (s *RedisStorage) Get(key string) ([]byte, error) {
	if s.conn == nil {
		return nil, nil //nolint:nilnil // no Redis connection
	}

	ctx, cancel := context.WithTimeout(context.Background(), constant.RateLimitStorageTimeout)
	defer cancel()

	client, err := s.conn.GetClient(ctx)
	if err != nil {
		s.logger.Errorf("rate-limit redis storage: failed to get client: %v", err)
		return nil, nil //nolint:nilerr // fail open
	}

	val, err := client.Get(ctx, rateLimitKeyPrefix+key).Bytes()
	if err != nil {
		return nil, nil //nolint:nilerr // redis.Nil or unavailable
	}

	return val, nil
}

// Set stores val with an expiration. Redis errors are logged and ignored.
func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if s.conn == nil || len(key) == 0 || len(val) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), constant.RateLimitStorageTimeout)
	defer cancel()

	client, err := s.conn.GetClient(ctx)
	if err != nil {
		s.logger.Errorf("rate-limit redis storage: failed to get client: %v", err)
		return nil //nolint:nilerr // fail open
	}

	if err := client.Set(ctx, rateLimitKeyPrefix+key, val, exp).Err(); err != nil {
		s.logger.Errorf("rate-limit redis storage: failed to set key %s: %v", key, err)
	}

	return nil
}

// Delete removes key. Redis errors are logged and ignored.
func (s *RedisStorage) Delete(key string) error {
	if s.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), constant.RateLimitStorageTimeout)
	defer cancel()

	client, err := s.conn.GetClient(ctx)
	if err != nil {
		s.logger.Errorf("rate-limit redis storage: failed to get client: %v", err)
		return nil //nolint:nilerr // fail open
	}

	if err := client.Del(ctx, rateLimitKeyPrefix+key).Err(); err != nil {
		s.logger.Errorf("rate-limit redis storage: failed to delete key %s: %v", key, err)
	}

	return nil
}

// Reset is a no-op. Counters expire through their TTL.
func (s *RedisStorage) Reset() error {
	return nil
}

// Close is a no-op. The connection is closed by the service shutdown.
func (s *RedisStorage) Close() error {
	return nil
}
