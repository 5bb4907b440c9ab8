// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// ErrKeyNotFound is returned by Get when the key does not exist.
var ErrKeyNotFound = errors.New("redis key not found")

// RedisRepository provides an interface for redis.
// It defines methods for setting, getting and deleting keys, plus the SETNX lock used for idempotency.
//
//go:generate mockgen --destination=repository.mock.go --package=redis . RedisRepository
type RedisRepository interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	SetIfEqual(ctx context.Context, guardKey, expected, key, value string, ttl time.Duration) (bool, error)
}

// setIfEqualScript writes KEYS[2] only while KEYS[1] holds ARGV[1]. A missing guard reads as "0".
var setIfEqualScript = goredis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
	current = '0'
end
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisConsumerRepository is a Redis implementation of RedisRepository.
type RedisConsumerRepository struct {
	conn *RedisConnection
}

// Compile-time interface satisfaction check.
var _ RedisRepository = (*RedisConsumerRepository)(nil)

// NewConsumerRedis returns a new instance of RedisConsumerRepository using the given Redis connection.
func NewConsumerRedis(rc *RedisConnection) (*RedisConsumerRepository, error) {
	if rc == nil {
		return nil, ErrNilConnection
	}

	r := &RedisConsumerRepository{
		conn: rc,
	}
	if _, err := r.conn.GetClient(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return r, nil
}

// Set sets a key in the redis
func (rc *RedisConsumerRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.set")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.key", key),
		attribute.String("app.request.ttl", ttl.String()),
	)

	rds, err := rc.conn.GetClient(ctx)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get redis", err)
		return err
	}

	if err := rds.Set(ctx, key, value, ttl).Err(); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to set on redis", err)
		return err
	}

	return nil
}

// SetNX sets a key only when it does not exist yet and reports whether it was set.
func (rc *RedisConsumerRepository) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.setnx")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.key", key),
		attribute.String("app.request.ttl", ttl.String()),
	)

	rds, err := rc.conn.GetClient(ctx)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get redis", err)
		return false, err
	}

	acquired, err := rds.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to setnx on redis", err)
		return false, err
	}

	span.SetAttributes(attribute.Bool("app.response.acquired", acquired))

	if !acquired {
		logger.Debugf("Key %s already held", key)
	}

	return acquired, nil
}

// Get recovers a key from the redis. Missing keys yield ErrKeyNotFound.
func (rc *RedisConsumerRepository) Get(ctx context.Context, key string) (string, error) {
	_, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.get")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.key", key),
	)

	rds, err := rc.conn.GetClient(ctx)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get redis", err)
		return "", err
	}

	val, err := rds.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			opentelemetry.HandleSpanBusinessErrorEvent(&span, "Key not found", err)
			return "", ErrKeyNotFound
		}

		opentelemetry.HandleSpanError(&span, "Failed to get on redis", err)

		return "", err
	}

	return val, nil
}

// Del deletes a key from the redis
func (rc *RedisConsumerRepository) Del(ctx context.Context, key string) error {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.del")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.key", key),
	)

	rds, err := rc.conn.GetClient(ctx)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to del redis", err)
		return err
	}

	deleted, err := rds.Del(ctx, key).Result()
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to del on redis", err)
		return err
	}

	logger.Debugf("Deleted %d keys for %s", deleted, key)

	return nil
}

// Incr increments a counter and refreshes its expiry.
func (rc *RedisConsumerRepository) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	_, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.incr")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.key", key),
	)

	rds, err := rc.conn.GetClient(ctx)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get redis", err)
		return 0, err
	}

	pipe := rds.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to incr on redis", err)
		return 0, err
	}

	return incr.Val(), nil
}

// SetIfEqual sets key only while guardKey still holds expected, atomically on the server.
func (rc *RedisConsumerRepository) SetIfEqual(ctx context.Context, guardKey, expected, key, value string, ttl time.Duration) (bool, error) {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.set_if_equal")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.key", key),
		attribute.String("app.request.guard_key", guardKey),
	)

	rds, err := rc.conn.GetClient(ctx)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get redis", err)
		return false, err
	}

	stored, err := setIfEqualScript.Run(ctx, rds, []string{guardKey, key}, expected, value, ttl.Milliseconds()).Int()
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to set on redis", err)
		return false, err
	}

	span.SetAttributes(attribute.Bool("app.response.stored", stored == 1))

	if stored == 0 {
		logger.Debugf("Guard %s moved past %s, %s left untouched", guardKey, expected, key)
	}

	return stored == 1, nil
}

// IdempotencyKey builds the lock key guarding a single report generation.
func IdempotencyKey(prefix, reportID string) string {
	return prefix + ":" + reportID
}
