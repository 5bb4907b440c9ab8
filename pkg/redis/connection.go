// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package redis wraps the go-redis client used for idempotency locks, rate limiting and shared list caches.
package redis

import (
	"context"
	"errors"
	"sync"

	"github.com/navimedi/reporter/pkg/log"

	goredis "github.com/redis/go-redis/v9"
)

// ErrNilConnection is returned when a repository is built without a connection.
var ErrNilConnection = errors.New("redis connection is nil")

// RedisConnection lazily builds a go-redis client and verifies it with PING.
type RedisConnection struct {
	Address  string
	Password string
	DB       int
	Logger   log.Logger

	mu     sync.Mutex
	client *goredis.Client
}

// GetClient returns the connected client, connecting on first use.
func (rc *RedisConnection) GetClient(ctx context.Context) (*goredis.Client, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.client != nil {
		return rc.client, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     rc.Address,
		Password: rc.Password,
		DB:       rc.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		rc.logger().Errorf("Failed to connect to redis at %s: %v", rc.Address, err)

		return nil, err
	}

	rc.logger().Infof("Connected to redis at %s", rc.Address)

	rc.client = client

	return client, nil
}

// Ping checks the server answers.
func (rc *RedisConnection) Ping(ctx context.Context) error {
	client, err := rc.GetClient(ctx)
	if err != nil {
		return err
	}

	return client.Ping(ctx).Err()
}

// Close releases the client if it was opened.
func (rc *RedisConnection) Close() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.client == nil {
		return nil
	}

	err := rc.client.Close()
	rc.client = nil

	return err
}

func (rc *RedisConnection) logger() log.Logger {
	if rc.Logger == nil {
		return &log.NoneLogger{}
	}

	return rc.Logger
}
