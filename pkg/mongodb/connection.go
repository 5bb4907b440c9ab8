// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package mongodb holds the MongoDB connection shared by the report registry.
package mongodb

import (
	"context"
	"errors"
	"sync"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/log"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrNilConnection is returned when a repository is built without a connection.
var ErrNilConnection = errors.New("mongodb connection is nil")

// MongoConnection lazily connects to MongoDB and hands out the client.
type MongoConnection struct {
	ConnectionStringSource string
	Database               string
	MaxPoolSize            uint64
	Logger                 log.Logger

	mu     sync.Mutex
	client *mongo.Client
}

// Connect opens the client and pings the primary.
func (mc *MongoConnection) Connect(ctx context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	return mc.connectLocked(ctx)
}

func (mc *MongoConnection) connectLocked(ctx context.Context) error {
	if mc.client != nil {
		return nil
	}

	opts := options.Client().ApplyURI(mc.ConnectionStringSource)
	if mc.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(mc.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	mc.logger().Infof("Connected to mongodb %s", pkg.RedactConnectionString(mc.ConnectionStringSource))

	mc.client = client

	return nil
}

// GetDB returns the connected client, connecting on first use.
func (mc *MongoConnection) GetDB(ctx context.Context) (*mongo.Client, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if err := mc.connectLocked(ctx); err != nil {
		mc.logger().Errorf("Failed to connect to mongodb: %v", err)
		return nil, err
	}

	return mc.client, nil
}

// Ping checks the primary is reachable.
func (mc *MongoConnection) Ping(ctx context.Context) error {
	client, err := mc.GetDB(ctx)
	if err != nil {
		return err
	}

	return client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client if it was opened.
func (mc *MongoConnection) Close(ctx context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.client == nil {
		return nil
	}

	err := mc.client.Disconnect(ctx)
	mc.client = nil

	return err
}

func (mc *MongoConnection) logger() log.Logger {
	if mc.Logger == nil {
		return &log.NoneLogger{}
	}

	return mc.Logger
}
