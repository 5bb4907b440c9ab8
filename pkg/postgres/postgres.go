// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package postgres reads report datasets from the clinical PostgreSQL warehouse.
package postgres

import (
	"database/sql"
	"sync"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"

	_ "github.com/jackc/pgx/v5/stdlib" // Registers the "pgx" driver with database/sql.
)

// Connection is a hub which deals with postgres connections.
type Connection struct {
	ConnectionString   string
	DBName             string
	Logger             log.Logger
	MaxOpenConnections int
	MaxIdleConnections int

	mu           sync.Mutex
	connectionDB *sql.DB
}

// Connect initializes the connection with the PostgreSQL DB.
func (c *Connection) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connectLocked()
}

func (c *Connection) connectLocked() error {
	if c.connectionDB != nil {
		return nil
	}

	logger := c.logger()

	db, err := sql.Open("pgx", c.ConnectionString)
	if err != nil {
		logger.Errorf("Error opening connection: %v", err)
		return err
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Errorf("Error closing connection: %v", closeErr)
		}

		logger.Errorf("Error pinging PostgreSQL %s: %v", pkg.RedactConnectionString(c.ConnectionString), err)

		return err
	}

	db.SetMaxOpenConns(c.MaxOpenConnections)
	db.SetMaxIdleConns(c.MaxIdleConnections)
	db.SetConnMaxLifetime(constant.PostgresConnMaxLifetime)

	c.connectionDB = db

	logger.Infof("Connected to PostgreSQL [%s]", c.DBName)

	return nil
}

// GetDB returns the postgres pool, connecting on first use.
func (c *Connection) GetDB() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(); err != nil {
		return nil, err
	}

	return c.connectionDB, nil
}

// Close closes the pool if it was opened.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connectionDB == nil {
		return nil
	}

	err := c.connectionDB.Close()
	c.connectionDB = nil

	return err
}

func (c *Connection) logger() log.Logger {
	if c.Logger == nil {
		return &log.NoneLogger{}
	}

	return c.Logger
}
