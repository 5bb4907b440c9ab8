// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
	"github.com/navimedi/reporter/pkg/mongodb"
	"github.com/navimedi/reporter/pkg/mongodb/report"
	"github.com/navimedi/reporter/pkg/opentelemetry"
	"github.com/navimedi/reporter/pkg/pdf"
	"github.com/navimedi/reporter/pkg/postgres"
	pkgRabbitmq "github.com/navimedi/reporter/pkg/rabbitmq"
	"github.com/navimedi/reporter/pkg/redis"
	"github.com/navimedi/reporter/pkg/storage"
)

// errRabbitMQClosed is reported by the readiness probe while the broker channel is down.
var errRabbitMQClosed = errors.New("connection is closed")

// errPDFPoolUnhealthy is reported by the readiness probe when the chrome workers are gone.
var errPDFPoolUnhealthy = errors.New("pdf worker pool is not running")

// initConfigAndLogger loads configuration from environment variables, validates it,
// and initializes the structured logger.
func initConfigAndLogger() (*Config, log.Logger, error) {
	cfg := &Config{}
	if err := pkg.SetConfigFromEnvVars(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to load config from env vars: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, log.InitializeLogger(), nil
}

// initTelemetry initializes OpenTelemetry and returns a cleanup function that shuts it down.
func initTelemetry(cfg *Config, logger log.Logger) (*opentelemetry.Telemetry, func()) {
	telemetry := opentelemetry.InitializeTelemetry(&opentelemetry.TelemetryConfig{
		LibraryName:       cfg.OtelLibraryName,
		ServiceName:       cfg.OtelServiceName,
		ServiceVersion:    cfg.OtelServiceVersion,
		DeploymentEnv:     cfg.OtelDeploymentEnv,
		CollectorEndpoint: cfg.OtelColExporterEndpoint,
		EnableTelemetry:   cfg.EnableTelemetry,
		Logger:            logger,
	})

	cleanup := func() {
		logger.Info("Cleanup: shutting down telemetry")
		telemetry.ShutdownTelemetry()
	}

	return telemetry, cleanup
}

// initRabbitMQ builds the broker connection and opens the first channel, declaring the topology.
func initRabbitMQ(cfg *Config, logger log.Logger) (*pkgRabbitmq.RabbitMQConnection, func(), error) {
	rabbitSource := rabbitConnectionString(cfg)

	logger.Infof("RabbitMQ connecting to %s", pkg.RedactConnectionString(rabbitSource))

	rabbitMQConnection := &pkgRabbitmq.RabbitMQConnection{
		ConnectionStringSource: rabbitSource,
		Logger:                 logger,
	}

	if _, err := rabbitMQConnection.GetNewConnect(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	cleanup := func() {
		logger.Info("Cleanup: closing RabbitMQ connection")

		if closeErr := rabbitMQConnection.Close(); closeErr != nil {
			logger.Errorf("Cleanup: failed to close RabbitMQ connection: %v", closeErr)
		}
	}

	return rabbitMQConnection, cleanup, nil
}

// initMongoDB establishes the MongoDB connection and creates the report repository.
// Indexes are owned by the manager; a failure here is only logged.
func initMongoDB(cfg *Config, logger log.Logger) (*mongodb.MongoConnection, *report.ReportMongoDBRepository, func(), error) {
	mongoSource := mongoConnectionString(cfg)

	maxPoolSize := uint64(constant.MongoDefaultMaxPoolSize)
	if cfg.MongoMaxPoolSize > 0 {
		maxPoolSize = uint64(cfg.MongoMaxPoolSize)
	}

	logger.Infof("MongoDB connecting to %s", pkg.RedactConnectionString(mongoSource))

	mongoConnection := &mongodb.MongoConnection{
		ConnectionStringSource: mongoSource,
		Database:               cfg.MongoDBName,
		Logger:                 logger,
		MaxPoolSize:            maxPoolSize,
	}

	reportMongoDBRepository, err := report.NewReportMongoDBRepository(mongoConnection)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize report mongodb repository: %w", err)
	}

	ctx := pkg.ContextWithLogger(context.Background(), logger)

	if err = reportMongoDBRepository.EnsureIndexes(ctx); err != nil {
		logger.Warnf("Failed to ensure report indexes (non-fatal): %v", err)
	}

	cleanup := func() {
		logger.Info("Cleanup: disconnecting MongoDB")

		if disconnectErr := mongoConnection.Close(context.Background()); disconnectErr != nil {
			logger.Errorf("Cleanup: failed to disconnect MongoDB: %v", disconnectErr)
		}
	}

	return mongoConnection, reportMongoDBRepository, cleanup, nil
}

// initRedis connects the generation lock repository.
func initRedis(cfg *Config, logger log.Logger) (*redis.RedisConnection, *redis.RedisConsumerRepository, func(), error) {
	redisConnection := &redis.RedisConnection{
		Address:  cfg.RedisHost,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Logger:   logger,
	}

	lockRepo, err := redis.NewConsumerRedis(redisConnection)
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		logger.Info("Cleanup: closing Redis connection")

		if closeErr := redisConnection.Close(); closeErr != nil {
			logger.Errorf("Cleanup: failed to close Redis connection: %v", closeErr)
		}
	}

	return redisConnection, lockRepo, cleanup, nil
}

// initDataSource connects the clinical warehouse and warns about missing reporting views.
func initDataSource(cfg *Config, logger log.Logger) (*postgres.Connection, *postgres.ExternalDataSource, func(), error) {
	connectionString := dataSourceConnectionString(cfg)

	logger.Infof("Clinical data source connecting to %s", pkg.RedactConnectionString(connectionString))

	connection := &postgres.Connection{
		ConnectionString:   connectionString,
		DBName:             cfg.DataSourceName,
		Logger:             logger,
		MaxOpenConnections: cfg.DataSourceMaxOpenConns,
		MaxIdleConnections: cfg.DataSourceMaxIdleConns,
	}

	dataSource, err := postgres.NewDataSourceRepository(connection)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(pkg.ContextWithLogger(context.Background(), logger), constant.SchemaDiscoveryTimeout)
	defer cancel()

	missing, err := dataSource.MissingViews(ctx)

	switch {
	case err != nil:
		logger.Warnf("Could not verify reporting views: %v", err)
	case len(missing) > 0:
		logger.Warnf("Reporting views missing in schema %s: %v", constant.ClinicalSchema, missing)
	}

	cleanup := func() {
		logger.Info("Cleanup: closing clinical data source")

		if closeErr := dataSource.CloseConnection(); closeErr != nil {
			logger.Errorf("Cleanup: failed to close clinical data source: %v", closeErr)
		}
	}

	return connection, dataSource, cleanup, nil
}

// initStorage creates the S3-compatible object storage client for generated files.
func initStorage(cfg *Config, logger log.Logger) (*storage.S3Client, error) {
	ctx := pkg.ContextWithLogger(context.Background(), logger)

	storageClient, err := storage.NewS3Client(ctx, storage.S3Config{
		Endpoint:        cfg.ObjectStorageEndpoint,
		Region:          cfg.ObjectStorageRegion,
		Bucket:          cfg.ObjectStorageBucket,
		AccessKeyID:     cfg.ObjectStorageAccessKeyID,
		SecretAccessKey: cfg.ObjectStorageSecretKey,
		UsePathStyle:    cfg.ObjectStorageUsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	if cfg.ReportTTL != "" {
		logger.Infof("Reports will expire after: %s", cfg.ReportTTL)
	} else {
		logger.Infof("Reports will be stored permanently (no TTL)")
	}

	return storageClient, nil
}

// initPDFPool starts the headless chrome workers.
func initPDFPool(cfg *Config, logger log.Logger) (*pdf.WorkerPool, func()) {
	workers, timeout := cfg.pdfPool()

	pool := pdf.NewWorkerPool(workers, timeout, logger)
	logger.Infof("PDF Pool initialized with %d workers and %v timeout", workers, timeout)

	cleanup := func() {
		logger.Info("Cleanup: stopping PDF pool")
		pool.Close()
	}

	return pool, cleanup
}

// rabbitMQCheck adapts the connection state to a readiness check.
func rabbitMQCheck(conn *pkgRabbitmq.RabbitMQConnection) pkg.PingFunc {
	return func(context.Context) error {
		if !conn.HealthCheck() {
			return errRabbitMQClosed
		}

		return nil
	}
}

// dataSourceCheck pings the clinical warehouse pool.
func dataSourceCheck(conn *postgres.Connection) pkg.PingFunc {
	return func(ctx context.Context) error {
		db, err := conn.GetDB()
		if err != nil {
			return err
		}

		return db.PingContext(ctx)
	}
}

// pdfPoolCheck reports whether the chrome workers are running.
func pdfPoolCheck(pool *pdf.WorkerPool) pkg.PingFunc {
	return func(context.Context) error {
		if !pool.IsHealthy() {
			return errPDFPoolUnhealthy
		}

		return nil
	}
}
