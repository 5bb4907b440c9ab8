// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"fmt"
	"net/url"

	"github.com/navimedi/reporter/components/manager/internal/adapters/rabbitmq"
	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
	"github.com/navimedi/reporter/pkg/mongodb"
	"github.com/navimedi/reporter/pkg/mongodb/report"
	"github.com/navimedi/reporter/pkg/opentelemetry"
	pkgRabbitmq "github.com/navimedi/reporter/pkg/rabbitmq"
	"github.com/navimedi/reporter/pkg/redis"
	"github.com/navimedi/reporter/pkg/storage"
)

// mongoResources holds MongoDB-related resources created during initialization.
type mongoResources struct {
	connection *mongodb.MongoConnection
	reportRepo *report.ReportMongoDBRepository
}

// rabbitResources holds RabbitMQ-related resources created during initialization.
type rabbitResources struct {
	connection *pkgRabbitmq.RabbitMQConnection
	producer   *rabbitmq.ProducerRabbitMQRepository
	monitor    *RabbitMQMonitor
}

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

// initStorage creates the S3-compatible object storage client holding generated report files.
func initStorage(cfg *Config, logger log.Logger) (storage.ObjectStorage, error) {
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

	logger.Infof("Storage initialized with bucket: %s", cfg.ObjectStorageBucket)

	return storageClient, nil
}

// mongoConnectionString assembles the MongoDB URI, escaping the password.
func mongoConnectionString(cfg *Config) string {
	scheme := cfg.MongoURI
	if scheme == "" {
		scheme = "mongodb"
	}

	source := fmt.Sprintf("%s://%s:%s@%s:%s",
		scheme, cfg.MongoDBUser, url.QueryEscape(cfg.MongoDBPassword), cfg.MongoDBHost, cfg.MongoDBPort)

	if cfg.MongoDBUser == "" {
		source = fmt.Sprintf("%s://%s:%s", scheme, cfg.MongoDBHost, cfg.MongoDBPort)
	}

	if cfg.MongoDBParameters != "" {
		source += "/?" + cfg.MongoDBParameters
	}

	return source
}

// initMongoDB establishes the MongoDB connection, creates the report repository and
// ensures its indexes exist.
func initMongoDB(cfg *Config, logger log.Logger) (*mongoResources, func(), error) {
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
		return nil, nil, fmt.Errorf("failed to initialize report mongodb repository: %w", err)
	}

	logger.Info("Ensuring MongoDB indexes exist for reports...")

	ctx := pkg.ContextWithLogger(context.Background(), logger)

	if err = reportMongoDBRepository.EnsureIndexes(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure report indexes: %w", err)
	}

	cleanup := func() {
		logger.Info("Cleanup: disconnecting MongoDB")

		if disconnectErr := mongoConnection.Close(context.Background()); disconnectErr != nil {
			logger.Errorf("Cleanup: failed to disconnect MongoDB: %v", disconnectErr)
		}
	}

	return &mongoResources{
		connection: mongoConnection,
		reportRepo: reportMongoDBRepository,
	}, cleanup, nil
}

// initRabbitMQ establishes the RabbitMQ connection, creates the producer, starts the
// background connection monitor, and returns cleanups for the monitor and the connection.
func initRabbitMQ(cfg *Config, logger log.Logger) (*rabbitResources, []func()) {
	scheme := cfg.RabbitURI
	if scheme == "" {
		scheme = "amqp"
	}

	rabbitSource := fmt.Sprintf("%s://%s:%s@%s:%s",
		scheme, cfg.RabbitMQUser, url.QueryEscape(cfg.RabbitMQPass), cfg.RabbitMQHost, cfg.RabbitMQPortAMQP)

	logger.Infof("RabbitMQ connecting to %s", pkg.RedactConnectionString(rabbitSource))

	rabbitMQConnection := &pkgRabbitmq.RabbitMQConnection{
		ConnectionStringSource: rabbitSource,
		Logger:                 logger,
	}

	producerRabbitMQRepository := rabbitmq.NewProducerRabbitMQ(rabbitMQConnection)

	rabbitMQMonitor := NewRabbitMQMonitor(rabbitMQConnection, logger)
	rabbitMQMonitor.Start()

	logger.Info("RabbitMQ background connection monitor started")

	cleanups := []func(){
		func() {
			logger.Info("Cleanup: stopping RabbitMQ connection monitor")
			rabbitMQMonitor.Stop()
		},
		func() {
			logger.Info("Cleanup: closing RabbitMQ connection")

			if closeErr := rabbitMQConnection.Close(); closeErr != nil {
				logger.Errorf("Cleanup: failed to close RabbitMQ connection: %v", closeErr)
			}
		},
	}

	return &rabbitResources{
		connection: rabbitMQConnection,
		producer:   producerRabbitMQRepository,
		monitor:    rabbitMQMonitor,
	}, cleanups
}

// initRedis builds the Redis connection shared by the rate limiter and returns a cleanup
// function that closes it.
func initRedis(cfg *Config, logger log.Logger) (*redis.RedisConnection, func()) {
	redisConnection := &redis.RedisConnection{
		Address:  cfg.RedisHost,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Logger:   logger,
	}

	cleanup := func() {
		logger.Info("Cleanup: closing Redis connection")

		if closeErr := redisConnection.Close(); closeErr != nil {
			logger.Errorf("Cleanup: failed to close Redis connection: %v", closeErr)
		}
	}

	return redisConnection, cleanup
}
