// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/navimedi/reporter/pkg/constant"
)

// defaultHealthPort is the port of the worker liveness and readiness endpoints.
const defaultHealthPort = "4006"

// Config holds the application's configurable parameters read from environment variables.
type Config struct {
	EnvName                 string `env:"ENV_NAME"`
	LogLevel                string `env:"LOG_LEVEL"`
	HealthPort              string `env:"HEALTH_PORT" envDefault:"4006"`
	OtelServiceName         string `env:"OTEL_RESOURCE_SERVICE_NAME"`
	OtelLibraryName         string `env:"OTEL_LIBRARY_NAME"`
	OtelServiceVersion      string `env:"OTEL_RESOURCE_SERVICE_VERSION"`
	OtelDeploymentEnv       string `env:"OTEL_RESOURCE_DEPLOYMENT_ENVIRONMENT"`
	OtelColExporterEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	EnableTelemetry         bool   `env:"ENABLE_TELEMETRY"`
	// RabbitMQ
	RabbitURI                   string `env:"RABBITMQ_URI"`
	RabbitMQHost                string `env:"RABBITMQ_HOST"`
	RabbitMQPortAMQP            string `env:"RABBITMQ_PORT_AMQP"`
	RabbitMQUser                string `env:"RABBITMQ_DEFAULT_USER"`
	RabbitMQPass                string `env:"RABBITMQ_DEFAULT_PASS"`
	RabbitMQGenerateReportQueue string `env:"RABBITMQ_GENERATE_REPORT_QUEUE"`
	RabbitMQNumWorkers          int    `env:"RABBITMQ_NUMBERS_OF_WORKERS"`
	RabbitMQPrefetch            int    `env:"RABBITMQ_PREFETCH"`
	// MongoDB
	MongoURI          string `env:"MONGO_URI"`
	MongoDBHost       string `env:"MONGO_HOST"`
	MongoDBName       string `env:"MONGO_NAME"`
	MongoDBUser       string `env:"MONGO_USER"`
	MongoDBPassword   string `env:"MONGO_PASSWORD"`
	MongoDBPort       string `env:"MONGO_PORT"`
	MongoDBParameters string `env:"MONGO_PARAMETERS"`
	MongoMaxPoolSize  int    `env:"MONGO_MAX_POOL_SIZE"`
	// Redis
	RedisHost     string `env:"REDIS_HOST"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`
	// Clinical data source
	DataSourceHost         string `env:"DATASOURCE_HOST"`
	DataSourcePort         string `env:"DATASOURCE_PORT"`
	DataSourceUser         string `env:"DATASOURCE_USER"`
	DataSourcePassword     string `env:"DATASOURCE_PASSWORD"`
	DataSourceName         string `env:"DATASOURCE_NAME"`
	DataSourceSSLMode      string `env:"DATASOURCE_SSLMODE"`
	DataSourceMaxOpenConns int    `env:"DATASOURCE_MAX_OPEN_CONNS"`
	DataSourceMaxIdleConns int    `env:"DATASOURCE_MAX_IDLE_CONNS"`
	// Object storage
	ObjectStorageEndpoint     string `env:"OBJECT_STORAGE_ENDPOINT"`
	ObjectStorageRegion       string `env:"OBJECT_STORAGE_REGION"`
	ObjectStorageBucket       string `env:"OBJECT_STORAGE_BUCKET"`
	ObjectStorageAccessKeyID  string `env:"OBJECT_STORAGE_ACCESS_KEY_ID"`
	ObjectStorageSecretKey    string `env:"OBJECT_STORAGE_SECRET_KEY"`
	ObjectStorageUsePathStyle bool   `env:"OBJECT_STORAGE_USE_PATH_STYLE"`
	ReportTTL                 string `env:"REPORT_TTL"`
	// PDF Pool configuration envs
	PdfPoolWorkers        int `env:"PDF_POOL_WORKERS"`
	PdfPoolTimeoutSeconds int `env:"PDF_TIMEOUT_SECONDS"`
}

// Validate checks that every required setting is present. All problems are reported at once.
func (cfg *Config) Validate() error {
	var errs []string

	required := []struct {
		value string
		env   string
	}{
		{cfg.RabbitMQHost, "RABBITMQ_HOST"},
		{cfg.RabbitMQPortAMQP, "RABBITMQ_PORT_AMQP"},
		{cfg.RabbitMQUser, "RABBITMQ_DEFAULT_USER"},
		{cfg.RabbitMQPass, "RABBITMQ_DEFAULT_PASS"},
		{cfg.MongoDBHost, "MONGO_HOST"},
		{cfg.MongoDBName, "MONGO_NAME"},
		{cfg.RedisHost, "REDIS_HOST"},
		{cfg.DataSourceHost, "DATASOURCE_HOST"},
		{cfg.DataSourceName, "DATASOURCE_NAME"},
		{cfg.ObjectStorageBucket, "OBJECT_STORAGE_BUCKET"},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, r.env+" is required")
		}
	}

	if cfg.RabbitMQNumWorkers < 0 || cfg.RabbitMQPrefetch < 0 {
		errs = append(errs, "RABBITMQ_NUMBERS_OF_WORKERS and RABBITMQ_PREFETCH must not be negative")
	}

	if cfg.PdfPoolWorkers < 0 || cfg.PdfPoolTimeoutSeconds < 0 {
		errs = append(errs, "PDF_POOL_WORKERS and PDF_TIMEOUT_SECONDS must not be negative")
	}

	if cfg.ReportTTL != "" {
		if ttl, err := time.ParseDuration(cfg.ReportTTL); err != nil || ttl <= 0 {
			errs = append(errs, fmt.Sprintf("REPORT_TTL must be a positive duration, got %q", cfg.ReportTTL))
		}
	}

	if len(errs) > 0 {
		return errors.New("config validation failed: " + strings.Join(errs, "; "))
	}

	return nil
}

// healthPort returns the health server port, falling back to the default.
func (cfg *Config) healthPort() string {
	if cfg.HealthPort == "" {
		return defaultHealthPort
	}

	return cfg.HealthPort
}

// queueName returns the generate-report queue, falling back to the declared topology.
func (cfg *Config) queueName() string {
	if cfg.RabbitMQGenerateReportQueue == "" {
		return constant.GenerateReportQueue
	}

	return cfg.RabbitMQGenerateReportQueue
}

// pdfPool resolves the PDF worker count and render timeout.
func (cfg *Config) pdfPool() (int, time.Duration) {
	workers := cfg.PdfPoolWorkers
	if workers == 0 {
		workers = constant.PDFDefaultWorkers
	}

	timeout := constant.PDFDefaultTimeout
	if cfg.PdfPoolTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.PdfPoolTimeoutSeconds) * time.Second
	}

	return workers, timeout
}

// rabbitConnectionString assembles the AMQP URI, escaping the password.
func rabbitConnectionString(cfg *Config) string {
	scheme := cfg.RabbitURI
	if scheme == "" {
		scheme = "amqp"
	}

	return fmt.Sprintf("%s://%s:%s@%s:%s",
		scheme, cfg.RabbitMQUser, url.QueryEscape(cfg.RabbitMQPass), cfg.RabbitMQHost, cfg.RabbitMQPortAMQP)
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

// dataSourceConnectionString assembles the postgres URL of the clinical warehouse.
func dataSourceConnectionString(cfg *Config) string {
	port := cfg.DataSourcePort
	if port == "" {
		port = "5432"
	}

	sslMode := cfg.DataSourceSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     cfg.DataSourceHost + ":" + port,
		Path:     "/" + cfg.DataSourceName,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}

	if cfg.DataSourceUser != "" {
		u.User = url.UserPassword(cfg.DataSourceUser, cfg.DataSourcePassword)
	}

	return u.String()
}
