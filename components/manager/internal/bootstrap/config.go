// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/navimedi/reporter/components/manager/internal/adapters/http/in"
	"github.com/navimedi/reporter/pkg/constant"
)

// Config is the top level configuration struct for the entire application.
type Config struct {
	EnvName                 string `env:"ENV_NAME"`
	ServerAddress           string `env:"SERVER_ADDRESS"`
	LogLevel                string `env:"LOG_LEVEL"`
	Version                 string `env:"VERSION"`
	OtelServiceName         string `env:"OTEL_RESOURCE_SERVICE_NAME"`
	OtelLibraryName         string `env:"OTEL_LIBRARY_NAME"`
	OtelServiceVersion      string `env:"OTEL_RESOURCE_SERVICE_VERSION"`
	OtelDeploymentEnv       string `env:"OTEL_RESOURCE_DEPLOYMENT_ENVIRONMENT"`
	OtelColExporterEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	EnableTelemetry         bool   `env:"ENABLE_TELEMETRY"`
	// MongoDB
	MongoURI          string `env:"MONGO_URI"`
	MongoDBHost       string `env:"MONGO_HOST"`
	MongoDBName       string `env:"MONGO_NAME"`
	MongoDBUser       string `env:"MONGO_USER"`
	MongoDBPassword   string `env:"MONGO_PASSWORD"`
	MongoDBPort       string `env:"MONGO_PORT"`
	MongoDBParameters string `env:"MONGO_PARAMETERS"`
	MongoMaxPoolSize  int    `env:"MONGO_MAX_POOL_SIZE"`
	// RabbitMQ
	RabbitURI                string `env:"RABBITMQ_URI"`
	RabbitMQHost             string `env:"RABBITMQ_HOST"`
	RabbitMQPortAMQP         string `env:"RABBITMQ_PORT_AMQP"`
	RabbitMQUser             string `env:"RABBITMQ_DEFAULT_USER"`
	RabbitMQPass             string `env:"RABBITMQ_DEFAULT_PASS"`
	RabbitMQExchange         string `env:"RABBITMQ_EXCHANGE"`
	RabbitMQGenerateRouteKey string `env:"RABBITMQ_GENERATE_REPORT_KEY"`
	// Redis
	RedisHost     string `env:"REDIS_HOST"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`
	// Object storage
	ObjectStorageEndpoint     string `env:"OBJECT_STORAGE_ENDPOINT"`
	ObjectStorageRegion       string `env:"OBJECT_STORAGE_REGION"`
	ObjectStorageBucket       string `env:"OBJECT_STORAGE_BUCKET"`
	ObjectStorageAccessKeyID  string `env:"OBJECT_STORAGE_ACCESS_KEY_ID"`
	ObjectStorageSecretKey    string `env:"OBJECT_STORAGE_SECRET_KEY"`
	ObjectStorageUsePathStyle bool   `env:"OBJECT_STORAGE_USE_PATH_STYLE"`
	// Auth
	AuthEnabled bool   `env:"AUTH_ENABLED"`
	JWTSecret   string `env:"JWT_SECRET"`
	JWTIssuer   string `env:"JWT_ISSUER"`
	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
	CORSAllowedMethods string `env:"CORS_ALLOWED_METHODS"`
	CORSAllowedHeaders string `env:"CORS_ALLOWED_HEADERS"`
	// Rate limiting
	RateLimitEnabled     bool          `env:"RATE_LIMIT_ENABLED"`
	RateLimitGlobal      int           `env:"RATE_LIMIT_GLOBAL"`
	RateLimitExport      int           `env:"RATE_LIMIT_EXPORT"`
	RateLimitDispatch    int           `env:"RATE_LIMIT_DISPATCH"`
	RateLimitWindow      time.Duration `env:"RATE_LIMIT_WINDOW"`
	RateLimitRedisShared bool          `env:"RATE_LIMIT_REDIS_SHARED"`
}

// Validate checks that every required setting is present. All problems are reported at once.
func (cfg *Config) Validate() error {
	var errs []string

	required := []struct {
		value string
		env   string
	}{
		{cfg.ServerAddress, "SERVER_ADDRESS"},
		{cfg.MongoDBHost, "MONGO_HOST"},
		{cfg.MongoDBName, "MONGO_NAME"},
		{cfg.RabbitMQHost, "RABBITMQ_HOST"},
		{cfg.RabbitMQPortAMQP, "RABBITMQ_PORT_AMQP"},
		{cfg.RabbitMQUser, "RABBITMQ_DEFAULT_USER"},
		{cfg.RabbitMQPass, "RABBITMQ_DEFAULT_PASS"},
		{cfg.RedisHost, "REDIS_HOST"},
		{cfg.ObjectStorageBucket, "OBJECT_STORAGE_BUCKET"},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, r.env+" is required")
		}
	}

	if cfg.AuthEnabled && len(cfg.JWTSecret) < constant.MinJWTSecretLength {
		errs = append(errs, fmt.Sprintf("JWT_SECRET must have at least %d characters when AUTH_ENABLED is true", constant.MinJWTSecretLength))
	}

	if cfg.RateLimitGlobal < 0 || cfg.RateLimitExport < 0 || cfg.RateLimitDispatch < 0 {
		errs = append(errs, "RATE_LIMIT_* values must not be negative")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed: " + strings.Join(errs, "; "))
	}

	return nil
}

// rateLimitConfig resolves the limiter tiers, falling back to the defaults for unset values.
func (cfg *Config) rateLimitConfig() in.RateLimitConfig {
	rl := in.RateLimitConfig{
		Enabled:     cfg.RateLimitEnabled,
		GlobalMax:   cfg.RateLimitGlobal,
		ExportMax:   cfg.RateLimitExport,
		DispatchMax: cfg.RateLimitDispatch,
		Window:      cfg.RateLimitWindow,
	}

	if rl.GlobalMax == 0 {
		rl.GlobalMax = constant.DefaultRateLimitGlobalMax
	}

	if rl.ExportMax == 0 {
		rl.ExportMax = constant.DefaultRateLimitExportMax
	}

	if rl.DispatchMax == 0 {
		rl.DispatchMax = constant.DefaultRateLimitDispatchMax
	}

	if rl.Window <= 0 {
		rl.Window = constant.DefaultRateLimitWindow
	}

	return rl
}

// corsConfig maps the CORS settings to the middleware configuration.
func (cfg *Config) corsConfig() in.CORSConfig {
	return in.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: cfg.CORSAllowedMethods,
		AllowedHeaders: cfg.CORSAllowedHeaders,
	}
}
