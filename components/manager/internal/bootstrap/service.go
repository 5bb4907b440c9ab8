// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"fmt"

	"github.com/navimedi/reporter/components/manager/internal/adapters/http/in"
	"github.com/navimedi/reporter/components/manager/internal/services"
	"github.com/navimedi/reporter/pkg/auth"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
)

// Service is the application glue where we put all top-level components to be used.
type Service struct {
	*Server
	log.Logger
	cleanups []func()
}

// Run starts the application and releases every resource once the server stopped.
// This is the only necessary code to run an app in the main.go
func (app *Service) Run() {
	if err := app.Server.Run(); err != nil {
		app.Errorf("HTTP server stopped with error: %v", err)
	}

	app.Info("Starting graceful shutdown...")

	app.close()

	app.Info("Graceful shutdown complete")
}

// close runs the cleanups in reverse order of acquisition.
func (app *Service) close() {
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		app.cleanups[i]()
	}

	app.cleanups = nil
}

// InitServers wires configuration, connections, use cases and routes into a Service.
func InitServers() (*Service, error) {
	cfg, logger, err := initConfigAndLogger()
	if err != nil {
		return nil, err
	}

	svc := &Service{Logger: logger}

	fail := func(err error) (*Service, error) {
		svc.close()

		return nil, err
	}

	telemetry, telemetryCleanup := initTelemetry(cfg, logger)
	svc.cleanups = append(svc.cleanups, telemetryCleanup)

	objectStorage, err := initStorage(cfg, logger)
	if err != nil {
		return fail(err)
	}

	mongo, mongoCleanup, err := initMongoDB(cfg, logger)
	if err != nil {
		return fail(err)
	}

	svc.cleanups = append(svc.cleanups, mongoCleanup)

	rabbit, rabbitCleanups := initRabbitMQ(cfg, logger)
	svc.cleanups = append(svc.cleanups, rabbitCleanups[1], rabbitCleanups[0])

	redisConnection, redisCleanup := initRedis(cfg, logger)
	svc.cleanups = append(svc.cleanups, redisCleanup)

	exchange := cfg.RabbitMQExchange
	if exchange == "" {
		exchange = constant.GenerateReportExchange
	}

	routingKey := cfg.RabbitMQGenerateRouteKey
	if routingKey == "" {
		routingKey = constant.GenerateReportRoutingKey
	}

	useCase := &services.UseCase{
		ReportRepo:   mongo.reportRepo,
		RabbitMQRepo: rabbit.producer,
		Storage:      objectStorage,
		Exchange:     exchange,
		RoutingKey:   routingKey,
	}

	reportHandler, err := in.NewReportHandler(useCase)
	if err != nil {
		return fail(fmt.Errorf("failed to create report handler: %w", err))
	}

	if cfg.AuthEnabled {
		logger.Info("Bearer token authentication enabled")
	} else {
		logger.Warn("Bearer token authentication disabled, every request runs as the anonymous principal")
	}

	authClient := auth.NewAuthClient(auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer), cfg.AuthEnabled)

	rateLimit := cfg.rateLimitConfig()
	if rateLimit.Enabled && cfg.RateLimitRedisShared {
		rateLimit.Storage = in.NewRedisStorage(redisConnection, logger)
	}

	routerConfig := in.RouterConfig{
		CORS:      cfg.corsConfig(),
		RateLimit: rateLimit,
		Version:   cfg.Version,
	}

	readiness := &in.ReadinessDeps{
		MongoDB:  mongo.connection,
		RabbitMQ: rabbit.connection,
		Redis:    redisConnection,
		Storage:  objectStorage,
	}

	httpApp := in.NewRoutes(logger, telemetry.Tracer(), routerConfig, reportHandler, authClient, readiness)
	svc.Server = NewServer(cfg, httpApp, logger)

	return svc, nil
}
