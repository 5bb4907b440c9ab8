// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/navimedi/reporter/components/worker/internal/adapters/rabbitmq"
	"github.com/navimedi/reporter/components/worker/internal/services"
	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
	"github.com/navimedi/reporter/pkg/metrics"
	"github.com/navimedi/reporter/pkg/pongo"

	"golang.org/x/sync/errgroup"
)

// Runner is a long-lived component that stops when its context ends.
type Runner interface {
	Run(ctx context.Context) error
}

// BackgroundChecker is started before the runners and stopped after them.
type BackgroundChecker interface {
	Start()
	Stop()
}

// Service is the application glue where we put all top level components to be used.
type Service struct {
	*MultiQueueConsumer
	log.Logger
	healthServer  Runner
	healthChecker BackgroundChecker
	cleanups      []func()
}

// Run starts the application and blocks until SIGINT or SIGTERM.
// This is the only necessary code to run an app in main.go
func (app *Service) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx); err != nil {
		app.Errorf("Worker stopped with error: %v", err)
	}
}

// RunContext runs the consumers and the health server until ctx ends or one of them fails,
// then releases every resource.
func (app *Service) RunContext(ctx context.Context) error {
	if app.healthChecker != nil {
		app.healthChecker.Start()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.MultiQueueConsumer.Run(gctx)
	})

	if app.healthServer != nil {
		g.Go(func() error {
			return app.healthServer.Run(gctx)
		})
	}

	err := g.Wait()

	app.Info("Starting graceful shutdown...")

	if app.healthChecker != nil {
		app.Info("Stopping health checker...")
		app.healthChecker.Stop()
	}

	app.close()

	app.Info("Graceful shutdown complete")

	return err
}

// close runs the cleanups in reverse order of acquisition.
func (app *Service) close() {
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		app.cleanups[i]()
	}

	app.cleanups = nil

	_ = app.Sync()
}

// InitWorker initializes and configures the application's dependencies and returns the Service instance.
func InitWorker() (*Service, error) {
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

	pipelineMetrics, err := metrics.NewMetrics(telemetry.Meter())
	if err != nil {
		return fail(err)
	}

	rabbitMQConnection, rabbitCleanup, err := initRabbitMQ(cfg, logger)
	if err != nil {
		return fail(err)
	}

	svc.cleanups = append(svc.cleanups, rabbitCleanup)

	mongoConnection, reportRepo, mongoCleanup, err := initMongoDB(cfg, logger)
	if err != nil {
		return fail(err)
	}

	svc.cleanups = append(svc.cleanups, mongoCleanup)

	redisConnection, lockRepo, redisCleanup, err := initRedis(cfg, logger)
	if err != nil {
		return fail(err)
	}

	svc.cleanups = append(svc.cleanups, redisCleanup)

	dataSourceConnection, dataSource, dataSourceCleanup, err := initDataSource(cfg, logger)
	if err != nil {
		return fail(err)
	}

	svc.cleanups = append(svc.cleanups, dataSourceCleanup)

	objectStorage, err := initStorage(cfg, logger)
	if err != nil {
		return fail(err)
	}

	htmlRenderer, err := pongo.NewTemplateRenderer()
	if err != nil {
		return fail(fmt.Errorf("failed to load report template: %w", err))
	}

	pdfPool, pdfCleanup := initPDFPool(cfg, logger)
	svc.cleanups = append(svc.cleanups, pdfCleanup)

	circuitBreakerManager := pkg.NewCircuitBreakerManager(logger)

	healthChecker := pkg.NewHealthChecker(map[string]pkg.PingFunc{
		constant.DependencyClinicalDataSource: dataSourceCheck(dataSourceConnection),
		constant.DependencyObjectStorage:      objectStorage.Ping,
	}, circuitBreakerManager, logger)
	svc.healthChecker = healthChecker

	useCase := &services.UseCase{
		ReportRepo:     reportRepo,
		DataSource:     dataSource,
		Storage:        objectStorage,
		LockRepo:       lockRepo,
		HTMLRenderer:   htmlRenderer,
		PDFGenerator:   pdfPool,
		CircuitBreaker: circuitBreakerManager,
		Metrics:        pipelineMetrics,
		ReportTTL:      cfg.ReportTTL,
	}

	routes, err := rabbitmq.NewConsumerRoutes(rabbitMQConnection, cfg.RabbitMQNumWorkers, cfg.RabbitMQPrefetch,
		logger, telemetry.Tracer(), pipelineMetrics)
	if err != nil {
		return fail(fmt.Errorf("failed to create consumer routes: %w", err))
	}

	svc.MultiQueueConsumer = NewMultiQueueConsumer(routes, cfg.queueName(), useCase)

	svc.healthServer = NewHealthServer(cfg.healthPort(), map[string]pkg.PingFunc{
		"rabbitmq":                            rabbitMQCheck(rabbitMQConnection),
		"mongodb":                             mongoConnection.Ping,
		"redis":                               redisConnection.Ping,
		constant.DependencyClinicalDataSource: dataSourceCheck(dataSourceConnection),
		constant.DependencyObjectStorage:      objectStorage.Ping,
		"pdf":                                 pdfPoolCheck(pdfPool),
	}, healthChecker, logger)

	return svc, nil
}
