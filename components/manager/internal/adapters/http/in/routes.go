// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package in

import (
	"context"
	"errors"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/auth"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/net/http"
	"github.com/navimedi/reporter/pkg/storage"

	"github.com/gofiber/fiber/v2"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.opentelemetry.io/otel/trace"
)

const (
	reportResource = "reports"
	statusReady    = "ready"
	statusNotReady = "not_ready"
)

// ErrNilService is returned when a handler is built without its use case.
var ErrNilService = errors.New("report service must not be nil")

// Pinger is a dependency that answers a liveness ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker is a dependency that reports its connection state without I/O.
type HealthChecker interface {
	HealthCheck() bool
}

// ReadinessDeps holds the dependency connections needed for the /ready endpoint.
type ReadinessDeps struct {
	MongoDB  Pinger
	RabbitMQ HealthChecker
	Redis    Pinger
	Storage  storage.ObjectStorage
}

// RouterConfig holds the cross-cutting middleware settings of the router.
type RouterConfig struct {
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Version   string
}

// NewRoutes creates a new fiber router with the specified handlers and middleware.
func NewRoutes(lg log.Logger, tracer trace.Tracer, cfg RouterConfig, reportHandler *ReportHandler, authClient *auth.AuthClient, deps *ReadinessDeps) *fiber.App {
	f := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          handleFiberError,
	})

	f.Use(RecoverMiddleware(lg))
	f.Use(SecurityHeaders())
	f.Use(CORSMiddleware(cfg.CORS))
	f.Use(http.WithTracking(lg, tracer))
	f.Use(RateLimiterMiddleware(cfg.RateLimit))

	// Report routes
	f.Post("/v1/reports", authClient.Authorize(reportResource, "write"), http.WithBody(new(model.CreateReportInput), reportHandler.CreateReport))
	f.Get("/v1/reports/download/:id/:fileName", authClient.Authorize(reportResource, "read"), ParsePathParametersUUID, reportHandler.DownloadReport)
	f.Get("/v1/reports/:id", authClient.Authorize(reportResource, "read"), ParsePathParametersUUID, reportHandler.GetReport)
	f.Get("/v1/reports", authClient.Authorize(reportResource, "read"), reportHandler.GetAllReports)

	// Doc Swagger
	f.Get("/swagger/*", WithSwaggerEnvConfig(lg), fiberSwagger.WrapHandler)

	// Health
	f.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("healthy")
	})

	// Readiness - checks all dependency connections
	f.Get("/ready", readinessHandler(deps))

	// Version
	f.Get("/version", func(c *fiber.Ctx) error {
		return http.OK(c, fiber.Map{"name": constant.ApplicationName, "version": cfg.Version})
	})

	return f
}

// handleFiberError renders routing errors (404, 405) and stray handler errors with the standard body.
func handleFiberError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := constant.ErrBadRequest.Error()
		if fiberErr.Code == fiber.StatusNotFound {
			code = constant.ErrEntityNotFound.Error()
		}

		return c.Status(fiberErr.Code).JSON(pkg.ResponseError{
			Code:    code,
			Title:   "Request Failed",
			Message: fiberErr.Message,
		})
	}

	return http.WithError(c, err)
}

// dependencyResult represents the health status of a single dependency in the readiness check.
type dependencyResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// readinessHandler checks every dependency with a short timeout. Returns 200 if all are healthy, 503 otherwise.
func readinessHandler(deps *ReadinessDeps) fiber.Handler {
	if deps == nil {
		deps = &ReadinessDeps{}
	}

	return func(c *fiber.Ctx) error {
		results := map[string]*dependencyResult{
			"mongodb":  checkPinger(c.UserContext(), deps.MongoDB),
			"rabbitmq": checkRabbitMQ(deps.RabbitMQ),
			"redis":    checkPinger(c.UserContext(), deps.Redis),
			"storage":  checkStorage(c.UserContext(), deps.Storage),
		}

		httpStatus := fiber.StatusOK
		overallStatus := statusReady

		for _, result := range results {
			if result.Status != statusReady {
				httpStatus = fiber.StatusServiceUnavailable
				overallStatus = statusNotReady

				break
			}
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":       overallStatus,
			"dependencies": results,
		})
	}
}

func checkPinger(ctx context.Context, dep Pinger) *dependencyResult {
	if dep == nil {
		return &dependencyResult{Status: statusNotReady, Message: "connection not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, constant.ReadinessCheckTimeout)
	defer cancel()

	if err := dep.Ping(ctx); err != nil {
		return &dependencyResult{Status: statusNotReady, Message: "ping failed"}
	}

	return &dependencyResult{Status: statusReady}
}

func checkRabbitMQ(conn HealthChecker) *dependencyResult {
	if conn == nil {
		return &dependencyResult{Status: statusNotReady, Message: "connection not configured"}
	}

	if !conn.HealthCheck() {
		return &dependencyResult{Status: statusNotReady, Message: "connection is closed"}
	}

	return &dependencyResult{Status: statusReady}
}

func checkStorage(ctx context.Context, client storage.ObjectStorage) *dependencyResult {
	if client == nil {
		return &dependencyResult{Status: statusNotReady, Message: "storage client not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, constant.ReadinessCheckTimeout)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		return &dependencyResult{Status: statusNotReady, Message: "storage connectivity check failed"}
	}

	return &dependencyResult{Status: statusReady}
}
