// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package in

import (
	"fmt"
	"strings"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds the configuration for the three-tier rate limiter.
//   - GlobalMax: catch-all limit for reads
//   - ExportMax: limit for report file downloads
//   - DispatchMax: limit for report submissions and other writes
//   - Storage: optional fiber.Storage backend (Redis) shared by every replica
type RateLimitConfig struct {
	Enabled     bool
	GlobalMax   int
	ExportMax   int
	DispatchMax int
	Window      time.Duration
	Storage     RateLimitStorage
}

// healthPaths lists endpoints excluded from rate limiting and CORS.
var healthPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/version": true,
}

// isHealthPath returns true if the given path is a health/readiness/version endpoint.
func isHealthPath(path string) bool {
	return healthPaths[path]
}

// isExportPath matches /v1/reports/download/:id/:fileName.
func isExportPath(path string) bool {
	return strings.HasPrefix(path, "/v1/reports/download/")
}

// isDispatchMethod returns true if the HTTP method is a write operation.
func isDispatchMethod(method string) bool {
	return method == fiber.MethodPost ||
		method == fiber.MethodPut ||
		method == fiber.MethodPatch ||
		method == fiber.MethodDelete
}

// RateLimiterMiddleware enforces three independent per-IP tiers:
//  1. probe endpoints are never limited
//  2. report downloads use ExportMax
//  3. writes use DispatchMax
//  4. everything else uses GlobalMax
//
// Limited requests get 429 with a Retry-After header.
func RateLimiterMiddleware(cfg RateLimitConfig) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	limitReached := newRateLimitReachedHandler(cfg.Window)

	globalLimiter := limiter.New(limiter.Config{
		Max:        cfg.GlobalMax,
		Expiration: cfg.Window,
		Storage:    cfg.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		LimitReached: limitReached,
	})

	exportLimiter := limiter.New(limiter.Config{
		Max:        cfg.ExportMax,
		Expiration: cfg.Window,
		Storage:    cfg.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "export:" + c.IP()
		},
		LimitReached: limitReached,
	})

	dispatchLimiter := limiter.New(limiter.Config{
		Max:        cfg.DispatchMax,
		Expiration: cfg.Window,
		Storage:    cfg.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "dispatch:" + c.IP()
		},
		LimitReached: limitReached,
	})

	return func(c *fiber.Ctx) error {
		path := c.Path()

		// Health endpoints are never rate-limited
		if isHealthPath(path) {
			return c.Next()
		}

		// Route to the appropriate tier
		if isExportPath(path) {
			return exportLimiter(c)
		}

		if isDispatchMethod(c.Method()) {
			return dispatchLimiter(c)
		}

		return globalLimiter(c)
	}
}

// newRateLimitReachedHandler answers 429 with the standard error body.
func newRateLimitReachedHandler(window time.Duration) fiber.Handler {
	retryAfterSeconds := fmt.Sprintf("%d", int(window.Seconds()))

	return func(c *fiber.Ctx) error {
		retryAfter := c.GetRespHeader("Retry-After")
		if retryAfter == "" {
			c.Set("Retry-After", retryAfterSeconds)
		}

		return c.Status(fiber.StatusTooManyRequests).JSON(pkg.ResponseError{
			Code:    constant.RateLimitExceededCode,
			Title:   "Too Many Requests",
			Message: "Rate limit exceeded. Please retry after " + retryAfterSeconds + " seconds.",
		})
	}
}
