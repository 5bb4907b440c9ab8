// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package http

import (
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithTracking stores the request id, logger and tracer in the user context and logs every request.
func WithTracking(logger log.Logger, tracer trace.Tracer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(constant.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(constant.HeaderRequestID, requestID)

		reqLogger := logger.WithFields("request_id", requestID)

		ctx := pkg.ContextWithLogger(c.UserContext(), reqLogger)
		ctx = pkg.ContextWithTracer(ctx, tracer)
		ctx = pkg.ContextWithRequestID(ctx, requestID)
		c.SetUserContext(ctx)

		err := c.Next()

		reqLogger.Infof("%s %s %d %s %q", c.Method(), c.OriginalURL(), c.Response().StatusCode(),
			time.Since(start).String(), c.Get(headerUserAgent))

		return err
	}
}
