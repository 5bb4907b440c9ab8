// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package in

import (
	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
	"github.com/navimedi/reporter/pkg/net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
)

// SecurityHeaders returns a Fiber middleware that sets standard HTTP security
// headers on every response.
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "0")
		c.Set("Cache-Control", "no-store")

		return c.Next()
	}
}

// RecoverMiddleware recovers from panics inside handlers and logs the stack.
func RecoverMiddleware(logger log.Logger) fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			logger.Errorf("panic recovered on %s %s: %v", c.Method(), c.Path(), e)
		},
	})
}

// ParseUUIDPathParam returns a Fiber middleware that validates the named path
// parameter as a UUID. On success the parsed uuid.UUID is stored in
// c.Locals(paramName) for downstream handlers.
func ParseUUIDPathParam(paramName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pathParam := c.Params(paramName)

		if pkg.IsNilOrEmpty(&pathParam) {
			return http.WithError(c, pkg.ValidateBusinessError(constant.ErrInvalidPathParameter, "", paramName))
		}

		parsedPathUUID, errPath := uuid.Parse(pathParam)
		if errPath != nil {
			return http.WithError(c, pkg.ValidateBusinessError(constant.ErrInvalidPathParameter, "", paramName))
		}

		c.Locals(paramName, parsedPathUUID)

		return c.Next()
	}
}

// ParsePathParametersUUID validates the "id" path parameter.
func ParsePathParametersUUID(c *fiber.Ctx) error {
	return ParseUUIDPathParam(constant.PathParamID)(c)
}
