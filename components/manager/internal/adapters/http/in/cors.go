// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package in

import (
	"net/url"
	"strings"

	"github.com/navimedi/reporter/pkg/constant"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORSConfig holds the comma-separated CORS lists loaded from environment variables.
type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// CORSMiddleware configures CORS from explicit lists. Malformed origins and empty
// segments are dropped before they reach cors.New, which panics on them.
// Content-Disposition is exposed so browsers can read the download file name.
func CORSMiddleware(cfg CORSConfig) fiber.Handler {
	origins := sanitizeOrigins(cfg.AllowedOrigins)
	if origins == "" {
		origins = "*"
	}

	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  sanitizeCommaSeparated(cfg.AllowedMethods),
		AllowHeaders:  sanitizeCommaSeparated(cfg.AllowedHeaders),
		ExposeHeaders: constant.HeaderContentDisposition + "," + constant.HeaderRequestID,
		Next:          corsSkipPath,
	})
}

// corsSkipPath returns true for the probe endpoints, which never serve browsers.
func corsSkipPath(c *fiber.Ctx) bool {
	return isHealthPath(c.Path())
}

// sanitizeOrigins keeps "*" and well-formed scheme://host[:port] origins.
func sanitizeOrigins(input string) string {
	parts := strings.Split(input, ",")

	var clean []string

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if p == "*" {
			clean = append(clean, p)
			continue
		}

		if isValidOrigin(p) {
			clean = append(clean, p)
		}
	}

	return strings.Join(clean, ",")
}

// isValidOrigin follows the RFC 6454 origin form: scheme "://" host [ ":" port ].
func isValidOrigin(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return false
	}

	if parsed.Path != "" && parsed.Path != "/" {
		return false
	}

	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return false
	}

	if parsed.User != nil {
		return false
	}

	return true
}

// sanitizeCommaSeparated trims every segment and drops the empty ones.
func sanitizeCommaSeparated(input string) string {
	parts := strings.Split(input, ",")

	var clean []string

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			clean = append(clean, p)
		}
	}

	return strings.Join(clean, ",")
}
