// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package in

import (
	"net"

	"github.com/navimedi/reporter/components/manager/api"
	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/log"

	"github.com/gofiber/fiber/v2"
)

// swaggerEnv overrides the served API document. Blank values keep the built-in ones.
type swaggerEnv struct {
	Title       string `env:"SWAGGER_TITLE"`
	Description string `env:"SWAGGER_DESCRIPTION"`
	Version     string `env:"SWAGGER_VERSION"`
	Host        string `env:"SWAGGER_HOST"`
	BasePath    string `env:"SWAGGER_BASE_PATH"`
	Schemes     string `env:"SWAGGER_SCHEMES"`
	LeftDelim   string `env:"SWAGGER_LEFT_DELIM"`
	RightDelim  string `env:"SWAGGER_RIGHT_DELIM"`
}

// WithSwaggerEnvConfig applies the SWAGGER_* environment to the API document once, when the
// route is built, and returns a pass-through handler for the /swagger group.
func WithSwaggerEnvConfig(lg log.Logger) fiber.Handler {
	cfg := &swaggerEnv{}
	if err := pkg.SetConfigFromEnvVars(cfg); err != nil {
		lg.Warnf("Ignoring SWAGGER_* settings: %v", err)
	} else {
		applySwaggerEnv(cfg)
	}

	return func(c *fiber.Ctx) error {
		return c.Next()
	}
}

func applySwaggerEnv(cfg *swaggerEnv) {
	fields := []struct {
		value  string
		target *string
	}{
		{cfg.Title, &api.SwaggerInfo.Title},
		{cfg.Description, &api.SwaggerInfo.Description},
		{cfg.Version, &api.SwaggerInfo.Version},
		{cfg.BasePath, &api.SwaggerInfo.BasePath},
		{cfg.LeftDelim, &api.SwaggerInfo.LeftDelim},
		{cfg.RightDelim, &api.SwaggerInfo.RightDelim},
	}

	for _, f := range fields {
		if !pkg.IsNilOrEmpty(&f.value) {
			*f.target = f.value
		}
	}

	if validSwaggerHost(cfg.Host) {
		api.SwaggerInfo.Host = cfg.Host
	}

	if cfg.Schemes != "" {
		api.SwaggerInfo.Schemes = []string{cfg.Schemes}
	}
}

// validSwaggerHost accepts host:port only.
func validSwaggerHost(hostPort string) bool {
	host, port, err := net.SplitHostPort(hostPort)

	return err == nil && host != "" && port != ""
}
