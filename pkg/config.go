// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// InitLocalEnvConfig loads a .env file from the working directory when ENV_NAME is "local" or unset.
// A missing file is not an error: containers receive their configuration from the environment.
func InitLocalEnvConfig() {
	envName := strings.ToLower(strings.TrimSpace(os.Getenv("ENV_NAME")))
	if envName != "" && envName != "local" {
		return
	}

	_ = godotenv.Load()
}

// GetenvOrDefault returns the environment value for key, or defaultValue when unset or blank.
func GetenvOrDefault(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return defaultValue
}

// GetenvIntOrDefault returns the integer environment value for key, or defaultValue when unset or invalid.
func GetenvIntOrDefault(key string, defaultValue int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(key)), 10, 64)
	if err != nil {
		return defaultValue
	}

	return v
}

// SetConfigFromEnvVars fills the `env:"NAME"` tagged fields of the struct s points to,
// honouring `envDefault` and `required`. Malformed values are errors, never zero values.
func SetConfigFromEnvVars(s any) error {
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("failed to load configuration from environment: %w", err)
	}

	return nil
}
