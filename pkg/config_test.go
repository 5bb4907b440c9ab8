// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetConfigFromEnvVars(t *testing.T) {
	// Note: Cannot use t.Parallel() because subtests use t.Setenv

	type TestConfig struct {
		StringField   string        `env:"TEST_STRING_FIELD"`
		IntField      int64         `env:"TEST_INT_FIELD"`
		BoolField     bool          `env:"TEST_BOOL_FIELD"`
		DurationField time.Duration `env:"TEST_DURATION_FIELD"`
		NoTagField    string
	}

	t.Run("Success - Set all fields from env vars", func(t *testing.T) {
		t.Setenv("TEST_STRING_FIELD", "test_string")
		t.Setenv("TEST_INT_FIELD", "42")
		t.Setenv("TEST_BOOL_FIELD", "true")
		t.Setenv("TEST_DURATION_FIELD", "45s")

		config := &TestConfig{}
		err := SetConfigFromEnvVars(config)

		require.NoError(t, err)
		assert.Equal(t, "test_string", config.StringField)
		assert.Equal(t, int64(42), config.IntField)
		assert.True(t, config.BoolField)
		assert.Equal(t, 45*time.Second, config.DurationField)
	})

	t.Run("Error - Malformed values fail instead of zeroing", func(t *testing.T) {
		tests := []struct {
			name  string
			key   string
			val   string
			field string
		}{
			{name: "int", key: "TEST_INT_FIELD", val: "ten", field: "IntField"},
			{name: "bool", key: "TEST_BOOL_FIELD", val: "yes-please", field: "BoolField"},
			{name: "duration", key: "TEST_DURATION_FIELD", val: "30 seconds", field: "DurationField"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Setenv(tt.key, tt.val)

				config := &TestConfig{}
				err := SetConfigFromEnvVars(config)

				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.field)
			})
		}
	})

	t.Run("Success - Defaults and required fields", func(t *testing.T) {
		type withDefaults struct {
			Workers int           `env:"TEST_DEFAULT_WORKERS" envDefault:"5"`
			Timeout time.Duration `env:"TEST_DEFAULT_TIMEOUT" envDefault:"90s"`
		}

		config := &withDefaults{}
		require.NoError(t, SetConfigFromEnvVars(config))
		assert.Equal(t, 5, config.Workers)
		assert.Equal(t, 90*time.Second, config.Timeout)

		type withRequired struct {
			Secret string `env:"TEST_REQUIRED_SECRET,required"`
		}

		err := SetConfigFromEnvVars(&withRequired{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TEST_REQUIRED_SECRET")
	})

	t.Run("Error - Non-pointer argument returns error", func(t *testing.T) {
		config := TestConfig{}
		err := SetConfigFromEnvVars(config)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load configuration")
	})

	t.Run("Success - Fields without env tag are not modified", func(t *testing.T) {
		t.Setenv("TEST_STRING_FIELD", "value")

		config := &TestConfig{NoTagField: "original"}
		err := SetConfigFromEnvVars(config)

		require.NoError(t, err)
		assert.Equal(t, "original", config.NoTagField)
	})

	t.Run("Success - Missing env vars result in zero values", func(t *testing.T) {
		t.Setenv("TEST_STRING_FIELD", "")
		t.Setenv("TEST_INT_FIELD", "")
		t.Setenv("TEST_BOOL_FIELD", "")
		t.Setenv("TEST_DURATION_FIELD", "")

		config := &TestConfig{}
		err := SetConfigFromEnvVars(config)

		require.NoError(t, err)
		assert.Equal(t, "", config.StringField)
		assert.Equal(t, int64(0), config.IntField)
		assert.False(t, config.BoolField)
		assert.Zero(t, config.DurationField)
	})
}

func TestGetenvOrDefault(t *testing.T) {
	t.Setenv("REPORTER_TEST_KEY", "")
	assert.Equal(t, "fallback", GetenvOrDefault("REPORTER_TEST_KEY", "fallback"))

	t.Setenv("REPORTER_TEST_KEY", " value ")
	assert.Equal(t, "value", GetenvOrDefault("REPORTER_TEST_KEY", "fallback"))
}

func TestGetenvIntOrDefault(t *testing.T) {
	t.Setenv("REPORTER_TEST_INT", "not-a-number")
	assert.Equal(t, int64(7), GetenvIntOrDefault("REPORTER_TEST_INT", 7))

	t.Setenv("REPORTER_TEST_INT", "12")
	assert.Equal(t, int64(12), GetenvIntOrDefault("REPORTER_TEST_INT", 7))
}
