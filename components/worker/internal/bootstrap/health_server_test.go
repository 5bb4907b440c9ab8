// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticBreakers map[string]string

func (s staticBreakers) GetHealthStatus() map[string]string { return s }

func okCheck(context.Context) error { return nil }

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestHealthServer_Health(t *testing.T) {
	hs := NewHealthServer("0", nil, nil, &log.NoneLogger{})

	rec := httptest.NewRecorder()
	hs.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "alive", decodeBody(t, rec)["status"])
}

func TestHealthServer_Ready(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]pkg.PingFunc
		wantCode   int
		wantStatus string
		wantFailed string
	}{
		{
			name:       "all dependencies answer",
			checks:     map[string]pkg.PingFunc{"rabbitmq": okCheck, "mongodb": okCheck},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name: "one dependency down",
			checks: map[string]pkg.PingFunc{
				"rabbitmq": rabbitMQCheckFailing,
				"mongodb":  okCheck,
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not_ready",
			wantFailed: "rabbitmq",
		},
		{
			name:       "no checks configured",
			checks:     nil,
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthServer("0", tt.checks, staticBreakers{"object-storage": "available (CB: closed)"}, &log.NoneLogger{})

			rec := httptest.NewRecorder()
			hs.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)

			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, map[string]any{"object-storage": "available (CB: closed)"}, body["circuitBreakers"])

			if tt.wantFailed != "" {
				deps, ok := body["dependencies"].(map[string]any)
				require.True(t, ok)

				failed, ok := deps[tt.wantFailed].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "not_ready", failed["status"])
				assert.Equal(t, errRabbitMQClosed.Error(), failed["message"])
			}
		})
	}
}

func rabbitMQCheckFailing(context.Context) error { return errRabbitMQClosed }

func TestHealthServer_ServeStopsOnCancel(t *testing.T) {
	hs := NewHealthServer("0", map[string]pkg.PingFunc{"redis": func(context.Context) error {
		return errors.New("dial tcp: connection refused")
	}}, nil, &log.NoneLogger{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- hs.Serve(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ready")
	require.NoError(t, err)

	_ = resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("health server did not stop")
	}
}
