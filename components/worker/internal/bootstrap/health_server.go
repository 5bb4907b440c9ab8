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
	"sort"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
)

const (
	// healthServerReadTimeout is the maximum duration for reading the entire request.
	healthServerReadTimeout = 5 * time.Second

	// healthServerWriteTimeout is the maximum duration before timing out writes of the response.
	healthServerWriteTimeout = 5 * time.Second

	// healthServerIdleTimeout is the maximum duration an idle connection will remain open.
	healthServerIdleTimeout = 30 * time.Second

	// healthServerShutdownTimeout is the maximum duration to wait for the server to shutdown gracefully.
	healthServerShutdownTimeout = 5 * time.Second
)

// BreakerStatus reports the last known status of the dependencies guarded by circuit breakers.
type BreakerStatus interface {
	GetHealthStatus() map[string]string
}

// HealthServer provides HTTP liveness and readiness endpoints for the worker.
// It runs alongside the RabbitMQ consumer.
type HealthServer struct {
	server   *http.Server
	checks   map[string]pkg.PingFunc
	breakers BreakerStatus
	logger   log.Logger
}

// NewHealthServer creates a new HealthServer bound to the given port.
// Every check must pass for /ready to answer 200. breakers may be nil.
func NewHealthServer(port string, checks map[string]pkg.PingFunc, breakers BreakerStatus, logger log.Logger) *HealthServer {
	hs := &HealthServer{
		checks:   checks,
		breakers: breakers,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/ready", hs.handleReady)

	hs.server = &http.Server{
		Addr:         net.JoinHostPort("", port),
		Handler:      mux,
		ReadTimeout:  healthServerReadTimeout,
		WriteTimeout: healthServerWriteTimeout,
		IdleTimeout:  healthServerIdleTimeout,
	}

	return hs
}

// Run listens on the configured port until ctx ends.
func (hs *HealthServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", hs.server.Addr)
	if err != nil {
		return err
	}

	return hs.Serve(ctx, ln)
}

// Serve answers health requests on ln until ctx ends, then shuts down gracefully.
func (hs *HealthServer) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)

	pkg.GoNamed(hs.logger, "health-server", func() {
		hs.logger.Infof("Health server listening on %s", ln.Addr())
		errCh <- hs.server.Serve(ln)
	}, func(r any) {
		errCh <- pkg.PanicError("health-server", r)
	})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), healthServerShutdownTimeout)
	defer cancel()

	if err := hs.server.Shutdown(shutdownCtx); err != nil {
		hs.logger.Errorf("Health server shutdown error: %v", err)

		return err
	}

	return nil
}

// handleHealth is the liveness probe handler.
// Returns 200 OK if the process is alive. No dependency checks.
func (hs *HealthServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	hs.writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleReady is the readiness probe handler.
// Returns 200 OK only when every dependency answers. Returns 503 otherwise.
func (hs *HealthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	dependencies, ready := hs.checkDependencies(r.Context())

	resp := map[string]any{
		"status":       "ready",
		"dependencies": dependencies,
	}

	if hs.breakers != nil {
		resp["circuitBreakers"] = hs.breakers.GetHealthStatus()
	}

	status := http.StatusOK

	if !ready {
		status = http.StatusServiceUnavailable
		resp["status"] = "not_ready"
	}

	hs.writeJSON(w, status, resp)
}

// dependencyStatus represents the health state of a single dependency.
type dependencyStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// checkDependencies runs every check with its own timeout, in name order.
func (hs *HealthServer) checkDependencies(ctx context.Context) (map[string]*dependencyStatus, bool) {
	names := make([]string, 0, len(hs.checks))
	for name := range hs.checks {
		names = append(names, name)
	}

	sort.Strings(names)

	result := make(map[string]*dependencyStatus, len(names))
	ready := true

	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, constant.ReadinessCheckTimeout)
		err := hs.checks[name](checkCtx)

		cancel()

		if err != nil {
			ready = false
			result[name] = &dependencyStatus{Status: "not_ready", Message: err.Error()}

			hs.logger.Warnf("Readiness check '%s' failed: %v", name, err)

			continue
		}

		result[name] = &dependencyStatus{Status: "ready"}
	}

	return result, ready
}

func (hs *HealthServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		hs.logger.Errorf("Failed to encode health response: %v", err)
	}
}
