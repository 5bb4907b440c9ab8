// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
)

// PingFunc checks a downstream dependency.
type PingFunc func(ctx context.Context) error

// HealthChecker pings the dependencies guarded by circuit breakers and resets a breaker
// as soon as its dependency answers again, instead of waiting for the half-open probe.
type HealthChecker struct {
	checks                map[string]PingFunc
	circuitBreakerManager *CircuitBreakerManager
	logger                log.Logger
	interval              time.Duration
	stopChan              chan struct{}
	stopOnce              sync.Once
	wg                    sync.WaitGroup
	mu                    sync.RWMutex
	status                map[string]string
}

// NewHealthChecker creates a new health checker for the named dependency checks.
func NewHealthChecker(checks map[string]PingFunc, circuitBreakerManager *CircuitBreakerManager, logger log.Logger) *HealthChecker {
	return &HealthChecker{
		checks:                checks,
		circuitBreakerManager: circuitBreakerManager,
		logger:                logger,
		interval:              constant.HealthCheckInterval,
		stopChan:              make(chan struct{}),
		status:                make(map[string]string, len(checks)),
	}
}

// Start begins the health check loop in a separate goroutine.
func (hc *HealthChecker) Start() {
	hc.wg.Add(1)

	GoNamed(hc.logger, "health-checker", hc.healthCheckLoop)

	hc.logger.Infof("Health checker started - checking %d dependencies every %v", len(hc.checks), hc.interval)
}

// Stop stops the loop and waits for it to return. Safe to call more than once.
func (hc *HealthChecker) Stop() {
	hc.stopOnce.Do(func() {
		close(hc.stopChan)
	})

	hc.wg.Wait()
}

func (hc *HealthChecker) healthCheckLoop() {
	defer hc.wg.Done()

	ticker := time.NewTicker(hc.interval)
	defer ticker.Stop()

	hc.performHealthChecks()

	for {
		select {
		case <-ticker.C:
			hc.performHealthChecks()
		case <-hc.stopChan:
			return
		}
	}
}

// performHealthChecks pings every dependency once and records the outcome.
func (hc *HealthChecker) performHealthChecks() {
	unhealthy := 0

	for name, check := range hc.checks {
		ctx, cancel := context.WithTimeout(context.Background(), constant.HealthCheckTimeout)
		err := check(ctx)
		cancel()

		state := hc.circuitBreakerManager.GetState(name)

		if err != nil {
			unhealthy++

			hc.logger.Warnf("Dependency '%s' is unreachable (CB: %s): %v", name, state, err)
			hc.setStatus(name, constant.DependencyStatusUnavailable)

			continue
		}

		if state == constant.CircuitBreakerStateOpen {
			hc.circuitBreakerManager.Reset(name)
			hc.logger.Infof("Dependency '%s' answers again - circuit breaker reset", name)
		}

		hc.setStatus(name, constant.DependencyStatusAvailable)
	}

	if unhealthy == 0 {
		hc.logger.Debug("All dependencies healthy")
	}
}

func (hc *HealthChecker) setStatus(name, status string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.status[name] = status
}

// GetHealthStatus returns the last known status of every dependency with its breaker state.
func (hc *HealthChecker) GetHealthStatus() map[string]string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}

	sort.Strings(names)

	status := make(map[string]string, len(names))

	for _, name := range names {
		s, ok := hc.status[name]
		if !ok {
			s = constant.DependencyStatusUnknown
		}

		status[name] = s + " (CB: " + hc.circuitBreakerManager.GetState(name) + ")"
	}

	return status
}

// IsAvailable reports whether the last check of name succeeded.
func (hc *HealthChecker) IsAvailable(name string) bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	return hc.status[name] == constant.DependencyStatusAvailable
}
