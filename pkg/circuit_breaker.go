// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"errors"
	"fmt"
	"sync"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"

	"github.com/sony/gobreaker"
)

// ErrDependencyUnavailable is wrapped by Execute when a breaker rejects a call.
var ErrDependencyUnavailable = errors.New("dependency unavailable")

// CircuitBreakerManager keeps one circuit breaker per named downstream dependency
// (the clinical data source, the object storage bucket).
type CircuitBreakerManager struct {
	breakers map[string]*gobreaker.CircuitBreaker
	mu       sync.RWMutex
	logger   log.Logger
}

// NewCircuitBreakerManager creates a new circuit breaker manager
func NewCircuitBreakerManager(logger log.Logger) *CircuitBreakerManager {
	return &CircuitBreakerManager{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		logger:   logger,
	}
}

func (cbm *CircuitBreakerManager) settings(dependency string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        fmt.Sprintf("dependency-%s", dependency),
		MaxRequests: constant.CircuitBreakerMaxRequests,
		Interval:    constant.CircuitBreakerInterval,
		Timeout:     constant.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.ConsecutiveFailures >= constant.CircuitBreakerThreshold ||
				(counts.Requests >= 10 && failureRatio >= 0.5)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			cbm.logger.Warnf("Circuit Breaker [%s] state changed: %s -> %s", name, from.String(), to.String())

			switch to {
			case gobreaker.StateOpen:
				cbm.logger.Errorf("Circuit Breaker [%s] OPENED - requests will fast-fail", name)
			case gobreaker.StateHalfOpen:
				cbm.logger.Infof("Circuit Breaker [%s] HALF-OPEN - probing recovery", name)
			case gobreaker.StateClosed:
				cbm.logger.Infof("Circuit Breaker [%s] CLOSED - dependency is healthy", name)
			}
		},
	}
}

// GetOrCreate returns existing circuit breaker or creates a new one
func (cbm *CircuitBreakerManager) GetOrCreate(dependency string) *gobreaker.CircuitBreaker {
	cbm.mu.RLock()
	breaker, exists := cbm.breakers[dependency]
	cbm.mu.RUnlock()

	if exists {
		return breaker
	}

	cbm.mu.Lock()
	defer cbm.mu.Unlock()

	if breaker, exists = cbm.breakers[dependency]; exists {
		return breaker
	}

	breaker = gobreaker.NewCircuitBreaker(cbm.settings(dependency))
	cbm.breakers[dependency] = breaker

	cbm.logger.Infof("Created circuit breaker for dependency: %s", dependency)

	return breaker
}

// Execute runs fn through the breaker of the named dependency.
func (cbm *CircuitBreakerManager) Execute(dependency string, fn func() (any, error)) (any, error) {
	breaker := cbm.GetOrCreate(dependency)

	result, err := breaker.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			cbm.logger.Warnf("Circuit breaker [%s] is OPEN - request rejected immediately", dependency)
			return nil, fmt.Errorf("%w: %s (circuit breaker open): %w", ErrDependencyUnavailable, dependency, err)
		}

		if errors.Is(err, gobreaker.ErrTooManyRequests) {
			cbm.logger.Warnf("Circuit breaker [%s] is HALF-OPEN - too many test requests", dependency)
			return nil, fmt.Errorf("%w: %s is recovering: %w", ErrDependencyUnavailable, dependency, err)
		}
	}

	return result, err
}

// GetState returns the current state of a circuit breaker
func (cbm *CircuitBreakerManager) GetState(dependency string) string {
	cbm.mu.RLock()
	breaker, exists := cbm.breakers[dependency]
	cbm.mu.RUnlock()

	if !exists {
		return "not_initialized"
	}

	switch breaker.State() {
	case gobreaker.StateClosed:
		return constant.CircuitBreakerStateClosed
	case gobreaker.StateOpen:
		return constant.CircuitBreakerStateOpen
	case gobreaker.StateHalfOpen:
		return constant.CircuitBreakerStateHalfOpen
	default:
		return "unknown"
	}
}

// GetCounts returns the current counts for a circuit breaker
func (cbm *CircuitBreakerManager) GetCounts(dependency string) gobreaker.Counts {
	cbm.mu.RLock()
	breaker, exists := cbm.breakers[dependency]
	cbm.mu.RUnlock()

	if !exists {
		return gobreaker.Counts{}
	}

	return breaker.Counts()
}

// Reset replaces the breaker of dependency with a fresh closed one.
func (cbm *CircuitBreakerManager) Reset(dependency string) {
	cbm.mu.Lock()
	defer cbm.mu.Unlock()

	if _, exists := cbm.breakers[dependency]; !exists {
		return
	}

	cbm.logger.Infof("Manually resetting circuit breaker for dependency: %s", dependency)

	cbm.breakers[dependency] = gobreaker.NewCircuitBreaker(cbm.settings(dependency))
}

// IsHealthy reports false only while the breaker is open.
func (cbm *CircuitBreakerManager) IsHealthy(dependency string) bool {
	return cbm.GetState(dependency) != constant.CircuitBreakerStateOpen
}

// ShouldAllowRetry determines if a retry should be attempted based on circuit breaker state
func (cbm *CircuitBreakerManager) ShouldAllowRetry(dependency string) bool {
	cbm.mu.RLock()
	breaker, exists := cbm.breakers[dependency]
	cbm.mu.RUnlock()

	if !exists {
		return true
	}

	state := breaker.State()

	if state == gobreaker.StateOpen {
		cbm.logger.Warnf("Circuit breaker for '%s' is OPEN - blocking retry attempt", dependency)
		return false
	}

	if state == gobreaker.StateHalfOpen && breaker.Counts().Requests >= constant.CircuitBreakerMaxRequests {
		cbm.logger.Warnf("Circuit breaker for '%s' is HALF-OPEN and at max capacity - blocking retry attempt", dependency)
		return false
	}

	return true
}
