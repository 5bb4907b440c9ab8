// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"

	"github.com/stretchr/testify/assert"
)

func tripBreaker(cbm *CircuitBreakerManager, name string) {
	for i := uint32(0); i < constant.CircuitBreakerThreshold; i++ {
		_, _ = cbm.Execute(name, func() (any, error) {
			return nil, errors.New("connection refused")
		})
	}
}

func TestHealthChecker_ResetsOpenBreakerWhenDependencyRecovers(t *testing.T) {
	cbm := NewCircuitBreakerManager(&log.NoneLogger{})
	tripBreaker(cbm, constant.DependencyObjectStorage)
	tripBreaker(cbm, constant.DependencyClinicalDataSource)

	assert.Equal(t, constant.CircuitBreakerStateOpen, cbm.GetState(constant.DependencyObjectStorage))

	hc := NewHealthChecker(map[string]PingFunc{
		constant.DependencyObjectStorage:      func(context.Context) error { return nil },
		constant.DependencyClinicalDataSource: func(context.Context) error { return errors.New("still down") },
	}, cbm, &log.NoneLogger{})

	hc.performHealthChecks()

	assert.Equal(t, constant.CircuitBreakerStateClosed, cbm.GetState(constant.DependencyObjectStorage))
	assert.Equal(t, constant.CircuitBreakerStateOpen, cbm.GetState(constant.DependencyClinicalDataSource))
	assert.True(t, hc.IsAvailable(constant.DependencyObjectStorage))
	assert.False(t, hc.IsAvailable(constant.DependencyClinicalDataSource))

	status := hc.GetHealthStatus()
	assert.Equal(t, "available (CB: closed)", status[constant.DependencyObjectStorage])
	assert.Equal(t, "unavailable (CB: open)", status[constant.DependencyClinicalDataSource])
}

func TestHealthChecker_StatusBeforeFirstCheck(t *testing.T) {
	cbm := NewCircuitBreakerManager(&log.NoneLogger{})
	hc := NewHealthChecker(map[string]PingFunc{
		"cache": func(context.Context) error { return nil },
	}, cbm, &log.NoneLogger{})

	assert.Equal(t, "unknown (CB: not_initialized)", hc.GetHealthStatus()["cache"])
	assert.False(t, hc.IsAvailable("cache"))
}

func TestHealthChecker_StartRunsImmediatelyAndStops(t *testing.T) {
	var calls atomic.Int32

	cbm := NewCircuitBreakerManager(&log.NoneLogger{})
	hc := NewHealthChecker(map[string]PingFunc{
		"cache": func(context.Context) error {
			calls.Add(1)
			return nil
		},
	}, cbm, &log.NoneLogger{})
	hc.interval = time.Hour

	hc.Start()

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	hc.Stop()
	hc.Stop()

	assert.True(t, hc.IsAvailable("cache"))
}
