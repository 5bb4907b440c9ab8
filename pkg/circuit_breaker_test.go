// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"errors"
	"testing"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newQuietLogger(ctrl *gomock.Controller) *log.MockLogger {
	mockLogger := log.NewMockLogger(ctrl)
	mockLogger.EXPECT().Infof(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warnf(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any()).AnyTimes()

	return mockLogger
}

func TestCircuitBreakerManager_GetOrCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	cbm := NewCircuitBreakerManager(newQuietLogger(ctrl))

	breaker1 := cbm.GetOrCreate("object-storage")
	breaker2 := cbm.GetOrCreate("object-storage")
	breaker3 := cbm.GetOrCreate("clinical-db")

	assert.Same(t, breaker1, breaker2)
	assert.NotSame(t, breaker1, breaker3)
}

func TestCircuitBreakerManager_Execute(t *testing.T) {
	ctrl := gomock.NewController(t)
	cbm := NewCircuitBreakerManager(newQuietLogger(ctrl))

	result, err := cbm.Execute("object-storage", func() (any, error) {
		return "uploaded", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "uploaded", result)

	boom := errors.New("boom")
	_, err = cbm.Execute("object-storage", func() (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint32(1), cbm.GetCounts("object-storage").TotalFailures)
}

func TestCircuitBreakerManager_OpensAfterConsecutiveFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	cbm := NewCircuitBreakerManager(newQuietLogger(ctrl))

	for i := uint32(0); i < constant.CircuitBreakerThreshold; i++ {
		_, _ = cbm.Execute("clinical-db", func() (any, error) {
			return nil, errors.New("connection refused")
		})
	}

	assert.Equal(t, constant.CircuitBreakerStateOpen, cbm.GetState("clinical-db"))
	assert.False(t, cbm.IsHealthy("clinical-db"))
	assert.False(t, cbm.ShouldAllowRetry("clinical-db"))

	_, err := cbm.Execute("clinical-db", func() (any, error) {
		t.Fatal("function must not run while the breaker is open")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrDependencyUnavailable)

	cbm.Reset("clinical-db")
	assert.Equal(t, constant.CircuitBreakerStateClosed, cbm.GetState("clinical-db"))
	assert.True(t, cbm.ShouldAllowRetry("clinical-db"))
}

func TestCircuitBreakerManager_NotInitialized(t *testing.T) {
	ctrl := gomock.NewController(t)
	cbm := NewCircuitBreakerManager(log.NewMockLogger(ctrl))

	assert.Equal(t, "not_initialized", cbm.GetState("unknown"))
	assert.Zero(t, cbm.GetCounts("unknown").Requests)
	assert.True(t, cbm.IsHealthy("unknown"))
	assert.True(t, cbm.ShouldAllowRetry("unknown"))

	cbm.Reset("unknown")
}
