// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package metrics

import (
	"go.opentelemetry.io/otel/metric/noop"
)

// NoopMetrics returns a Metrics instance backed by no-op OTel instruments, for tests and
// for processes running with telemetry disabled.
func NoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("noop"))

	return m
}
