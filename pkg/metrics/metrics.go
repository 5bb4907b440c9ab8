// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package metrics holds the OTel instruments of the report generation pipeline.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the worker instruments.
// All fields are non-nil after NewMetrics or NoopMetrics, so callers record without nil checks.
type Metrics struct {
	// ReportsGeneratedTotal counts reports stored and marked completed.
	ReportsGeneratedTotal metric.Int64Counter

	// ReportsFailedTotal counts reports marked failed, by stage.
	ReportsFailedTotal metric.Int64Counter

	// ConsumersActive tracks the running queue workers.
	ConsumersActive metric.Int64UpDownCounter

	// MessagesProcessedTotal counts deliveries by outcome (ack, retry, dead_letter).
	MessagesProcessedTotal metric.Int64Counter

	// GenerationDuration records the end-to-end generation time in seconds.
	GenerationDuration metric.Float64Histogram
}

// NewMetrics registers the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	generated, err := meter.Int64Counter(
		"reporter_reports_generated_total",
		metric.WithDescription("Reports generated and stored"),
		metric.WithUnit("{report}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reporter_reports_generated_total counter: %w", err)
	}

	failed, err := meter.Int64Counter(
		"reporter_reports_failed_total",
		metric.WithDescription("Reports marked as failed"),
		metric.WithUnit("{report}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reporter_reports_failed_total counter: %w", err)
	}

	consumersActive, err := meter.Int64UpDownCounter(
		"reporter_consumers_active",
		metric.WithDescription("Active queue workers"),
		metric.WithUnit("{consumer}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reporter_consumers_active up_down_counter: %w", err)
	}

	processed, err := meter.Int64Counter(
		"reporter_messages_processed_total",
		metric.WithDescription("Queue deliveries processed by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reporter_messages_processed_total counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"reporter_generation_duration_seconds",
		metric.WithDescription("Time spent generating one report"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reporter_generation_duration_seconds histogram: %w", err)
	}

	return &Metrics{
		ReportsGeneratedTotal:  generated,
		ReportsFailedTotal:     failed,
		ConsumersActive:        consumersActive,
		MessagesProcessedTotal: processed,
		GenerationDuration:     duration,
	}, nil
}

// RecordGenerated counts a completed report and its generation time.
func (m *Metrics) RecordGenerated(ctx context.Context, reportType, format string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("report_type", reportType), attribute.String("format", format))

	m.ReportsGeneratedTotal.Add(ctx, 1, attrs)
	m.GenerationDuration.Record(ctx, seconds, attrs)
}

// RecordFailed counts a report marked failed at stage.
func (m *Metrics) RecordFailed(ctx context.Context, reportType, stage string) {
	m.ReportsFailedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("report_type", reportType), attribute.String("stage", stage)))
}

// RecordDelivery counts a queue delivery with its outcome.
func (m *Metrics) RecordDelivery(ctx context.Context, queue, outcome string) {
	m.MessagesProcessedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("queue", queue), attribute.String("outcome", outcome)))
}
