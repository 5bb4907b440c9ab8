// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/navimedi/reporter/pkg/client"

// clientMetrics counts submissions and downloads by outcome.
type clientMetrics struct {
	submissions metric.Int64Counter
	downloads   metric.Int64Counter
}

func newClientMetrics(meter metric.Meter) *clientMetrics {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(meterName)
	}

	submissions, err := meter.Int64Counter("reporter.client.submissions",
		metric.WithDescription("Report submissions by outcome"))
	if err != nil {
		submissions, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter("reporter.client.submissions")
	}

	downloads, err := meter.Int64Counter("reporter.client.downloads",
		metric.WithDescription("Report downloads by outcome"))
	if err != nil {
		downloads, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter("reporter.client.downloads")
	}

	return &clientMetrics{submissions: submissions, downloads: downloads}
}

func (m *clientMetrics) recordSubmission(ctx context.Context, reportType string, err error) {
	m.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("report.type", reportType),
		attribute.String("outcome", errorKind(err)),
	))
}

func (m *clientMetrics) recordDownload(ctx context.Context, format string, err error) {
	m.downloads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("report.format", format),
		attribute.String("outcome", errorKind(err)),
	))
}
