// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package opentelemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	recorder := tracetest.NewSpanRecorder()
	return recorder, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
}

func TestHandleSpanError(t *testing.T) {
	recorder, tp := newRecordingTracer()

	_, span := tp.Tracer("test").Start(context.Background(), "repository.report.create")
	HandleSpanError(&span, "Failed to insert report", errors.New("duplicate key"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "Failed to insert report: duplicate key", ended[0].Status().Description)
	require.NotEmpty(t, ended[0].Events())
}

func TestHandleSpanBusinessErrorEvent(t *testing.T) {
	recorder, tp := newRecordingTracer()

	_, span := tp.Tracer("test").Start(context.Background(), "service.report.get")
	HandleSpanBusinessErrorEvent(&span, "Report not found", errors.New("RPT-0013"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "Report not found", ended[0].Events()[0].Name)
}

func TestSetSpanAttributesFromStruct(t *testing.T) {
	recorder, tp := newRecordingTracer()

	_, span := tp.Tracer("test").Start(context.Background(), "handler.report.create")
	require.NoError(t, SetSpanAttributesFromStruct(&span, "app.request.payload", map[string]string{"type": "test_volume"}))
	span.End()

	attrs := recorder.Ended()[0].Attributes()
	require.Len(t, attrs, 1)
	assert.Equal(t, `{"type":"test_volume"}`, attrs[0].Value.AsString())
}

func TestHandleSpanError_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		HandleSpanError(nil, "ignored", errors.New("x"))
	})
}

func TestInitializeTelemetry_Disabled(t *testing.T) {
	tl := InitializeTelemetry(&TelemetryConfig{
		LibraryName: "github.com/navimedi/reporter",
		ServiceName: "reporter-test",
	})

	require.NotNil(t, tl.Tracer())
	require.NotNil(t, tl.Meter())
	tl.ShutdownTelemetry()
}
