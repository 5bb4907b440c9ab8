// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"context"

	"github.com/navimedi/reporter/pkg/log"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type customContextKey string

var CustomContextKey = customContextKey("custom_context")

type CustomContextKeyValue struct {
	Tracer    trace.Tracer
	Logger    log.Logger
	RequestID string
}

// NewLoggerFromContext extract the Logger from "logger" value inside context
func NewLoggerFromContext(ctx context.Context) log.Logger {
	if customContext, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok &&
		customContext.Logger != nil {
		return customContext.Logger
	}

	return &log.NoneLogger{}
}

// NewTracerFromContext returns a new tracer from the context.
func NewTracerFromContext(ctx context.Context) trace.Tracer {
	if customContext, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok &&
		customContext.Tracer != nil {
		return customContext.Tracer
	}

	return noop.Tracer{}
}

// NewRequestIDFromContext returns the request id stored in the context, if any.
func NewRequestIDFromContext(ctx context.Context) string {
	if customContext, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok {
		return customContext.RequestID
	}

	return ""
}

// NewTrackingFromContext returns logger, tracer and request id in one call.
func NewTrackingFromContext(ctx context.Context) (log.Logger, trace.Tracer, string) {
	return NewLoggerFromContext(ctx), NewTracerFromContext(ctx), NewRequestIDFromContext(ctx)
}

// ContextWithLogger returns a context within a Logger in "logger" value.
func ContextWithLogger(ctx context.Context, logger log.Logger) context.Context {
	values := cloneValues(ctx)
	values.Logger = logger

	return context.WithValue(ctx, CustomContextKey, values)
}

// ContextWithTracer returns a context within a trace.Tracer in "tracer" value.
func ContextWithTracer(ctx context.Context, tracer trace.Tracer) context.Context {
	values := cloneValues(ctx)
	values.Tracer = tracer

	return context.WithValue(ctx, CustomContextKey, values)
}

// ContextWithRequestID returns a context carrying the request id.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	values := cloneValues(ctx)
	values.RequestID = requestID

	return context.WithValue(ctx, CustomContextKey, values)
}

// cloneValues copies the current values so parent contexts are never mutated.
func cloneValues(ctx context.Context) *CustomContextKeyValue {
	values := &CustomContextKeyValue{}

	if current, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok && current != nil {
		*values = *current
	}

	return values
}
