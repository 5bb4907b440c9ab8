// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package opentelemetry bootstraps tracing and metrics providers and holds span helpers.
package opentelemetry

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/navimedi/reporter/pkg/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TelemetryConfig selects the service identity and the OTLP collector.
type TelemetryConfig struct {
	LibraryName       string
	ServiceName       string
	ServiceVersion    string
	DeploymentEnv     string
	CollectorEndpoint string
	EnableTelemetry   bool
	Logger            log.Logger
}

// Telemetry owns the providers created by InitializeTelemetry.
type Telemetry struct {
	TelemetryConfig
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// InitializeTelemetry registers global tracer and meter providers. With telemetry disabled the providers
// are still created, without exporters, so instrumented code paths behave the same.
func InitializeTelemetry(cfg *TelemetryConfig) *Telemetry {
	ctx := context.Background()

	if cfg.Logger == nil {
		cfg.Logger = &log.NoneLogger{}
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.DeploymentEnv),
	)

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	meterOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.EnableTelemetry {
		traceExporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			cfg.Logger.Errorf("can't initialize trace exporter: %v", err)
		} else {
			traceOpts = append(traceOpts, sdktrace.WithBatcher(traceExporter))
		}

		metricExporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			cfg.Logger.Errorf("can't initialize metric exporter: %v", err)
		} else {
			meterOpts = append(meterOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)))
		}
	}

	tp := sdktrace.NewTracerProvider(traceOpts...)
	mp := sdkmetric.NewMeterProvider(meterOpts...)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	cfg.Logger.Infof("Telemetry initialized for %s (export enabled: %t)", cfg.ServiceName, cfg.EnableTelemetry)

	return &Telemetry{
		TelemetryConfig: *cfg,
		TracerProvider:  tp,
		MeterProvider:   mp,
	}
}

// Tracer returns the named tracer of this telemetry instance.
func (t *Telemetry) Tracer() trace.Tracer {
	return t.TracerProvider.Tracer(t.LibraryName)
}

// Meter returns the named meter of this telemetry instance.
func (t *Telemetry) Meter() metric.Meter {
	return t.MeterProvider.Meter(t.LibraryName)
}

// ShutdownTelemetry flushes and stops both providers.
func (t *Telemetry) ShutdownTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := errors.Join(t.TracerProvider.Shutdown(ctx), t.MeterProvider.Shutdown(ctx))
	if err != nil {
		t.Logger.Errorf("Error shutting down telemetry: %v", err)
	}
}

// HandleSpanError records err on the span and marks it as failed.
func HandleSpanError(span *trace.Span, message string, err error) {
	if span == nil || *span == nil {
		return
	}

	(*span).SetAttributes(attribute.String("app.error.message", message))
	(*span).RecordError(err)
	(*span).SetStatus(codes.Error, message+": "+errorString(err))
}

// HandleSpanBusinessErrorEvent adds an event for an expected business failure without failing the span.
func HandleSpanBusinessErrorEvent(span *trace.Span, message string, err error) {
	if span == nil || *span == nil {
		return
	}

	(*span).AddEvent(message, trace.WithAttributes(attribute.String("app.error.detail", errorString(err))))
}

// SetSpanAttributesFromStruct stores value as a JSON attribute under key.
func SetSpanAttributesFromStruct(span *trace.Span, key string, value any) error {
	if span == nil || *span == nil {
		return nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	(*span).SetAttributes(attribute.String(key, string(b)))

	return nil
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
