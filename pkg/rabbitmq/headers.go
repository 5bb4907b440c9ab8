// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package rabbitmq

import (
	"context"

	"github.com/navimedi/reporter/pkg/constant"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/propagation"
)

var propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

// tableCarrier adapts amqp headers to the otel TextMapCarrier.
type tableCarrier amqp.Table

func (c tableCarrier) Get(key string) string {
	v, ok := c[key]
	if !ok {
		return ""
	}

	s, _ := v.(string)

	return s
}

func (c tableCarrier) Set(key, value string) {
	c[key] = value
}

func (c tableCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}

	return keys
}

// InjectTraceHeaders writes the span context of ctx into headers.
func InjectTraceHeaders(ctx context.Context, headers amqp.Table) {
	propagator.Inject(ctx, tableCarrier(headers))
}

// ExtractTraceContext returns ctx carrying the remote span context found in headers.
func ExtractTraceContext(ctx context.Context, headers amqp.Table) context.Context {
	if headers == nil {
		return ctx
	}

	return propagator.Extract(ctx, tableCarrier(headers))
}

// RequestID returns the request id header, or "" when missing or not a string.
func RequestID(headers amqp.Table) string {
	v, ok := headers[constant.HeaderRequestID]
	if !ok {
		return ""
	}

	s, _ := v.(string)

	return s
}
