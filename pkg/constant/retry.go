// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

import "time"

// RabbitMQ Consumer Retry Configuration
const (
	// MaxMessageRetries is the maximum number of retry attempts before sending to DLQ.
	MaxMessageRetries = 5

	// RetryInitialBackoff is the base delay for exponential backoff calculation.
	RetryInitialBackoff = 1 * time.Second

	// RetryMaxBackoff caps the wait between redeliveries of one report request.
	RetryMaxBackoff = 30 * time.Second

	// RetryBackoffFactor grows the redelivery wait per attempt.
	RetryBackoffFactor = 2.0

	// RetryCountHeader is the RabbitMQ message header key for tracking retry attempts.
	RetryCountHeader = "x-retry-count"

	// RetryFailureReasonHeader is the RabbitMQ message header key for tracking the last failure reason.
	RetryFailureReasonHeader = "x-failure-reason"

	// RetryFailureReasonMaxLen truncates failure reasons stored in headers and report metadata.
	RetryFailureReasonMaxLen = 256
)

// RabbitMQ Producer Retry Configuration
const (
	ProducerMaxRetries     = 5
	ProducerInitialBackoff = 500 * time.Millisecond
	ProducerMaxBackoff     = 10 * time.Second
	ProducerBackoffFactor  = 2.0
)

// Worker defaults.
const (
	DefaultWorkerCount = 5
	DefaultPrefetch    = 10
)

// Client defaults.
const (
	// DefaultClientTimeout bounds every request issued by the report client.
	DefaultClientTimeout = 30 * time.Second

	// ReportListStaleTime is how long a fetched report list is trusted.
	ReportListStaleTime = 30 * time.Second

	// DefaultPollInterval is the interval used while waiting for a pending report.
	DefaultPollInterval = 2 * time.Second
)

// Circuit breaker configuration for object storage.
const (
	CircuitBreakerMaxRequests uint32 = 3
	CircuitBreakerInterval           = 2 * time.Minute
	CircuitBreakerTimeout            = 30 * time.Second
	CircuitBreakerThreshold   uint32 = 5

	CircuitBreakerStateClosed   = "closed"
	CircuitBreakerStateOpen     = "open"
	CircuitBreakerStateHalfOpen = "half-open"
)

// Dependencies guarded by circuit breakers and probed by the health checker.
const (
	DependencyClinicalDataSource = "clinical-datasource"
	DependencyObjectStorage      = "object-storage"

	DependencyStatusAvailable   = "available"
	DependencyStatusUnavailable = "unavailable"
	DependencyStatusUnknown     = "unknown"

	HealthCheckInterval = 30 * time.Second
	HealthCheckTimeout  = 5 * time.Second
)
