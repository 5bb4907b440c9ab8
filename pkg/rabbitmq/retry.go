// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package rabbitmq

import (
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"

	amqp "github.com/rabbitmq/amqp091-go"
)

// GetRetryCount reads the x-retry-count header. Missing, negative or non numeric values count as 0.
func GetRetryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}

	val, exists := headers[constant.RetryCountHeader]
	if !exists {
		return 0
	}

	var n int

	switch v := val.(type) {
	case int:
		n = v
	case int8:
		n = int(v)
	case int16:
		n = int(v)
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case float32:
		n = int(v)
	case float64:
		n = int(v)
	default:
		return 0
	}

	if n < 0 {
		return 0
	}

	return n
}

// RetryHeaders copies headers for a republished delivery with the retry count bumped and the failure reason set.
func RetryHeaders(headers amqp.Table, retryCount int, reason string) amqp.Table {
	next := make(amqp.Table, len(headers)+2)
	for k, v := range headers {
		next[k] = v
	}

	next[constant.RetryCountHeader] = int32(retryCount + 1)
	next[constant.RetryFailureReasonHeader] = pkg.Truncate(reason, constant.RetryFailureReasonMaxLen)

	return next
}

// CalculateBackoff returns the jittered delay before redelivery attempt+1.
func CalculateBackoff(attempt int) time.Duration {
	return pkg.RedeliveryBackoff.Wait(attempt)
}
