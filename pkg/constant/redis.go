// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

import "time"

const (
	// IdempotencyKeyPrefix is the Redis key prefix for idempotency locks.
	IdempotencyKeyPrefix = "idempotency"

	// IdempotencyTTL is the time-to-live for idempotency keys.
	IdempotencyTTL = 24 * time.Hour

	// ReportListCacheKeyPrefix namespaces report list entries cached by clients.
	ReportListCacheKeyPrefix = "reporter:reports"
)
