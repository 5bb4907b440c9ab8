// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

import "time"

// Clinical data source settings.
const (
	// ClinicalSchema holds the reporting views read by the worker.
	ClinicalSchema = "clinical"

	// QueryTimeoutMedium bounds a single dataset query.
	QueryTimeoutMedium = 60 * time.Second

	// SchemaDiscoveryTimeout bounds the startup check of the reporting views.
	SchemaDiscoveryTimeout = 15 * time.Second

	// PostgresConnMaxLifetime recycles pooled connections.
	PostgresConnMaxLifetime = 10 * time.Minute
)
