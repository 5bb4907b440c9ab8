// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

import "time"

// MongoDB collection names.
const (
	MongoCollectionReport = "report"
)

// MongoDB index operation timeouts.
const (
	// MongoIndexCreateTimeout is the maximum time allowed for creating indexes.
	MongoIndexCreateTimeout = 60 * time.Second

	// MongoIndexDropTimeout is the maximum time allowed for dropping indexes.
	MongoIndexDropTimeout = 30 * time.Second
)

// MongoDefaultMaxPoolSize is the connection pool size used when MONGO_MAX_POOL_SIZE is unset.
const MongoDefaultMaxPoolSize = 100
