// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

import "time"

// HTTP Pagination Defaults
const (
	DefaultPaginationLimit    = 100
	DefaultPaginationPage     = 1
	DefaultMaxPaginationLimit = 100
)

// HTTP headers and path parameters.
const (
	HeaderAuthorization      = "Authorization"
	HeaderContentDisposition = "Content-Disposition"
	HeaderRequestID          = "X-Request-Id"
	BearerPrefix             = "Bearer "
	PathParamID              = "id"
	PathParamFileName        = "fileName"
)

// Permissions carried in access tokens.
const (
	PermissionReportsRead  = "reports:read"
	PermissionReportsWrite = "reports:write"
)

// MinJWTSecretLength is the shortest HS256 secret accepted when authentication is enabled.
const MinJWTSecretLength = 32

// Fiber locals keys.
const (
	LocalsPrincipal = "principal"
)

// Rate limit defaults, per client IP and window.
const (
	DefaultRateLimitGlobalMax   = 300
	DefaultRateLimitExportMax   = 30
	DefaultRateLimitDispatchMax = 60
	DefaultRateLimitWindow      = time.Minute
	RateLimitStorageTimeout     = 2 * time.Second
	ReadinessCheckTimeout       = 2 * time.Second
	ServerShutdownTimeout       = 15 * time.Second
)

// RateLimitExceededCode is the code of 429 responses.
const RateLimitExceededCode = "RPT-0429"
