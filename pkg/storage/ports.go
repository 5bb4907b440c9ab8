// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package storage defines the object storage port for generated report files.
package storage

//go:generate mockgen --destination=ports.mock.go --package=storage . ObjectStorage

import (
	"context"
	"io"
)

// ObjectStorage stores and serves generated report files.
type ObjectStorage interface {
	// Upload stores content from a reader at the given key.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)

	// UploadWithTTL stores content tagged with a time-to-live (e.g. "24h", "7d").
	// An empty ttl stores the object permanently.
	UploadWithTTL(ctx context.Context, key string, reader io.Reader, contentType string, ttl string) (string, error)

	// Download retrieves content from the given key. The caller must close the returned ReadCloser.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// Ping checks that the bucket is reachable.
	Ping(ctx context.Context) error
}

// ReportKey is the object key of a generated report file.
func ReportKey(tenantID, reportID, fileName string) string {
	return "reports/" + tenantID + "/" + reportID + "/" + fileName
}
