// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"context"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/metrics"
	"github.com/navimedi/reporter/pkg/mongodb/report"
	"github.com/navimedi/reporter/pkg/pdf"
	"github.com/navimedi/reporter/pkg/pongo"
	"github.com/navimedi/reporter/pkg/postgres"
	"github.com/navimedi/reporter/pkg/redis"
	"github.com/navimedi/reporter/pkg/storage"
)

// HTMLRenderer renders the report view to an HTML document.
type HTMLRenderer interface {
	Render(ctx context.Context, view *pongo.ReportView) (string, error)
}

// UseCase coordinates report generation: registry updates, dataset queries, rendering and storage.
type UseCase struct {
	// ReportRepo tracks the lifecycle of each report in MongoDB.
	ReportRepo report.Repository

	// DataSource reads the report datasets from the clinical warehouse.
	DataSource postgres.Repository

	// Storage holds the generated files.
	Storage storage.ObjectStorage

	// LockRepo guards a report against concurrent generation. Optional.
	LockRepo redis.RedisRepository

	// HTMLRenderer and PDFGenerator produce pdf reports.
	HTMLRenderer HTMLRenderer
	PDFGenerator pdf.PDFGenerator

	// CircuitBreaker wraps the data source and storage calls. Optional.
	CircuitBreaker *pkg.CircuitBreakerManager

	// Metrics records pipeline outcomes. Defaults to no-op instruments.
	Metrics *metrics.Metrics

	// ReportTTL is the retention of generated files, e.g. "7d". Empty keeps them forever.
	ReportTTL string

	// Now is the clock used for completion timestamps. Defaults to time.Now.
	Now func() time.Time
}

func (uc *UseCase) now() time.Time {
	if uc.Now != nil {
		return uc.Now().UTC()
	}

	return time.Now().UTC()
}

func (uc *UseCase) metrics() *metrics.Metrics {
	if uc.Metrics == nil {
		return metrics.NoopMetrics()
	}

	return uc.Metrics
}

// execute runs fn through the breaker of dependency when one is configured.
func (uc *UseCase) execute(dependency string, fn func() (any, error)) (any, error) {
	if uc.CircuitBreaker == nil {
		return fn()
	}

	return uc.CircuitBreaker.Execute(dependency, fn)
}
