// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/opentelemetry"
	"github.com/navimedi/reporter/pkg/postgres"

	"go.opentelemetry.io/otel/attribute"
)

// queryReportData reads the dataset of the report type for the message tenant and date range.
// The inclusion flags of the message select the optional columns.
func (uc *UseCase) queryReportData(ctx context.Context, message *model.ReportMessage, from, to time.Time) (*postgres.Result, error) {
	logger, tracer, _ := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.report.query_data")
	defer span.End()

	query := postgres.ReportQuery{
		TenantID: message.TenantID,
		Type:     message.Type,
		From:     from,
		To:       to,
		Options:  message.Options,
	}

	out, err := uc.execute(constant.DependencyClinicalDataSource, func() (any, error) {
		return uc.DataSource.QueryReport(ctx, query)
	})
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Error querying clinical data source", err)

		logger.Errorf("Error querying %s dataset: %v", message.Type, err)

		return nil, &StageError{Stage: constant.StageQuery, Err: err}
	}

	result, ok := out.(*postgres.Result)
	if !ok || result == nil {
		err := fmt.Errorf("unexpected dataset result %T", out)
		opentelemetry.HandleSpanError(&span, "Invalid dataset result", err)

		return nil, &StageError{Stage: constant.StageQuery, Err: err}
	}

	span.SetAttributes(
		attribute.Int("app.response.columns", len(result.Columns)),
		attribute.Int("app.response.rows", len(result.Rows)),
	)

	return result, nil
}
