// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"context"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/mongodb/report"
	"github.com/navimedi/reporter/pkg/net/http"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"go.opentelemetry.io/otel/attribute"
)

// GetAllReports fetch the reports of the caller's tenant, newest first.
func (uc *UseCase) GetAllReports(ctx context.Context, filters http.QueryHeader) ([]*report.Report, error) {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.get_all_reports")
	defer span.End()

	caller, err := principal(ctx)
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(&span, "Missing principal", err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.tenant_id", caller.TenantID),
	)

	if err := opentelemetry.SetSpanAttributesFromStruct(&span, "app.request.payload", filters); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to convert filters to JSON string", err)
	}

	logger.Infof("Retrieving reports")

	reports, err := uc.ReportRepo.FindList(ctx, caller.TenantID, filters)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get all reports on repo", err)

		logger.Errorf("Error getting reports on repo: %v", err)

		return nil, err
	}

	if reports == nil {
		return []*report.Report{}, nil
	}

	return reports, nil
}
