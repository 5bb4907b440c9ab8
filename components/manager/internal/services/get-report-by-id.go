// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"context"
	"errors"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/mongodb/report"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
)

// GetReportByID recover a report by ID. Reports of another tenant are reported as forbidden.
func (uc *UseCase) GetReportByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.get_report_by_id")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_id", id.String()),
	)

	caller, err := principal(ctx)
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(&span, "Missing principal", err)
		return nil, err
	}

	logger.Infof("Retrieving report for id %v", id)

	reportModel, err := uc.ReportRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			opentelemetry.HandleSpanBusinessErrorEvent(&span, "Report not found", err)

			return nil, pkg.ValidateBusinessError(constant.ErrEntityNotFound, constant.MongoCollectionReport)
		}

		opentelemetry.HandleSpanError(&span, "Failed to get report on repo by id", err)

		logger.Errorf("Error getting report on repo by id: %v", err)

		return nil, err
	}

	if reportModel.TenantID != caller.TenantID {
		logger.Warnf("Report %s requested by tenant %s belongs to another tenant", id, caller.TenantID)

		return nil, pkg.ValidateBusinessError(constant.ErrReportBelongsToOtherTenant, constant.MongoCollectionReport)
	}

	return reportModel, nil
}
