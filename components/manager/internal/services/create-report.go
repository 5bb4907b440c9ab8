// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/mongodb/report"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// CreateReport create a new report
func (uc *UseCase) CreateReport(ctx context.Context, reportInput *model.CreateReportInput) (*report.Report, error) {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.create_report")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_type", reportInput.Type),
		attribute.String("app.request.report_format", reportInput.Format),
	)

	if err := opentelemetry.SetSpanAttributesFromStruct(&span, "app.request.payload", reportInput); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to convert report input to JSON string", err)
	}

	caller, err := principal(ctx)
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(&span, "Missing principal", err)
		return nil, err
	}

	logger.Infof("Creating %s report for tenant %s", reportInput.Type, caller.TenantID)

	from, to, err := model.ParseDateRange(reportInput.DateFrom, reportInput.DateTo)
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(&span, "Invalid date range", err)

		if errors.Is(err, constant.ErrDateRangeExceedsLimit) {
			return nil, pkg.ValidateBusinessError(err, constant.MongoCollectionReport, constant.MaxReportRangeMonths)
		}

		return nil, pkg.ValidateBusinessError(err, constant.MongoCollectionReport)
	}

	title := reportInput.Title
	if title == "" {
		title = model.DefaultTitle(reportInput.Type, from, to)
	}

	if utf8.RuneCountInString(title) > constant.MaxTitleLength {
		return nil, pkg.ValidateBusinessError(constant.ErrTitleTooLong, constant.MongoCollectionReport, constant.MaxTitleLength)
	}

	id, err := uuid.NewV7()
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to generate report id", err)
		return nil, pkg.ValidateInternalError(err, constant.MongoCollectionReport)
	}

	reportModel, err := report.NewReport(id, caller.TenantID, caller.DisplayName(), title, reportInput)
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(&span, "Invalid report input", err)

		switch {
		case errors.Is(err, constant.ErrInvalidReportType):
			return nil, pkg.ValidateBusinessError(constant.ErrInvalidReportType, constant.MongoCollectionReport, reportInput.Type)
		case errors.Is(err, constant.ErrInvalidOutputFormat):
			return nil, pkg.ValidateBusinessError(constant.ErrInvalidOutputFormat, constant.MongoCollectionReport, reportInput.Format)
		default:
			return nil, pkg.ValidateBusinessError(constant.ErrMissingRequiredFields, constant.MongoCollectionReport)
		}
	}

	result, err := uc.ReportRepo.Create(ctx, reportModel)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to create report in repository", err)

		logger.Errorf("Error creating report in database: %v", err)

		return nil, err
	}

	reportMessage := model.ReportMessage{
		ReportID: result.ID,
		TenantID: result.TenantID,
		Type:     result.Type,
		Format:   result.Format,
		Title:    result.Title,
		DateFrom: result.DateFrom,
		DateTo:   result.DateTo,
		Options:  result.Options,
	}

	logger.Infof("Sending report %s to reports queue...", result.ID)

	if err := uc.SendReportQueueReports(ctx, reportMessage); err != nil {
		uc.markPublishFailed(ctx, result, err)

		return nil, pkg.ValidateInternalError(err, constant.MongoCollectionReport)
	}

	return result, nil
}

// markPublishFailed moves a report that never reached the queue to failed so it does not stay pending forever.
func (uc *UseCase) markPublishFailed(ctx context.Context, reportModel *report.Report, cause error) {
	logger := pkg.NewLoggerFromContext(ctx)

	metadata := map[string]any{
		"error": pkg.Truncate("failed to enqueue report: "+cause.Error(), constant.RetryFailureReasonMaxLen),
	}

	if err := uc.ReportRepo.UpdateReportStatusById(ctx, constant.FailedStatus, reportModel.ID, uc.now(), metadata); err != nil {
		logger.Errorf("Failed to mark report %s as failed after publish error: %v", reportModel.ID, err)
		return
	}

	reportModel.Status = constant.FailedStatus
	reportModel.Metadata = metadata

	logger.Warnf("Report %s marked as failed, publish error: %v", reportModel.ID, cause)
}
