// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/mongodb/report"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
)

// StageError tags a generation failure with the pipeline stage it happened in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailureStage returns the stage recorded in err, or StageMessage for untagged errors.
func FailureStage(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}

	return constant.StageMessage
}

// GenerateReport builds the file of one queued report, stores it and marks the report completed.
// Invalid messages and unknown reports come back as business errors so the consumer does not retry them.
// Reports already completed or failed are skipped.
func (uc *UseCase) GenerateReport(ctx context.Context, body []byte) error {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.generate_report")
	defer span.End()

	start := time.Now()

	message, from, to, err := parseReportMessage(body)
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(&span, "Invalid report message", err)

		logger.Errorf("Discarding invalid report message: %v", err)

		return err
	}

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_id", message.ReportID.String()),
		attribute.String("app.request.tenant_id", message.TenantID),
		attribute.String("app.request.report_type", message.Type),
		attribute.String("app.request.report_format", message.Format),
	)

	reportModel, err := uc.loadReport(ctx, message)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to load report", err)
		return err
	}

	if reportModel.IsTerminal() {
		logger.Infof("Report %s is already %s, skipping reprocessing", reportModel.ID, reportModel.Status)
		return nil
	}

	acquired, release := uc.acquireGenerationLock(ctx, message.ReportID)
	if !acquired {
		logger.Infof("Report %s is being generated by another worker, skipping", message.ReportID)
		return nil
	}

	done := false

	defer func() {
		if !done {
			release()
		}
	}()

	if err := uc.ReportRepo.UpdateReportStatusById(ctx, constant.ProcessingStatus, message.ReportID, time.Time{}, nil); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to mark report as processing", err)

		logger.Errorf("Failed to mark report %s as processing: %v", message.ReportID, err)

		return &StageError{Stage: constant.StageUpdate, Err: err}
	}

	result, err := uc.queryReportData(ctx, message, from, to)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to query report data", err)
		return err
	}

	logger.Infof("Report %s: %d rows fetched for %s", message.ReportID, len(result.Rows), message.Type)

	rendered, err := uc.renderReport(ctx, message, reportModel, result)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to render report", err)
		return err
	}

	fileName := model.FileName(message.Type, message.Format, from, to)

	objectKey, err := uc.saveReport(ctx, message, fileName, rendered)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to store report file", err)
		return err
	}

	metadata := map[string]any{
		"rows":        len(result.Rows),
		"sizeBytes":   len(rendered.data),
		"contentType": rendered.contentType,
		"objectKey":   objectKey,
	}

	if err := uc.ReportRepo.MarkCompleted(ctx, message.ReportID, fileName, model.DownloadURL(message.ReportID, fileName), uc.now(), metadata); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to mark report as completed", err)

		logger.Errorf("Failed to mark report %s as completed: %v", message.ReportID, err)

		return &StageError{Stage: constant.StageUpdate, Err: err}
	}

	done = true

	uc.metrics().RecordGenerated(ctx, message.Type, message.Format, time.Since(start).Seconds())

	logger.Infof("Report %s completed: %s (%d bytes)", message.ReportID, fileName, len(rendered.data))

	return nil
}

// parseReportMessage decodes and validates a queued job.
func parseReportMessage(body []byte) (*model.ReportMessage, time.Time, time.Time, error) {
	var message model.ReportMessage

	if err := json.Unmarshal(body, &message); err != nil {
		return nil, time.Time{}, time.Time{}, pkg.ValidateBusinessError(constant.ErrInvalidReportMessage, constant.MongoCollectionReport)
	}

	if message.ReportID == uuid.Nil {
		return nil, time.Time{}, time.Time{}, pkg.ValidateBusinessError(constant.ErrInvalidReportID, constant.MongoCollectionReport)
	}

	if message.TenantID == "" {
		return nil, time.Time{}, time.Time{}, pkg.ValidateBusinessError(constant.ErrMissingRequiredFields, constant.MongoCollectionReport)
	}

	if !constant.IsValidReportType(message.Type) {
		return nil, time.Time{}, time.Time{}, pkg.ValidateBusinessError(constant.ErrInvalidReportType, constant.MongoCollectionReport, message.Type)
	}

	if !constant.IsValidFormat(message.Format) {
		return nil, time.Time{}, time.Time{}, pkg.ValidateBusinessError(constant.ErrInvalidOutputFormat, constant.MongoCollectionReport, message.Format)
	}

	from, to, err := model.ParseDateRange(message.DateFrom, message.DateTo)
	if err != nil {
		if errors.Is(err, constant.ErrDateRangeExceedsLimit) {
			return nil, time.Time{}, time.Time{}, pkg.ValidateBusinessError(err, constant.MongoCollectionReport, constant.MaxReportRangeMonths)
		}

		return nil, time.Time{}, time.Time{}, pkg.ValidateBusinessError(err, constant.MongoCollectionReport)
	}

	return &message, from, to, nil
}

// loadReport reads the registry entry of message and checks it belongs to the message tenant.
func (uc *UseCase) loadReport(ctx context.Context, message *model.ReportMessage) (*report.Report, error) {
	logger := pkg.NewLoggerFromContext(ctx)

	reportModel, err := uc.ReportRepo.FindByID(ctx, message.ReportID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			logger.Errorf("Report %s not found in registry", message.ReportID)

			return nil, pkg.ValidateBusinessError(constant.ErrEntityNotFound, constant.MongoCollectionReport)
		}

		logger.Errorf("Failed to load report %s: %v", message.ReportID, err)

		return nil, &StageError{Stage: constant.StageUpdate, Err: err}
	}

	if reportModel.TenantID != message.TenantID {
		logger.Errorf("Report %s belongs to tenant %s, message carries %s", message.ReportID, reportModel.TenantID, message.TenantID)

		return nil, pkg.ValidateBusinessError(constant.ErrReportBelongsToOtherTenant, constant.MongoCollectionReport)
	}

	return reportModel, nil
}
