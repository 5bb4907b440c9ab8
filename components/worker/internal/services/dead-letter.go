// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
)

// HandleDeadLetter marks the report of a dead-lettered job as failed, keeping the last error in its metadata.
// Reports that already reached a terminal status are left untouched.
func (uc *UseCase) HandleDeadLetter(ctx context.Context, body []byte, cause error) {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.handle_dead_letter")
	defer span.End()

	var message model.ReportMessage
	if err := json.Unmarshal(body, &message); err != nil || message.ReportID == uuid.Nil {
		logger.Errorf("Dead-lettered message carries no report id, nothing to mark as failed")
		return
	}

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_id", message.ReportID.String()),
	)

	reportModel, err := uc.ReportRepo.FindByID(ctx, message.ReportID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			logger.Warnf("Dead-lettered report %s does not exist", message.ReportID)
			return
		}

		opentelemetry.HandleSpanError(&span, "Failed to load dead-lettered report", err)
		logger.Errorf("Failed to load dead-lettered report %s: %v", message.ReportID, err)

		return
	}

	if reportModel.IsTerminal() {
		logger.Infof("Dead-lettered report %s is already %s", message.ReportID, reportModel.Status)
		return
	}

	stage := FailureStage(cause)

	reason := "generation failed"
	if cause != nil {
		reason = cause.Error()
	}

	metadata := map[string]any{
		"error": pkg.Truncate(reason, constant.RetryFailureReasonMaxLen),
		"stage": stage,
	}

	if err := uc.ReportRepo.UpdateReportStatusById(ctx, constant.FailedStatus, message.ReportID, uc.now(), metadata); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to mark report as failed", err)
		logger.Errorf("Failed to mark report %s as failed: %v", message.ReportID, err)

		return
	}

	uc.metrics().RecordFailed(ctx, reportModel.Type, stage)

	logger.Warnf("Report %s marked as failed at stage %s: %s", message.ReportID, stage, reason)
}
