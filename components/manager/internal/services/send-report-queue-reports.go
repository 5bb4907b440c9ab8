// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"context"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"go.opentelemetry.io/otel/attribute"
)

// SendReportQueueReports publishes a generation job for the report to the RabbitMQ exchange.
func (uc *UseCase) SendReportQueueReports(ctx context.Context, reportMessage model.ReportMessage) error {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.send_report_queue")
	defer span.End()

	exchange, key := uc.exchange()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_id", reportMessage.ReportID.String()),
		attribute.String("app.request.exchange", exchange),
	)

	if err := opentelemetry.SetSpanAttributesFromStruct(&span, "app.request.payload", reportMessage); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to convert report message to JSON string", err)
	}

	if _, err := uc.RabbitMQRepo.ProducerDefault(ctx, exchange, key, reportMessage); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to send message to queue", err)

		logger.Errorf("Failed to send message: %s", err.Error())

		return err
	}

	logger.Infof("Report sent to generate report queue successfully")

	return nil
}
