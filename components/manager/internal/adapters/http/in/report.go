// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package in

import (
	"strconv"

	"github.com/navimedi/reporter/components/manager/internal/services"
	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/net/http"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ReportHandler exposes the report use cases over HTTP.
type ReportHandler struct {
	service *services.UseCase
}

// NewReportHandler returns a ReportHandler, or an error when the use case is missing.
func NewReportHandler(service *services.UseCase) (*ReportHandler, error) {
	if service == nil {
		return nil, ErrNilService
	}

	return &ReportHandler{service: service}, nil
}

// CreateReport is a method that creates a report.
//
//	@Summary		Create a Report
//	@Description	Accepts a report request and queues it for generation.
//	@Tags			Reports
//	@Accept			json
//	@Produce		json
//	@Param			Authorization	header		string					true	"The authorization token"
//	@Param			reports			body		model.CreateReportInput	true	"Report Input"
//	@Success		201				{object}	model.ReportEnvelope
//	@Router			/v1/reports [post]
func (rh *ReportHandler) CreateReport(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.create_report")
	defer span.End()

	span.SetAttributes(attribute.String("app.request.request_id", reqID))

	payload := p.(*model.CreateReportInput)
	logger.Infof("Request to create report with details: %#v", payload)

	reportOut, err := rh.service.CreateReport(ctx, payload)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to create report", err)

		logger.Errorf("Failed to create report: %v", err)

		return http.WithError(c, err)
	}

	logger.Infof("Successfully created report %s", reportOut.ID)

	return http.Created(c, model.ReportEnvelope{Report: reportOut})
}

// GetAllReports lists the reports of the caller's tenant, newest first.
//
//	@Summary		List Reports
//	@Tags			Reports
//	@Produce		json
//	@Param			Authorization	header		string	true	"The authorization token"
//	@Param			limit			query		int		false	"Page size"	default(100)
//	@Param			page			query		int		false	"Page"		default(1)
//	@Param			status			query		string	false	"Status filter"
//	@Param			type			query		string	false	"Report type filter"
//	@Success		200				{array}		report.Report
//	@Router			/v1/reports [get]
func (rh *ReportHandler) GetAllReports(c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.get_all_reports")
	defer span.End()

	span.SetAttributes(attribute.String("app.request.request_id", reqID))

	headerParams, err := http.ValidateParameters(c.Queries())
	if err != nil {
		opentelemetry.HandleSpanBusinessErrorEvent(&span, "Failed to validate query parameters", err)

		logger.Errorf("Failed to validate query parameters, Error: %s", err.Error())

		return http.WithError(c, err)
	}

	reports, err := rh.service.GetAllReports(ctx, *headerParams)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to retrieve all Reports", err)

		logger.Errorf("Failed to retrieve all Reports, Error: %s", err.Error())

		return http.WithError(c, err)
	}

	c.Set("X-Total-Count", strconv.Itoa(len(reports)))

	logger.Infof("Successfully retrieved %d reports", len(reports))

	return http.OK(c, reports)
}

// GetReport returns a single report of the caller's tenant.
//
//	@Summary		Get a Report
//	@Tags			Reports
//	@Produce		json
//	@Param			Authorization	header		string	true	"The authorization token"
//	@Param			id				path		string	true	"Report ID"
//	@Success		200				{object}	report.Report
//	@Router			/v1/reports/{id} [get]
func (rh *ReportHandler) GetReport(c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.get_report")
	defer span.End()

	id := c.Locals(constant.PathParamID).(uuid.UUID)

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_id", id.String()),
	)

	reportModel, err := rh.service.GetReportByID(ctx, id)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to retrieve Report", err)

		logger.Errorf("Failed to retrieve Report with ID: %s, Error: %s", id, err.Error())

		return http.WithError(c, err)
	}

	return http.OK(c, reportModel)
}

// DownloadReport streams the stored file of a completed report as an attachment.
//
//	@Summary		Download a Report
//	@Tags			Reports
//	@Produce		application/pdf,text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Param			Authorization	header	string	true	"The authorization token"
//	@Param			id				path	string	true	"Report ID"
//	@Param			fileName		path	string	true	"Stored file name"
//	@Success		200
//	@Router			/v1/reports/download/{id}/{fileName} [get]
func (rh *ReportHandler) DownloadReport(c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.download_report")
	defer span.End()

	id := c.Locals(constant.PathParamID).(uuid.UUID)
	fileName := c.Params(constant.PathParamFileName)

	span.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.report_id", id.String()),
		attribute.String("app.request.file_name", fileName),
	)

	fileBytes, contentType, err := rh.service.DownloadReport(ctx, id, fileName)
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to download Report", err)

		logger.Errorf("Failed to download Report with ID: %s, Error: %s", id, err.Error())

		return http.WithError(c, err)
	}

	http.SetAttachment(c, contentType, fileName)

	logger.Infof("Serving report %s (%d bytes)", id, len(fileBytes))

	return c.Status(fiber.StatusOK).Send(fileBytes)
}
