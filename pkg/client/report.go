// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package client is the caller side of the report pipeline: it submits report requests,
// keeps a cached view of generated reports and downloads completed report files.
package client

import (
	"fmt"
	"time"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"
)

// ReportRequest is the set of parameters collected by a report request form.
type ReportRequest struct {
	ReportType string
	DateFrom   time.Time
	DateTo     time.Time
	Format     string
	model.ReportOptions
}

// DefaultRequest pre-selects a trailing window of constant.DefaultReportWindowDays ending at now,
// the laboratory summary type and the PDF format.
func DefaultRequest(now time.Time) ReportRequest {
	to := calendarDay(now)

	return ReportRequest{
		ReportType: constant.ReportTypeLaboratorySummary,
		DateFrom:   to.AddDate(0, 0, -constant.DefaultReportWindowDays),
		DateTo:     to,
		Format:     constant.FormatPDF,
	}
}

// Validate checks the request without any network call.
// The date range cap is the one the manager enforces, so an over-long range never costs a round trip.
func (r ReportRequest) Validate() error {
	if r.ReportType == "" {
		return &ValidationError{Field: "reportType", Message: "Report type is required."}
	}

	if !constant.IsValidReportType(r.ReportType) {
		return &ValidationError{Field: "reportType", Message: fmt.Sprintf("Report type %q is not supported.", r.ReportType)}
	}

	if r.Format == "" {
		return &ValidationError{Field: "format", Message: "Format is required."}
	}

	if !constant.IsValidFormat(r.Format) {
		return &ValidationError{Field: "format", Message: fmt.Sprintf("Format %q is not supported.", r.Format)}
	}

	if r.DateFrom.IsZero() {
		return &ValidationError{Field: "dateFrom", Message: "Start date is required."}
	}

	if r.DateTo.IsZero() {
		return &ValidationError{Field: "dateTo", Message: "End date is required."}
	}

	from, to := calendarDay(r.DateFrom), calendarDay(r.DateTo)

	if to.Before(from) {
		return &ValidationError{Field: "dateTo", Message: "End date must be on or after the start date."}
	}

	if to.After(from.AddDate(0, constant.MaxReportRangeMonths, 0)) {
		return &ValidationError{
			Field:   "dateTo",
			Message: fmt.Sprintf("Date range cannot exceed %d months.", constant.MaxReportRangeMonths),
		}
	}

	return nil
}

// Title is the human readable title sent with the request,
// e.g. "Laboratory Summary Report (2025-08-01 to 2025-08-31)".
func (r ReportRequest) Title() string {
	return model.DefaultTitle(r.ReportType, calendarDay(r.DateFrom), calendarDay(r.DateTo))
}

// input builds the creation payload.
func (r ReportRequest) input() model.CreateReportInput {
	return model.CreateReportInput{
		Type:                  r.ReportType,
		Format:                r.Format,
		Title:                 r.Title(),
		DateFrom:              calendarDay(r.DateFrom).Format(constant.DateLayout),
		DateTo:                calendarDay(r.DateTo).Format(constant.DateLayout),
		IncludeTestResults:    r.IncludeTestResults,
		IncludeCharts:         r.IncludeCharts,
		IncludePatientDetails: r.IncludePatientDetails,
		IncludeFinancials:     r.IncludeFinancials,
	}
}

// GeneratedReport is the read-only projection of a server side report.
type GeneratedReport struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Type        string              `json:"type"`
	Format      string              `json:"format"`
	Status      string              `json:"status"`
	DateFrom    string              `json:"dateFrom,omitempty"`
	DateTo      string              `json:"dateTo,omitempty"`
	Options     model.ReportOptions `json:"options"`
	GeneratedBy string              `json:"generatedBy,omitempty"`
	FileName    string              `json:"fileName,omitempty"`
	FileURL     string              `json:"fileUrl,omitempty"`
	Metadata    map[string]any      `json:"metadata,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
}

// Downloadable reports whether the report is completed and carries both file references.
func (r GeneratedReport) Downloadable() bool {
	return r.Status == constant.CompletedStatus && r.FileURL != "" && r.FileName != ""
}

// Terminal reports whether the report reached completed or failed.
func (r GeneratedReport) Terminal() bool {
	return r.Status == constant.CompletedStatus || r.Status == constant.FailedStatus
}

// calendarDay drops the clock part of t, keeping its calendar date.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
