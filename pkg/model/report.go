// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package model

import (
	"fmt"
	"time"

	"github.com/navimedi/reporter/pkg/constant"

	"github.com/google/uuid"
)

// ReportOptions holds the inclusion flags that select optional report sections.
type ReportOptions struct {
	IncludeTestResults    bool `json:"includeTestResults" bson:"include_test_results"`
	IncludeCharts         bool `json:"includeCharts" bson:"include_charts"`
	IncludePatientDetails bool `json:"includePatientDetails" bson:"include_patient_details"`
	IncludeFinancials     bool `json:"includeFinancials" bson:"include_financials"`
}

// CreateReportInput is the payload of POST /v1/reports.
//
// swagger:model CreateReportInput
// @Description CreateReportInput is the input payload to create a report.
type CreateReportInput struct {
	Type                  string `json:"type" validate:"required,reporttype" example:"laboratory_summary"`
	Format                string `json:"format" validate:"required,reportformat" example:"pdf"`
	Title                 string `json:"title" validate:"max=200" example:"Laboratory Summary Report (2025-08-01 to 2025-08-31)"`
	DateFrom              string `json:"dateFrom" validate:"required,dateonly" example:"2025-08-01"`
	DateTo                string `json:"dateTo" validate:"required,dateonly" example:"2025-08-31"`
	IncludeTestResults    bool   `json:"includeTestResults"`
	IncludeCharts         bool   `json:"includeCharts"`
	IncludePatientDetails bool   `json:"includePatientDetails"`
	IncludeFinancials     bool   `json:"includeFinancials"`
} // @name CreateReportInput

// Options extracts the inclusion flags of the input.
func (in *CreateReportInput) Options() ReportOptions {
	return ReportOptions{
		IncludeTestResults:    in.IncludeTestResults,
		IncludeCharts:         in.IncludeCharts,
		IncludePatientDetails: in.IncludePatientDetails,
		IncludeFinancials:     in.IncludeFinancials,
	}
}

// ReportMessage is published to RabbitMQ for every accepted report.
//
// swagger:model ReportMessage
// @Description ReportMessage represents a report generation job sent to the worker.
type ReportMessage struct {
	ReportID uuid.UUID     `json:"reportId" example:"00000000-0000-0000-0000-000000000000"`
	TenantID string        `json:"tenantId" example:"clinic-01"`
	Type     string        `json:"type" example:"laboratory_summary"`
	Format   string        `json:"format" example:"pdf"`
	Title    string        `json:"title"`
	DateFrom string        `json:"dateFrom" example:"2025-08-01"`
	DateTo   string        `json:"dateTo" example:"2025-08-31"`
	Options  ReportOptions `json:"options"`
} // @name ReportMessage

// ReportEnvelope is the body of a successful creation response.
type ReportEnvelope struct {
	Report any `json:"report"`
} // @name ReportEnvelope

// ParseDateRange parses and checks a dateFrom/dateTo pair. Equal dates are a valid single-day range.
func ParseDateRange(dateFrom, dateTo string) (time.Time, time.Time, error) {
	from, err := time.Parse(constant.DateLayout, dateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, constant.ErrInvalidDateFormat
	}

	to, err := time.Parse(constant.DateLayout, dateTo)
	if err != nil {
		return time.Time{}, time.Time{}, constant.ErrInvalidDateFormat
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, constant.ErrInvalidFinalDate
	}

	if to.After(from.AddDate(0, constant.MaxReportRangeMonths, 0)) {
		return time.Time{}, time.Time{}, constant.ErrDateRangeExceedsLimit
	}

	return from, to, nil
}

// DefaultTitle formats the human readable title of a report, e.g.
// "Laboratory Summary Report (2025-08-01 to 2025-08-31)".
func DefaultTitle(reportType string, from, to time.Time) string {
	name, ok := constant.ReportTypeTitles[reportType]
	if !ok {
		name = reportType
	}

	return fmt.Sprintf("%s Report (%s to %s)", name, from.Format(constant.DateLayout), to.Format(constant.DateLayout))
}

// FileName builds the stored object name of a report: <type-slug>-<from>-<to>.<ext>.
func FileName(reportType, format string, from, to time.Time) string {
	slug := []rune(reportType)
	for i, r := range slug {
		if r == '_' {
			slug[i] = '-'
		}
	}

	return fmt.Sprintf("%s-%s-%s.%s", string(slug), from.Format(constant.DateLayout), to.Format(constant.DateLayout), format)
}

// DownloadURL builds the API path a completed report is downloaded from.
func DownloadURL(id uuid.UUID, fileName string) string {
	return fmt.Sprintf("/v1/reports/download/%s/%s", id.String(), fileName)
}
