// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package constant

// Report lifecycle statuses. Only CompletedStatus is downloadable.
const (
	PendingStatus    = "pending"
	ProcessingStatus = "processing"
	CompletedStatus  = "completed"
	FailedStatus     = "failed"
)

// Report categories accepted by the manager.
const (
	ReportTypeLaboratorySummary  = "laboratory_summary"
	ReportTypeTestVolume         = "test_volume"
	ReportTypeTurnaroundTime     = "turnaround_time"
	ReportTypeQualityControl     = "quality_control"
	ReportTypePatientCensus      = "patient_census"
	ReportTypeBillingSummary     = "billing_summary"
	ReportTypePharmacyDispensing = "pharmacy_dispensing"
)

// Output encodings accepted by the manager.
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ReportTypeTitles maps every accepted report type to its human readable name.
var ReportTypeTitles = map[string]string{
	ReportTypeLaboratorySummary:  "Laboratory Summary",
	ReportTypeTestVolume:         "Test Volume",
	ReportTypeTurnaroundTime:     "Turnaround Time",
	ReportTypeQualityControl:     "Quality Control",
	ReportTypePatientCensus:      "Patient Census",
	ReportTypeBillingSummary:     "Billing Summary",
	ReportTypePharmacyDispensing: "Pharmacy Dispensing",
}

// ContentTypes maps output formats to MIME types.
var ContentTypes = map[string]string{
	FormatPDF:  "application/pdf",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatCSV:  "text/csv",
}

const (
	// DateLayout is the calendar date layout used on the wire.
	DateLayout = "2006-01-02"

	// MaxReportRangeMonths bounds the date range of a single report.
	MaxReportRangeMonths = 12

	// MaxTitleLength bounds the client formatted title.
	MaxTitleLength = 200

	// DefaultReportWindowDays is the trailing window pre-selected by new request forms.
	DefaultReportWindowDays = 30

	// ChartMaxBars caps the bars of the summary chart.
	ChartMaxBars = 10

	// SpreadsheetSheetName names the single sheet of xlsx reports.
	SpreadsheetSheetName = "Report"

	// SpreadsheetMaxColumnWidth caps the auto-fitted column width of xlsx reports.
	SpreadsheetMaxColumnWidth = 60
)

// Failure stages recorded in report metadata and metrics.
const (
	StageMessage = "message"
	StageQuery   = "query"
	StageRender  = "render"
	StageStorage = "storage"
	StageUpdate  = "update"
)

// IsValidReportType reports whether t is one of the accepted report categories.
func IsValidReportType(t string) bool {
	_, ok := ReportTypeTitles[t]
	return ok
}

// IsValidFormat reports whether f is one of the accepted output encodings.
func IsValidFormat(f string) bool {
	_, ok := ContentTypes[f]
	return ok
}
