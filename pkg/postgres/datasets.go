// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package postgres

import (
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"
)

// Column kinds drive formatting in the renderers.
const (
	KindText   = "text"
	KindNumber = "number"
	KindMoney  = "money"
	KindDate   = "date"
)

// Optional column groups toggled by the report inclusion flags.
const (
	groupTestResults    = "test_results"
	groupPatientDetails = "patient_details"
	groupFinancials     = "financials"
)

// Column describes one output column of a dataset.
type Column struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
	group string
}

// Dataset describes the reporting view backing a report type.
type Dataset struct {
	View       string
	DateColumn string
	Columns    []Column
	ChartLabel string
	ChartValue string
}

// Datasets maps each report type to its reporting view in the clinical schema.
var Datasets = map[string]Dataset{
	constant.ReportTypeLaboratorySummary: {
		View:       "report_laboratory_summary",
		ChartLabel: "department",
		ChartValue: "tests_completed",
		DateColumn: "report_date",
		Columns: []Column{
			{Key: "report_date", Title: "Date", Kind: KindDate},
			{Key: "department", Title: "Department", Kind: KindText},
			{Key: "tests_ordered", Title: "Tests Ordered", Kind: KindNumber},
			{Key: "tests_completed", Title: "Tests Completed", Kind: KindNumber},
			{Key: "abnormal_results", Title: "Abnormal Results", Kind: KindNumber},
			{Key: "result_summary", Title: "Result Summary", Kind: KindText, group: groupTestResults},
			{Key: "billed_amount", Title: "Billed Amount", Kind: KindMoney, group: groupFinancials},
		},
	},
	constant.ReportTypeTestVolume: {
		View:       "report_test_volume",
		ChartLabel: "test_name",
		ChartValue: "volume",
		DateColumn: "report_date",
		Columns: []Column{
			{Key: "report_date", Title: "Date", Kind: KindDate},
			{Key: "test_code", Title: "Test Code", Kind: KindText},
			{Key: "test_name", Title: "Test Name", Kind: KindText},
			{Key: "volume", Title: "Volume", Kind: KindNumber},
			{Key: "revenue", Title: "Revenue", Kind: KindMoney, group: groupFinancials},
		},
	},
	constant.ReportTypeTurnaroundTime: {
		View:       "report_turnaround_time",
		ChartLabel: "test_name",
		ChartValue: "samples",
		DateColumn: "report_date",
		Columns: []Column{
			{Key: "report_date", Title: "Date", Kind: KindDate},
			{Key: "test_code", Title: "Test Code", Kind: KindText},
			{Key: "test_name", Title: "Test Name", Kind: KindText},
			{Key: "samples", Title: "Samples", Kind: KindNumber},
			{Key: "median_minutes", Title: "Median (min)", Kind: KindNumber},
			{Key: "p90_minutes", Title: "P90 (min)", Kind: KindNumber},
		},
	},
	constant.ReportTypeQualityControl: {
		View:       "report_quality_control",
		DateColumn: "run_date",
		Columns: []Column{
			{Key: "run_date", Title: "Run Date", Kind: KindDate},
			{Key: "instrument", Title: "Instrument", Kind: KindText},
			{Key: "analyte", Title: "Analyte", Kind: KindText},
			{Key: "control_level", Title: "Level", Kind: KindText},
			{Key: "measured_value", Title: "Value", Kind: KindNumber},
			{Key: "target_mean", Title: "Mean", Kind: KindNumber},
			{Key: "target_sd", Title: "SD", Kind: KindNumber},
			{Key: "qc_status", Title: "Status", Kind: KindText},
		},
	},
	constant.ReportTypePatientCensus: {
		View:       "report_patient_census",
		ChartLabel: "ward",
		ChartValue: "admissions",
		DateColumn: "report_date",
		Columns: []Column{
			{Key: "report_date", Title: "Date", Kind: KindDate},
			{Key: "ward", Title: "Ward", Kind: KindText},
			{Key: "admissions", Title: "Admissions", Kind: KindNumber},
			{Key: "discharges", Title: "Discharges", Kind: KindNumber},
			{Key: "occupied_beds", Title: "Occupied Beds", Kind: KindNumber},
			{Key: "patient_ref", Title: "Patient", Kind: KindText, group: groupPatientDetails},
			{Key: "patient_name", Title: "Patient Name", Kind: KindText, group: groupPatientDetails},
		},
	},
	constant.ReportTypeBillingSummary: {
		View:       "report_billing_summary",
		ChartLabel: "payer",
		ChartValue: "billed_amount",
		DateColumn: "report_date",
		Columns: []Column{
			{Key: "report_date", Title: "Date", Kind: KindDate},
			{Key: "payer", Title: "Payer", Kind: KindText},
			{Key: "invoices", Title: "Invoices", Kind: KindNumber},
			{Key: "billed_amount", Title: "Billed", Kind: KindMoney},
			{Key: "paid_amount", Title: "Paid", Kind: KindMoney},
			{Key: "outstanding_amount", Title: "Outstanding", Kind: KindMoney, group: groupFinancials},
		},
	},
	constant.ReportTypePharmacyDispensing: {
		View:       "report_pharmacy_dispensing",
		ChartLabel: "drug_name",
		ChartValue: "quantity",
		DateColumn: "report_date",
		Columns: []Column{
			{Key: "report_date", Title: "Date", Kind: KindDate},
			{Key: "drug_code", Title: "Drug Code", Kind: KindText},
			{Key: "drug_name", Title: "Drug", Kind: KindText},
			{Key: "quantity", Title: "Quantity", Kind: KindNumber},
			{Key: "patient_ref", Title: "Patient", Kind: KindText, group: groupPatientDetails},
			{Key: "unit_cost", Title: "Unit Cost", Kind: KindMoney, group: groupFinancials},
		},
	},
}

// SelectColumns returns the dataset columns enabled by the inclusion flags, in declaration order.
func (d Dataset) SelectColumns(opts model.ReportOptions) []Column {
	enabled := map[string]bool{
		"":                  true,
		groupTestResults:    opts.IncludeTestResults,
		groupPatientDetails: opts.IncludePatientDetails,
		groupFinancials:     opts.IncludeFinancials,
	}

	columns := make([]Column, 0, len(d.Columns))

	for _, col := range d.Columns {
		if enabled[col.group] {
			columns = append(columns, col)
		}
	}

	return columns
}
