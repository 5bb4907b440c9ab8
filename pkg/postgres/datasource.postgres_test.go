// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package postgres

import (
	"testing"
	"time"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
	"github.com/navimedi/reporter/pkg/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifyTableName(t *testing.T) {
	assert.Equal(t, `"clinical"."report_test_volume"`, qualifyTableName("clinical", "report_test_volume"))
	assert.Equal(t, "report_test_volume", qualifyTableName("", "report_test_volume"))
}

func TestBuildReportQuery(t *testing.T) {
	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)

	statement, args, columns, err := buildReportQuery(ReportQuery{
		TenantID: "clinic-01",
		Type:     constant.ReportTypeLaboratorySummary,
		From:     from,
		To:       to,
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT report_date, department, tests_ordered, tests_completed, abnormal_results `+
			`FROM "clinical"."report_laboratory_summary" `+
			`WHERE tenant_id = $1 AND report_date >= $2 AND report_date < $3 ORDER BY report_date ASC`,
		statement)
	assert.Equal(t, []any{"clinic-01", from, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)}, args)
	assert.Len(t, columns, 5)
}

func TestBuildReportQuery_SingleDay(t *testing.T) {
	day := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)

	_, args, _, err := buildReportQuery(ReportQuery{
		TenantID: "clinic-01",
		Type:     constant.ReportTypeQualityControl,
		From:     day,
		To:       day,
	})
	require.NoError(t, err)
	assert.Equal(t, day.AddDate(0, 0, 1), args[2])
}

func TestBuildReportQuery_Errors(t *testing.T) {
	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		query       ReportQuery
		expectedErr error
	}{
		{name: "unknown type", query: ReportQuery{TenantID: "t", Type: "inventory", From: from, To: from}, expectedErr: constant.ErrInvalidReportType},
		{name: "missing tenant", query: ReportQuery{Type: constant.ReportTypeTestVolume, From: from, To: from}, expectedErr: constant.ErrMissingRequiredFields},
		{name: "inverted range", query: ReportQuery{TenantID: "t", Type: constant.ReportTypeTestVolume, From: from, To: from.AddDate(0, 0, -1)}, expectedErr: constant.ErrInvalidFinalDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := buildReportQuery(tt.query)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestDataset_SelectColumns(t *testing.T) {
	census := Datasets[constant.ReportTypePatientCensus]

	keys := func(cols []Column) []string {
		out := make([]string, len(cols))
		for i, c := range cols {
			out[i] = c.Key
		}

		return out
	}

	assert.NotContains(t, keys(census.SelectColumns(model.ReportOptions{})), "patient_name")
	assert.Contains(t, keys(census.SelectColumns(model.ReportOptions{IncludePatientDetails: true})), "patient_name")

	billing := Datasets[constant.ReportTypeBillingSummary]
	assert.Equal(t,
		[]string{"report_date", "payer", "invoices", "billed_amount", "paid_amount", "outstanding_amount"},
		keys(billing.SelectColumns(model.ReportOptions{IncludeFinancials: true})))
}

func TestDatasets_CoverEveryReportType(t *testing.T) {
	for reportType := range constant.ReportTypeTitles {
		ds, ok := Datasets[reportType]
		require.True(t, ok, reportType)
		assert.NotEmpty(t, ds.View)
		assert.Equal(t, ds.DateColumn, ds.Columns[0].Key, "rows are ordered by their first column")
	}
}

func TestMissingViews(t *testing.T) {
	present := map[string]bool{}
	for _, ds := range Datasets {
		present[ds.View] = true
	}

	assert.Empty(t, missingViews(present))

	delete(present, "report_turnaround_time")
	assert.Equal(t, []string{"report_turnaround_time"}, missingViews(present))
}

func TestNormalizeValue(t *testing.T) {
	logger := &log.NoneLogger{}

	tests := []struct {
		name     string
		kind     string
		value    any
		expected any
	}{
		{name: "nil", kind: KindText, value: nil, expected: nil},
		{name: "money from string", kind: KindMoney, value: "1250.50", expected: decimal.RequireFromString("1250.50")},
		{name: "money from bytes", kind: KindMoney, value: []byte("10.00"), expected: decimal.RequireFromString("10.00")},
		{name: "number from int", kind: KindNumber, value: int64(42), expected: decimal.NewFromInt(42)},
		{name: "number not numeric", kind: KindNumber, value: "n/a", expected: "n/a"},
		{name: "text json object", kind: KindText, value: []byte(`{"hb":"low"}`), expected: map[string]any{"hb": "low"}},
		{name: "text plain bytes", kind: KindText, value: []byte("plain"), expected: "plain"},
		{name: "text string", kind: KindText, value: "ward A", expected: "ward A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeValue(tt.kind, tt.value, logger)

			if d, ok := tt.expected.(decimal.Decimal); ok {
				gotDecimal, isDecimal := got.(decimal.Decimal)
				require.True(t, isDecimal)
				assert.True(t, d.Equal(gotDecimal))

				return
			}

			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNewDataSourceRepository_NilConnection(t *testing.T) {
	repo, err := NewDataSourceRepository(nil)

	assert.Nil(t, repo)
	assert.Error(t, err)
}

func TestConnection_CloseWithoutPool(t *testing.T) {
	c := &Connection{}
	assert.NoError(t, c.Close())
}
