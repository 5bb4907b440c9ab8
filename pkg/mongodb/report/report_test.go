// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package report

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/mongodb"
	"github.com/navimedi/reporter/pkg/net/http"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func validInput() *model.CreateReportInput {
	return &model.CreateReportInput{
		Type:          constant.ReportTypeTurnaroundTime,
		Format:        constant.FormatXLSX,
		DateFrom:      "2025-08-01",
		DateTo:        "2025-08-31",
		IncludeCharts: true,
	}
}

func TestNewReport(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name        string
		id          uuid.UUID
		tenantID    string
		input       *model.CreateReportInput
		expectedErr error
	}{
		{name: "valid input", id: id, tenantID: "clinic-01", input: validInput()},
		{name: "nil id", id: uuid.Nil, tenantID: "clinic-01", input: validInput(), expectedErr: constant.ErrMissingRequiredFields},
		{name: "empty tenant", id: id, tenantID: "", input: validInput(), expectedErr: constant.ErrMissingRequiredFields},
		{name: "nil input", id: id, tenantID: "clinic-01", input: nil, expectedErr: constant.ErrMissingRequiredFields},
		{
			name:     "unknown type",
			id:       id,
			tenantID: "clinic-01",
			input: &model.CreateReportInput{
				Type: "inventory", Format: constant.FormatPDF, DateFrom: "2025-08-01", DateTo: "2025-08-02",
			},
			expectedErr: constant.ErrInvalidReportType,
		},
		{
			name:     "unknown format",
			id:       id,
			tenantID: "clinic-01",
			input: &model.CreateReportInput{
				Type: constant.ReportTypeTestVolume, Format: "docx", DateFrom: "2025-08-01", DateTo: "2025-08-02",
			},
			expectedErr: constant.ErrInvalidOutputFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReport(tt.id, tt.tenantID, "Dana Reyes", "Turnaround", tt.input)
			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedErr))
				assert.Nil(t, r)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.id, r.ID)
			assert.Equal(t, "clinic-01", r.TenantID)
			assert.Equal(t, constant.PendingStatus, r.Status)
			assert.Equal(t, "Dana Reyes", r.GeneratedBy)
			assert.True(t, r.Options.IncludeCharts)
			assert.False(t, r.Options.IncludeFinancials)
			assert.Nil(t, r.CompletedAt)
			assert.Equal(t, r.CreatedAt, r.UpdatedAt)
			assert.False(t, r.IsDownloadable())
			assert.False(t, r.IsTerminal())
		})
	}
}

func TestReport_IsDownloadable(t *testing.T) {
	tests := []struct {
		name     string
		report   Report
		expected bool
	}{
		{name: "completed with file", report: Report{Status: constant.CompletedStatus, FileName: "a.pdf", FileURL: "/v1/reports/download/x/a.pdf"}, expected: true},
		{name: "completed without file", report: Report{Status: constant.CompletedStatus}, expected: false},
		{name: "processing with file", report: Report{Status: constant.ProcessingStatus, FileName: "a.pdf", FileURL: "/x"}, expected: false},
		{name: "failed", report: Report{Status: constant.FailedStatus}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.report.IsDownloadable())
		})
	}
}

func TestReport_JSONProjection(t *testing.T) {
	r, err := NewReport(uuid.New(), "clinic-01", "Dana Reyes", "Turnaround", validInput())
	require.NoError(t, err)

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.Equal(t, r.ID.String(), body["id"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "2025-08-01", body["dateFrom"])
	assert.Contains(t, body, "completedAt")
	assert.Nil(t, body["completedAt"])
	assert.NotContains(t, body, "TenantID")
	assert.NotContains(t, body, "tenantId")
	assert.NotContains(t, body, "fileName")
}

func TestReportMongoDBModel_RoundTrip(t *testing.T) {
	completedAt := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	r := &Report{
		ID:          uuid.New(),
		TenantID:    "clinic-01",
		Title:       "Quality Control Report (2025-08-01 to 2025-08-31)",
		Type:        constant.ReportTypeQualityControl,
		Format:      constant.FormatPDF,
		Status:      constant.CompletedStatus,
		DateFrom:    "2025-08-01",
		DateTo:      "2025-08-31",
		GeneratedBy: "Dana Reyes",
		FileName:    "quality-control-2025-08-01-2025-08-31.pdf",
		FileURL:     "/v1/reports/download/x/quality-control-2025-08-01-2025-08-31.pdf",
		Metadata:    map[string]any{"rows": 12},
		CompletedAt: &completedAt,
		CreatedAt:   completedAt.Add(-time.Minute),
	}

	var record ReportMongoDBModel
	record.FromEntity(r)

	assert.Equal(t, r.CreatedAt, record.UpdatedAt)
	assert.Nil(t, record.DeletedAt)

	entity := record.ToEntity()
	assert.Equal(t, r.ID, entity.ID)
	assert.Equal(t, r.TenantID, entity.TenantID)
	assert.Equal(t, r.FileName, entity.FileName)
	assert.Equal(t, r.FileURL, entity.FileURL)
	assert.Equal(t, r.Metadata, entity.Metadata)
	assert.Equal(t, &completedAt, entity.CompletedAt)
	assert.True(t, entity.IsDownloadable())
}

func TestReportMongoDBModel_FromEntity_ZeroCreatedAt(t *testing.T) {
	var record ReportMongoDBModel
	record.FromEntity(&Report{ID: uuid.New()})

	assert.False(t, record.CreatedAt.IsZero())
	assert.Equal(t, record.CreatedAt, record.UpdatedAt)
}

func TestListFilter(t *testing.T) {
	day := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)

	t.Run("tenant only", func(t *testing.T) {
		filter := listFilter("clinic-01", http.QueryHeader{Limit: 10, Page: 1})

		assert.Equal(t, "clinic-01", filter["tenant_id"])
		assert.Equal(t, bson.D{{Key: "$eq", Value: nil}}, filter["deleted_at"])
		assert.NotContains(t, filter, "status")
		assert.NotContains(t, filter, "type")
		assert.NotContains(t, filter, "created_at")
	})

	t.Run("all filters", func(t *testing.T) {
		filter := listFilter("clinic-01", http.QueryHeader{
			Status:    constant.CompletedStatus,
			Type:      constant.ReportTypeBillingSummary,
			CreatedAt: day,
		})

		assert.Equal(t, constant.CompletedStatus, filter["status"])
		assert.Equal(t, constant.ReportTypeBillingSummary, filter["type"])
		assert.Equal(t, bson.M{"$gte": day, "$lt": day.AddDate(0, 0, 1)}, filter["created_at"])
	})
}

func TestListOptions(t *testing.T) {
	opts := listOptions(http.QueryHeader{Limit: 20, Page: 3})

	require.NotNil(t, opts.Limit)
	require.NotNil(t, opts.Skip)
	assert.Equal(t, int64(20), *opts.Limit)
	assert.Equal(t, int64(40), *opts.Skip)
	assert.Equal(t, bson.D{{Key: "created_at", Value: -1}}, opts.Sort)
}

func TestStatusUpdate(t *testing.T) {
	completedAt := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

	fields := statusUpdate(constant.FailedStatus, completedAt, map[string]any{"error": "boom"})
	assert.Equal(t, constant.FailedStatus, fields["status"])
	assert.Equal(t, completedAt, fields["completed_at"])
	assert.Equal(t, map[string]any{"error": "boom"}, fields["metadata"])
	assert.Contains(t, fields, "updated_at")

	fields = statusUpdate(constant.ProcessingStatus, time.Time{}, nil)
	assert.NotContains(t, fields, "completed_at")
	assert.NotContains(t, fields, "metadata")
}

func TestNewReportMongoDBRepository_NilConnection(t *testing.T) {
	repo, err := NewReportMongoDBRepository(nil)

	assert.Nil(t, repo)
	assert.ErrorIs(t, err, mongodb.ErrNilConnection)
}

func TestReportIndexes(t *testing.T) {
	indexes := reportIndexes()

	names := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		require.NotNil(t, idx.Options)
		require.NotNil(t, idx.Options.Name)
		names = append(names, *idx.Options.Name)
	}

	assert.ElementsMatch(t, []string{
		"idx_report_id_deleted",
		"idx_report_tenant_list",
		"idx_report_tenant_status",
		"idx_report_tenant_type",
	}, names)
}
