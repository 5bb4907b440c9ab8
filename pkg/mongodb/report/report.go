// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package report

import (
	"fmt"
	"time"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"

	"github.com/google/uuid"
)

// Report represents the entity model for a report. Its JSON form is the GeneratedReport
// projection served to clients.
type Report struct {
	ID          uuid.UUID           `json:"id" example:"00000000-0000-0000-0000-000000000000"`
	TenantID    string              `json:"-"`
	Title       string              `json:"title" example:"Laboratory Summary Report (2025-08-01 to 2025-08-31)"`
	Type        string              `json:"type" example:"laboratory_summary"`
	Format      string              `json:"format" example:"pdf"`
	Status      string              `json:"status" example:"pending"`
	DateFrom    string              `json:"dateFrom" example:"2025-08-01"`
	DateTo      string              `json:"dateTo" example:"2025-08-31"`
	Options     model.ReportOptions `json:"options"`
	GeneratedBy string              `json:"generatedBy" example:"Dana Reyes"`
	FileName    string              `json:"fileName,omitempty" example:"laboratory-summary-2025-08-01-2025-08-31.pdf"`
	FileURL     string              `json:"fileUrl,omitempty"`
	Metadata    map[string]any      `json:"metadata,omitempty"`
	CompletedAt *time.Time          `json:"completedAt"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
	DeletedAt   *time.Time          `json:"-"`
}

// NewReport creates a pending Report with invariant validation.
func NewReport(id uuid.UUID, tenantID, generatedBy, title string, input *model.CreateReportInput) (*Report, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("report id must not be nil: %w", constant.ErrMissingRequiredFields)
	}

	if tenantID == "" {
		return nil, fmt.Errorf("report tenant must not be empty: %w", constant.ErrMissingRequiredFields)
	}

	if input == nil {
		return nil, fmt.Errorf("report input must not be nil: %w", constant.ErrMissingRequiredFields)
	}

	if !constant.IsValidReportType(input.Type) {
		return nil, constant.ErrInvalidReportType
	}

	if !constant.IsValidFormat(input.Format) {
		return nil, constant.ErrInvalidOutputFormat
	}

	now := time.Now().UTC()

	return &Report{
		ID:          id,
		TenantID:    tenantID,
		Title:       title,
		Type:        input.Type,
		Format:      input.Format,
		Status:      constant.PendingStatus,
		DateFrom:    input.DateFrom,
		DateTo:      input.DateTo,
		Options:     input.Options(),
		GeneratedBy: generatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsDownloadable reports whether the report has a stored file that can be served.
func (r *Report) IsDownloadable() bool {
	return r.Status == constant.CompletedStatus && r.FileName != "" && r.FileURL != ""
}

// IsTerminal reports whether the report reached completed or failed.
func (r *Report) IsTerminal() bool {
	return r.Status == constant.CompletedStatus || r.Status == constant.FailedStatus
}

// ReportMongoDBModel represents the MongoDB model for a report
type ReportMongoDBModel struct {
	ID          uuid.UUID           `bson:"_id"`
	TenantID    string              `bson:"tenant_id"`
	Title       string              `bson:"title"`
	Type        string              `bson:"type"`
	Format      string              `bson:"format"`
	Status      string              `bson:"status"`
	DateFrom    string              `bson:"date_from"`
	DateTo      string              `bson:"date_to"`
	Options     model.ReportOptions `bson:"options"`
	GeneratedBy string              `bson:"generated_by"`
	FileName    string              `bson:"file_name,omitempty"`
	FileURL     string              `bson:"file_url,omitempty"`
	Metadata    map[string]any      `bson:"metadata,omitempty"`
	CompletedAt *time.Time          `bson:"completed_at"`
	CreatedAt   time.Time           `bson:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at"`
	DeletedAt   *time.Time          `bson:"deleted_at"`
}

// ToEntity converts ReportMongoDBModel to Report.
func (rm *ReportMongoDBModel) ToEntity() *Report {
	return &Report{
		ID:          rm.ID,
		TenantID:    rm.TenantID,
		Title:       rm.Title,
		Type:        rm.Type,
		Format:      rm.Format,
		Status:      rm.Status,
		DateFrom:    rm.DateFrom,
		DateTo:      rm.DateTo,
		Options:     rm.Options,
		GeneratedBy: rm.GeneratedBy,
		FileName:    rm.FileName,
		FileURL:     rm.FileURL,
		Metadata:    rm.Metadata,
		CompletedAt: rm.CompletedAt,
		CreatedAt:   rm.CreatedAt,
		UpdatedAt:   rm.UpdatedAt,
		DeletedAt:   rm.DeletedAt,
	}
}

// FromEntity converts Report to ReportMongoDBModel
func (rm *ReportMongoDBModel) FromEntity(r *Report) {
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	rm.ID = r.ID
	rm.TenantID = r.TenantID
	rm.Title = r.Title
	rm.Type = r.Type
	rm.Format = r.Format
	rm.Status = r.Status
	rm.DateFrom = r.DateFrom
	rm.DateTo = r.DateTo
	rm.Options = r.Options
	rm.GeneratedBy = r.GeneratedBy
	rm.FileName = r.FileName
	rm.FileURL = r.FileURL
	rm.Metadata = r.Metadata
	rm.CompletedAt = r.CompletedAt
	rm.CreatedAt = createdAt
	rm.UpdatedAt = createdAt
	rm.DeletedAt = nil
}
