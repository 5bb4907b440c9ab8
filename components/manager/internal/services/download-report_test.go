// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/mongodb/report"
	"github.com/navimedi/reporter/pkg/net/http"
	"github.com/navimedi/reporter/pkg/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/mock/gomock"
)

func completedReport(id uuid.UUID, tenantID string) *report.Report {
	completedAt := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

	return &report.Report{
		ID:          id,
		TenantID:    tenantID,
		Type:        constant.ReportTypeBillingSummary,
		Format:      constant.FormatCSV,
		Status:      constant.CompletedStatus,
		DateFrom:    "2025-08-01",
		DateTo:      "2025-08-31",
		FileName:    "billing-summary-2025-08-01-2025-08-31.csv",
		FileURL:     "/v1/reports/download/" + id.String() + "/billing-summary-2025-08-01-2025-08-31.csv",
		CompletedAt: &completedAt,
	}
}

func TestGetReportByID(t *testing.T) {
	t.Parallel()

	reportID := uuid.New()

	tests := []struct {
		name      string
		mockSetup func(repo *report.MockRepository)
		check     func(t *testing.T, result *report.Report, err error)
	}{
		{
			name: "Success - Get a report by id",
			mockSetup: func(repo *report.MockRepository) {
				repo.EXPECT().FindByID(gomock.Any(), reportID).Return(completedReport(reportID, "clinic-01"), nil)
			},
			check: func(t *testing.T, result *report.Report, err error) {
				require.NoError(t, err)
				assert.Equal(t, reportID, result.ID)
			},
		},
		{
			name: "Error - not found",
			mockSetup: func(repo *report.MockRepository) {
				repo.EXPECT().FindByID(gomock.Any(), reportID).Return(nil, mongo.ErrNoDocuments)
			},
			check: func(t *testing.T, result *report.Report, err error) {
				var notFound pkg.EntityNotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, constant.ErrEntityNotFound.Error(), notFound.Code)
				assert.Nil(t, result)
			},
		},
		{
			name: "Error - other tenant",
			mockSetup: func(repo *report.MockRepository) {
				repo.EXPECT().FindByID(gomock.Any(), reportID).Return(completedReport(reportID, "clinic-02"), nil)
			},
			check: func(t *testing.T, result *report.Report, err error) {
				var forbidden pkg.ForbiddenError
				require.ErrorAs(t, err, &forbidden)
				assert.Equal(t, constant.ErrReportBelongsToOtherTenant.Error(), forbidden.Code)
				assert.Nil(t, result)
			},
		},
		{
			name: "Error - repository failure",
			mockSetup: func(repo *report.MockRepository) {
				repo.EXPECT().FindByID(gomock.Any(), reportID).Return(nil, constant.ErrInternalServer)
			},
			check: func(t *testing.T, result *report.Report, err error) {
				require.ErrorIs(t, err, constant.ErrInternalServer)
				assert.Nil(t, result)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := report.NewMockRepository(ctrl)
			tt.mockSetup(repo)

			uc := &UseCase{ReportRepo: repo}

			result, err := uc.GetReportByID(principalContext("clinic-01"), reportID)
			tt.check(t, result, err)
		})
	}
}

func TestGetAllReports(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := report.NewMockRepository(ctrl)
	uc := &UseCase{ReportRepo: repo}

	filters := http.QueryHeader{Limit: 100, Page: 1}

	repo.EXPECT().FindList(gomock.Any(), "clinic-01", filters).Return(nil, nil)

	reports, err := uc.GetAllReports(principalContext("clinic-01"), filters)
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)

	repo.EXPECT().FindList(gomock.Any(), "clinic-01", filters).Return(nil, constant.ErrInternalServer)

	_, err = uc.GetAllReports(principalContext("clinic-01"), filters)
	require.ErrorIs(t, err, constant.ErrInternalServer)
}

func TestDownloadReport(t *testing.T) {
	t.Parallel()

	reportID := uuid.New()
	done := completedReport(reportID, "clinic-01")
	key := storage.ReportKey("clinic-01", reportID.String(), done.FileName)

	pending := completedReport(reportID, "clinic-01")
	pending.Status = constant.ProcessingStatus

	tests := []struct {
		name      string
		fileName  string
		mockSetup func(repo *report.MockRepository, store *storage.MockObjectStorage)
		wantBody  string
		wantErr   func(t *testing.T, err error)
	}{
		{
			name:     "Success - returns bytes and content type",
			fileName: done.FileName,
			mockSetup: func(repo *report.MockRepository, store *storage.MockObjectStorage) {
				repo.EXPECT().FindByID(gomock.Any(), reportID).Return(done, nil)
				store.EXPECT().Download(gomock.Any(), key).Return(io.NopCloser(strings.NewReader("a,b\n1,2\n")), nil)
			},
			wantBody: "a,b\n1,2\n",
		},
		{
			name:     "Error - not completed",
			fileName: done.FileName,
			mockSetup: func(repo *report.MockRepository, _ *storage.MockObjectStorage) {
				repo.EXPECT().FindByID(gomock.Any(), reportID).Return(pending, nil)
			},
			wantErr: func(t *testing.T, err error) {
				var validation pkg.ValidationError
				require.ErrorAs(t, err, &validation)
				assert.Equal(t, constant.ErrReportStatusNotFinished.Error(), validation.Code)
			},
		},
		{
			name:     "Error - file name mismatch",
			fileName: "other.csv",
			mockSetup: func(repo *report.MockRepository, _ *storage.MockObjectStorage) {
				repo.EXPECT().FindByID(gomock.Any(), reportID).Return(done, nil)
			},
			wantErr: func(t *testing.T, err error) {
				var notFound pkg.EntityNotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, constant.ErrReportFileNotFound.Error(), notFound.Code)
			},
		},
		{
			name:     "Error - object missing",
			fileName: done.FileName,
			mockSetup: func(repo *report.MockRepository, store *storage.MockObjectStorage) {
				repo.EXPECT().FindByID(gomock.Any(), reportID).Return(done, nil)
				store.EXPECT().Download(gomock.Any(), key).Return(nil, storage.ErrObjectNotFound)
			},
			wantErr: func(t *testing.T, err error) {
				var notFound pkg.EntityNotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, constant.ErrReportFileNotFound.Error(), notFound.Code)
			},
		},
		{
			name:     "Error - storage failure",
			fileName: done.FileName,
			mockSetup: func(repo *report.MockRepository, store *storage.MockObjectStorage) {
				repo.EXPECT().FindByID(gomock.Any(), reportID).Return(done, nil)
				store.EXPECT().Download(gomock.Any(), key).Return(nil, errors.New("bucket unreachable"))
			},
			wantErr: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "bucket unreachable")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := report.NewMockRepository(ctrl)
			store := storage.NewMockObjectStorage(ctrl)
			tt.mockSetup(repo, store)

			uc := &UseCase{ReportRepo: repo, Storage: store}

			body, contentType, err := uc.DownloadReport(principalContext("clinic-01"), reportID, tt.fileName)
			if tt.wantErr != nil {
				tt.wantErr(t, err)
				assert.Nil(t, body)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(body))
			assert.Equal(t, "text/csv", contentType)
		})
	}
}
