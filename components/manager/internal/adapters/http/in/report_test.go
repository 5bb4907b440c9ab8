// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package in

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/navimedi/reporter/components/manager/internal/services"
	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/auth"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
	"github.com/navimedi/reporter/pkg/mongodb/report"
	"github.com/navimedi/reporter/pkg/rabbitmq"
	"github.com/navimedi/reporter/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/mock/gomock"
)

const testSecret = "test-secret-with-enough-entropy"

type routerFixture struct {
	app      *fiber.App
	repo     *report.MockRepository
	producer *rabbitmq.MockProducerRepository
	store    *storage.MockObjectStorage
	tokens   *auth.TokenService
}

func newRouterFixture(t *testing.T, authEnabled bool) *routerFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &routerFixture{
		repo:     report.NewMockRepository(ctrl),
		producer: rabbitmq.NewMockProducerRepository(ctrl),
		store:    storage.NewMockObjectStorage(ctrl),
		tokens:   auth.NewTokenService(testSecret, "reporter-test"),
	}

	handler, err := NewReportHandler(&services.UseCase{
		ReportRepo:   f.repo,
		RabbitMQRepo: f.producer,
		Storage:      f.store,
	})
	require.NoError(t, err)

	f.app = NewRoutes(&log.NoneLogger{}, noop.NewTracerProvider().Tracer("test"), RouterConfig{},
		handler, auth.NewAuthClient(f.tokens, authEnabled), &ReadinessDeps{})

	return f
}

func (f *routerFixture) token(t *testing.T, tenantID string, permissions ...string) string {
	t.Helper()

	token, err := f.tokens.Issue(auth.Principal{
		Subject:     "u-17",
		Name:        "Dana Reyes",
		TenantID:    tenantID,
		Permissions: permissions,
	}, time.Hour)
	require.NoError(t, err)

	return token
}

func (f *routerFixture) do(t *testing.T, method, target, token string, body any) (int, []byte, map[string]string) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set(constant.HeaderAuthorization, constant.BearerPrefix+token)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	headers := map[string]string{
		"Content-Type":        resp.Header.Get("Content-Type"),
		"Content-Disposition": resp.Header.Get(constant.HeaderContentDisposition),
		"X-Request-Id":        resp.Header.Get(constant.HeaderRequestID),
	}

	return resp.StatusCode, raw, headers
}

func decodeError(t *testing.T, raw []byte) pkg.ResponseError {
	t.Helper()

	var body pkg.ResponseError
	require.NoError(t, json.Unmarshal(raw, &body))

	return body
}

func createPayload() map[string]any {
	return map[string]any{
		"type":               constant.ReportTypeQualityControl,
		"format":             constant.FormatXLSX,
		"dateFrom":           "2025-08-01",
		"dateTo":             "2025-08-31",
		"includeCharts":      true,
		"includeTestResults": false,
	}
}

func TestCreateReport_Created(t *testing.T) {
	f := newRouterFixture(t, true)

	f.repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *report.Report) (*report.Report, error) { return r, nil })
	f.producer.EXPECT().ProducerDefault(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	status, raw, headers := f.do(t, fiber.MethodPost, "/v1/reports", f.token(t, "clinic-01", constant.PermissionReportsWrite), createPayload())
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	assert.NotEmpty(t, headers["X-Request-Id"])

	var envelope struct {
		Report report.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))

	assert.Equal(t, constant.PendingStatus, envelope.Report.Status)
	assert.Equal(t, "Dana Reyes", envelope.Report.GeneratedBy)
	assert.Equal(t, "Quality Control Report (2025-08-01 to 2025-08-31)", envelope.Report.Title)
	assert.True(t, envelope.Report.Options.IncludeCharts)
	assert.Nil(t, envelope.Report.CompletedAt)
	assert.NotContains(t, string(raw), "clinic-01")
}

func TestCreateReport_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		edit     func(p map[string]any)
		wantCode string
	}{
		{
			name:     "missing type",
			edit:     func(p map[string]any) { delete(p, "type") },
			wantCode: constant.ErrMissingFieldsInRequest.Error(),
		},
		{
			name:     "unknown field",
			edit:     func(p map[string]any) { p["templateId"] = "x" },
			wantCode: constant.ErrUnexpectedFieldsInTheRequest.Error(),
		},
		{
			name:     "inverted range",
			edit:     func(p map[string]any) { p["dateTo"] = "2025-07-01" },
			wantCode: constant.ErrInvalidFinalDate.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t, true)

			payload := createPayload()
			tt.edit(payload)

			status, raw, _ := f.do(t, fiber.MethodPost, "/v1/reports", f.token(t, "clinic-01", constant.PermissionReportsWrite), payload)
			require.Equal(t, fiber.StatusBadRequest, status, string(raw))
			assert.Equal(t, tt.wantCode, decodeError(t, raw).Code)
		})
	}
}

func TestAuthorization(t *testing.T) {
	f := newRouterFixture(t, true)

	status, raw, _ := f.do(t, fiber.MethodGet, "/v1/reports", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, constant.ErrMissingAuthorization.Error(), decodeError(t, raw).Code)

	status, _, _ = f.do(t, fiber.MethodGet, "/v1/reports", "not-a-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, raw, _ = f.do(t, fiber.MethodPost, "/v1/reports", f.token(t, "clinic-01", constant.PermissionReportsRead), createPayload())
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, constant.ErrInsufficientPermission.Error(), decodeError(t, raw).Code)
}

func TestGetAllReports(t *testing.T) {
	f := newRouterFixture(t, true)

	first := &report.Report{ID: uuid.New(), TenantID: "clinic-01", Status: constant.CompletedStatus}
	second := &report.Report{ID: uuid.New(), TenantID: "clinic-01", Status: constant.PendingStatus}

	f.repo.EXPECT().
		FindList(gomock.Any(), "clinic-01", gomock.Any()).
		Return([]*report.Report{first, second}, nil)

	status, raw, _ := f.do(t, fiber.MethodGet, "/v1/reports?limit=50&page=2", f.token(t, "clinic-01", constant.PermissionReportsRead), nil)
	require.Equal(t, fiber.StatusOK, status, string(raw))

	var reports []report.Report
	require.NoError(t, json.Unmarshal(raw, &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, first.ID, reports[0].ID)

	status, raw, _ = f.do(t, fiber.MethodGet, "/v1/reports?limit=500", f.token(t, "clinic-01", constant.PermissionReportsRead), nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, constant.ErrPaginationLimitExceeded.Error(), decodeError(t, raw).Code)
}

func TestGetReport(t *testing.T) {
	f := newRouterFixture(t, true)

	id := uuid.New()
	f.repo.EXPECT().FindByID(gomock.Any(), id).Return(&report.Report{ID: id, TenantID: "clinic-02"}, nil)

	status, raw, _ := f.do(t, fiber.MethodGet, "/v1/reports/"+id.String(), f.token(t, "clinic-01", constant.PermissionReportsRead), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, constant.ErrReportBelongsToOtherTenant.Error(), decodeError(t, raw).Code)

	status, raw, _ = f.do(t, fiber.MethodGet, "/v1/reports/not-a-uuid", f.token(t, "clinic-01", constant.PermissionReportsRead), nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, constant.ErrInvalidPathParameter.Error(), decodeError(t, raw).Code)
}

func TestDownloadReport(t *testing.T) {
	id := uuid.New()
	fileName := "quality-control-2025-08-01-2025-08-31.xlsx"
	target := "/v1/reports/download/" + id.String() + "/" + fileName

	completed := func(tenant, status string) *report.Report {
		return &report.Report{
			ID:       id,
			TenantID: tenant,
			Format:   constant.FormatXLSX,
			Status:   status,
			FileName: fileName,
		}
	}

	t.Run("completed report is served as attachment", func(t *testing.T) {
		f := newRouterFixture(t, true)

		f.repo.EXPECT().FindByID(gomock.Any(), id).Return(completed("clinic-01", constant.CompletedStatus), nil)
		f.store.EXPECT().
			Download(gomock.Any(), storage.ReportKey("clinic-01", id.String(), fileName)).
			Return(io.NopCloser(strings.NewReader("PK\x03\x04xlsx")), nil)

		status, raw, headers := f.do(t, fiber.MethodGet, target, f.token(t, "clinic-01", constant.PermissionReportsRead), nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "PK\x03\x04xlsx", string(raw))
		assert.Equal(t, constant.ContentTypes[constant.FormatXLSX], headers["Content-Type"])
		assert.Contains(t, headers["Content-Disposition"], "attachment")
		assert.Contains(t, headers["Content-Disposition"], fileName)
	})

	t.Run("other tenant is forbidden", func(t *testing.T) {
		f := newRouterFixture(t, true)

		f.repo.EXPECT().FindByID(gomock.Any(), id).Return(completed("clinic-02", constant.CompletedStatus), nil)

		status, _, _ := f.do(t, fiber.MethodGet, target, f.token(t, "clinic-01", constant.PermissionReportsRead), nil)
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("pending report is rejected", func(t *testing.T) {
		f := newRouterFixture(t, true)

		f.repo.EXPECT().FindByID(gomock.Any(), id).Return(completed("clinic-01", constant.ProcessingStatus), nil)

		status, raw, _ := f.do(t, fiber.MethodGet, target, f.token(t, "clinic-01", constant.PermissionReportsRead), nil)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, constant.ErrReportStatusNotFinished.Error(), decodeError(t, raw).Code)
	})

	t.Run("unknown report is not found", func(t *testing.T) {
		f := newRouterFixture(t, true)

		f.repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, pkg.ValidateBusinessError(constant.ErrEntityNotFound, "report"))

		status, _, _ := f.do(t, fiber.MethodGet, target, f.token(t, "clinic-01", constant.PermissionReportsRead), nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	})
}

func TestAnonymousPrincipalWhenAuthDisabled(t *testing.T) {
	f := newRouterFixture(t, false)

	f.repo.EXPECT().FindList(gomock.Any(), "default", gomock.Any()).Return(nil, nil)

	status, raw, _ := f.do(t, fiber.MethodGet, "/v1/reports", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, "[]", string(raw))
}
