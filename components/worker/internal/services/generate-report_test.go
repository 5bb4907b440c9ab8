// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/mongodb/report"
	"github.com/navimedi/reporter/pkg/pdf"
	"github.com/navimedi/reporter/pkg/pongo"
	"github.com/navimedi/reporter/pkg/postgres"
	"github.com/navimedi/reporter/pkg/redis"
	"github.com/navimedi/reporter/pkg/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)

type testDeps struct {
	uc         *UseCase
	reportRepo *report.MockRepository
	dataSource *postgres.MockRepository
	storage    *storage.MockObjectStorage
	lock       *redis.MockRedisRepository
	pdf        *pdf.MockPDFGenerator
	html       *fakeHTMLRenderer
}

type fakeHTMLRenderer struct {
	view *pongo.ReportView
	err  error
}

func (f *fakeHTMLRenderer) Render(_ context.Context, view *pongo.ReportView) (string, error) {
	f.view = view
	if f.err != nil {
		return "", f.err
	}

	return "<html>" + view.Title + "</html>", nil
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	ctrl := gomock.NewController(t)

	d := &testDeps{
		reportRepo: report.NewMockRepository(ctrl),
		dataSource: postgres.NewMockRepository(ctrl),
		storage:    storage.NewMockObjectStorage(ctrl),
		lock:       redis.NewMockRedisRepository(ctrl),
		pdf:        pdf.NewMockPDFGenerator(ctrl),
		html:       &fakeHTMLRenderer{},
	}

	d.uc = &UseCase{
		ReportRepo:   d.reportRepo,
		DataSource:   d.dataSource,
		Storage:      d.storage,
		LockRepo:     d.lock,
		HTMLRenderer: d.html,
		PDFGenerator: d.pdf,
		ReportTTL:    "7d",
		Now:          func() time.Time { return fixedNow },
	}

	return d
}

func testMessage(id uuid.UUID, format string) model.ReportMessage {
	return model.ReportMessage{
		ReportID: id,
		TenantID: "clinic-01",
		Type:     constant.ReportTypeLaboratorySummary,
		Format:   format,
		Title:    "Laboratory Summary Report (2025-08-01 to 2025-08-31)",
		DateFrom: "2025-08-01",
		DateTo:   "2025-08-31",
		Options:  model.ReportOptions{IncludeFinancials: true},
	}
}

func messageBody(t *testing.T, msg model.ReportMessage) []byte {
	t.Helper()

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	return body
}

func pendingReport(id uuid.UUID) *report.Report {
	return &report.Report{
		ID:          id,
		TenantID:    "clinic-01",
		Title:       "Laboratory Summary Report (2025-08-01 to 2025-08-31)",
		Type:        constant.ReportTypeLaboratorySummary,
		Status:      constant.PendingStatus,
		GeneratedBy: "Dana Reyes",
	}
}

func labResult() *postgres.Result {
	return &postgres.Result{
		Columns: []postgres.Column{
			{Key: "report_date", Title: "Date", Kind: postgres.KindDate},
			{Key: "department", Title: "Department", Kind: postgres.KindText},
			{Key: "tests_completed", Title: "Tests Completed", Kind: postgres.KindNumber},
			{Key: "billed_amount", Title: "Billed Amount", Kind: postgres.KindMoney},
		},
		Rows: []map[string]any{
			{
				"report_date":     time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
				"department":      "Hematology",
				"tests_completed": decimal.NewFromInt(1200),
				"billed_amount":   decimal.RequireFromString("15230.5"),
			},
			{
				"report_date":     time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC),
				"department":      "Chemistry, Core",
				"tests_completed": decimal.NewFromInt(80),
				"billed_amount":   nil,
			},
		},
	}
}

const expectedLabCSV = "Date,Department,Tests Completed,Billed Amount\n" +
	"2025-08-01,Hematology,1200,15230.50\n" +
	"2025-08-02,\"Chemistry, Core\",80,\n"

func lockKey(id uuid.UUID) string {
	return redis.IdempotencyKey(constant.IdempotencyKeyPrefix, id.String())
}

func TestGenerateReport_CSVSuccess(t *testing.T) {
	d := newTestDeps(t)
	id := uuid.New()
	fileName := "laboratory-summary-2025-08-01-2025-08-31.csv"

	gomock.InOrder(
		d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(pendingReport(id), nil),
		d.lock.EXPECT().SetNX(gomock.Any(), lockKey(id), constant.ProcessingStatus, constant.IdempotencyTTL).Return(true, nil),
		d.reportRepo.EXPECT().UpdateReportStatusById(gomock.Any(), constant.ProcessingStatus, id, time.Time{}, nil).Return(nil),
		d.dataSource.EXPECT().
			QueryReport(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, q postgres.ReportQuery) (*postgres.Result, error) {
				assert.Equal(t, "clinic-01", q.TenantID)
				assert.Equal(t, constant.ReportTypeLaboratorySummary, q.Type)
				assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), q.From)
				assert.Equal(t, time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), q.To)
				assert.True(t, q.Options.IncludeFinancials)

				return labResult(), nil
			}),
		d.storage.EXPECT().
			UploadWithTTL(gomock.Any(), "reports/clinic-01/"+id.String()+"/"+fileName, gomock.Any(), "text/csv", "7d").
			DoAndReturn(func(_ context.Context, key string, r io.Reader, _, _ string) (string, error) {
				raw, err := io.ReadAll(r)
				require.NoError(t, err)
				assert.Equal(t, expectedLabCSV, string(raw))

				return key, nil
			}),
		d.reportRepo.EXPECT().
			MarkCompleted(gomock.Any(), id, fileName, "/v1/reports/download/"+id.String()+"/"+fileName, fixedNow, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, _, _ string, _ time.Time, metadata map[string]any) error {
				assert.Equal(t, 2, metadata["rows"])
				assert.Equal(t, len(expectedLabCSV), metadata["sizeBytes"])
				assert.Equal(t, "text/csv", metadata["contentType"])

				return nil
			}),
	)

	err := d.uc.GenerateReport(context.Background(), messageBody(t, testMessage(id, constant.FormatCSV)))
	require.NoError(t, err)
}

func TestGenerateReport_PDFWithChart(t *testing.T) {
	d := newTestDeps(t)
	id := uuid.New()

	msg := testMessage(id, constant.FormatPDF)
	msg.Options.IncludeCharts = true

	result := labResult()

	d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(pendingReport(id), nil)
	d.lock.EXPECT().SetNX(gomock.Any(), lockKey(id), gomock.Any(), gomock.Any()).Return(true, nil)
	d.reportRepo.EXPECT().UpdateReportStatusById(gomock.Any(), constant.ProcessingStatus, id, time.Time{}, nil).Return(nil)
	d.dataSource.EXPECT().QueryReport(gomock.Any(), gomock.Any()).Return(result, nil)
	d.pdf.EXPECT().
		Render(gomock.Any(), "<html>"+msg.Title+"</html>").
		Return([]byte("%PDF-1.7 report"), nil)
	d.storage.EXPECT().
		UploadWithTTL(gomock.Any(), gomock.Any(), gomock.Any(), "application/pdf", "7d").
		Return("", nil)
	d.reportRepo.EXPECT().
		MarkCompleted(gomock.Any(), id, "laboratory-summary-2025-08-01-2025-08-31.pdf", gomock.Any(), fixedNow, gomock.Any()).
		Return(nil)

	require.NoError(t, d.uc.GenerateReport(context.Background(), messageBody(t, msg)))

	view := d.html.view
	require.NotNil(t, view)
	assert.Equal(t, "Laboratory Summary", view.TypeTitle)
	assert.Equal(t, "Dana Reyes", view.GeneratedBy)
	assert.Equal(t, fixedNow, view.GeneratedAt)
	assert.Len(t, view.Columns, 4)
	assert.True(t, view.IncludeCharts)
	assert.Equal(t, "Tests Completed by Department", view.ChartTitle)
	require.Len(t, view.Chart, 2)
	assert.Equal(t, "Hematology", view.Chart[0].Label)
	assert.True(t, view.ChartMax.Equal(decimal.NewFromInt(1200)))
}

func TestGenerateReport_XLSXSuccess(t *testing.T) {
	d := newTestDeps(t)
	id := uuid.New()

	var uploaded []byte

	d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(pendingReport(id), nil)
	d.lock.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	d.reportRepo.EXPECT().UpdateReportStatusById(gomock.Any(), constant.ProcessingStatus, id, time.Time{}, nil).Return(nil)
	d.dataSource.EXPECT().QueryReport(gomock.Any(), gomock.Any()).Return(labResult(), nil)
	d.storage.EXPECT().
		UploadWithTTL(gomock.Any(), gomock.Any(), gomock.Any(), constant.ContentTypes[constant.FormatXLSX], "7d").
		DoAndReturn(func(_ context.Context, key string, r io.Reader, _, _ string) (string, error) {
			raw, err := io.ReadAll(r)
			require.NoError(t, err)

			uploaded = raw

			return key, nil
		})
	d.reportRepo.EXPECT().
		MarkCompleted(gomock.Any(), id, "laboratory-summary-2025-08-01-2025-08-31.xlsx", gomock.Any(), fixedNow, gomock.Any()).
		Return(nil)

	require.NoError(t, d.uc.GenerateReport(context.Background(), messageBody(t, testMessage(id, constant.FormatXLSX))))

	// xlsx files are zip archives
	require.Greater(t, len(uploaded), 4)
	assert.Equal(t, []byte("PK"), uploaded[:2])
}

func TestGenerateReport_InvalidMessage(t *testing.T) {
	id := uuid.New()

	mutate := func(fn func(m *model.ReportMessage)) []byte {
		msg := testMessage(id, constant.FormatCSV)
		fn(&msg)

		raw, _ := json.Marshal(msg)

		return raw
	}

	tests := []struct {
		name string
		body []byte
		code string
	}{
		{name: "not json", body: []byte("{"), code: constant.ErrInvalidReportMessage.Error()},
		{name: "nil report id", body: mutate(func(m *model.ReportMessage) { m.ReportID = uuid.Nil }), code: constant.ErrInvalidReportID.Error()},
		{name: "missing tenant", body: mutate(func(m *model.ReportMessage) { m.TenantID = "" }), code: constant.ErrMissingRequiredFields.Error()},
		{name: "unknown type", body: mutate(func(m *model.ReportMessage) { m.Type = "payroll" }), code: constant.ErrInvalidReportType.Error()},
		{name: "unknown format", body: mutate(func(m *model.ReportMessage) { m.Format = "docx" }), code: constant.ErrInvalidOutputFormat.Error()},
		{name: "bad date", body: mutate(func(m *model.ReportMessage) { m.DateFrom = "08/01/2025" }), code: constant.ErrInvalidDateFormat.Error()},
		{name: "reversed range", body: mutate(func(m *model.ReportMessage) { m.DateTo = "2025-07-01" }), code: constant.ErrInvalidFinalDate.Error()},
		{name: "range too long", body: mutate(func(m *model.ReportMessage) { m.DateTo = "2027-01-01" }), code: constant.ErrDateRangeExceedsLimit.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps(t)

			err := d.uc.GenerateReport(context.Background(), tt.body)
			require.Error(t, err)

			var validationErr pkg.ValidationError
			require.True(t, errors.As(err, &validationErr), "got %T", err)
			assert.Equal(t, tt.code, validationErr.Code)
		})
	}
}

func TestGenerateReport_ReportNotFound(t *testing.T) {
	d := newTestDeps(t)
	id := uuid.New()

	d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(nil, mongo.ErrNoDocuments)

	err := d.uc.GenerateReport(context.Background(), messageBody(t, testMessage(id, constant.FormatCSV)))

	var notFound pkg.EntityNotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestGenerateReport_RegistryUnavailable(t *testing.T) {
	d := newTestDeps(t)
	id := uuid.New()

	d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(nil, errors.New("server selection timeout"))

	err := d.uc.GenerateReport(context.Background(), messageBody(t, testMessage(id, constant.FormatCSV)))
	require.Error(t, err)
	assert.Equal(t, constant.StageUpdate, FailureStage(err))
}

func TestGenerateReport_TenantMismatch(t *testing.T) {
	d := newTestDeps(t)
	id := uuid.New()

	other := pendingReport(id)
	other.TenantID = "clinic-02"

	d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(other, nil)

	err := d.uc.GenerateReport(context.Background(), messageBody(t, testMessage(id, constant.FormatCSV)))

	var forbidden pkg.ForbiddenError
	require.True(t, errors.As(err, &forbidden))
	assert.Equal(t, constant.ErrReportBelongsToOtherTenant.Error(), forbidden.Code)
}

func TestGenerateReport_SkipsTerminalReports(t *testing.T) {
	for _, status := range []string{constant.CompletedStatus, constant.FailedStatus} {
		t.Run(status, func(t *testing.T) {
			d := newTestDeps(t)
			id := uuid.New()

			done := pendingReport(id)
			done.Status = status

			d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(done, nil)

			require.NoError(t, d.uc.GenerateReport(context.Background(), messageBody(t, testMessage(id, constant.FormatCSV))))
		})
	}
}

func TestGenerateReport_LockHeldByAnotherWorker(t *testing.T) {
	d := newTestDeps(t)
	id := uuid.New()

	d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(pendingReport(id), nil)
	d.lock.EXPECT().SetNX(gomock.Any(), lockKey(id), gomock.Any(), gomock.Any()).Return(false, nil)

	require.NoError(t, d.uc.GenerateReport(context.Background(), messageBody(t, testMessage(id, constant.FormatCSV))))
}

func TestGenerateReport_QueryFailureReleasesLock(t *testing.T) {
	d := newTestDeps(t)
	id := uuid.New()

	d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(pendingReport(id), nil)
	d.lock.EXPECT().SetNX(gomock.Any(), lockKey(id), gomock.Any(), gomock.Any()).Return(true, nil)
	d.reportRepo.EXPECT().UpdateReportStatusById(gomock.Any(), constant.ProcessingStatus, id, time.Time{}, nil).Return(nil)
	d.dataSource.EXPECT().QueryReport(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset by peer"))
	d.lock.EXPECT().Del(gomock.Any(), lockKey(id)).Return(nil)

	err := d.uc.GenerateReport(context.Background(), messageBody(t, testMessage(id, constant.FormatCSV)))
	require.Error(t, err)
	assert.Equal(t, constant.StageQuery, FailureStage(err))
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestGenerateReport_StorageFailure(t *testing.T) {
	d := newTestDeps(t)
	id := uuid.New()

	d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(pendingReport(id), nil)
	d.lock.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	d.reportRepo.EXPECT().UpdateReportStatusById(gomock.Any(), constant.ProcessingStatus, id, time.Time{}, nil).Return(nil)
	d.dataSource.EXPECT().QueryReport(gomock.Any(), gomock.Any()).Return(labResult(), nil)
	d.storage.EXPECT().UploadWithTTL(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("503 SlowDown"))
	d.lock.EXPECT().Del(gomock.Any(), lockKey(id)).Return(nil)

	err := d.uc.GenerateReport(context.Background(), messageBody(t, testMessage(id, constant.FormatCSV)))
	require.Error(t, err)
	assert.Equal(t, constant.StageStorage, FailureStage(err))
}

func TestGenerateReport_StorageCircuitOpen(t *testing.T) {
	d := newTestDeps(t)
	id := uuid.New()

	cbm := pkg.NewCircuitBreakerManager(&log.NoneLogger{})
	for i := uint32(0); i < constant.CircuitBreakerThreshold; i++ {
		_, _ = cbm.Execute(constant.DependencyObjectStorage, func() (any, error) {
			return nil, errors.New("timeout")
		})
	}

	d.uc.CircuitBreaker = cbm

	d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(pendingReport(id), nil)
	d.lock.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	d.reportRepo.EXPECT().UpdateReportStatusById(gomock.Any(), constant.ProcessingStatus, id, time.Time{}, nil).Return(nil)
	d.dataSource.EXPECT().QueryReport(gomock.Any(), gomock.Any()).Return(labResult(), nil)
	d.lock.EXPECT().Del(gomock.Any(), lockKey(id)).Return(nil)

	err := d.uc.GenerateReport(context.Background(), messageBody(t, testMessage(id, constant.FormatCSV)))
	require.Error(t, err)
	assert.ErrorIs(t, err, pkg.ErrDependencyUnavailable)
}

func TestGenerateReport_RedisDownFailsOpen(t *testing.T) {
	d := newTestDeps(t)
	id := uuid.New()

	d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(pendingReport(id), nil)
	d.lock.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("dial tcp: connection refused"))
	d.reportRepo.EXPECT().UpdateReportStatusById(gomock.Any(), constant.ProcessingStatus, id, time.Time{}, nil).Return(nil)
	d.dataSource.EXPECT().QueryReport(gomock.Any(), gomock.Any()).Return(labResult(), nil)
	d.storage.EXPECT().UploadWithTTL(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", nil)
	d.reportRepo.EXPECT().MarkCompleted(gomock.Any(), id, gomock.Any(), gomock.Any(), fixedNow, gomock.Any()).Return(nil)

	require.NoError(t, d.uc.GenerateReport(context.Background(), messageBody(t, testMessage(id, constant.FormatCSV))))
}

func TestGenerateReport_WithoutLockRepo(t *testing.T) {
	d := newTestDeps(t)
	d.uc.LockRepo = nil

	id := uuid.New()

	d.reportRepo.EXPECT().FindByID(gomock.Any(), id).Return(pendingReport(id), nil)
	d.reportRepo.EXPECT().UpdateReportStatusById(gomock.Any(), constant.ProcessingStatus, id, time.Time{}, nil).Return(nil)
	d.dataSource.EXPECT().QueryReport(gomock.Any(), gomock.Any()).Return(labResult(), nil)
	d.storage.EXPECT().UploadWithTTL(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", nil)
	d.reportRepo.EXPECT().MarkCompleted(gomock.Any(), id, gomock.Any(), gomock.Any(), fixedNow, gomock.Any()).Return(errors.New("write conflict"))

	err := d.uc.GenerateReport(context.Background(), messageBody(t, testMessage(id, constant.FormatCSV)))
	require.Error(t, err)
	assert.Equal(t, constant.StageUpdate, FailureStage(err))
}
