// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labRequest() ReportRequest {
	return ReportRequest{
		ReportType:    constant.ReportTypeLaboratorySummary,
		DateFrom:      day("2025-08-01"),
		DateTo:        day("2025-08-31"),
		Format:        constant.FormatPDF,
		ReportOptions: model.ReportOptions{IncludeTestResults: true},
	}
}

func TestReportRequest_Validate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(r *ReportRequest)
		field string
	}{
		{name: "valid", edit: func(*ReportRequest) {}},
		{name: "single day", edit: func(r *ReportRequest) { r.DateTo = r.DateFrom }},
		{name: "single day with different clock", edit: func(r *ReportRequest) {
			r.DateFrom = time.Date(2025, 8, 1, 18, 0, 0, 0, time.UTC)
			r.DateTo = time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
		}},
		{name: "end before start", edit: func(r *ReportRequest) { r.DateTo = day("2025-07-31") }, field: "dateTo"},
		{name: "missing type", edit: func(r *ReportRequest) { r.ReportType = "" }, field: "reportType"},
		{name: "unknown type", edit: func(r *ReportRequest) { r.ReportType = "radiology" }, field: "reportType"},
		{name: "missing format", edit: func(r *ReportRequest) { r.Format = "" }, field: "format"},
		{name: "unknown format", edit: func(r *ReportRequest) { r.Format = "docx" }, field: "format"},
		{name: "missing start", edit: func(r *ReportRequest) { r.DateFrom = time.Time{} }, field: "dateFrom"},
		{name: "missing end", edit: func(r *ReportRequest) { r.DateTo = time.Time{} }, field: "dateTo"},
		{name: "range too long", edit: func(r *ReportRequest) { r.DateTo = day("2026-08-02") }, field: "dateTo"},
		{name: "range of exactly twelve months", edit: func(r *ReportRequest) { r.DateTo = day("2026-08-01") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := labRequest()
			tt.edit(&req)

			err := req.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.NotEmpty(t, vErr.UserMessage())
		})
	}
}

func TestReportRequest_RangeCapMatchesServer(t *testing.T) {
	for _, to := range []string{"2025-08-01", "2026-07-31", "2026-08-01", "2026-08-02", "2027-01-01"} {
		req := labRequest()
		req.DateTo = day(to)

		_, _, serverErr := model.ParseDateRange(req.DateFrom.Format(constant.DateLayout), to)

		assert.Equal(t, serverErr == nil, req.Validate() == nil, "dateTo %s", to)
	}
}

func TestReportRequest_Title(t *testing.T) {
	assert.Equal(t, "Laboratory Summary Report (2025-08-01 to 2025-08-31)", labRequest().Title())
}

func TestDefaultRequest(t *testing.T) {
	req := DefaultRequest(time.Date(2025, 9, 15, 17, 30, 0, 0, time.UTC))

	assert.Equal(t, constant.ReportTypeLaboratorySummary, req.ReportType)
	assert.Equal(t, constant.FormatPDF, req.Format)
	assert.Equal(t, day("2025-08-16"), req.DateFrom)
	assert.Equal(t, day("2025-09-15"), req.DateTo)
	assert.NoError(t, req.Validate())
}

func TestSubmit_InvalidRequestNeverReachesNetwork(t *testing.T) {
	svc, srv := newFakeService(t)
	c := newTestClient(t, srv)

	for _, to := range []string{"2025-07-31", "2025-01-01", "2024-08-31"} {
		req := labRequest()
		req.DateTo = day(to)

		report, err := c.Submitter.Submit(context.Background(), req)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "dateTo", vErr.Field)
		assert.Nil(t, report)
	}

	create, list, _, _ := svc.calls()
	assert.Zero(t, create)
	assert.Zero(t, list)
	assert.Empty(t, c.notifier.all())
}

func TestSubmit_SingleDayRange(t *testing.T) {
	svc, srv := newFakeService(t)
	c := newTestClient(t, srv)

	req := labRequest()
	req.DateTo = req.DateFrom

	report, err := c.Submitter.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "r1", report.ID)

	create, _, _, _ := svc.calls()
	assert.Equal(t, 1, create)

	input, _ := svc.lastRequest()
	assert.Equal(t, "2025-08-01", input.DateTo)
}

func TestSubmit_LaboratorySummaryScenario(t *testing.T) {
	svc, srv := newFakeService(t)
	svc.set(func(f *fakeService) { f.createStatus = constant.CompletedStatus })

	c := newTestClient(t, srv)

	report, err := c.Submitter.Submit(context.Background(), labRequest())
	require.NoError(t, err)

	assert.Equal(t, "r1", report.ID)
	assert.Equal(t, constant.CompletedStatus, report.Status)
	assert.Equal(t, "lab.pdf", report.FileName)
	assert.Equal(t, "/v1/reports/download/r1/lab.pdf", report.FileURL)

	input, auth := svc.lastRequest()
	assert.Equal(t, model.CreateReportInput{
		Type:               constant.ReportTypeLaboratorySummary,
		Format:             constant.FormatPDF,
		Title:              "Laboratory Summary Report (2025-08-01 to 2025-08-31)",
		DateFrom:           "2025-08-01",
		DateTo:             "2025-08-31",
		IncludeTestResults: true,
	}, input)
	assert.Equal(t, "Bearer tok", auth)

	reports, err := c.Registry.List(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "r1", reports[0].ID)

	notes := c.notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, LevelSuccess, notes[0].Level)
	assert.Equal(t, "r1", notes[0].ReportID)
	assert.Contains(t, notes[0].Message, "ready to download")
}

func TestSubmit_ThenListIncludesNewReport(t *testing.T) {
	svc, srv := newFakeService(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	reports, err := c.Registry.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)

	reports, err = c.Registry.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)

	_, list, _, _ := svc.calls()
	require.Equal(t, 1, list, "second read is served from the cache")

	report, err := c.Submitter.Submit(ctx, labRequest())
	require.NoError(t, err)
	assert.Equal(t, constant.PendingStatus, report.Status)

	reports, err = c.Registry.List(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.ID)
	}

	assert.Contains(t, ids, report.ID)

	_, list, _, _ = svc.calls()
	assert.Equal(t, 2, list)

	notes := c.notifier.all()
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "is being generated")
}

func TestSubmit_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "server message", status: http.StatusInternalServerError, body: `{"code":"RPT-0020","title":"Internal Server Error","message":"Queue unavailable"}`, message: "Queue unavailable"},
		{name: "structured error", status: http.StatusBadRequest, body: `{"error":"Invalid range.","instructions":"Pick at most 12 months."}`, message: "Invalid range. Pick at most 12 months."},
		{name: "empty body", status: http.StatusBadGateway, body: ``, message: genericGenerationMessage},
		{name: "not json", status: http.StatusServiceUnavailable, body: `<html>down</html>`, message: genericGenerationMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, srv := newFakeService(t)
			svc.set(func(f *fakeService) {
				f.createFail = tt.status
				f.createBody = tt.body
			})

			c := newTestClient(t, srv)
			require.NoError(t, c.cache.Put(context.Background(), ListCacheKey("u1"), []GeneratedReport{completedReport()}))

			_, err := c.Submitter.Submit(context.Background(), labRequest())

			var genErr *ReportGenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tt.status, genErr.StatusCode)
			assert.Equal(t, tt.message, genErr.UserMessage())

			_, ok, _ := c.cache.Get(context.Background(), ListCacheKey("u1"))
			assert.True(t, ok, "a failed creation keeps the cached list")
			assert.Empty(t, c.notifier.all())
		})
	}
}

func TestSubmit_Unreachable(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.Submitter.Submit(context.Background(), labRequest())

	var genErr *ReportGenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Zero(t, genErr.StatusCode)
	assert.Equal(t, genericGenerationMessage, genErr.UserMessage())
}

func TestSubmit_Timeout(t *testing.T) {
	svc, srv := newFakeService(t)

	gate := make(chan struct{})
	t.Cleanup(func() { close(gate) })
	svc.set(func(f *fakeService) { f.createGate = gate })

	c := newTestClient(t, srv, func(cfg *Config) {
		cfg.HTTPClient = &http.Client{Timeout: 50 * time.Millisecond}
	})

	_, err := c.Submitter.Submit(context.Background(), labRequest())

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)

	var serverErr *ServerError
	assert.False(t, errors.As(err, &serverErr))
}

func TestForm_FailureKeepsRequestForRetry(t *testing.T) {
	svc, srv := newFakeService(t)
	svc.set(func(f *fakeService) {
		f.createFail = http.StatusInternalServerError
		f.createBody = `{"message":"try later"}`
	})

	c := newTestClient(t, srv)
	form := c.Submitter.NewForm(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	form.Update(func(r *ReportRequest) {
		r.ReportType = constant.ReportTypeBillingSummary
		r.IncludeFinancials = true
	})

	_, err := form.Submit(context.Background())
	require.Error(t, err)
	assert.False(t, form.Closed())
	assert.False(t, form.Pending())
	assert.Equal(t, constant.ReportTypeBillingSummary, form.Request().ReportType)
	assert.True(t, form.Request().IncludeFinancials)

	svc.set(func(f *fakeService) { f.createFail = 0 })

	report, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, constant.ReportTypeBillingSummary, report.Type)
	assert.True(t, form.Closed())

	_, err = form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrFormClosed)

	create, _, _, _ := svc.calls()
	assert.Equal(t, 2, create)
}

func TestForm_RejectsDoubleSubmit(t *testing.T) {
	svc, srv := newFakeService(t)

	gate := make(chan struct{})
	svc.set(func(f *fakeService) { f.createGate = gate })

	c := newTestClient(t, srv)
	form := c.Submitter.NewForm(time.Now())
	other := c.Submitter.NewForm(time.Now())

	done := make(chan error, 1)

	go func() {
		_, err := form.Submit(context.Background())
		done <- err
	}()

	<-svc.createStarted
	assert.True(t, form.Pending())

	_, err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	otherDone := make(chan error, 1)

	go func() {
		_, err := other.Submit(context.Background())
		otherDone <- err
	}()

	<-svc.createStarted
	close(gate)

	require.NoError(t, <-done)
	require.NoError(t, <-otherDone)

	create, _, _, _ := svc.calls()
	assert.Equal(t, 2, create, "independent forms submit concurrently")
}

func TestForm_ClosedWhileInFlight(t *testing.T) {
	svc, srv := newFakeService(t)

	gate := make(chan struct{})
	svc.set(func(f *fakeService) { f.createGate = gate })

	c := newTestClient(t, srv)
	require.NoError(t, c.cache.Put(context.Background(), ListCacheKey("u1"), []GeneratedReport{}))

	form := c.Submitter.NewForm(time.Now())
	done := make(chan error, 1)

	go func() {
		_, err := form.Submit(context.Background())
		done <- err
	}()

	<-svc.createStarted
	form.Close()
	close(gate)

	require.NoError(t, <-done)

	_, ok, _ := c.cache.Peek(context.Background(), ListCacheKey("u1"))
	assert.False(t, ok, "the result still invalidates the list")
	assert.Empty(t, c.notifier.all(), "no banner over a dismissed dialog")
}
