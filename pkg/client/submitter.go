// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"context"
	"sync"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
)

// Submitter validates report requests, creates them and invalidates the report list.
type Submitter struct {
	api      *API
	cache    Cache[[]GeneratedReport]
	listKey  string
	notifier Notifier
	metrics  *clientMetrics
}

// Submit validates req and creates the report. It never downloads.
// On success the ready banner is raised and the report list entry is invalidated.
func (s *Submitter) Submit(ctx context.Context, req ReportRequest) (*GeneratedReport, error) {
	return s.submit(ctx, req, func() bool { return true })
}

// submit runs a submission; showBanner is consulted once the creation succeeded.
func (s *Submitter) submit(ctx context.Context, req ReportRequest, showBanner func() bool) (*GeneratedReport, error) {
	logger := pkg.NewLoggerFromContext(ctx)

	if err := req.Validate(); err != nil {
		s.metrics.recordSubmission(ctx, req.ReportType, err)
		return nil, err
	}

	report, err := s.api.CreateReport(ctx, req.input())
	s.metrics.recordSubmission(ctx, req.ReportType, err)

	if err != nil {
		logger.Errorf("Failed to create %s report: %v", req.ReportType, err)
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, s.listKey); err != nil {
		logger.Warnf("Failed to invalidate report list cache %s: %v", s.listKey, err)
	}

	logger.Infof("Created report %s with status %s", report.ID, report.Status)

	if showBanner() {
		s.notifier.Notify(ctx, readyBanner(report))
	}

	return report, nil
}

// readyBanner is raised right after creation, whatever the report status.
func readyBanner(report *GeneratedReport) Notification {
	message := report.Title + " is being generated."
	if report.Status == constant.CompletedStatus {
		message = report.Title + " is ready to download."
	}

	return Notification{
		Level:    LevelSuccess,
		Title:    "Report ready",
		Message:  message,
		ReportID: report.ID,
	}
}

// Form is one report request dialog. It keeps its request across failed submissions
// and refuses a second submission while its own is still pending.
type Form struct {
	submitter *Submitter

	mu      sync.Mutex
	request ReportRequest
	pending bool
	closed  bool
}

// NewForm opens a form pre-filled with DefaultRequest(now).
func (s *Submitter) NewForm(now time.Time) *Form {
	return &Form{submitter: s, request: DefaultRequest(now)}
}

// Request returns a copy of the current request.
func (f *Form) Request() ReportRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.request
}

// Update edits the request in place.
func (f *Form) Update(edit func(*ReportRequest)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	edit(&f.request)
}

// Pending reports whether a submission of this form is in flight.
func (f *Form) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.pending
}

// Closed reports whether the form was dismissed or submitted successfully.
func (f *Form) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

// Close dismisses the form. An in-flight submission still completes and invalidates the
// report list, but its ready banner is not raised.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
}

// Submit submits the current request. A failed submission leaves the form open with its request intact.
func (f *Form) Submit(ctx context.Context) (*GeneratedReport, error) {
	f.mu.Lock()

	switch {
	case f.closed:
		f.mu.Unlock()
		return nil, ErrFormClosed
	case f.pending:
		f.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}

	f.pending = true
	req := f.request
	f.mu.Unlock()

	report, err := f.submitter.submit(ctx, req, func() bool { return !f.Closed() })

	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = false

	if err != nil {
		return nil, err
	}

	f.closed = true

	return report, nil
}
