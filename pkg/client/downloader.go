// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"go.opentelemetry.io/otel/attribute"
)

// Phase is a step of a single download attempt.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseRequesting Phase = "requesting"
	PhaseReceiving  Phase = "receiving"
	PhaseSaving     Phase = "saving"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// transitions lists the phases reachable from each phase. Done and failed are terminal.
var transitions = map[Phase][]Phase{
	PhaseIdle:       {PhaseValidating},
	PhaseValidating: {PhaseRequesting, PhaseFailed},
	PhaseRequesting: {PhaseReceiving, PhaseFailed},
	PhaseReceiving:  {PhaseSaving, PhaseFailed},
	PhaseSaving:     {PhaseDone, PhaseFailed},
}

// PhaseObserver is told about every phase an attempt enters.
type PhaseObserver func(reportID string, phase Phase)

// Downloader fetches completed report files with the caller's bearer token and saves them.
// Each Download call is an independent attempt; nothing is retried automatically.
type Downloader struct {
	api      *API
	sessions SessionProvider
	saver    BlobSaver
	notifier Notifier
	metrics  *clientMetrics
	observer PhaseObserver
}

// Download runs one attempt for report. Every failure is one of the client error kinds and
// is also raised as the terminal notification.
func (d *Downloader) Download(ctx context.Context, report GeneratedReport) error {
	logger, tracer, _ := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "client.download_report")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.report_id", report.ID),
		attribute.String("app.request.file_name", report.FileName),
	)

	a := &downloadAttempt{downloader: d, report: report, phase: PhaseIdle}

	err := a.run(ctx)

	d.metrics.recordDownload(ctx, report.Format, err)

	if err != nil {
		opentelemetry.HandleSpanError(&span, "Download failed", err)
		logger.Errorf("Download of report %s failed in phase %s: %v", report.ID, a.lastPhase, err)

		d.notifier.Notify(ctx, Notification{
			Level:    LevelError,
			Title:    "Download failed",
			Message:  UserMessage(err),
			ReportID: report.ID,
		})

		return err
	}

	logger.Infof("Downloaded report %s as %s", report.ID, report.FileName)

	d.notifier.Notify(ctx, Notification{
		Level:    LevelSuccess,
		Title:    "Download complete",
		Message:  report.FileName + " was saved.",
		ReportID: report.ID,
	})

	return nil
}

// downloadAttempt is the state of one Download call.
type downloadAttempt struct {
	downloader *Downloader
	report     GeneratedReport
	phase      Phase
	lastPhase  Phase
	visited    map[Phase]bool
}

func (a *downloadAttempt) enter(next Phase) {
	allowed := false

	for _, p := range transitions[a.phase] {
		if p == next {
			allowed = true
			break
		}
	}

	if !allowed || a.visited[next] {
		panic(fmt.Sprintf("invalid download transition %s -> %s", a.phase, next))
	}

	if a.visited == nil {
		a.visited = make(map[Phase]bool)
	}

	a.visited[next] = true
	a.lastPhase, a.phase = a.phase, next

	if a.downloader.observer != nil {
		a.downloader.observer(a.report.ID, next)
	}
}

func (a *downloadAttempt) fail(err error) error {
	a.enter(PhaseFailed)
	return err
}

func (a *downloadAttempt) run(ctx context.Context) error {
	d := a.downloader

	a.enter(PhaseValidating)

	if !a.report.Downloadable() {
		return a.fail(&MissingFileReferenceError{ReportID: a.report.ID, Status: a.report.Status})
	}

	session, err := d.sessions.Session(ctx)
	if err != nil || !session.Valid() {
		return a.fail(&NotAuthenticatedError{})
	}

	d.notifier.Notify(ctx, Notification{
		Level:    LevelInfo,
		Title:    "Starting download",
		Message:  "Downloading " + a.report.FileName + "...",
		ReportID: a.report.ID,
	})

	a.enter(PhaseRequesting)

	resp, err := d.api.OpenDownload(ctx, a.report.ID, a.report.FileName, session.Token)
	if err != nil {
		if isTimeout(err) {
			return a.fail(&TimeoutError{Operation: "download report", Err: err})
		}

		return a.fail(&ServerError{Err: err})
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return a.fail(statusError(resp.StatusCode, a.report.ID, readErrorMessage(resp.Body)))
	}

	a.enter(PhaseReceiving)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return a.fail(&TimeoutError{Operation: "download report", Err: err})
		}

		return a.fail(&ServerError{StatusCode: resp.StatusCode, Message: "incomplete body", Err: err})
	}

	a.enter(PhaseSaving)

	blob := Blob{Data: data, ContentType: resp.Header.Get("Content-Type")}
	if blob.ContentType == "" {
		blob.ContentType = http.DetectContentType(data)
	}

	if err := d.saver.Save(ctx, blob, a.report.FileName); err != nil {
		return a.fail(&SaveError{FileName: a.report.FileName, Err: err})
	}

	a.enter(PhaseDone)

	return nil
}
