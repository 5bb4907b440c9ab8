// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/opentelemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// ErrInvalidBaseURL is returned by NewAPI for a base URL without scheme or host.
var ErrInvalidBaseURL = errors.New("invalid report service base url")

const (
	// maxErrorBody bounds how much of an error answer is read.
	maxErrorBody = 64 << 10

	// maxListPages bounds the pages followed by ListReports.
	maxListPages = 50
)

// errorBody is the error answer of the report service. Both the {code, title, message}
// and the {error, instructions} shapes are understood.
type errorBody struct {
	Code         string `json:"code"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	Error        string `json:"error"`
	Instructions string `json:"instructions"`
}

// API issues requests against the report service, e.g. http://localhost:4005/v1.
type API struct {
	baseURL    string
	httpClient *http.Client
	sessions   SessionProvider
}

// NewAPI returns an API for baseURL. A nil httpClient uses one bounded by constant.DefaultClientTimeout.
func NewAPI(baseURL string, httpClient *http.Client, sessions SessionProvider) (*API, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: constant.DefaultClientTimeout}
	}

	if sessions == nil {
		sessions = StaticSession{}
	}

	return &API{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: httpClient,
		sessions:   sessions,
	}, nil
}

// CreateReport posts a creation request. Failures are *ReportGenerationError or *TimeoutError.
func (a *API) CreateReport(ctx context.Context, input model.CreateReportInput) (*GeneratedReport, error) {
	_, tracer, _ := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "client.create_report")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.report_type", input.Type),
		attribute.String("app.request.format", input.Format),
	)

	body, err := json.Marshal(input)
	if err != nil {
		return nil, &ReportGenerationError{Err: err}
	}

	resp, err := a.do(ctx, http.MethodPost, "/reports", bytes.NewReader(body), a.bearer(ctx))
	if err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to create report", err)

		if isTimeout(err) {
			return nil, &TimeoutError{Operation: "create report", Err: err}
		}

		return nil, &ReportGenerationError{Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		genErr := &ReportGenerationError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		opentelemetry.HandleSpanError(&span, "Report service rejected the report", genErr)

		return nil, genErr
	}

	var envelope struct {
		Report *GeneratedReport `json:"report"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Operation: "create report", Err: err}
		}

		return nil, &ReportGenerationError{Err: fmt.Errorf("decoding creation answer: %w", err)}
	}

	if envelope.Report == nil || envelope.Report.ID == "" {
		return nil, &ReportGenerationError{Err: errors.New("creation answer carries no report")}
	}

	span.SetAttributes(attribute.String("app.response.report_id", envelope.Report.ID))

	return envelope.Report, nil
}

// ListReports fetches every report visible to the caller, following pages until a short page.
func (a *API) ListReports(ctx context.Context) ([]GeneratedReport, error) {
	_, tracer, _ := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "client.list_reports")
	defer span.End()

	reports := make([]GeneratedReport, 0)

	for page := 1; page <= maxListPages; page++ {
		path := "/reports?limit=" + strconv.Itoa(constant.DefaultPaginationLimit) + "&page=" + strconv.Itoa(page)

		var batch []GeneratedReport
		if err := a.getJSON(ctx, path, "", "list reports", &batch); err != nil {
			opentelemetry.HandleSpanError(&span, "Failed to list reports", err)
			return nil, err
		}

		reports = append(reports, batch...)

		if len(batch) < constant.DefaultPaginationLimit {
			break
		}
	}

	span.SetAttributes(attribute.Int("app.response.count", len(reports)))

	return reports, nil
}

// GetReport fetches a single report.
func (a *API) GetReport(ctx context.Context, id string) (*GeneratedReport, error) {
	_, tracer, _ := pkg.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "client.get_report")
	defer span.End()

	span.SetAttributes(attribute.String("app.request.report_id", id))

	var report GeneratedReport
	if err := a.getJSON(ctx, "/reports/"+url.PathEscape(id), id, "get report", &report); err != nil {
		opentelemetry.HandleSpanError(&span, "Failed to get report", err)
		return nil, err
	}

	return &report, nil
}

// OpenDownload starts the download of a report file with the given bearer token.
// The caller owns the returned response and maps its status.
func (a *API) OpenDownload(ctx context.Context, id, fileName, token string) (*http.Response, error) {
	path := "/reports/download/" + url.PathEscape(id) + "/" + url.PathEscape(fileName)

	return a.do(ctx, http.MethodGet, path, nil, token)
}

func (a *API) getJSON(ctx context.Context, path, reportID, operation string, out any) error {
	resp, err := a.do(ctx, http.MethodGet, path, nil, a.bearer(ctx))
	if err != nil {
		if isTimeout(err) {
			return &TimeoutError{Operation: operation, Err: err}
		}

		return &ServerError{Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return statusError(resp.StatusCode, reportID, readErrorMessage(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return &TimeoutError{Operation: operation, Err: err}
		}

		return &ServerError{StatusCode: resp.StatusCode, Message: "malformed answer", Err: err}
	}

	return nil
}

func (a *API) do(ctx context.Context, method, path string, body io.Reader, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set(constant.HeaderAuthorization, constant.BearerPrefix+token)
	}

	if reqID := pkg.NewRequestIDFromContext(ctx); reqID != "" {
		req.Header.Set(constant.HeaderRequestID, reqID)
	}

	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))

	return a.httpClient.Do(req)
}

// bearer returns the current token, or "" without a session.
func (a *API) bearer(ctx context.Context) string {
	s, err := a.sessions.Session(ctx)
	if err != nil || !s.Valid() {
		return ""
	}

	return s.Token
}

// statusError maps a non-2xx answer to its error kind.
func statusError(status int, reportID, message string) error {
	switch status {
	case http.StatusUnauthorized:
		return &SessionExpiredError{ReportID: reportID}
	case http.StatusForbidden:
		return &AccessDeniedError{ReportID: reportID}
	case http.StatusNotFound:
		return &ReportNotFoundError{ReportID: reportID}
	default:
		return &ServerError{StatusCode: status, Message: message}
	}
}

// readErrorMessage extracts the human readable message of an error answer.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	switch {
	case body.Message != "":
		return body.Message
	case body.Error != "" && body.Instructions != "":
		return body.Error + " " + body.Instructions
	default:
		return body.Error
	}
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
