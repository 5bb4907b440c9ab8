// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"

	"github.com/stretchr/testify/require"
)

// fakeService is an in-memory report service speaking the manager's wire format.
type fakeService struct {
	mu sync.Mutex

	reports      []GeneratedReport
	createStatus string
	createFail   int
	createBody   string
	createGate   chan struct{}

	downloadStatus int
	downloadBody   []byte
	downloadGate   chan struct{}

	// listGate holds the next GET /reports answer, computed before waiting, until closed.
	listGate    chan struct{}
	listStarted chan struct{}

	// pollPending is how many GET /reports/{id} answers stay pending before completing.
	pollPending int

	createCalls   int
	listCalls     int
	getCalls      int
	downloadCalls int
	lastCreate    model.CreateReportInput
	lastAuth      string
	createStarted chan struct{}
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()

	f := &fakeService{
		createStatus:   constant.PendingStatus,
		downloadStatus: http.StatusOK,
		downloadBody:   []byte("%PDF-1.7 fake"),
		createStarted:  make(chan struct{}, 8),
		listStarted:    make(chan struct{}, 8),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/reports", f.create)
	mux.HandleFunc("GET /v1/reports", f.list)
	mux.HandleFunc("GET /v1/reports/{id}", f.get)
	mux.HandleFunc("GET /v1/reports/download/{id}/{fileName}", f.download)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return f, srv
}

func (f *fakeService) create(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.createCalls++
	f.lastAuth = r.Header.Get(constant.HeaderAuthorization)
	gate := f.createGate
	f.mu.Unlock()

	select {
	case f.createStarted <- struct{}{}:
	default:
	}

	if gate != nil {
		<-gate
	}

	var input model.CreateReportInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastCreate = input

	if f.createFail != 0 {
		w.WriteHeader(f.createFail)
		_, _ = w.Write([]byte(f.createBody))

		return
	}

	id := fmt.Sprintf("r%d", len(f.reports)+1)
	report := GeneratedReport{
		ID:          id,
		Title:       input.Title,
		Type:        input.Type,
		Format:      input.Format,
		Status:      f.createStatus,
		GeneratedBy: "Dana Reyes",
		CreatedAt:   time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC),
	}

	if f.createStatus == constant.CompletedStatus {
		report.FileName = "lab.pdf"
		report.FileURL = "/v1/reports/download/" + id + "/lab.pdf"
	}

	f.reports = append([]GeneratedReport{report}, f.reports...)

	writeJSON(w, http.StatusCreated, map[string]any{"report": report})
}

func (f *fakeService) list(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()

	f.listCalls++
	f.lastAuth = r.Header.Get(constant.HeaderAuthorization)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	if limit < 1 {
		limit = constant.DefaultPaginationLimit
	}

	if page < 1 {
		page = 1
	}

	start := min((page-1)*limit, len(f.reports))
	end := min(start+limit, len(f.reports))
	snapshot := append([]GeneratedReport{}, f.reports[start:end]...)

	gate := f.listGate
	f.listGate = nil
	f.mu.Unlock()

	select {
	case f.listStarted <- struct{}{}:
	default:
	}

	if gate != nil {
		<-gate
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (f *fakeService) get(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++

	for _, report := range f.reports {
		if report.ID != r.PathValue("id") {
			continue
		}

		if f.getCalls > f.pollPending {
			report.Status = constant.CompletedStatus
		}

		writeJSON(w, http.StatusOK, report)

		return
	}

	writeJSON(w, http.StatusNotFound, map[string]string{"code": "RPT-0013", "message": "Report not found"})
}

func (f *fakeService) download(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.downloadCalls++
	f.lastAuth = r.Header.Get(constant.HeaderAuthorization)
	status, body, gate := f.downloadStatus, f.downloadBody, f.downloadGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set(constant.HeaderContentDisposition, `attachment; filename="`+r.PathValue("fileName")+`"`)
	_, _ = w.Write(body)
}

func (f *fakeService) calls() (create, list, get, download int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.createCalls, f.listCalls, f.getCalls, f.downloadCalls
}

func (f *fakeService) lastRequest() (model.CreateReportInput, string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lastCreate, f.lastAuth
}

func (f *fakeService) set(fn func(f *fakeService)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fn(f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// recordingSaver records saves. Each successful save is one materialised file whose
// staged copy is released exactly once.
type recordingSaver struct {
	mu       sync.Mutex
	names    []string
	blobs    []Blob
	released int
}

func (s *recordingSaver) Save(_ context.Context, blob Blob, suggestedName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names = append(s.names, suggestedName)
	s.blobs = append(s.blobs, blob)
	s.released++

	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (n *recordingNotifier) Notify(_ context.Context, item Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.items = append(n.items, item)
}

func (n *recordingNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]Notification(nil), n.items...)
}

type testClient struct {
	*Client
	saver    *recordingSaver
	notifier *recordingNotifier
	cache    *MemoryCache[[]GeneratedReport]
	phases   *[]Phase
}

func newTestClient(t *testing.T, srv *httptest.Server, edit ...func(*Config)) *testClient {
	t.Helper()

	var (
		mu     sync.Mutex
		phases []Phase
	)

	tc := &testClient{
		saver:    &recordingSaver{},
		notifier: &recordingNotifier{},
		cache:    NewMemoryCache[[]GeneratedReport](constant.ReportListStaleTime),
		phases:   &phases,
	}

	cfg := Config{
		BaseURL:      srv.URL + "/v1",
		PollInterval: 10 * time.Millisecond,
		ListScope:    "u1",
		Sessions:     StaticSession{UserID: "u1", Token: "tok"},
		Cache:        tc.cache,
		Notifier:     tc.notifier,
		Saver:        tc.saver,
		Observer: func(_ string, p Phase) {
			mu.Lock()
			defer mu.Unlock()

			phases = append(phases, p)
		},
	}

	for _, fn := range edit {
		fn(&cfg)
	}

	c, err := New(cfg)
	require.NoError(t, err)

	tc.Client = c

	return tc
}

func day(s string) time.Time {
	d, err := time.Parse(constant.DateLayout, s)
	if err != nil {
		panic(err)
	}

	return d
}

func completedReport() GeneratedReport {
	now := time.Date(2025, 9, 1, 8, 5, 0, 0, time.UTC)

	return GeneratedReport{
		ID:          "r1",
		Title:       "Laboratory Summary Report (2025-08-01 to 2025-08-31)",
		Type:        constant.ReportTypeLaboratorySummary,
		Format:      constant.FormatPDF,
		Status:      constant.CompletedStatus,
		FileURL:     "/f/r1",
		FileName:    "lab.pdf",
		CreatedAt:   now.Add(-time.Minute),
		CompletedAt: &now,
	}
}
