// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/MaximeMichaud/oura-dashboard/internal/catalog"
	"github.com/MaximeMichaud/oura-dashboard/internal/database"
	ingest "github.com/MaximeMichaud/oura-dashboard/internal/sync"
)

type fakeStatusStore struct {
	pingErr    error
	listErr    error
	historyErr error
	marks      []database.Watermark
	history    []database.Attempt

	gotEndpoint string
	gotLimit    int
}

func (f *fakeStatusStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStatusStore) ListWatermarks(ctx context.Context) ([]database.Watermark, error) {
	return f.marks, f.listErr
}

func (f *fakeStatusStore) RecentHistory(ctx context.Context, endpoint string, limit int) ([]database.Attempt, error) {
	f.gotEndpoint = endpoint
	f.gotLimit = limit
	return f.history, f.historyErr
}

type fakeController struct {
	triggerErr error
	triggers   int
	running    bool
	last       *ingest.PassReport
}

func (f *fakeController) TriggerSync() error {
	f.triggers++
	return f.triggerErr
}

func (f *fakeController) IsPassRunning() bool         { return f.running }
func (f *fakeController) LastPass() *ingest.PassReport { return f.last }

// decoded mirrors APIResponse with a raw payload.
type decoded struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func newTestServer(t *testing.T, store StatusStore, ctrl SyncController) http.Handler {
	t.Helper()
	cfg := DefaultMiddlewareConfig()
	cfg.RateLimitRequests = 0
	h := NewHandler(catalog.Default(), store, ctrl, func() string { return "closed" })
	return NewRouter(h, cfg)
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, decoded) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body decoded
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s %s: %v\n%s", method, target, err, rec.Body.String())
		}
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{"database reachable", nil, http.StatusOK, "ok"},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeStatusStore{pingErr: tt.pingErr}, nil)
			rec, body := do(t, srv, http.MethodGet, "/healthz")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var hr HealthResponse
			if err := json.Unmarshal(body.Data, &hr); err != nil {
				t.Fatal(err)
			}
			if hr.Status != tt.wantBody {
				t.Errorf("health status = %q, want %q", hr.Status, tt.wantBody)
			}
		})
	}
}

func TestSyncStatus(t *testing.T) {
	last := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	msg := "fetch daily_stress failed after 6 attempt(s)"
	store := &fakeStatusStore{marks: []database.Watermark{
		{Endpoint: "daily_sleep", LastSyncDate: &last, RecordCount: 3, UpdatedAt: time.Now()},
		{Endpoint: "daily_stress", LastError: &msg, ConsecutiveFailures: 2},
		{Endpoint: "retired_endpoint", LastSyncDate: &last},
	}}
	start := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	ctrl := &fakeController{
		running: true,
		last: &ingest.PassReport{
			CorrelationID: "abcd1234",
			StartedAt:     start,
			FinishedAt:    start.Add(30 * time.Second),
			Results: []ingest.EndpointResult{
				{Endpoint: "daily_sleep", State: ingest.StateSucceeded, Upserted: 3},
				{Endpoint: "daily_stress", State: ingest.StateFailed},
			},
		},
	}

	rec, body := do(t, newTestServer(t, store, ctrl), http.MethodGet, "/api/v1/sync/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp StatusResponse
	if err := json.Unmarshal(body.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.PassRunning || resp.BreakerState != "closed" {
		t.Errorf("pass_running = %v breaker = %q", resp.PassRunning, resp.BreakerState)
	}
	if got, want := len(resp.Endpoints), catalog.Default().Len()+1; got != want {
		t.Fatalf("endpoints = %d, want %d", got, want)
	}
	if resp.Endpoints[len(resp.Endpoints)-1].Endpoint != "retired_endpoint" {
		t.Error("orphan sync_log row not listed last")
	}

	byName := make(map[string]EndpointStatus)
	for _, e := range resp.Endpoints {
		byName[e.Endpoint] = e
	}
	if s := byName["daily_sleep"]; !s.Synced || s.LastSyncDate == nil || *s.LastSyncDate != "2025-06-14" {
		t.Errorf("daily_sleep = %+v", s)
	}
	if s := byName["daily_stress"]; s.Synced || s.ConsecutiveFailures != 2 || s.LastError == nil {
		t.Errorf("daily_stress = %+v", s)
	}
	if s := byName["workout"]; s.Synced || s.LastSyncDate != nil {
		t.Errorf("never-synced workout = %+v", s)
	}

	if resp.LastPass == nil || resp.LastPass.Records != 3 || len(resp.LastPass.Failed) != 1 || resp.LastPass.DurationSeconds != 30 {
		t.Errorf("last_pass = %+v", resp.LastPass)
	}
}

func TestSyncStatus_StoreError(t *testing.T) {
	store := &fakeStatusStore{listErr: errors.New("relation sync_log does not exist")}
	rec, body := do(t, newTestServer(t, store, nil), http.MethodGet, "/api/v1/sync/status")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if body.Success || body.Error == nil || body.Error.Code != CodeUnavailable {
		t.Errorf("body = %+v", body)
	}
	if strings.Contains(rec.Body.String(), "sync_log does not exist") {
		t.Error("internal error leaked to the client")
	}
}

func TestSyncHistory(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantLimit  int
	}{
		{"default limit", "/api/v1/sync/history/sleep", http.StatusOK, database.DefaultHistoryLimit},
		{"explicit limit", "/api/v1/sync/history/sleep?limit=5", http.StatusOK, 5},
		{"limit not a number", "/api/v1/sync/history/sleep?limit=ten", http.StatusBadRequest, 0},
		{"limit too large", "/api/v1/sync/history/sleep?limit=501", http.StatusBadRequest, 0},
		{"limit zero", "/api/v1/sync/history/sleep?limit=0", http.StatusBadRequest, 0},
		{"invalid name", "/api/v1/sync/history/Sleep-Data", http.StatusBadRequest, 0},
		{"unknown endpoint", "/api/v1/sync/history/heart_rate", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStatusStore{history: []database.Attempt{
				{ID: 2, Endpoint: "sleep", Status: database.StatusSuccess, RecordCount: 4},
			}}
			rec, body := do(t, newTestServer(t, store, nil), http.MethodGet, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				if store.gotEndpoint != "" {
					t.Error("store queried for a rejected request")
				}
				return
			}
			if store.gotEndpoint != "sleep" || store.gotLimit != tt.wantLimit {
				t.Errorf("query = (%q, %d), want (sleep, %d)", store.gotEndpoint, store.gotLimit, tt.wantLimit)
			}
			var attempts []database.Attempt
			if err := json.Unmarshal(body.Data, &attempts); err != nil {
				t.Fatal(err)
			}
			if len(attempts) != 1 || body.Meta == nil || body.Meta.Count == nil || *body.Meta.Count != 1 {
				t.Errorf("attempts = %+v meta = %+v", attempts, body.Meta)
			}
		})
	}
}

func TestSyncHistory_EmptyIsArray(t *testing.T) {
	rec, body := do(t, newTestServer(t, &fakeStatusStore{}, nil), http.MethodGet, "/api/v1/sync/history/workout")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if string(body.Data) != "[]" {
		t.Errorf("data = %s, want []", body.Data)
	}
}

func TestEndpoints(t *testing.T) {
	rec, body := do(t, newTestServer(t, &fakeStatusStore{}, nil), http.MethodGet, "/api/v1/endpoints")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var infos []EndpointInfo
	if err := json.Unmarshal(body.Data, &infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != catalog.Default().Len() {
		t.Fatalf("endpoints = %d", len(infos))
	}
	for _, info := range infos {
		if info.Name == "workout" && (info.KeyField != "id" || len(info.Columns) == 0) {
			t.Errorf("workout = %+v", info)
		}
	}
}

func TestTriggerSync(t *testing.T) {
	tests := []struct {
		name       string
		ctrl       *fakeController
		wantStatus int
		wantCode   string
	}{
		{"accepted", &fakeController{}, http.StatusAccepted, ""},
		{"already running", &fakeController{triggerErr: ingest.ErrPassInProgress}, http.StatusConflict, CodeConflict},
		{"unexpected error", &fakeController{triggerErr: errors.New("boom")}, http.StatusInternalServerError, CodeInternal},
		{"no scheduler", nil, http.StatusServiceUnavailable, CodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctrl SyncController
			if tt.ctrl != nil {
				ctrl = tt.ctrl
			}
			rec, body := do(t, newTestServer(t, &fakeStatusStore{}, ctrl), http.MethodPost, "/api/v1/sync/trigger")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" && (body.Error == nil || body.Error.Code != tt.wantCode) {
				t.Errorf("error = %+v, want code %s", body.Error, tt.wantCode)
			}
			if tt.ctrl != nil && tt.ctrl.triggers != 1 {
				t.Errorf("triggers = %d, want 1", tt.ctrl.triggers)
			}
		})
	}
}

func TestTriggerSync_GetNotAllowed(t *testing.T) {
	rec, _ := do(t, newTestServer(t, &fakeStatusStore{}, &fakeController{}), http.MethodGet, "/api/v1/sync/trigger")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
