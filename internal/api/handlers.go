// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MaximeMichaud/oura-dashboard/internal/catalog"
	"github.com/MaximeMichaud/oura-dashboard/internal/database"
	ingest "github.com/MaximeMichaud/oura-dashboard/internal/sync"
	"github.com/MaximeMichaud/oura-dashboard/internal/validation"
)

// healthTimeout bounds the database ping of /healthz.
const healthTimeout = 2 * time.Second

// StatusStore is the read side of the database. *database.DB implements it.
type StatusStore interface {
	Ping(ctx context.Context) error
	ListWatermarks(ctx context.Context) ([]database.Watermark, error)
	RecentHistory(ctx context.Context, endpoint string, limit int) ([]database.Attempt, error)
}

// SyncController exposes the scheduler. *sync.Manager implements it.
type SyncController interface {
	TriggerSync() error
	IsPassRunning() bool
	LastPass() *ingest.PassReport
}

// Handler serves the status routes.
type Handler struct {
	catalog *catalog.Catalog
	store   StatusStore
	sync    SyncController
	// breakerState reports the upstream circuit breaker; may be nil.
	breakerState func() string
}

// NewHandler creates a Handler. controller may be nil, in which case the
// trigger route answers 503.
func NewHandler(cat *catalog.Catalog, store StatusStore, controller SyncController, breakerState func() string) *Handler {
	return &Handler{
		catalog:      cat,
		store:        store,
		sync:         controller,
		breakerState: breakerState,
	}
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Healthz pings the database.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respondJSON(w, r, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unreachable"})
		return
	}
	respondJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}

// EndpointStatus is one endpoint's row of the status response.
type EndpointStatus struct {
	Endpoint            string     `json:"endpoint"`
	Synced              bool       `json:"synced"`
	LastSyncDate        *string    `json:"last_sync_date"`
	RecordCount         int        `json:"record_count"`
	LastError           *string    `json:"last_error"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastSuccessAt       *time.Time `json:"last_success_at"`
	UpdatedAt           *time.Time `json:"updated_at"`
}

// PassSummary describes the last completed pass.
type PassSummary struct {
	CorrelationID   string    `json:"correlation_id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	Records         int       `json:"records"`
	Failed          []string  `json:"failed"`
	NotAttempted    []string  `json:"not_attempted,omitempty"`
}

// StatusResponse is the body of /api/v1/sync/status.
type StatusResponse struct {
	PassRunning  bool             `json:"pass_running"`
	BreakerState string           `json:"breaker_state,omitempty"`
	LastPass     *PassSummary     `json:"last_pass"`
	Endpoints    []EndpointStatus `json:"endpoints"`
}

// SyncStatus reports every catalog endpoint's watermark, including
// endpoints that have never synced.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	marks, err := h.store.ListWatermarks(r.Context())
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "Could not read sync state", err)
		return
	}

	resp := StatusResponse{Endpoints: endpointStatuses(h.catalog, marks)}
	if h.breakerState != nil {
		resp.BreakerState = h.breakerState()
	}
	if h.sync != nil {
		resp.PassRunning = h.sync.IsPassRunning()
		resp.LastPass = summarize(h.sync.LastPass())
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// endpointStatuses lists catalog endpoints in catalog order, then any
// sync_log rows for endpoints no longer in the catalog.
func endpointStatuses(cat *catalog.Catalog, marks []database.Watermark) []EndpointStatus {
	byName := make(map[string]database.Watermark, len(marks))
	for _, wm := range marks {
		byName[wm.Endpoint] = wm
	}

	out := make([]EndpointStatus, 0, cat.Len())
	for _, name := range cat.Names() {
		wm, ok := byName[name]
		if !ok {
			out = append(out, EndpointStatus{Endpoint: name})
			continue
		}
		out = append(out, toEndpointStatus(wm))
		delete(byName, name)
	}
	for _, wm := range marks {
		if _, orphan := byName[wm.Endpoint]; orphan {
			out = append(out, toEndpointStatus(wm))
		}
	}
	return out
}

func toEndpointStatus(wm database.Watermark) EndpointStatus {
	s := EndpointStatus{
		Endpoint:            wm.Endpoint,
		Synced:              wm.LastSyncDate != nil,
		RecordCount:         wm.RecordCount,
		LastError:           wm.LastError,
		ConsecutiveFailures: wm.ConsecutiveFailures,
		LastSuccessAt:       wm.LastSuccessAt,
	}
	if wm.LastSyncDate != nil {
		d := wm.LastSyncDate.Format(time.DateOnly)
		s.LastSyncDate = &d
	}
	if !wm.UpdatedAt.IsZero() {
		updated := wm.UpdatedAt
		s.UpdatedAt = &updated
	}
	return s
}

func summarize(p *ingest.PassReport) *PassSummary {
	if p == nil {
		return nil
	}
	failed := make([]string, 0)
	for _, r := range p.Failed() {
		failed = append(failed, r.Endpoint)
	}
	return &PassSummary{
		CorrelationID:   p.CorrelationID,
		StartedAt:       p.StartedAt,
		FinishedAt:      p.FinishedAt,
		DurationSeconds: p.Duration().Seconds(),
		Records:         p.TotalUpserted(),
		Failed:          failed,
		NotAttempted:    p.NotAttempted,
	}
}

// historyRequest holds the validated parameters of the history route.
type historyRequest struct {
	Endpoint string `validate:"required,identifier"`
	Limit    int    `validate:"min=1,max=500"`
}

// SyncHistory lists recent attempts of one endpoint, newest first.
func (h *Handler) SyncHistory(w http.ResponseWriter, r *http.Request) {
	req := historyRequest{
		Endpoint: chi.URLParam(r, "endpoint"),
		Limit:    database.DefaultHistoryLimit,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "limit must be an integer", nil)
			return
		}
		req.Limit = n
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondValidationError(w, r, err)
		return
	}
	if _, err := h.catalog.Describe(req.Endpoint); err != nil {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Unknown endpoint "+strconv.Quote(req.Endpoint), nil)
		return
	}

	attempts, err := h.store.RecentHistory(r.Context(), req.Endpoint, req.Limit)
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "Could not read sync history", err)
		return
	}
	respondList(w, r, attempts)
}

// EndpointInfo describes one catalog entry.
type EndpointInfo struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	Table     string   `json:"table"`
	Key       string   `json:"key"`
	KeyField  string   `json:"key_field"`
	DateField string   `json:"date_field"`
	Columns   []string `json:"columns"`
}

// Endpoints lists the catalog.
func (h *Handler) Endpoints(w http.ResponseWriter, r *http.Request) {
	descs := h.catalog.All()
	out := make([]EndpointInfo, len(descs))
	for i := range descs {
		d := &descs[i]
		out[i] = EndpointInfo{
			Name:      d.Name,
			Path:      d.Path,
			Table:     d.Table,
			Key:       d.Key.String(),
			KeyField:  d.KeyField,
			DateField: d.DateField,
			Columns:   d.Columns(),
		}
	}
	respondList(w, r, out)
}

// TriggerSync starts a pass in the background: 202 when started, 409 when
// one is already running.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "Scheduler is not running", nil)
		return
	}

	err := h.sync.TriggerSync()
	switch {
	case errors.Is(err, ingest.ErrPassInProgress):
		respondError(w, r, http.StatusConflict, CodeConflict, "A sync pass is already running", nil)
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "Could not start sync", err)
	default:
		respondJSON(w, r, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}
