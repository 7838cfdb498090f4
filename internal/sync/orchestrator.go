// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

/*
orchestrator.go - One Sync Pass Over the Endpoint Catalog

Each endpoint attempt walks a small state machine:

	Pending -> Fetching <-> Mapping -> Persisting -> Succeeded
	                ^                       |
	                +-----------------------+
	(any non-terminal state) -> Failed

Pending computes the window from the watermark. Fetching pulls the next record
from the lazy page sequence. Mapping turns it into a row, or counts it as
skipped. Every BatchSize rows the attempt moves to Persisting, upserts the
batch, and returns to Fetching. When the sequence ends cleanly the last batch
is upserted and the watermark committed. Only a Succeeded attempt advances the
watermark; rows of earlier batches stay written when a later step fails.

Failure handling:
  - A failed attempt is recorded in sync_log and sync_history with a context
    detached from cancellation, so shutdown still leaves it on record.
  - One endpoint's failure never stops the others; RunPass finishes the list
    and reports per endpoint. Cancellation is the exception: the endpoint in
    flight is recorded as failed and the rest are left untouched.
  - HTTP 401 is logged with operator_action_required=true. The token has to
    be replaced by hand.

After the endpoints, RunPass refreshes the sleep_primary view and touches the
healthcheck sentinel. Neither can fail the pass.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog"

	"github.com/MaximeMichaud/oura-dashboard/internal/catalog"
	"github.com/MaximeMichaud/oura-dashboard/internal/database"
	"github.com/MaximeMichaud/oura-dashboard/internal/logging"
	"github.com/MaximeMichaud/oura-dashboard/internal/mapping"
	"github.com/MaximeMichaud/oura-dashboard/internal/metrics"
	"github.com/MaximeMichaud/oura-dashboard/internal/oura"
)

// Error type labels used in logs and metrics.
const (
	ErrorTypeFetch       = "fetch"
	ErrorTypePersistence = "persistence"
	ErrorTypeCancelled   = "cancelled"
	ErrorTypeInternal    = "internal"
)

// DefaultRecordTimeout bounds the bookkeeping writes of a failed attempt.
const DefaultRecordTimeout = 10 * time.Second

const unauthorizedHint = "the Oura access token was rejected; replace OURA_TOKEN with a new personal access token"

// Fetcher produces the raw records of one endpoint window.
type Fetcher interface {
	FetchWindow(ctx context.Context, desc *catalog.Descriptor, from, to time.Time) iter.Seq2[oura.Record, error]
}

// Upserter writes mapped rows idempotently.
type Upserter interface {
	Upsert(ctx context.Context, desc *catalog.Descriptor, rows []mapping.Row) (int, error)
}

// WatermarkStore reads and commits per-endpoint sync state.
type WatermarkStore interface {
	Window(ctx context.Context, endpoint string, now, historyStart time.Time, overlapDays int) (database.Window, error)
	CommitSuccess(ctx context.Context, endpoint string, syncDate time.Time, recordCount int) error
	CommitFailure(ctx context.Context, endpoint, message string) (int, error)
}

// HistoryRecorder appends attempt records.
type HistoryRecorder interface {
	RecordAttempt(ctx context.Context, a database.Attempt) error
}

// ViewRefresher rebuilds read projections after a pass.
type ViewRefresher interface {
	RefreshSleepPrimary(ctx context.Context) error
}

// Store is everything the orchestrator persists through. *database.DB
// implements it.
type Store interface {
	Upserter
	WatermarkStore
	HistoryRecorder
	ViewRefresher
}

// Options configures an Orchestrator.
type Options struct {
	HistoryStart      time.Time
	OverlapDays       int
	StalenessWarnDays int
	// SentinelPath is touched after every pass; empty disables it.
	SentinelPath string
	// BatchSize is the number of mapped rows per upsert; defaults to
	// database.DefaultBatchSize.
	BatchSize int
	// RecordTimeout bounds failure bookkeeping after cancellation.
	RecordTimeout time.Duration
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Orchestrator runs sync passes.
type Orchestrator struct {
	catalog *catalog.Catalog
	fetcher Fetcher
	store   Store
	opts    Options
}

// NewOrchestrator creates an orchestrator over cat.
func NewOrchestrator(cat *catalog.Catalog, fetcher Fetcher, store Store, opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = database.DefaultBatchSize
	}
	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = DefaultRecordTimeout
	}
	return &Orchestrator{
		catalog: cat,
		fetcher: fetcher,
		store:   store,
		opts:    opts,
	}
}

// EndpointResult is the outcome of one endpoint attempt.
type EndpointResult struct {
	Endpoint string
	State    State
	Window   database.Window
	// Mapped counts rows produced by the mapper; it is the record count
	// committed on success.
	Mapped int
	// Upserted is the number of rows written, including the rows of earlier
	// batches when a later step failed.
	Upserted int
	// Skipped counts records dropped by the mapper.
	Skipped  int
	Duration time.Duration
	Err      error
	// ErrorType is one of the ErrorType* labels, empty on success.
	ErrorType string
	// ConsecutiveFailures is the streak after this attempt.
	ConsecutiveFailures int
}

// Succeeded reports whether the attempt committed.
func (r *EndpointResult) Succeeded() bool {
	return r.State == StateSucceeded
}

// PassReport summarizes one pass.
type PassReport struct {
	CorrelationID string
	StartedAt     time.Time
	FinishedAt    time.Time
	Results       []EndpointResult
	// NotAttempted lists endpoints skipped because the pass was cancelled.
	NotAttempted []string
}

// Failed returns the results of failed attempts.
func (p *PassReport) Failed() []EndpointResult {
	var out []EndpointResult
	for _, r := range p.Results {
		if !r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// HasFailures reports whether any endpoint failed.
func (p *PassReport) HasFailures() bool {
	return len(p.Failed()) > 0
}

// TotalUpserted sums rows written across endpoints.
func (p *PassReport) TotalUpserted() int {
	total := 0
	for _, r := range p.Results {
		total += r.Upserted
	}
	return total
}

// Duration returns the wall time of the pass.
func (p *PassReport) Duration() time.Duration {
	return p.FinishedAt.Sub(p.StartedAt)
}

// Resolve returns descriptors for names in the given order, or every catalog
// endpoint when names is empty. An unknown name fails before any work.
func (o *Orchestrator) Resolve(names []string) ([]catalog.Descriptor, error) {
	if len(names) == 0 {
		return o.catalog.All(), nil
	}
	descs := make([]catalog.Descriptor, 0, len(names))
	for _, name := range names {
		desc, err := o.catalog.Describe(name)
		if err != nil {
			return nil, err
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

// RunPass syncs the named endpoints (all when empty) one after another. The
// only error is an unknown endpoint name; endpoint failures are in the
// report.
func (o *Orchestrator) RunPass(ctx context.Context, names []string) (*PassReport, error) {
	descs, err := o.Resolve(names)
	if err != nil {
		return nil, err
	}

	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	log := logging.Ctx(ctx)

	report := &PassReport{
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		StartedAt:     o.opts.Now(),
		Results:       make([]EndpointResult, 0, len(descs)),
	}
	log.Info().Int("endpoints", len(descs)).Msg("Sync pass started")

	for i := range descs {
		if ctx.Err() != nil {
			for _, d := range descs[i:] {
				report.NotAttempted = append(report.NotAttempted, d.Name)
			}
			log.Warn().Strs("endpoints", report.NotAttempted).Msg("Pass cancelled, remaining endpoints not attempted")
			break
		}
		report.Results = append(report.Results, o.SyncEndpoint(ctx, &descs[i]))
	}

	o.afterPass(ctx)

	report.FinishedAt = o.opts.Now()
	failed := len(report.Failed())
	metrics.RecordSyncPass(report.Duration(), failed)

	event := log.Info()
	if failed > 0 {
		event = log.Warn()
	}
	event.
		Int("endpoints", len(report.Results)).
		Int("failed", failed).
		Int("records", report.TotalUpserted()).
		Dur("duration", report.Duration()).
		Msg("Sync pass complete")

	return report, nil
}

// afterPass refreshes the view and touches the sentinel. Failures are logged
// only.
func (o *Orchestrator) afterPass(ctx context.Context) {
	log := logging.Ctx(ctx)

	if ctx.Err() == nil {
		if err := o.store.RefreshSleepPrimary(ctx); err != nil {
			log.Warn().Err(err).Str("view", database.SleepPrimaryView).Msg("Could not refresh materialized view")
		} else {
			log.Debug().Str("view", database.SleepPrimaryView).Msg("Refreshed materialized view")
		}
	}

	if o.opts.SentinelPath != "" {
		if err := touchSentinel(o.opts.SentinelPath, o.opts.Now()); err != nil {
			log.Debug().Err(err).Str("path", o.opts.SentinelPath).Msg("Could not write sentinel file")
		}
	}
}

// SyncEndpoint runs one attempt for desc and records its outcome. It never
// panics on endpoint failures and never returns an error; the result carries
// it.
func (o *Orchestrator) SyncEndpoint(ctx context.Context, desc *catalog.Descriptor) EndpointResult {
	start := time.Now()
	log := logging.CtxWith(ctx).Str("endpoint", desc.Name).Logger()

	res := EndpointResult{Endpoint: desc.Name, State: StatePending}
	st := &attemptState{current: StatePending}

	fail := func(err error) EndpointResult {
		if tErr := st.transition(StateFailed); tErr != nil {
			err = errors.Join(err, tErr)
		}
		res.State = st.current
		res.Err = err
		res.ErrorType = errorType(err)
		res.Duration = time.Since(start)
		o.recordFailure(ctx, &log, &res)
		return res
	}

	// Pending: window from the watermark.
	win, err := o.store.Window(ctx, desc.Name, o.opts.Now(), o.opts.HistoryStart, o.opts.OverlapDays)
	if err != nil {
		return fail(fmt.Errorf("compute window: %w", err))
	}
	res.Window = win
	metrics.SyncWindowDays.WithLabelValues(desc.Name).Set(float64(win.Days()))
	o.warnIfStale(&log, win)

	log.Info().
		Str("from", win.From.Format(time.DateOnly)).
		Str("to", win.To.Format(time.DateOnly)).
		Msg("Fetching window")

	batch := make([]mapping.Row, 0, o.opts.BatchSize)
	flush := func() error {
		if err := st.transition(StatePersisting); err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		written, err := o.store.Upsert(ctx, desc, batch)
		res.Upserted += written
		batch = batch[:0]
		return err
	}

	if err := st.transition(StateFetching); err != nil {
		return fail(err)
	}
	for rec, fetchErr := range o.fetcher.FetchWindow(ctx, desc, win.From, win.To) {
		if fetchErr != nil {
			return fail(fetchErr)
		}

		if err := st.transition(StateMapping); err != nil {
			return fail(err)
		}
		row, mapErr := mapping.Map(desc, rec)
		if mapErr != nil {
			res.Skipped++
			log.Warn().Err(mapErr).Msg("Skipping record that could not be mapped")
		} else {
			res.Mapped++
			batch = append(batch, row)
		}

		if len(batch) >= o.opts.BatchSize {
			if err := flush(); err != nil {
				return fail(err)
			}
			log.Debug().Int("records", res.Upserted).Msg("Persisted batch")
		}
		if err := st.transition(StateFetching); err != nil {
			return fail(err)
		}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	if err := flush(); err != nil {
		return fail(err)
	}
	if err := o.store.CommitSuccess(ctx, desc.Name, win.To, res.Mapped); err != nil {
		return fail(fmt.Errorf("commit watermark: %w", err))
	}

	if err := st.transition(StateSucceeded); err != nil {
		return fail(err)
	}
	res.State = st.current
	res.Duration = time.Since(start)

	if err := o.store.RecordAttempt(ctx, database.Attempt{
		Endpoint:        desc.Name,
		RecordCount:     res.Mapped,
		DurationSeconds: res.Duration.Seconds(),
		Status:          database.StatusSuccess,
	}); err != nil {
		log.Warn().Err(err).Msg("Could not record sync history")
	}

	metrics.RecordEndpointSuccess(desc.Name, res.Duration, res.Upserted, res.Skipped)
	log.Info().
		Int("records", res.Mapped).
		Int("skipped", res.Skipped).
		Dur("duration", res.Duration).
		Msg("Endpoint synced")

	return res
}

// recordFailure writes the failure to sync_log and sync_history. It uses a
// context that survives cancellation of ctx.
func (o *Orchestrator) recordFailure(ctx context.Context, log *zerolog.Logger, res *EndpointResult) {
	message := res.Err.Error()
	event := log.Error().Err(res.Err).Str("error_type", res.ErrorType)
	if oura.IsUnauthorized(res.Err) {
		message = message + "; " + unauthorizedHint
		event = event.Bool("operator_action_required", true)
	}
	event.Int("records", res.Upserted).Dur("duration", res.Duration).Msg("Endpoint sync failed")

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.RecordTimeout)
	defer cancel()

	streak, err := o.store.CommitFailure(rctx, res.Endpoint, message)
	if err != nil {
		log.Error().Err(err).Msg("Could not record failure in sync_log")
	}
	res.ConsecutiveFailures = streak

	if err := o.store.RecordAttempt(rctx, database.Attempt{
		Endpoint:        res.Endpoint,
		RecordCount:     res.Upserted,
		DurationSeconds: res.Duration.Seconds(),
		Status:          database.StatusError,
		ErrorMessage:    &message,
	}); err != nil {
		log.Error().Err(err).Msg("Could not record sync history")
	}

	metrics.RecordEndpointFailure(res.Endpoint, res.Duration, res.ErrorType, streak)
}

func (o *Orchestrator) warnIfStale(log *zerolog.Logger, win database.Window) {
	if o.opts.StalenessWarnDays <= 0 {
		return
	}
	gap := win.Days() - 1
	if gap > o.opts.StalenessWarnDays {
		log.Warn().
			Int("gap_days", gap).
			Int("threshold_days", o.opts.StalenessWarnDays).
			Msg("Sync gap: endpoint is behind")
	}
}

// errorType maps an attempt error to its metrics label.
func errorType(err error) string {
	var fetchErr *oura.FetchError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeCancelled
	case errors.As(err, &fetchErr):
		return ErrorTypeFetch
	case database.IsPersistenceError(err):
		return ErrorTypePersistence
	default:
		return ErrorTypeInternal
	}
}
