// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

/*
watermark.go - Per-Endpoint Sync State

One sync_log row per endpoint records the last successfully synced calendar
day and the current failure streak.

Rules:
  - CommitSuccess moves last_sync_date with GREATEST(existing, new), so the
    watermark never regresses. The failure streak and last_error are cleared.
  - CommitFailure increments consecutive_failures and stores the message.
    last_sync_date is never touched by a failure.
  - Each commit is one INSERT ... ON CONFLICT statement, so readers see the
    whole old row or the whole new row.

The table's CHECK (consecutive_failures > 0 OR last_error IS NULL) rejects a
row that carries an error without a failure streak.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/MaximeMichaud/oura-dashboard/internal/metrics"
)

const syncLogTable = "sync_log"

// maxErrorMessageLen bounds stored error messages.
const maxErrorMessageLen = 2000

// Watermark is one endpoint's sync state.
type Watermark struct {
	Endpoint            string     `json:"endpoint"`
	LastSyncDate        *time.Time `json:"last_sync_date"` // nil until the first successful pass
	RecordCount         int        `json:"record_count"`
	LastError           *string    `json:"last_error"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastSuccessAt       *time.Time `json:"last_success_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Window is an inclusive range of calendar days to fetch.
type Window struct {
	From time.Time
	To   time.Time
}

// Days returns the number of calendar days covered, counting both ends.
func (w Window) Days() int {
	return int(math.Round(w.To.Sub(w.From).Hours()/24)) + 1
}

// ComputeWindow returns the days to fetch for an endpoint. To is now's
// calendar date. From is historyStart when there is no watermark, otherwise
// the later of historyStart and lastSync minus overlapDays. From never
// exceeds To. All dates are taken in now's location.
func ComputeWindow(lastSync *time.Time, now, historyStart time.Time, overlapDays int) Window {
	loc := now.Location()
	to := calendarDate(now, loc)
	start := calendarDate(historyStart, loc)

	from := start
	if lastSync != nil {
		if candidate := calendarDate(*lastSync, loc).AddDate(0, 0, -overlapDays); candidate.After(start) {
			from = candidate
		}
	}
	if from.After(to) {
		from = to
	}
	return Window{From: from, To: to}
}

// calendarDate keeps t's year, month, and day and drops the clock, placing
// the result at midnight in loc.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ReadWatermark returns the endpoint's state. ok is false when the endpoint
// has never been attempted.
func (db *DB) ReadWatermark(ctx context.Context, endpoint string) (wm Watermark, ok bool, err error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT endpoint, last_sync_date, record_count, last_error,
		       consecutive_failures, last_success_at, updated_at
		FROM sync_log
		WHERE endpoint = $1`, endpoint)

	wm, err = scanWatermark(row)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("read_watermark", syncLogTable, time.Since(start), nil, "")
		return Watermark{}, false, nil
	}
	err = wrapError("read watermark", syncLogTable, err)
	recordQuery("read_watermark", syncLogTable, start, err)
	if err != nil {
		return Watermark{}, false, err
	}
	return wm, true, nil
}

// Window reads the watermark and computes the fetch window for endpoint.
func (db *DB) Window(ctx context.Context, endpoint string, now, historyStart time.Time, overlapDays int) (Window, error) {
	wm, ok, err := db.ReadWatermark(ctx, endpoint)
	if err != nil {
		return Window{}, err
	}
	if !ok {
		return ComputeWindow(nil, now, historyStart, overlapDays), nil
	}
	return ComputeWindow(wm.LastSyncDate, now, historyStart, overlapDays), nil
}

// CommitSuccess records a successful attempt whose window ended on syncDate.
func (db *DB) CommitSuccess(ctx context.Context, endpoint string, syncDate time.Time, recordCount int) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sync_log (endpoint, last_sync_date, record_count, last_error,
		                      consecutive_failures, last_success_at, updated_at)
		VALUES ($1, $2::date, $3, NULL, 0, now(), now())
		ON CONFLICT (endpoint) DO UPDATE SET
			last_sync_date       = GREATEST(sync_log.last_sync_date, EXCLUDED.last_sync_date),
			record_count         = EXCLUDED.record_count,
			last_error           = NULL,
			consecutive_failures = 0,
			last_success_at      = now(),
			updated_at           = now()`,
		endpoint, syncDate.Format(time.DateOnly), recordCount)

	err = wrapError("commit success", syncLogTable, err)
	recordQuery("commit_success", syncLogTable, start, err)
	return err
}

// CommitFailure records a failed attempt and returns the new failure streak.
func (db *DB) CommitFailure(ctx context.Context, endpoint, message string) (int, error) {
	start := time.Now()
	var streak int
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO sync_log (endpoint, record_count, last_error, consecutive_failures, updated_at)
		VALUES ($1, 0, $2, 1, now())
		ON CONFLICT (endpoint) DO UPDATE SET
			last_error           = EXCLUDED.last_error,
			consecutive_failures = sync_log.consecutive_failures + 1,
			updated_at           = now()
		RETURNING consecutive_failures`,
		endpoint, truncateMessage(message)).Scan(&streak)

	err = wrapError("commit failure", syncLogTable, err)
	recordQuery("commit_failure", syncLogTable, start, err)
	if err != nil {
		return 0, err
	}
	return streak, nil
}

// ListWatermarks returns every endpoint's state ordered by endpoint.
func (db *DB) ListWatermarks(ctx context.Context) ([]Watermark, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT endpoint, last_sync_date, record_count, last_error,
		       consecutive_failures, last_success_at, updated_at
		FROM sync_log
		ORDER BY endpoint`)
	if err != nil {
		err = wrapError("list watermarks", syncLogTable, err)
		recordQuery("list_watermarks", syncLogTable, start, err)
		return nil, err
	}
	defer closeWithLog(rows, "rows")

	var out []Watermark
	for rows.Next() {
		wm, scanErr := scanWatermark(rows)
		if scanErr != nil {
			err = wrapError("list watermarks", syncLogTable, scanErr)
			recordQuery("list_watermarks", syncLogTable, start, err)
			return nil, err
		}
		out = append(out, wm)
	}
	err = wrapError("list watermarks", syncLogTable, rows.Err())
	recordQuery("list_watermarks", syncLogTable, start, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWatermark(s scanner) (Watermark, error) {
	var (
		wm          Watermark
		lastSync    sql.NullTime
		lastError   sql.NullString
		lastSuccess sql.NullTime
	)
	if err := s.Scan(&wm.Endpoint, &lastSync, &wm.RecordCount, &lastError,
		&wm.ConsecutiveFailures, &lastSuccess, &wm.UpdatedAt); err != nil {
		return Watermark{}, err
	}
	if lastSync.Valid {
		// DATE arrives as UTC midnight; keep the calendar day in local time.
		d := calendarDate(lastSync.Time.UTC(), time.Local)
		wm.LastSyncDate = &d
	}
	if lastError.Valid {
		wm.LastError = &lastError.String
	}
	if lastSuccess.Valid {
		wm.LastSuccessAt = &lastSuccess.Time
	}
	return wm, nil
}

func truncateMessage(msg string) string {
	if len(msg) <= maxErrorMessageLen {
		return msg
	}
	cut := maxErrorMessageLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

func recordQuery(op, table string, start time.Time, err error) {
	errorType := ""
	var pe *PersistenceError
	if errors.As(err, &pe) {
		errorType = pe.Type()
	}
	metrics.RecordDBQuery(op, table, time.Since(start), err, errorType)
}

// String renders the window for logs.
func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.From.Format(time.DateOnly), w.To.Format(time.DateOnly))
}
