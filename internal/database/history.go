// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MaximeMichaud/oura-dashboard/internal/database/query"
)

const syncHistoryTable = "sync_history"

// Attempt statuses stored in sync_history.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultHistoryLimit caps RecentHistory when no limit is given.
const DefaultHistoryLimit = 50

// Attempt is one append-only sync_history row.
type Attempt struct {
	ID              int64     `json:"id"`
	Endpoint        string    `json:"endpoint"`
	SyncedAt        time.Time `json:"synced_at"`
	RecordCount     int       `json:"record_count"`
	DurationSeconds float64   `json:"duration_seconds"`
	Status          string    `json:"status"`
	ErrorMessage    *string   `json:"error_message"`
}

// RecordAttempt appends an attempt. Rows are never updated.
func (db *DB) RecordAttempt(ctx context.Context, a Attempt) error {
	if a.Status != StatusSuccess && a.Status != StatusError {
		return &PersistenceError{Op: "record attempt", Table: syncHistoryTable,
			Err: fmt.Errorf("invalid status %q", a.Status)}
	}

	var msg sql.NullString
	if a.ErrorMessage != nil {
		msg = sql.NullString{String: truncateMessage(*a.ErrorMessage), Valid: true}
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sync_history (endpoint, record_count, duration_seconds, status, error_message)
		VALUES ($1, $2, $3, $4, $5)`,
		a.Endpoint, a.RecordCount, a.DurationSeconds, a.Status, msg)

	err = wrapError("record attempt", syncHistoryTable, err)
	recordQuery("record_attempt", syncHistoryTable, start, err)
	return err
}

// RecentHistory returns the newest attempts first. An empty endpoint returns
// attempts across all endpoints; limit <= 0 uses DefaultHistoryLimit.
func (db *DB) RecentHistory(ctx context.Context, endpoint string, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	wb := query.NewWhereBuilder().AddEquals("endpoint", endpoint)
	where, _ := wb.BuildWithPrefix()
	stmt := fmt.Sprintf(`
		SELECT id, endpoint, synced_at, record_count, duration_seconds, status, error_message
		FROM sync_history
		%s
		ORDER BY synced_at DESC, id DESC
		LIMIT %s`, where, wb.NextPlaceholder(limit))

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, stmt, wb.Args()...)
	if err != nil {
		err = wrapError("recent history", syncHistoryTable, err)
		recordQuery("recent_history", syncHistoryTable, start, err)
		return nil, err
	}
	defer closeWithLog(rows, "rows")

	out := make([]Attempt, 0, limit)
	for rows.Next() {
		var (
			a   Attempt
			msg sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Endpoint, &a.SyncedAt, &a.RecordCount,
			&a.DurationSeconds, &a.Status, &msg); err != nil {
			err = wrapError("recent history", syncHistoryTable, err)
			recordQuery("recent_history", syncHistoryTable, start, err)
			return nil, err
		}
		if msg.Valid {
			a.ErrorMessage = &msg.String
		}
		out = append(out, a)
	}

	err = wrapError("recent history", syncHistoryTable, rows.Err())
	recordQuery("recent_history", syncHistoryTable, start, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}
