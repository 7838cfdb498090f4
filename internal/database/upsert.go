// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

/*
upsert.go - Idempotent Entity Writes

Rows for one endpoint are written with multi-row
INSERT ... ON CONFLICT (key) DO UPDATE statements, one transaction per batch.
Every non-key column is overwritten and updated_at is refreshed, so replaying
a window with identical data changes nothing but timestamps.

Batching:
  - Duplicate keys are collapsed first; the last occurrence wins. PostgreSQL
    rejects a statement that touches the same row twice.
  - Batch size is the configured size, lowered when the column count would
    push a statement past the bind parameter limit.
  - Batches commit independently. On failure the rows of earlier batches stay
    written and their count is returned with the error.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MaximeMichaud/oura-dashboard/internal/catalog"
	"github.com/MaximeMichaud/oura-dashboard/internal/database/query"
	"github.com/MaximeMichaud/oura-dashboard/internal/logging"
	"github.com/MaximeMichaud/oura-dashboard/internal/mapping"
	"github.com/MaximeMichaud/oura-dashboard/internal/metrics"
)

// Upsert writes rows into the endpoint's table and returns how many distinct
// rows were committed.
func (db *DB) Upsert(ctx context.Context, desc *catalog.Descriptor, rows []mapping.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := desc.Validate(); err != nil {
		return 0, &PersistenceError{Op: "upsert", Table: desc.Table, Err: err}
	}

	rows = dedupeRows(rows)
	columns := desc.Columns()
	size := effectiveBatchSize(db.batchSize, len(columns))

	written := 0
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		batch := rows[start:end]

		if err := db.upsertBatch(ctx, desc, columns, batch); err != nil {
			return written, err
		}
		written += len(batch)
	}

	logging.Ctx(ctx).Debug().
		Str("endpoint", desc.Name).
		Str("table", desc.Table).
		Int("rows", written).
		Msg("Upserted rows")

	return written, nil
}

func (db *DB) upsertBatch(ctx context.Context, desc *catalog.Descriptor, columns []string, batch []mapping.Row) error {
	stmt, args, err := buildUpsert(desc, columns, batch)
	if err != nil {
		return &PersistenceError{Op: "upsert", Table: desc.Table, Err: err}
	}

	metrics.SyncBatchSize.Observe(float64(len(batch)))

	start := time.Now()
	err = db.Transaction(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, stmt, args...)
		return execErr
	})
	err = wrapError("upsert", desc.Table, err)
	recordQuery("upsert", desc.Table, start, err)
	return err
}

// buildUpsert renders one batch in column order.
func buildUpsert(desc *catalog.Descriptor, columns []string, batch []mapping.Row) (string, []any, error) {
	ub := query.NewUpsertBuilder(desc.Table, desc.KeyField, columns)
	values := make([]any, len(columns))
	for i := range batch {
		for c, col := range columns {
			values[c] = batch[i].Values[col]
		}
		ub.AddRow(values...)
	}
	stmt, args, err := ub.Build()
	if err != nil {
		return "", nil, fmt.Errorf("build upsert: %w", err)
	}
	return stmt, args, nil
}

// dedupeRows collapses rows sharing a key. The survivor keeps the position of
// the first occurrence and the values of the last.
func dedupeRows(rows []mapping.Row) []mapping.Row {
	index := make(map[string]int, len(rows))
	out := make([]mapping.Row, 0, len(rows))
	for _, r := range rows {
		k := r.KeyString()
		if i, ok := index[k]; ok {
			out[i] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

func effectiveBatchSize(configured, width int) int {
	if configured < 1 {
		configured = DefaultBatchSize
	}
	if limit := query.MaxRowsPerStatement(width); limit > 0 && configured > limit {
		return limit
	}
	return configured
}
