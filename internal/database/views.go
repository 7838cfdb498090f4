// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package database

import (
	"context"
	"time"

	"github.com/MaximeMichaud/oura-dashboard/internal/database/query"
	"github.com/MaximeMichaud/oura-dashboard/internal/metrics"
)

// SleepPrimaryView holds the longest sleep session of each day.
const SleepPrimaryView = "sleep_primary"

// RefreshSleepPrimary rebuilds the sleep_primary projection without blocking
// readers. It relies on the unique index idx_sleep_primary_day.
func (db *DB) RefreshSleepPrimary(ctx context.Context) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, "REFRESH MATERIALIZED VIEW CONCURRENTLY "+query.Ident(SleepPrimaryView))
	err = wrapError("refresh view", SleepPrimaryView, err)

	recordQuery("refresh_view", SleepPrimaryView, start, err)
	metrics.RecordViewRefresh(SleepPrimaryView, err)
	return err
}
