// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

/*
Package database is the PostgreSQL persistence layer of the sync engine.

It opens a database/sql pool through the pgx stdlib driver, applies the
embedded golang-migrate schema, and implements the three stores the sync
orchestrator writes to:

  - Upserter: Upsert writes mapped rows into an endpoint's table with
    INSERT ... ON CONFLICT DO UPDATE, one transaction per batch.
  - WatermarkStore: ReadWatermark, Window, CommitSuccess, and CommitFailure
    maintain one sync_log row per endpoint. ComputeWindow is the pure window
    rule used by Window.
  - SyncHistoryRecorder: RecordAttempt appends to sync_history and
    RecentHistory reads it back for diagnostics.

After a pass, RefreshSleepPrimary rebuilds the sleep_primary materialized
view read by the dashboard.

# Errors

Every failed statement is returned as a *PersistenceError carrying the
operation, the table, and the SQLSTATE when PostgreSQL reported one:

	var pe *database.PersistenceError
	if errors.As(err, &pe) && pe.Code == database.CodeCheckViolation {
	    // a value outside an enumerated set
	}

# Usage

	db, err := database.Open(ctx, &cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
	    return err
	}

	win, err := db.Window(ctx, "daily_sleep", time.Now(), start, 2)
*/
package database
