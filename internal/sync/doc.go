// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

/*
Package sync orchestrates incremental synchronization from the Oura API into
PostgreSQL.

Key Components:

  - Orchestrator: runs one pass over the endpoint catalog. Each endpoint
    attempt computes its window from the watermark, fetches every page,
    maps records to rows, upserts them, and commits the watermark.
  - Manager: the scheduler. Periodic mode repeats passes on an interval
    without overlap; once mode runs a single pass; TriggerSync starts a pass
    on demand.

Collaborators are interfaces (Fetcher, Upserter, WatermarkStore,
HistoryRecorder, ViewRefresher) implemented by *oura.Client and
*database.DB, so tests drive the orchestrator with in-memory fakes.

Failure Isolation:

A malformed record is skipped and counted. A fetch or persistence failure
fails only that endpoint's attempt: the failure streak and message go to
sync_log, an error row goes to sync_history, and the watermark date stays
where it was. The pass continues with the next endpoint.

Usage Example:

	orch := sync.NewOrchestrator(catalog.Default(), client, db, sync.Options{
	    HistoryStart: start,
	    OverlapDays:  2,
	    SentinelPath: "/tmp/oura-last-sync",
	})
	mgr := sync.NewManager(orch, 30*time.Minute, nil)

	report, err := mgr.RunOnce(ctx, "")
	if err != nil {
	    return err // unknown endpoint
	}
	if report.HasFailures() {
	    os.Exit(1)
	}
*/
package sync
