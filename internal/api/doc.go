// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

// Package api serves the read-only status surface of the ingest service.
//
// Every JSON response uses the APIResponse envelope. Requests carry an
// X-Request-ID, generated when absent, which shows up as request_id in
// logs and error bodies. The /api/v1 routes are rate limited per client IP
// with go-chi/httprate. /healthz and /metrics are not.
//
// The surface reads sync_log and sync_history through StatusStore and can
// start a pass through SyncController. It never writes entity tables.
package api
