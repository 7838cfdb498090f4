// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

/*
Package services adapts ingest components to suture.Service.

  - SyncService: wraps the Start/Stop lifecycle of sync.Manager
  - HTTPServerService: wraps *http.Server with graceful shutdown

Each wrapper returns ctx.Err() on a requested shutdown and a wrapped error
on failure, which tells the supervisor to restart it.
*/
package services
