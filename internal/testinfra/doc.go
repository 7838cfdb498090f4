// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

// Package testinfra starts the PostgreSQL server the storage integration tests
// run against.
//
// The database package's unit tests cover statement building only. Upsert
// conflict handling, watermark commits, the score CHECK constraints and the
// sleep_primary materialized view need a real server, so StartPostgres runs
// one in a container with testcontainers-go and hands back connection
// settings for database.Open:
//
//	pg := testinfra.StartPostgres(t)
//	cfg := pg.DatabaseConfig()
//	db, err := database.Open(ctx, &cfg)
//
// Every file is behind the integration build tag (go test -tags integration)
// and tests skip when no Docker daemon answers.
package testinfra
