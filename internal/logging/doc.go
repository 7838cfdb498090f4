// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

// Package logging holds the zerolog logger shared by oura-ingest.
//
// cmd/oura-ingest calls Init once with the LOG_LEVEL, LOG_FORMAT and
// LOG_CALLER settings from internal/config. Everything else logs through the
// package helpers:
//
//	logging.Info().Str("endpoint", "daily_sleep").Int("records", n).Msg("Endpoint synced")
//
// A sync pass runs under its own correlation ID so the lines of one pass,
// including every retry and breaker transition of the Oura client, can be
// grepped together. Requests on the status API carry a request ID instead:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("Sync pass started")
//
// NewSlogLogger bridges the same output to log/slog for the suture
// supervisor, so service restarts appear next to sync events.
package logging
