// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

/*
Package config loads and validates the ingest service configuration.

# Configuration Sources

Layers, lowest priority first:
  - built-in defaults (defaultConfig)
  - an optional YAML file: $CONFIG_PATH, config.yaml, config.yml,
    /etc/oura-ingest/config.yaml
  - environment variables, mapped through an explicit table

# Environment Variables

Oura API (OuraConfig):
  - OURA_TOKEN: personal access token (required to sync)
  - OURA_API_BASE_URL: default https://api.ouraring.com/v2/usercollection
  - OURA_HTTP_TIMEOUT: per-request timeout (default: 30s)
  - OURA_REQUESTS_PER_SECOND / OURA_REQUEST_BURST: throttle (default: 5/5)
  - OURA_MAX_ATTEMPTS: attempts per page (default: 6)
  - OURA_RETRY_BASE_DELAY / OURA_RETRY_MAX_DELAY: backoff bounds (2s / 120s)
  - OURA_RETRY_AFTER_CAP: ceiling for Retry-After waits (default: 300s)
  - OURA_RATE_LIMIT_DELAY: wait after a 429 without Retry-After (default: 60s)
  - OURA_SKIP_NOT_FOUND: treat HTTP 404 as an empty window (default: false)

PostgreSQL (DatabaseConfig):
  - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER, POSTGRES_PASSWORD
  - POSTGRES_SSLMODE (default: disable)
  - DB_CONNECT_RETRIES / DB_CONNECT_RETRY_DELAY: startup wait (30 / 2s)
  - DB_AUTO_MIGRATE: apply migrations on startup (default: false)

Sync (SyncConfig):
  - HISTORY_START_DATE: first day of the backfill (default: 2020-01-01)
  - SYNC_INTERVAL_MINUTES: scheduler period (default: 30)
  - OVERLAP_DAYS: days re-fetched behind the watermark (default: 2)
  - SYNC_BATCH_SIZE: rows per upsert transaction (default: 500)
  - SYNC_SENTINEL_PATH: file touched after each pass (default: /tmp/oura-last-sync)
  - SYNC_STALENESS_WARN_DAYS: warn when a window starts further back (default: 3)
  - SYNC_ENDPOINTS: comma-separated subset of endpoints (default: all)

Status server (ServerConfig):
  - HTTP_ENABLED, HTTP_HOST, HTTP_PORT (default: true, 0.0.0.0, 8080)
  - CORS_ORIGINS: comma-separated (default: *)
  - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW (default: 60 per 1m)

Logging (LoggingConfig):
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    return err
	}
	if err := cfg.ValidateForSync(); err != nil {
	    return err // missing OURA_TOKEN
	}
*/
package config
