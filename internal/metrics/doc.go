// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

/*
Package metrics provides Prometheus collectors for the sync engine.

All collectors are registered on the default registry through promauto and are
exposed by the status server at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Upstream API:
  - oura_api_requests_total: page requests (counter)
    Labels: endpoint, status (HTTP code or "error")
  - oura_api_request_duration_seconds: page latency (histogram)
  - oura_api_retries_total: retried page requests (counter)

Sync:
  - oura_sync_pass_duration_seconds: full pass duration (histogram)
  - oura_sync_passes_total: passes by result (counter)
  - oura_sync_endpoint_duration_seconds: one endpoint attempt (histogram)
  - oura_sync_endpoint_attempts_total: attempts by endpoint and result (counter)
  - oura_sync_records_upserted_total / oura_sync_records_skipped_total (counters)
  - oura_sync_errors_total: failures by endpoint and error_type
    (fetch, persistence, cancelled, internal)
  - oura_sync_last_success_timestamp: Unix time of last success (gauge)
  - oura_sync_consecutive_failures: failure streak (gauge)
  - oura_sync_batch_size: rows per upsert batch (histogram)
  - oura_sync_window_days: length of the last fetch window (gauge)
  - oura_view_refreshes_total: materialized view refreshes by result

Database:
  - oura_db_query_duration_seconds: statement time by operation and table
  - oura_db_query_errors_total: failures labelled with the SQLSTATE class
  - oura_db_connect_attempts_total: connection attempts at startup

Circuit Breaker:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_requests_total: success, failure, rejected
  - circuit_breaker_consecutive_failures (gauge)
  - circuit_breaker_state_transitions_total

Status API:
  - oura_status_requests_total, oura_status_request_duration_seconds,
    oura_status_active_requests

# Example Alerts

	- alert: OuraSyncFailing
	  expr: oura_sync_consecutive_failures > 3
	  for: 1h

	- alert: OuraSyncStale
	  expr: time() - oura_sync_last_success_timestamp > 86400
*/
package metrics
