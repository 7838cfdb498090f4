// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync results used as label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oura_db_query_duration_seconds",
			Help:    "Duration of PostgreSQL statements in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_db_query_errors_total",
			Help: "Total number of failed PostgreSQL statements",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBConnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oura_db_connect_attempts_total",
			Help: "Total number of database connection attempts at startup",
		},
	)

	// Upstream API Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_api_requests_total",
			Help: "Total number of Oura API page requests",
		},
		[]string{"endpoint", "status"}, // status: HTTP code or "error"
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oura_api_request_duration_seconds",
			Help:    "Oura API page request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_api_retries_total",
			Help: "Total number of retried Oura API page requests",
		},
		[]string{"endpoint"},
	)

	// Sync Operation Metrics
	SyncPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oura_sync_pass_duration_seconds",
			Help:    "Duration of complete sync passes in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // a full backfill can take minutes
		},
	)

	SyncPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_sync_passes_total",
			Help: "Total number of sync passes",
		},
		[]string{"result"}, // "success" when every endpoint succeeded
	)

	SyncEndpointDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oura_sync_endpoint_duration_seconds",
			Help:    "Duration of one endpoint attempt in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint"},
	)

	SyncEndpointAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_sync_endpoint_attempts_total",
			Help: "Total number of endpoint attempts by outcome",
		},
		[]string{"endpoint", "result"},
	)

	SyncRecordsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_sync_records_upserted_total",
			Help: "Total number of rows upserted",
		},
		[]string{"endpoint"},
	)

	SyncRecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_sync_records_skipped_total",
			Help: "Total number of records dropped because they could not be mapped",
		},
		[]string{"endpoint"},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_sync_errors_total",
			Help: "Total number of failed endpoint attempts",
		},
		[]string{"endpoint", "error_type"}, // "fetch", "persistence", "cancelled", "internal"
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oura_sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful attempt per endpoint",
		},
		[]string{"endpoint"},
	)

	SyncConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oura_sync_consecutive_failures",
			Help: "Consecutive failed attempts per endpoint",
		},
		[]string{"endpoint"},
	)

	SyncBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oura_sync_batch_size",
			Help:    "Number of rows in upsert batches",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 5000},
		},
	)

	SyncWindowDays = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oura_sync_window_days",
			Help: "Length in days of the last computed fetch window",
		},
		[]string{"endpoint"},
	)

	ViewRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_view_refreshes_total",
			Help: "Total number of materialized view refreshes",
		},
		[]string{"view", "result"},
	)

	// Status API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oura_status_requests_total",
			Help: "Total number of status API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oura_status_request_duration_seconds",
			Help:    "Status API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oura_status_active_requests",
			Help: "Current number of in-flight status API requests",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database statement metric
func RecordDBQuery(operation, table string, duration time.Duration, err error, errorType string) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		if errorType == "" {
			errorType = "unknown"
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordUpstreamRequest records one Oura API page request
func RecordUpstreamRequest(endpoint, status string, duration time.Duration) {
	UpstreamRequests.WithLabelValues(endpoint, status).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordEndpointSuccess records a successful endpoint attempt.
func RecordEndpointSuccess(endpoint string, duration time.Duration, upserted, skipped int) {
	SyncEndpointDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	SyncEndpointAttempts.WithLabelValues(endpoint, ResultSuccess).Inc()
	SyncRecordsUpserted.WithLabelValues(endpoint).Add(float64(upserted))
	if skipped > 0 {
		SyncRecordsSkipped.WithLabelValues(endpoint).Add(float64(skipped))
	}
	SyncLastSuccess.WithLabelValues(endpoint).Set(float64(time.Now().Unix()))
	SyncConsecutiveFailures.WithLabelValues(endpoint).Set(0)
}

// RecordEndpointFailure records a failed endpoint attempt. consecutive is the
// failure streak after this attempt, or 0 when it could not be recorded.
func RecordEndpointFailure(endpoint string, duration time.Duration, errorType string, consecutive int) {
	SyncEndpointDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	SyncEndpointAttempts.WithLabelValues(endpoint, ResultFailure).Inc()
	SyncErrors.WithLabelValues(endpoint, errorType).Inc()
	if consecutive > 0 {
		SyncConsecutiveFailures.WithLabelValues(endpoint).Set(float64(consecutive))
	}
}

// RecordSyncPass records a complete pass over the requested endpoints
func RecordSyncPass(duration time.Duration, failed int) {
	SyncPassDuration.Observe(duration.Seconds())
	if failed > 0 {
		SyncPasses.WithLabelValues(ResultFailure).Inc()
		return
	}
	SyncPasses.WithLabelValues(ResultSuccess).Inc()
}

// RecordViewRefresh records a materialized view refresh
func RecordViewRefresh(view string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	ViewRefreshes.WithLabelValues(view, result).Inc()
}

// RecordAPIRequest records a status API request metric
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}
