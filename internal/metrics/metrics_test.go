// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordDBQuery tests database statement metric recording
func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		table      string
		err        error
		errorType  string
		wantErrors float64
		wantLabel  string
	}{
		{
			name:      "successful upsert",
			operation: "upsert",
			table:     "test_ok_table",
		},
		{
			name:       "check violation",
			operation:  "upsert",
			table:      "test_check_table",
			err:        errors.New("violates check constraint"),
			errorType:  "23514",
			wantErrors: 1,
			wantLabel:  "23514",
		},
		{
			name:       "unclassified failure",
			operation:  "select",
			table:      "test_unknown_table",
			err:        errors.New("boom"),
			wantErrors: 1,
			wantLabel:  "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordDBQuery(tt.operation, tt.table, 5*time.Millisecond, tt.err, tt.errorType)

			if tt.wantErrors == 0 {
				return
			}
			got := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.table, tt.wantLabel))
			if got != tt.wantErrors {
				t.Errorf("DBQueryErrors = %v, want %v", got, tt.wantErrors)
			}
		})
	}
}

func TestRecordUpstreamRequest(t *testing.T) {
	before := testutil.ToFloat64(UpstreamRequests.WithLabelValues("test_upstream", "429"))

	RecordUpstreamRequest("test_upstream", "429", 120*time.Millisecond)
	RecordUpstreamRequest("test_upstream", "429", 80*time.Millisecond)

	if got := testutil.ToFloat64(UpstreamRequests.WithLabelValues("test_upstream", "429")); got != before+2 {
		t.Errorf("UpstreamRequests = %v, want %v", got, before+2)
	}
}

func TestRecordEndpointOutcomes(t *testing.T) {
	const endpoint = "test_endpoint_outcomes"

	RecordEndpointFailure(endpoint, time.Second, "fetch", 1)
	RecordEndpointFailure(endpoint, time.Second, "fetch", 2)

	if got := testutil.ToFloat64(SyncConsecutiveFailures.WithLabelValues(endpoint)); got != 2 {
		t.Errorf("consecutive failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(SyncErrors.WithLabelValues(endpoint, "fetch")); got != 2 {
		t.Errorf("SyncErrors = %v, want 2", got)
	}

	RecordEndpointSuccess(endpoint, time.Second, 42, 3)

	if got := testutil.ToFloat64(SyncConsecutiveFailures.WithLabelValues(endpoint)); got != 0 {
		t.Errorf("consecutive failures after success = %v, want 0", got)
	}
	if got := testutil.ToFloat64(SyncRecordsUpserted.WithLabelValues(endpoint)); got != 42 {
		t.Errorf("upserted = %v, want 42", got)
	}
	if got := testutil.ToFloat64(SyncRecordsSkipped.WithLabelValues(endpoint)); got != 3 {
		t.Errorf("skipped = %v, want 3", got)
	}
	if got := testutil.ToFloat64(SyncLastSuccess.WithLabelValues(endpoint)); got <= 0 {
		t.Errorf("last success = %v, want a timestamp", got)
	}
	if got := testutil.ToFloat64(SyncEndpointAttempts.WithLabelValues(endpoint, ResultFailure)); got != 2 {
		t.Errorf("failed attempts = %v, want 2", got)
	}
}

func TestRecordEndpointFailure_UnknownStreakLeavesGauge(t *testing.T) {
	const endpoint = "test_endpoint_streak"

	RecordEndpointFailure(endpoint, time.Second, "persistence", 4)
	RecordEndpointFailure(endpoint, time.Second, "persistence", 0)

	if got := testutil.ToFloat64(SyncConsecutiveFailures.WithLabelValues(endpoint)); got != 4 {
		t.Errorf("consecutive failures = %v, want 4", got)
	}
}

func TestRecordSyncPass(t *testing.T) {
	ok := testutil.ToFloat64(SyncPasses.WithLabelValues(ResultSuccess))
	failed := testutil.ToFloat64(SyncPasses.WithLabelValues(ResultFailure))

	RecordSyncPass(10*time.Second, 0)
	RecordSyncPass(10*time.Second, 2)

	if got := testutil.ToFloat64(SyncPasses.WithLabelValues(ResultSuccess)); got != ok+1 {
		t.Errorf("successful passes = %v, want %v", got, ok+1)
	}
	if got := testutil.ToFloat64(SyncPasses.WithLabelValues(ResultFailure)); got != failed+1 {
		t.Errorf("failed passes = %v, want %v", got, failed+1)
	}
}

func TestRecordViewRefresh(t *testing.T) {
	RecordViewRefresh("test_view", nil)
	RecordViewRefresh("test_view", errors.New("lock timeout"))

	if got := testutil.ToFloat64(ViewRefreshes.WithLabelValues("test_view", ResultSuccess)); got != 1 {
		t.Errorf("successful refreshes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ViewRefreshes.WithLabelValues("test_view", ResultFailure)); got != 1 {
		t.Errorf("failed refreshes = %v, want 1", got)
	}
}

// TestTrackActiveRequest tests active request tracking
func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	RecordDBQuery("select", "test_gather", time.Millisecond, nil, "")
	RecordAPIRequest("GET", "/healthz", "200", time.Millisecond)
	SetAppInfo("test")

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}
