// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package database

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestComputeWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 18, 30, 0, 0, time.UTC)
	historyStart := date(2020, 1, 1)

	tests := []struct {
		name     string
		lastSync *time.Time
		start    time.Time
		overlap  int
		wantFrom time.Time
	}{
		{"no watermark starts at history start", nil, historyStart, 2, historyStart},
		{"watermark minus overlap", datePtr(2025, 6, 10), historyStart, 2, date(2025, 6, 8)},
		{"zero overlap", datePtr(2025, 6, 10), historyStart, 0, date(2025, 6, 10)},
		{"history start wins when later", datePtr(2025, 6, 10), date(2025, 6, 9), 5, date(2025, 6, 9)},
		{"watermark today", datePtr(2025, 6, 15), historyStart, 2, date(2025, 6, 13)},
		{"history start after today clamps to today", nil, date(2025, 7, 1), 2, date(2025, 6, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeWindow(tt.lastSync, now, tt.start, tt.overlap)
			if !w.From.Equal(tt.wantFrom) {
				t.Errorf("From = %s, want %s", w.From.Format(time.DateOnly), tt.wantFrom.Format(time.DateOnly))
			}
			if want := date(2025, 6, 15); !w.To.Equal(want) {
				t.Errorf("To = %s, want %s", w.To.Format(time.DateOnly), want.Format(time.DateOnly))
			}
		})
	}
}

func TestComputeWindow_UsesNowLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC-5", -5*3600)
	// 02:00 UTC on the 16th is still the 15th five hours west.
	now := time.Date(2025, 6, 16, 2, 0, 0, 0, time.UTC).In(loc)

	w := ComputeWindow(nil, now, date(2025, 6, 1), 2)
	if got := w.To.Format(time.DateOnly); got != "2025-06-15" {
		t.Errorf("To = %s, want 2025-06-15", got)
	}
	if w.To.Location() != loc {
		t.Errorf("To location = %s, want %s", w.To.Location(), loc)
	}
}

func TestComputeWindow_OverlapRefetchesRecentDays(t *testing.T) {
	t.Parallel()

	now := date(2025, 3, 10)
	last := date(2025, 3, 10)
	w := ComputeWindow(&last, now, date(2020, 1, 1), 2)

	if got := w.Days(); got != 3 {
		t.Errorf("Days() = %d, want 3", got)
	}
	if got := w.String(); got != "2025-03-08..2025-03-10" {
		t.Errorf("String() = %q", got)
	}
}

func TestWindowDays_AcrossDST(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	w := Window{
		From: time.Date(2025, 11, 1, 0, 0, 0, 0, loc),
		To:   time.Date(2025, 11, 10, 0, 0, 0, 0, loc),
	}
	if got := w.Days(); got != 10 {
		t.Errorf("Days() = %d, want 10", got)
	}
}

func TestTruncateMessage(t *testing.T) {
	t.Parallel()

	short := "boom"
	if got := truncateMessage(short); got != short {
		t.Errorf("truncateMessage(short) = %q", got)
	}

	long := strings.Repeat("é", maxErrorMessageLen)
	got := truncateMessage(long)
	if len(got) > maxErrorMessageLen {
		t.Errorf("len = %d, want <= %d", len(got), maxErrorMessageLen)
	}
	if !utf8.ValidString(got) {
		t.Error("truncated message is not valid UTF-8")
	}
}
