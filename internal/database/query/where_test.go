// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package query

import (
	"testing"
	"time"
)

func TestWhereBuilder_Empty(t *testing.T) {
	wb := NewWhereBuilder()

	if !wb.IsEmpty() {
		t.Error("Expected new builder to be empty")
	}
	if wb.Count() != 0 {
		t.Errorf("Expected count 0, got %d", wb.Count())
	}

	whereClause, args := wb.Build()
	if whereClause != "TRUE" {
		t.Errorf("Expected 'TRUE' for empty builder, got %q", whereClause)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestWhereBuilder_NumberedPlaceholders(t *testing.T) {
	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	wb := NewWhereBuilder().
		AddEquals("endpoint", "sleep").
		AddIn("status", []string{"success", "failure"}).
		AddSince("started_at", since)

	whereClause, args := wb.BuildWithPrefix()
	expected := `WHERE "endpoint" = $1 AND "status" IN ($2, $3) AND "started_at" >= $4`
	if whereClause != expected {
		t.Errorf("Expected %q, got %q", expected, whereClause)
	}
	if len(args) != 4 {
		t.Fatalf("Expected 4 args, got %d", len(args))
	}
	if args[0] != "sleep" || args[3] != since {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestWhereBuilder_SkipsEmptyFilters(t *testing.T) {
	wb := NewWhereBuilder().
		AddEquals("endpoint", "").
		AddIn("status", nil).
		AddSince("started_at", time.Time{})

	if !wb.IsEmpty() {
		t.Errorf("Expected empty builder, got %d clauses", wb.Count())
	}
}

func TestWhereBuilder_NextPlaceholder(t *testing.T) {
	wb := NewWhereBuilder().AddEquals("endpoint", "workout")
	whereClause, _ := wb.Build()
	limit := wb.NextPlaceholder(50)

	if whereClause != `"endpoint" = $1` {
		t.Errorf("Unexpected clause %q", whereClause)
	}
	if limit != "$2" {
		t.Errorf("Expected $2, got %s", limit)
	}
	if got := len(wb.Args()); got != 2 {
		t.Errorf("Expected 2 args, got %d", got)
	}
}

func TestIdent_Quotes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"day", `"day"`},
		{"type", `"type"`},
		{`bad"name`, `"bad""name"`},
	}
	for _, tt := range tests {
		if got := Ident(tt.in); got != tt.want {
			t.Errorf("Ident(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
