// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/MaximeMichaud/oura-dashboard/internal/catalog"
	"github.com/MaximeMichaud/oura-dashboard/internal/database"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
		{"exit error", wrapExit(ExitFailure, "sync failed", nil), ExitFailure},
		{"unknown endpoint exit error", wrapExit(ExitUnknownEndpoint, "bad", nil), ExitUnknownEndpoint},
		{"wrapped unknown endpoint", fmt.Errorf("resolve: %w", catalog.ErrUnknownEndpoint), ExitUnknownEndpoint},
		{"wrapped exit error", fmt.Errorf("outer: %w", wrapExit(ExitUnknownEndpoint, "bad", nil)), ExitUnknownEndpoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	err := wrapExit(ExitFailure, "database", errors.New("connection refused"))
	if got := err.Error(); got != "database: connection refused" {
		t.Errorf("Error() = %q", got)
	}
	if got := wrapExit(ExitFailure, "sync failed", nil).Error(); got != "sync failed" {
		t.Errorf("Error() without cause = %q", got)
	}
}

func TestListEndpointsFlag(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--list-endpoints"})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	text := out.String()
	if !strings.HasPrefix(text, "ENDPOINT") {
		t.Errorf("missing header:\n%s", text)
	}
	for _, name := range catalog.Default().Names() {
		if !strings.Contains(text, name) {
			t.Errorf("output missing %q", name)
		}
	}
	if lines := strings.Count(text, "\n"); lines != catalog.Default().Len()+1 {
		t.Errorf("got %d lines, want %d", lines, catalog.Default().Len()+1)
	}
}

func TestRootRejectsArgs(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--list-endpoints", "extra"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for positional argument")
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"migrate", "status"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"once", "endpoint", "list-endpoints"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("flag --%s not registered", flag)
		}
	}
}

func TestSelectEndpoints(t *testing.T) {
	cat := catalog.Default()

	tests := []struct {
		name       string
		configured []string
		flag       string
		want       []string
		wantErr    bool
	}{
		{name: "all by default", want: nil},
		{name: "configured subset", configured: []string{"daily_sleep", "workout"}, want: []string{"daily_sleep", "workout"}},
		{name: "flag wins over config", configured: []string{"daily_sleep"}, flag: "sleep", want: []string{"sleep"}},
		{name: "unknown flag", flag: "heart_rate", wantErr: true},
		{name: "unknown configured", configured: []string{"daily_sleep", "bogus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectEndpoints(cat, tt.configured, tt.flag)
			if tt.wantErr {
				if !errors.Is(err, catalog.ErrUnknownEndpoint) {
					t.Fatalf("err = %v, want ErrUnknownEndpoint", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteStatusTable(t *testing.T) {
	day := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	msg := "oura api: HTTP 500 Internal Server Error"
	marks := []database.Watermark{
		{Endpoint: "daily_sleep", LastSyncDate: &day, RecordCount: 14},
		{Endpoint: "workout", LastError: &msg, ConsecutiveFailures: 3},
	}

	var out bytes.Buffer
	if err := writeStatusTable(&out, marks); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "2025-06-14") || !strings.Contains(lines[1], "14") {
		t.Errorf("daily_sleep row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "never") || !strings.Contains(lines[2], msg) {
		t.Errorf("workout row = %q", lines[2])
	}
}

func TestWriteStatusJSONEmpty(t *testing.T) {
	var out bytes.Buffer
	if err := writeStatusJSON(&out, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got []database.Watermark
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty array", got)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Errorf("output = %q", out.String())
	}
}
