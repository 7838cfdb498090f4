// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestContextWithNewCorrelationID(t *testing.T) {
	t.Parallel()

	a := CorrelationIDFromContext(ContextWithNewCorrelationID(context.Background()))
	b := CorrelationIDFromContext(ContextWithNewCorrelationID(context.Background()))
	if len(a) != 8 {
		t.Errorf("correlation id length = %d, want 8", len(a))
	}
	if a == b {
		t.Error("correlation ids should be unique")
	}
	if NewRequestID() == NewRequestID() {
		t.Error("request ids should be unique")
	}
}

func TestContextIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" {
		t.Fatal("empty context should carry no ids")
	}

	ctx = ContextWithCorrelationID(ctx, "abc12345")
	ctx = ContextWithRequestID(ctx, "req-1")
	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("correlation id = %q", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("request id = %q", got)
	}

	if CorrelationIDFromContext(ContextWithNewCorrelationID(context.Background())) == "" {
		t.Error("ContextWithNewCorrelationID should set an id")
	}
}

func TestCtx_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { SetLogger(prev) })

	ctx := ContextWithCorrelationID(context.Background(), "pass0001")
	ctx = ContextWithRequestID(ctx, "req-42")

	Ctx(ctx).Info().Msg("with ids")
	endpointLogger := CtxWith(ctx).Str("endpoint", "sleep").Logger()
	endpointLogger.Info().Msg("with endpoint")

	output := buf.String()
	for _, want := range []string{`"correlation_id":"pass0001"`, `"request_id":"req-42"`, `"endpoint":"sleep"`} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %s: %s", want, output)
		}
	}
}

func TestCtx_NoIDs(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { SetLogger(prev) })

	Ctx(context.Background()).Info().Msg("plain")

	if strings.Contains(buf.String(), "correlation_id") {
		t.Errorf("unexpected correlation id: %s", buf.String())
	}
}
