// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapError_LiftsSQLState(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: CodeCheckViolation, Message: "new row violates check constraint"}
	err := wrapError("upsert", "workout", fmt.Errorf("exec: %w", pgErr))

	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PersistenceError, got %T", err)
	}
	if pe.Code != CodeCheckViolation {
		t.Errorf("Code = %q, want %q", pe.Code, CodeCheckViolation)
	}
	if pe.Type() != ErrorTypeConstraint {
		t.Errorf("Type() = %q, want %q", pe.Type(), ErrorTypeConstraint)
	}
	if !errors.Is(err, pgErr) {
		t.Error("PersistenceError should unwrap to the driver error")
	}
	want := "upsert workout (SQLSTATE 23514): exec: " + pgErr.Error()
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapError_NilAndIdempotent(t *testing.T) {
	t.Parallel()

	if err := wrapError("op", "t", nil); err != nil {
		t.Errorf("wrapError(nil) = %v", err)
	}

	inner := &PersistenceError{Op: "inner", Err: errors.New("x")}
	if got := wrapError("outer", "t", inner); got != inner {
		t.Errorf("wrapError re-wrapped an existing PersistenceError: %v", got)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code string
		err  error
		want string
	}{
		{"check violation", CodeCheckViolation, errors.New("x"), ErrorTypeConstraint},
		{"unique violation", CodeUniqueViolation, errors.New("x"), ErrorTypeConstraint},
		{"connection failure", "08006", errors.New("x"), ErrorTypeConnection},
		{"admin shutdown", "57P01", errors.New("x"), ErrorTypeConnection},
		{"undefined table", CodeUndefinedTable, errors.New("x"), ErrorTypeSchema},
		{"cancelled", "", context.Canceled, ErrorTypeCancelled},
		{"deadline", "", fmt.Errorf("q: %w", context.DeadlineExceeded), ErrorTypeCancelled},
		{"unknown", "XX000", errors.New("x"), ErrorTypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.code, tt.err); got != tt.want {
				t.Errorf("classify(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestIsPersistenceError(t *testing.T) {
	t.Parallel()

	if IsPersistenceError(errors.New("plain")) {
		t.Error("plain error reported as PersistenceError")
	}
	wrapped := fmt.Errorf("sync: %w", &PersistenceError{Op: "upsert", Err: errors.New("x")})
	if !IsPersistenceError(wrapped) {
		t.Error("wrapped PersistenceError not detected")
	}
}
