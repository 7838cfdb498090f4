// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MaximeMichaud/oura-dashboard/internal/logging"
)

// SQLSTATE codes the sync engine distinguishes.
const (
	CodeCheckViolation   = "23514"
	CodeUniqueViolation  = "23505"
	CodeNotNullViolation = "23502"
	CodeForeignKey       = "23503"
	CodeUndefinedTable   = "42P01"
)

// Error type labels for metrics.
const (
	ErrorTypeConstraint = "constraint"
	ErrorTypeConnection = "connection"
	ErrorTypeSchema     = "schema"
	ErrorTypeCancelled  = "cancelled"
	ErrorTypeOther      = "other"
)

// PersistenceError reports a failed write or read against PostgreSQL. It is
// fatal to the endpoint attempt that produced it.
type PersistenceError struct {
	Op    string
	Table string
	// Code is the PostgreSQL SQLSTATE, empty when the failure happened
	// before the server answered.
	Code string
	Err  error
}

func (e *PersistenceError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.Table != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Table)
	}
	if e.Code != "" {
		fmt.Fprintf(&sb, " (SQLSTATE %s)", e.Code)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Type returns the metrics label for the failure class.
func (e *PersistenceError) Type() string {
	return classify(e.Code, e.Err)
}

// IsPersistenceError reports whether err is (or wraps) a *PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// wrapError builds a *PersistenceError, lifting the SQLSTATE out of a
// *pgconn.PgError when the server reported one. nil stays nil.
func wrapError(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var existing *PersistenceError
	if errors.As(err, &existing) {
		return err
	}
	return &PersistenceError{Op: op, Table: table, Code: sqlState(err), Err: err}
}

// sqlState extracts the SQLSTATE from err, or "".
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func classify(code string, err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeCancelled
	case strings.HasPrefix(code, "23"):
		return ErrorTypeConstraint
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "57P"):
		return ErrorTypeConnection
	case strings.HasPrefix(code, "42"):
		return ErrorTypeSchema
	case code == "" && pgconn.SafeToRetry(err):
		return ErrorTypeConnection
	default:
		return ErrorTypeOther
	}
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this for cleanup in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() //nolint:errcheck // cleanup path
	}
}
