// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package query

import (
	"errors"
	"fmt"
	"strings"
)

// MaxParams is the PostgreSQL limit on bind parameters per statement.
const MaxParams = 65535

// UpdatedAtColumn is refreshed on every conflict update.
const UpdatedAtColumn = "updated_at"

var (
	// ErrNoRows is returned by Build when no row was added.
	ErrNoRows = errors.New("upsert has no rows")
	// ErrTooManyParams is returned when a batch exceeds MaxParams.
	ErrTooManyParams = errors.New("upsert exceeds the bind parameter limit")
)

// UpsertBuilder builds one multi-row INSERT ... ON CONFLICT DO UPDATE.
type UpsertBuilder struct {
	table   string
	key     string
	columns []string
	args    []any
	rows    int
}

// NewUpsertBuilder creates a builder for table with conflict target key.
// columns must include key.
func NewUpsertBuilder(table, key string, columns []string) *UpsertBuilder {
	return &UpsertBuilder{
		table:   table,
		key:     key,
		columns: columns,
	}
}

// AddRow appends one row; values follow the column order given to
// NewUpsertBuilder.
func (ub *UpsertBuilder) AddRow(values ...any) *UpsertBuilder {
	ub.args = append(ub.args, values...)
	ub.rows++
	return ub
}

// Len returns the number of rows added.
func (ub *UpsertBuilder) Len() int {
	return ub.rows
}

// Build returns the statement and its arguments.
func (ub *UpsertBuilder) Build() (string, []any, error) {
	if ub.rows == 0 {
		return "", nil, ErrNoRows
	}
	width := len(ub.columns)
	if width == 0 || len(ub.args) != ub.rows*width {
		return "", nil, fmt.Errorf("upsert %s: %d values for %d rows of %d columns", ub.table, len(ub.args), ub.rows, width)
	}
	if len(ub.args) > MaxParams {
		return "", nil, fmt.Errorf("upsert %s: %d parameters: %w", ub.table, len(ub.args), ErrTooManyParams)
	}

	keyFound := false
	quoted := make([]string, width)
	for i, c := range ub.columns {
		quoted[i] = Ident(c)
		if c == ub.key {
			keyFound = true
		}
	}
	if !keyFound {
		return "", nil, fmt.Errorf("upsert %s: key column %q not among columns", ub.table, ub.key)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(Ident(ub.table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES ")

	n := 1
	for r := 0; r < ub.rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := 0; c < width; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", n)
			n++
		}
		sb.WriteByte(')')
	}

	sb.WriteString(" ON CONFLICT (")
	sb.WriteString(Ident(ub.key))
	sb.WriteString(") DO UPDATE SET ")
	for _, c := range ub.columns {
		if c == ub.key {
			continue
		}
		q := Ident(c)
		sb.WriteString(q)
		sb.WriteString(" = EXCLUDED.")
		sb.WriteString(q)
		sb.WriteString(", ")
	}
	sb.WriteString(Ident(UpdatedAtColumn))
	sb.WriteString(" = now()")

	return sb.String(), ub.args, nil
}

// MaxRowsPerStatement returns how many rows of width columns fit under
// MaxParams.
func MaxRowsPerStatement(width int) int {
	if width <= 0 {
		return 0
	}
	return MaxParams / width
}
