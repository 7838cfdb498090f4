// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// WhereBuilder constructs SQL WHERE clauses with numbered arguments.
//
// Example usage:
//
//	wb := query.NewWhereBuilder()
//	wb.AddEquals("endpoint", "sleep")
//	wb.AddSince("started_at", since)
//	whereClause, args := wb.Build()
//	// "endpoint" = $1 AND "started_at" >= $2
type WhereBuilder struct {
	clauses []string
	args    []any
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []any{},
	}
}

// next returns the placeholder for the next argument and records it.
func (wb *WhereBuilder) next(arg any) string {
	wb.args = append(wb.args, arg)
	return fmt.Sprintf("$%d", len(wb.args))
}

// AddEquals adds `column = $n`. An empty string value is skipped so optional
// filters can be passed through unconditionally.
func (wb *WhereBuilder) AddEquals(column string, value any) *WhereBuilder {
	if s, ok := value.(string); ok && s == "" {
		return wb
	}
	wb.clauses = append(wb.clauses, Ident(column)+" = "+wb.next(value))
	return wb
}

// AddIn adds `column IN ($n, ...)`. An empty list is skipped.
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = wb.next(v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", Ident(column), strings.Join(placeholders, ", ")))
	return wb
}

// AddSince adds `column >= $n`. A zero time is skipped.
func (wb *WhereBuilder) AddSince(column string, since time.Time) *WhereBuilder {
	if since.IsZero() {
		return wb
	}
	wb.clauses = append(wb.clauses, Ident(column)+" >= "+wb.next(since))
	return wb
}

// Build returns the clauses joined with AND, or "TRUE" when empty, along
// with the arguments in placeholder order.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.clauses) == 0 {
		return "TRUE", []any{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with "WHERE " prefix.
func (wb *WhereBuilder) BuildWithPrefix() (string, []any) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// NextPlaceholder reserves a placeholder for an argument appended after the
// WHERE clause, such as a LIMIT.
func (wb *WhereBuilder) NextPlaceholder(arg any) string {
	return wb.next(arg)
}

// Args returns the accumulated arguments.
func (wb *WhereBuilder) Args() []any {
	return wb.args
}

// Count returns the number of clauses added to the builder.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}

// Ident quotes a single SQL identifier.
func Ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
