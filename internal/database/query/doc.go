// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

// Package query provides SQL building utilities for the database package.
//
// Every builder emits PostgreSQL positional placeholders ($1, $2, ...) and
// quotes identifiers with pgx.Identifier, so table and column names taken
// from the endpoint catalog never reach the SQL text unescaped.
//
// # WhereBuilder
//
// Fluent construction of parameterized WHERE clauses:
//
//	wb := query.NewWhereBuilder()
//	wb.AddEquals("endpoint", "sleep")
//	wb.AddEquals("status", "failure")
//	where, args := wb.BuildWithPrefix()
//	// WHERE "endpoint" = $1 AND "status" = $2
//
// # UpsertBuilder
//
// Multi-row INSERT ... ON CONFLICT DO UPDATE for one batch:
//
//	ub := query.NewUpsertBuilder("daily_sleep", "day", []string{"day", "score"})
//	ub.AddRow(day1, 81)
//	ub.AddRow(day2, 77)
//	sql, args, err := ub.Build()
//	// INSERT INTO "daily_sleep" ("day", "score") VALUES ($1, $2), ($3, $4)
//	// ON CONFLICT ("day") DO UPDATE SET "score" = EXCLUDED."score", "updated_at" = now()
//
// PostgreSQL caps a statement at 65535 bind parameters; MaxRowsPerStatement
// reports how many rows of a given width fit.
//
// # Thread Safety
//
// Builders are not thread-safe. Create a new instance per statement.
package query
