// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/MaximeMichaud/oura-dashboard/internal/config"
	"github.com/MaximeMichaud/oura-dashboard/internal/logging"
	"github.com/MaximeMichaud/oura-dashboard/internal/metrics"
)

const (
	driverName = "pgx"

	// DefaultBatchSize is the number of rows per upsert transaction.
	DefaultBatchSize = 500

	pingTimeout = 5 * time.Second
)

// DB wraps the PostgreSQL connection pool and provides the sync engine's
// persistence operations.
type DB struct {
	conn      *sql.DB
	dsn       string
	batchSize int
}

// Open opens a pool through the pgx stdlib driver and waits until the server
// answers a ping. The wait gives up after cfg.ConnectRetries attempts spaced
// cfg.ConnectRetryDelay apart.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := waitForDB(ctx, conn, cfg.ConnectRetries, cfg.ConnectRetryDelay); err != nil {
		closeQuietly(conn)
		return nil, err
	}

	logging.Info().
		Str("dsn", cfg.RedactedDSN()).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Connected to PostgreSQL")

	db := New(conn)
	db.dsn = cfg.DSN()
	return db, nil
}

// New wraps an existing pool. Used by tests and tools that manage their own
// connection.
func New(conn *sql.DB) *DB {
	return &DB{conn: conn, batchSize: DefaultBatchSize}
}

// waitForDB pings until the server answers or the attempts run out.
func waitForDB(ctx context.Context, conn *sql.DB, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		metrics.DBConnectAttempts.Inc()

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = conn.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		logging.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("Database not ready")

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for database: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("database not ready after %d attempts: %w", attempts, lastErr)
}

// SetBatchSize sets the rows per upsert transaction. Values below 1 restore
// DefaultBatchSize.
func (db *DB) SetBatchSize(n int) {
	if n < 1 {
		n = DefaultBatchSize
	}
	db.batchSize = n
}

// BatchSize returns the rows per upsert transaction.
func (db *DB) BatchSize() int {
	return db.batchSize
}

// Conn returns the underlying pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Transaction runs fn inside a transaction, committing on success and rolling
// back when fn returns an error.
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
