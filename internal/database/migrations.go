// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgx5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/MaximeMichaud/oura-dashboard/internal/logging"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrNoDSN is returned by Migrate on a DB built with New instead of Open.
var ErrNoDSN = errors.New("migrations need a DB opened with database.Open")

// migrateLogger routes golang-migrate output through zerolog.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	logging.Info().Str("component", "migrate").Msgf(format, v...)
}

func (migrateLogger) Verbose() bool {
	return false
}

// Migrate applies every pending embedded migration. It runs on a dedicated
// pool because closing the migrator closes the pool it was given.
func (db *DB) Migrate(ctx context.Context) error {
	if db.dsn == "" {
		return ErrNoDSN
	}

	m, err := db.newMigrator()
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logging.Warn().AnErr("source_error", srcErr).AnErr("db_error", dbErr).Msg("Failed to close migrator")
		}
	}()
	m.Log = migrateLogger{}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logging.Info().Uint("version", version).Bool("dirty", dirty).Msg("Database schema up to date")
	return nil
}

// MigrationVersion reports the applied schema version. ok is false on an
// empty database.
func (db *DB) MigrationVersion() (version uint, dirty, ok bool, err error) {
	if db.dsn == "" {
		return 0, false, false, ErrNoDSN
	}
	m, err := db.newMigrator()
	if err != nil {
		return 0, false, false, err
	}
	defer m.Close() //nolint:errcheck // read-only use

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, true, nil
}

func (db *DB) newMigrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	conn, err := sql.Open(driverName, db.dsn)
	if err != nil {
		closeQuietly(src)
		return nil, fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, err := pgx5.WithInstance(conn, &pgx5.Config{})
	if err != nil {
		closeQuietly(src)
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		closeQuietly(src)
		closeQuietly(driver)
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}
