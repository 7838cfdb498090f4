// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package main

import (
	"github.com/spf13/cobra"

	"github.com/MaximeMichaud/oura-dashboard/internal/database"
	"github.com/MaximeMichaud/oura-dashboard/internal/logging"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := database.Open(ctx, &cfg.Database)
			if err != nil {
				return wrapExit(ExitFailure, "database", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					logging.Error().Err(err).Msg("Error closing database")
				}
			}()

			if err := db.Migrate(ctx); err != nil {
				return wrapExit(ExitFailure, "migrate", err)
			}
			logging.Info().Msg("Migrations applied")
			return nil
		},
	}
}
