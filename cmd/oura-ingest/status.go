// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/MaximeMichaud/oura-dashboard/internal/database"
	"github.com/MaximeMichaud/oura-dashboard/internal/logging"
)

type statusOptions struct {
	JSON bool
}

func newStatusCommand() *cobra.Command {
	opts := &statusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print per-endpoint watermarks",
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

			marks, err := db.ListWatermarks(ctx)
			if err != nil {
				return wrapExit(ExitFailure, "list watermarks", err)
			}
			if opts.JSON {
				return writeStatusJSON(cmd.OutOrStdout(), marks)
			}
			return writeStatusTable(cmd.OutOrStdout(), marks)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print JSON instead of a table")
	return cmd
}

func writeStatusJSON(w io.Writer, marks []database.Watermark) error {
	if marks == nil {
		marks = []database.Watermark{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(marks)
}

func writeStatusTable(w io.Writer, marks []database.Watermark) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENDPOINT\tLAST SYNC\tRECORDS\tFAILURES\tLAST ERROR")
	for i := range marks {
		m := &marks[i]
		last := "never"
		if m.LastSyncDate != nil {
			last = m.LastSyncDate.Format(time.DateOnly)
		}
		lastErr := "-"
		if m.LastError != nil && *m.LastError != "" {
			lastErr = *m.LastError
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", m.Endpoint, last, m.RecordCount, m.ConsecutiveFailures, lastErr)
	}
	return tw.Flush()
}
