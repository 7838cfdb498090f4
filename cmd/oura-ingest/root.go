// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MaximeMichaud/oura-dashboard/internal/catalog"
)

// rootOptions holds the flags of the root command.
type rootOptions struct {
	Once          bool
	Endpoint      string
	ListEndpoints bool
}

// newRootCommand builds the command tree.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "oura-ingest",
		Short: "Incremental Oura Ring sync into PostgreSQL",
		Long: `Sync Oura Ring biometric data into PostgreSQL.

Without flags, runs one pass immediately and then one pass every
SYNC_INTERVAL_MINUTES, serving the status API on HTTP_PORT.

Example:
  oura-ingest --once
  oura-ingest --once --endpoint daily_sleep
  oura-ingest --list-endpoints`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ListEndpoints {
				return listEndpoints(cmd.OutOrStdout(), catalog.Default())
			}
			return runIngest(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Once, "once", false, "run a single pass and exit")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "sync only this endpoint")
	cmd.Flags().BoolVar(&opts.ListEndpoints, "list-endpoints", false, "print the endpoint catalog and exit")

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newStatusCommand())

	return cmd
}

// listEndpoints prints the catalog. It needs no configuration.
func listEndpoints(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENDPOINT\tTABLE\tKEY\tCOLUMNS")
	for _, d := range cat.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", d.Name, d.Table, d.KeyField, len(d.Fields))
	}
	return tw.Flush()
}
