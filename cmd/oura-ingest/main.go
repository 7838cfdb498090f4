// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

// Package main is the oura-ingest command.
//
// oura-ingest pulls biometric data from the Oura v2 API into PostgreSQL.
// Each endpoint keeps a watermark in sync_log; every pass re-fetches from
// the watermark minus OVERLAP_DAYS up to today and upserts the result, so
// repeated passes converge to the same rows.
//
// # Modes
//
//	oura-ingest                      # periodic: one pass now, then every SYNC_INTERVAL_MINUTES
//	oura-ingest --once               # one pass, exit 1 if any endpoint failed
//	oura-ingest --once --endpoint sleep
//	oura-ingest --list-endpoints     # print the catalog and exit
//	oura-ingest migrate              # apply the embedded schema migrations
//	oura-ingest status               # print sync_log
//
// # Exit Status
//
//   - 0: success
//   - 1: an endpoint failed in --once mode, or startup failed
//   - 2: unknown endpoint name
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the running pass. The interrupted endpoint is
// recorded as a failure and its watermark stays where it was.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "oura-ingest:", err)
		os.Exit(exitCode(err))
	}
}
