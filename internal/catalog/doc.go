// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

// Package catalog is the static registry of Oura API v2 endpoints handled by
// the sync engine.
//
// Each endpoint is described declaratively by a Descriptor: the API path, the
// target table, the primary-key strategy, the date used for windowing, and the
// list of fields to extract. A single generic mapper (internal/mapping) and a
// single generic upserter (internal/database) consume these descriptors, so
// adding an endpoint means adding a descriptor, not a new code path.
//
// # Key Strategies
//
//   - KeyDay: daily aggregates (daily_activity, daily_sleep, ...). Exactly one
//     row per calendar day; later syncs overwrite in place.
//   - KeyID: multi-record entities (sleep, sleep_time, workout). Rows are
//     append-or-replace by opaque id; several rows may share a day.
//
// # Usage
//
//	cat := catalog.Default()
//	desc, err := cat.Describe("daily_sleep")
//	if errors.Is(err, catalog.ErrUnknownEndpoint) {
//	    // caller error
//	}
//	for _, name := range cat.Names() {
//	    fmt.Println(name)
//	}
//
// Table and column names are interpolated into SQL by the upserter, so every
// identifier is checked against ^[a-z_][a-z0-9_]*$ when a Catalog is built.
package catalog
