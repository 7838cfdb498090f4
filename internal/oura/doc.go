// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

// Package oura is the HTTP fetcher for the Oura API v2 usercollection
// endpoints.
//
// Client.FetchWindow returns a lazy iter.Seq2 of raw records for one endpoint
// and date window. Pages are requested only as the caller consumes records,
// following the next_token cursor until the API stops returning one.
//
// Every page request passes through, from the outside in:
//
//   - RetryPolicy: bounded attempts with exponential backoff, jitter, and
//     Retry-After support (60s when a 429 carries none); transient failures
//     (network errors, 429, 5xx) are retried, everything else fails
//     immediately
//   - one gobreaker circuit breaker per endpoint ("oura-api:<endpoint>") that
//     fails fast while that endpoint returns 5xx or network errors; 4xx
//     answers, 429 included, never trip it
//   - an x/time/rate limiter keeping request pressure under the API quota
//
// A window that cannot be fetched ends the sequence with a *FetchError that
// wraps the last cause, usually a *StatusError. Authentication failures
// (HTTP 401) are never retried and are not refreshed automatically.
//
// Example:
//
//	client, err := oura.NewClient(oura.Config{Token: token})
//	if err != nil {
//	    return err
//	}
//	for raw, err := range client.FetchWindow(ctx, &desc, from, to) {
//	    if err != nil {
//	        return err // *oura.FetchError
//	    }
//	    row, err := mapping.Map(&desc, raw)
//	    ...
//	}
package oura
