// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

/*
retry.go - Retry Policy for Upstream Requests

The retry policy is an explicit object rather than inline control flow so it
can be exercised with a fake clock and a fake failure injector.

Policy Components:
  - MaxAttempts: total attempts including the first one
  - BaseDelay / MaxDelay: exponential backoff bounds (base * 2^n, capped)
  - Jitter: +/- fraction applied to the computed delay
  - RetryAfterCap: upper bound for server-provided Retry-After waits
  - RateLimitDelay: wait after a 429 that carries no Retry-After
  - Classify: maps a failure to Transient or Permanent
  - Clock / Rand: injectable time source and jitter source

Default Classification:
  - Transient: network errors, timeouts, HTTP 429, 500, 502, 503, 504
  - Permanent: any other HTTP status (400, 401, 403, 404, ...), an open
    circuit breaker, and context cancellation
*/

//nolint:staticcheck // File documentation, not package doc
package oura

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Class is the retry classification of a failure.
type Class int

const (
	// Permanent failures are returned immediately.
	Permanent Class = iota
	// Transient failures are retried with backoff.
	Transient
)

// String implements fmt.Stringer.
func (c Class) String() string {
	if c == Transient {
		return "transient"
	}
	return "permanent"
}

// Clock abstracts time for the retry policy.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// RetryPolicy describes how many times and how patiently a request is retried.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	Jitter        float64
	RetryAfterCap time.Duration
	// RateLimitDelay replaces the backoff after a 429 without Retry-After;
	// zero falls back to the backoff.
	RateLimitDelay time.Duration
	Classify       func(error) Class
	Clock          Clock
	// Rand returns a value in [0, 1); used for jitter.
	Rand func() float64
	// OnRetry is called before each backoff wait. Optional.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy returns the production policy: 6 attempts, 2s base,
// 120s max, 20% jitter, Retry-After capped at 5 minutes, 60s after a bare 429.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    6,
		BaseDelay:      2 * time.Second,
		MaxDelay:       120 * time.Second,
		Jitter:         0.2,
		RetryAfterCap:  300 * time.Second,
		RateLimitDelay: 60 * time.Second,
		Classify:       DefaultClassifier,
		Clock:          RealClock,
		Rand:           rand.Float64,
	}
}

// DefaultClassifier is the classification used by DefaultRetryPolicy.
func DefaultClassifier(err error) Class {
	if err == nil {
		return Permanent
	}
	if errors.Is(err, context.Canceled) {
		return Permanent
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Permanent
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return Transient
		default:
			return Permanent
		}
	}

	// Per-request timeouts surface as context.DeadlineExceeded or net.Error.
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Transient
	}
	return Permanent
}

// Delay returns the wait before the attempt following a failure on attempt
// (0-based). A Retry-After from the server wins over the computed backoff.
func (p *RetryPolicy) Delay(attempt int, err error) time.Duration {
	var se *StatusError
	if errors.As(err, &se) {
		wait := se.RetryAfter
		if wait <= 0 && se.StatusCode == http.StatusTooManyRequests {
			wait = p.RateLimitDelay
		}
		if wait > 0 {
			if p.RetryAfterCap > 0 && wait > p.RetryAfterCap {
				return p.RetryAfterCap
			}
			return wait
		}
	}

	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 && p.Rand != nil {
		// Scale into [1-jitter, 1+jitter).
		d *= 1 + p.Jitter*(2*p.Rand()-1)
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, fails permanently, the context ends, or
// MaxAttempts is reached. It returns the number of attempts made and the
// last error.
func (p *RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	classify := p.Classify
	if classify == nil {
		classify = DefaultClassifier
	}
	clock := p.Clock
	if clock == nil {
		clock = RealClock
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return attempt, err
		}

		err = fn(ctx)
		if err == nil {
			return attempt + 1, nil
		}
		if classify(err) != Transient || attempt == maxAttempts-1 {
			return attempt + 1, err
		}

		delay := p.Delay(attempt, err)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}

		select {
		case <-clock.After(delay):
		case <-ctx.Done():
			return attempt + 1, ctx.Err()
		}
	}
	return maxAttempts, err
}
