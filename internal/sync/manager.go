// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

/*
manager.go - Scheduler Lifecycle

The Manager runs passes in two modes:
  - periodic: Start runs a pass immediately, then one pass per interval,
    measured from the end of the previous pass, until Stop or context
    cancellation.
  - once: RunOnce runs a single pass, optionally limited to one endpoint.

Passes never overlap. passMu is taken with TryLock: a scheduled tick that
finds a pass running is skipped, and a manual TriggerSync is refused with
ErrPassInProgress instead of queueing.

Thread Safety:
  - passMu: held for the duration of a pass
  - mu: protects running, lastPass, baseCtx
  - wg: tracks the loop and triggered passes for Stop
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MaximeMichaud/oura-dashboard/internal/logging"
)

var (
	// ErrPassInProgress is returned when a pass is requested while one runs.
	ErrPassInProgress = errors.New("sync pass already in progress")
	// ErrAlreadyRunning is returned by Start on a running manager.
	ErrAlreadyRunning = errors.New("sync manager is already running")
	// ErrNotRunning is returned by Stop on a stopped manager.
	ErrNotRunning = errors.New("sync manager is not running")
)

// PassRunner runs one pass. *Orchestrator implements it.
type PassRunner interface {
	RunPass(ctx context.Context, names []string) (*PassReport, error)
}

// Manager schedules sync passes.
type Manager struct {
	runner    PassRunner
	interval  time.Duration
	endpoints []string

	passMu sync.Mutex

	mu              sync.RWMutex
	running         bool
	lastPass        *PassReport
	baseCtx         context.Context
	cancel          context.CancelFunc
	onPassCompleted func(*PassReport)

	wg sync.WaitGroup
}

// NewManager creates a scheduler. endpoints limits every pass to those names;
// empty means the whole catalog.
func NewManager(runner PassRunner, interval time.Duration, endpoints []string) *Manager {
	return &Manager{
		runner:    runner,
		interval:  interval,
		endpoints: endpoints,
	}
}

// SetOnPassCompleted sets a callback invoked after each pass.
func (m *Manager) SetOnPassCompleted(callback func(*PassReport)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onPassCompleted = callback
}

// Start begins periodic passes. The first pass starts immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.baseCtx = loopCtx
	m.cancel = cancel
	m.mu.Unlock()

	logging.Info().Dur("interval", m.interval).Strs("endpoints", m.endpoints).Msg("Starting sync scheduler")

	m.wg.Add(1)
	go m.loop(loopCtx)
	return nil
}

// Stop cancels the loop and any triggered pass and waits for them. An
// interrupted endpoint attempt is recorded as a failure by the orchestrator.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotRunning
	}
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync scheduler...")
	cancel()
	m.wg.Wait()
	logging.Info().Msg("Sync scheduler stopped")
	return nil
}

// loop runs a pass, waits interval, and repeats.
func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := m.runPass(ctx, m.endpoints); err != nil {
				if errors.Is(err, ErrPassInProgress) {
					logging.Warn().Msg("Sync already in progress, skipping this run")
				} else {
					logging.Error().Err(err).Msg("Sync pass failed to start")
				}
			}
			timer.Reset(m.interval)
		}
	}
}

// RunOnce runs a single pass and returns its report. endpoint limits the
// pass to one name; empty uses the manager's endpoint list.
func (m *Manager) RunOnce(ctx context.Context, endpoint string) (*PassReport, error) {
	names := m.endpoints
	if endpoint != "" {
		names = []string{endpoint}
	}
	return m.runPass(ctx, names)
}

// TriggerSync starts a pass in the background and returns at once. It fails
// with ErrPassInProgress when a pass is already running.
func (m *Manager) TriggerSync() error {
	if !m.passMu.TryLock() {
		return ErrPassInProgress
	}

	m.mu.RLock()
	ctx := m.baseCtx
	m.mu.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		ctx = context.Background()
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.passMu.Unlock()

		ctx := logging.ContextWithNewCorrelationID(ctx)
		logging.Ctx(ctx).Info().Msg("Manual sync triggered")
		if _, err := m.runLocked(ctx, m.endpoints); err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("Triggered sync failed to start")
		}
	}()
	return nil
}

// IsPassRunning reports whether a pass holds the lock.
func (m *Manager) IsPassRunning() bool {
	if m.passMu.TryLock() {
		m.passMu.Unlock()
		return false
	}
	return true
}

// LastPass returns the report of the most recent pass, or nil.
func (m *Manager) LastPass() *PassReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPass
}

// IsRunning reports whether periodic mode is active.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) runPass(ctx context.Context, names []string) (*PassReport, error) {
	if !m.passMu.TryLock() {
		return nil, ErrPassInProgress
	}
	defer m.passMu.Unlock()
	return m.runLocked(ctx, names)
}

// runLocked runs a pass; the caller holds passMu.
func (m *Manager) runLocked(ctx context.Context, names []string) (*PassReport, error) {
	report, err := m.runner.RunPass(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("sync pass: %w", err)
	}

	m.mu.Lock()
	m.lastPass = report
	callback := m.onPassCompleted
	m.mu.Unlock()

	if callback != nil {
		callback(report)
	}
	return report, nil
}
