// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package services

import (
	"context"
	"fmt"
)

// Scheduler is the Start/Stop lifecycle of *sync.Manager.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// SyncService runs the pass scheduler as a supervised service.
//
// Serve starts the scheduler, blocks until ctx is canceled, then stops it.
// Stop waits for an interrupted pass to record its failures, so the tree's
// shutdown timeout bounds that wait.
type SyncService struct {
	scheduler Scheduler
	name      string
}

// NewSyncService wraps scheduler.
func NewSyncService(scheduler Scheduler) *SyncService {
	return &SyncService{
		scheduler: scheduler,
		name:      "sync-scheduler",
	}
}

// Serve implements suture.Service. A Start error is returned so the
// supervisor restarts the service with backoff.
func (s *SyncService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("sync scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("sync scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's event log.
func (s *SyncService) String() string {
	return s.name
}
