// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// fakeService runs until canceled, optionally failing its first starts.
type fakeService struct {
	name     string
	starts   atomic.Int32
	stops    atomic.Int32
	failures atomic.Int32
	failFor  int32
}

func newFakeService(name string) *fakeService {
	return &fakeService{name: name}
}

func (f *fakeService) Serve(ctx context.Context) error {
	f.starts.Add(1)
	defer f.stops.Add(1)

	if f.failFor > 0 && f.failures.Add(1) <= f.failFor {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeService) String() string {
	return f.name
}
