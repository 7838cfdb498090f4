// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package sync

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/MaximeMichaud/oura-dashboard/internal/catalog"
	"github.com/MaximeMichaud/oura-dashboard/internal/database"
	"github.com/MaximeMichaud/oura-dashboard/internal/mapping"
	"github.com/MaximeMichaud/oura-dashboard/internal/oura"
)

// fakeFetcher serves canned records per endpoint. When failAfter has an
// entry, that many records are yielded before the endpoint's error.
type fakeFetcher struct {
	mu        sync.Mutex
	records   map[string][]string
	errs      map[string]error
	failAfter map[string]int
	// block, when set, makes FetchWindow wait for ctx cancellation.
	block   map[string]bool
	windows map[string]database.Window
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		records:   make(map[string][]string),
		errs:      make(map[string]error),
		failAfter: make(map[string]int),
		block:     make(map[string]bool),
		windows:   make(map[string]database.Window),
	}
}

func (f *fakeFetcher) FetchWindow(ctx context.Context, desc *catalog.Descriptor, from, to time.Time) iter.Seq2[oura.Record, error] {
	f.mu.Lock()
	f.windows[desc.Name] = database.Window{From: from, To: to}
	recs := f.records[desc.Name]
	err := f.errs[desc.Name]
	after, hasAfter := f.failAfter[desc.Name]
	block := f.block[desc.Name]
	f.mu.Unlock()

	return func(yield func(oura.Record, error) bool) {
		if block {
			<-ctx.Done()
			yield(nil, &oura.FetchError{Endpoint: desc.Name, Attempts: 1, Err: ctx.Err()})
			return
		}
		for i, r := range recs {
			if err != nil && hasAfter && i == after {
				yield(nil, err)
				return
			}
			if !yield(oura.Record(r), nil) {
				return
			}
		}
		if err != nil {
			yield(nil, err)
		}
	}
}

func (f *fakeFetcher) windowFor(name string) database.Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[name]
}

// fakeStore keeps sync_log, sync_history, and entity rows in memory with the
// same rules as PostgreSQL.
type fakeStore struct {
	mu sync.Mutex

	watermarks map[string]*database.Watermark
	history    []database.Attempt
	rows       map[string]map[string]mapping.Row

	upsertErr   map[string]error
	upsertCount map[string]int // rows reported written before upsertErr
	// failOnBatch fails the n-th upsert call (1-based) of an endpoint.
	failOnBatch map[string]int
	batches     map[string][]int
	refreshErr  error
	refreshes   int

	// cancelledCommits counts failure commits made with a cancelled context.
	cancelledCommits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		watermarks:  make(map[string]*database.Watermark),
		rows:        make(map[string]map[string]mapping.Row),
		upsertErr:   make(map[string]error),
		upsertCount: make(map[string]int),
		failOnBatch: make(map[string]int),
		batches:     make(map[string][]int),
	}
}

func (s *fakeStore) Upsert(ctx context.Context, desc *catalog.Descriptor, rows []mapping.Row) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[desc.Name] = append(s.batches[desc.Name], len(rows))
	if err := s.upsertErr[desc.Name]; err != nil {
		if n := s.failOnBatch[desc.Name]; n == 0 || n == len(s.batches[desc.Name]) {
			return s.upsertCount[desc.Name], err
		}
	}
	table := s.rows[desc.Table]
	if table == nil {
		table = make(map[string]mapping.Row)
		s.rows[desc.Table] = table
	}
	for _, r := range rows {
		table[r.KeyString()] = r
	}
	return len(rows), nil
}

func (s *fakeStore) Window(ctx context.Context, endpoint string, now, historyStart time.Time, overlapDays int) (database.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *time.Time
	if wm, ok := s.watermarks[endpoint]; ok {
		last = wm.LastSyncDate
	}
	return database.ComputeWindow(last, now, historyStart, overlapDays), nil
}

func (s *fakeStore) CommitSuccess(ctx context.Context, endpoint string, syncDate time.Time, recordCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wm := s.watermark(endpoint)
	if wm.LastSyncDate == nil || syncDate.After(*wm.LastSyncDate) {
		d := syncDate
		wm.LastSyncDate = &d
	}
	now := time.Now()
	wm.RecordCount = recordCount
	wm.LastError = nil
	wm.ConsecutiveFailures = 0
	wm.LastSuccessAt = &now
	return nil
}

func (s *fakeStore) CommitFailure(ctx context.Context, endpoint, message string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		s.cancelledCommits++
		return 0, ctx.Err()
	}
	wm := s.watermark(endpoint)
	msg := message
	wm.LastError = &msg
	wm.ConsecutiveFailures++
	return wm.ConsecutiveFailures, nil
}

func (s *fakeStore) RecordAttempt(ctx context.Context, a database.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.history = append(s.history, a)
	return nil
}

func (s *fakeStore) RefreshSleepPrimary(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	return s.refreshErr
}

// watermark returns the row for endpoint, creating it. Caller holds mu.
func (s *fakeStore) watermark(endpoint string) *database.Watermark {
	wm, ok := s.watermarks[endpoint]
	if !ok {
		wm = &database.Watermark{Endpoint: endpoint}
		s.watermarks[endpoint] = wm
	}
	return wm
}

func (s *fakeStore) get(endpoint string) (database.Watermark, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wm, ok := s.watermarks[endpoint]
	if !ok {
		return database.Watermark{}, false
	}
	return *wm, true
}

func (s *fakeStore) attempts(endpoint string) []database.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []database.Attempt
	for _, a := range s.history {
		if a.Endpoint == endpoint {
			out = append(out, a)
		}
	}
	return out
}

func (s *fakeStore) rowCount(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows[table])
}

func (s *fakeStore) batchSizes(endpoint string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.batches[endpoint]...)
}
