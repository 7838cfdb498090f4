// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

// Package mapping turns raw Oura API records into typed rows using the
// declarative endpoint descriptors from internal/catalog.
//
// Map is a pure function. A record missing its primary key or windowing date,
// or carrying a value that cannot be coerced to its declared column type,
// yields a *MappingError; callers skip and count such records rather than
// failing the whole window.
package mapping

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/MaximeMichaud/oura-dashboard/internal/catalog"
)

// Row is one mapped entity row ready for upsert.
type Row struct {
	// Key is the primary-key value: a string id, or a time.Time day.
	Key any
	// Day is the windowing date of the record.
	Day time.Time
	// Values holds every declared column; a nil value is stored as NULL.
	Values map[string]any
}

// KeyString renders the primary key for logging and in-batch deduplication.
func (r *Row) KeyString() string {
	switch k := r.Key.(type) {
	case string:
		return k
	case time.Time:
		return k.Format(dateLayout)
	default:
		return fmt.Sprint(k)
	}
}

// MappingError reports a single malformed record.
type MappingError struct {
	Endpoint string
	// RecordRef identifies the record (id or day) when it could be read.
	RecordRef string
	Column    string
	Reason    string
}

func (e *MappingError) Error() string {
	ref := e.RecordRef
	if ref == "" {
		ref = "?"
	}
	if e.Column != "" {
		return fmt.Sprintf("mapping %s record %s: column %s: %s", e.Endpoint, ref, e.Column, e.Reason)
	}
	return fmt.Sprintf("mapping %s record %s: %s", e.Endpoint, ref, e.Reason)
}

// IsMappingError reports whether err is (or wraps) a *MappingError.
func IsMappingError(err error) bool {
	var me *MappingError
	return errors.As(err, &me)
}

// Map extracts the key, windowing date, and every declared attribute of raw.
func Map(desc *catalog.Descriptor, raw []byte) (Row, error) {
	record, err := decodeRecord(raw)
	if err != nil {
		return Row{}, &MappingError{Endpoint: desc.Name, Reason: err.Error()}
	}

	ref := recordRef(record)
	fail := func(column, reason string) (Row, error) {
		return Row{}, &MappingError{Endpoint: desc.Name, RecordRef: ref, Column: column, Reason: reason}
	}

	row := Row{Values: make(map[string]any, len(desc.Fields))}
	for _, f := range desc.Fields {
		v, present := lookup(record, f.Path)
		if !present {
			row.Values[f.Column] = nil
			continue
		}
		coerced, err := coerce(v, f.Type)
		if err != nil {
			return fail(f.Column, err.Error())
		}
		row.Values[f.Column] = coerced
	}

	key := row.Values[desc.KeyField]
	if isEmptyKey(key) {
		return fail(desc.KeyField, "missing primary key")
	}
	row.Key = key

	switch d := row.Values[desc.DateField].(type) {
	case time.Time:
		row.Day = truncateDay(d)
	default:
		return fail(desc.DateField, "missing windowing date")
	}

	return row, nil
}

// decodeRecord parses one JSON object, keeping numbers exact.
func decodeRecord(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("invalid JSON record: %w", err)
	}
	if record == nil {
		return nil, errors.New("record is not a JSON object")
	}
	return record, nil
}

// lookup walks path through nested objects. A JSON null counts as present
// with a nil value; a missing key or non-object intermediate is absent.
func lookup(record map[string]any, path []string) (any, bool) {
	var cur any = record
	for _, p := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func recordRef(record map[string]any) string {
	for _, k := range []string{"id", "day"} {
		if s, ok := record[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func isEmptyKey(v any) bool {
	switch k := v.(type) {
	case nil:
		return true
	case string:
		return k == ""
	case time.Time:
		return k.IsZero()
	default:
		return false
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
