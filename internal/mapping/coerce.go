// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package mapping

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/MaximeMichaud/oura-dashboard/internal/catalog"
)

const dateLayout = "2006-01-02"

// coerce converts a decoded JSON value to the Go type stored for typ.
// JSON null maps to nil for every type.
func coerce(v any, typ catalog.FieldType) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch typ {
	case catalog.TypeInt:
		return toInt(v)
	case catalog.TypeFloat:
		return toFloat(v)
	case catalog.TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case catalog.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil
	case catalog.TypeDate:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected date string, got %T", v)
		}
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", s)
		}
		return d, nil
	case catalog.TypeTimestamp:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected timestamp string, got %T", v)
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q", s)
		}
		return ts, nil
	case catalog.TypeJSON:
		return toJSONBlob(v)
	default:
		return nil, fmt.Errorf("unsupported field type %s", typ)
	}
}

// toInt keeps integers exact and accepts integral floats such as 42.0.
func toInt(v any) (any, error) {
	n, ok := v.(json.Number)
	if !ok {
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", n)
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("expected integer, got %s", n)
	}
	return int64(f), nil
}

func toFloat(v any) (any, error) {
	n, ok := v.(json.Number)
	if !ok {
		return nil, fmt.Errorf("expected number, got %T", v)
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", n)
	}
	return f, nil
}

// toJSONBlob re-encodes a nested object or array untouched. Empty
// containers are stored as NULL.
func toJSONBlob(v any) (any, error) {
	switch c := v.(type) {
	case map[string]any:
		if len(c) == 0 {
			return nil, nil
		}
	case []any:
		if len(c) == 0 {
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("expected object or array, got %T", v)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("re-encode blob: %w", err)
	}
	return string(b), nil
}
