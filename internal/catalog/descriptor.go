// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package catalog

import (
	"fmt"
	"regexp"
)

// DefaultCursorField is the pagination token field returned by every Oura v2
// collection endpoint and echoed back as a query parameter.
const DefaultCursorField = "next_token"

// safeIdentifier matches table and column names that may be interpolated into SQL.
var safeIdentifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to use as an unquoted SQL identifier.
func ValidIdentifier(name string) bool {
	return safeIdentifier.MatchString(name)
}

// KeyStrategy selects how an entity row is identified.
type KeyStrategy int

const (
	// KeyDay identifies a row by its calendar day (one row per day).
	KeyDay KeyStrategy = iota
	// KeyID identifies a row by an opaque upstream id (many rows per day).
	KeyID
)

// String implements fmt.Stringer.
func (k KeyStrategy) String() string {
	switch k {
	case KeyDay:
		return "day"
	case KeyID:
		return "id"
	default:
		return fmt.Sprintf("KeyStrategy(%d)", int(k))
	}
}

// FieldType is the column type a source value is coerced to.
type FieldType int

const (
	TypeInt FieldType = iota
	TypeFloat
	TypeString
	TypeBool
	TypeDate      // YYYY-MM-DD
	TypeTimestamp // RFC 3339
	TypeJSON      // opaque structured blob, stored as jsonb
)

// String implements fmt.Stringer.
func (t FieldType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeDate:
		return "date"
	case TypeTimestamp:
		return "timestamp"
	case TypeJSON:
		return "json"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Field maps one (possibly nested) source attribute onto one column.
type Field struct {
	// Column is the target column name.
	Column string
	// Path is the key path inside the raw record; nested objects are walked in order.
	Path []string
	Type FieldType
}

// Descriptor declares everything the sync engine needs to know about one endpoint.
type Descriptor struct {
	Name string
	// Path is the API path relative to the collection base URL.
	Path  string
	Table string
	Key   KeyStrategy
	// KeyField is the primary-key column (and source field): "day" or "id".
	KeyField string
	// DateField is the date-bearing field used for windowing.
	DateField   string
	CursorField string
	// Fields lists every mapped column, key and date included.
	Fields []Field
}

// Columns returns the mapped column names in declaration order.
func (d *Descriptor) Columns() []string {
	cols := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Field returns the field mapped to column.
func (d *Descriptor) Field(column string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Column == column {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks identifiers and key/date declarations.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor name is required")
	}
	if d.Path == "" {
		return fmt.Errorf("endpoint %s: path is required", d.Name)
	}
	if !ValidIdentifier(d.Table) {
		return fmt.Errorf("endpoint %s: invalid table identifier %q", d.Name, d.Table)
	}
	if d.CursorField == "" {
		return fmt.Errorf("endpoint %s: cursor field is required", d.Name)
	}

	seen := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		if !ValidIdentifier(f.Column) {
			return fmt.Errorf("endpoint %s: invalid column identifier %q", d.Name, f.Column)
		}
		if len(f.Path) == 0 {
			return fmt.Errorf("endpoint %s: column %s has no source path", d.Name, f.Column)
		}
		if _, dup := seen[f.Column]; dup {
			return fmt.Errorf("endpoint %s: duplicate column %q", d.Name, f.Column)
		}
		seen[f.Column] = struct{}{}
	}

	key, ok := d.Field(d.KeyField)
	if !ok {
		return fmt.Errorf("endpoint %s: key field %q is not mapped", d.Name, d.KeyField)
	}
	switch d.Key {
	case KeyDay:
		if key.Type != TypeDate {
			return fmt.Errorf("endpoint %s: day key must be a date, got %s", d.Name, key.Type)
		}
	case KeyID:
		if key.Type != TypeString {
			return fmt.Errorf("endpoint %s: id key must be a string, got %s", d.Name, key.Type)
		}
	default:
		return fmt.Errorf("endpoint %s: unknown key strategy %s", d.Name, d.Key)
	}

	date, ok := d.Field(d.DateField)
	if !ok {
		return fmt.Errorf("endpoint %s: date field %q is not mapped", d.Name, d.DateField)
	}
	if date.Type != TypeDate && date.Type != TypeTimestamp {
		return fmt.Errorf("endpoint %s: date field must be a date or timestamp, got %s", d.Name, date.Type)
	}
	return nil
}
