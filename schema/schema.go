package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// SCHEMA — Describes the columns of one table instance
// ============================================================================
// Built by the step catalog (fixed pipeline outputs) or discovered from a
// CSV/TSV header (ad-hoc files). The engine binds search, filter and sort
// semantics to the declared Kind of each column instead of guessing from
// values at runtime.
// ============================================================================

// Kind is the scalar type of a column.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindBool:
		return true
	}
	return false
}

// ErrInvalidSchema is wrapped by every Validate failure.
var ErrInvalidSchema = errors.New("invalid table schema")

// ColumnSpec describes one column of a table.
type ColumnSpec struct {
	Key        string `json:"key" mapstructure:"key"`
	Header     string `json:"header" mapstructure:"header"`
	Kind       Kind   `json:"kind" mapstructure:"kind"`
	Sortable   bool   `json:"sortable" mapstructure:"sortable"`
	Filterable bool   `json:"filterable" mapstructure:"filterable"`
	Width      int    `json:"width,omitempty" mapstructure:"width"`   // display hint, 0 = auto
	Render     string `json:"render,omitempty" mapstructure:"render"` // "fixed:2", "percent:1", "thousands", "truncate:40", "sci:3"
}

// Label returns the header, falling back to a display form of the key.
func (c ColumnSpec) Label() string {
	if c.Header != "" {
		return c.Header
	}
	return toDisplayName(c.Key)
}

// Table is the column specification of one table instance.
type Table struct {
	Name    string       `json:"name"`
	Columns []ColumnSpec `json:"columns"`
}

// Text creates a sortable, filterable string column.
func Text(key, header string) ColumnSpec {
	return ColumnSpec{Key: key, Header: header, Kind: KindString, Sortable: true, Filterable: true}
}

// Number creates a sortable, filterable numeric column.
func Number(key, header string) ColumnSpec {
	return ColumnSpec{Key: key, Header: header, Kind: KindNumber, Sortable: true, Filterable: true}
}

// Flag creates a sortable, filterable boolean column.
func Flag(key, header string) ColumnSpec {
	return ColumnSpec{Key: key, Header: header, Kind: KindBool, Sortable: true, Filterable: true}
}

// WithRender returns a copy of c using the named renderer.
func (c ColumnSpec) WithRender(render string) ColumnSpec {
	c.Render = render
	return c
}

// WithWidth returns a copy of c with a width hint.
func (c ColumnSpec) WithWidth(width int) ColumnSpec {
	c.Width = width
	return c
}

// Unsortable returns a copy of c that cannot be sorted on.
func (c ColumnSpec) Unsortable() ColumnSpec {
	c.Sortable = false
	return c
}

// Validate checks that keys are present and unique and kinds are known.
func (t Table) Validate() error {
	var errs []error
	if len(t.Columns) == 0 {
		errs = append(errs, fmt.Errorf("%w: table %q has no columns", ErrInvalidSchema, t.Name))
	}
	seen := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		if strings.TrimSpace(c.Key) == "" {
			errs = append(errs, fmt.Errorf("%w: column %d has an empty key", ErrInvalidSchema, i))
			continue
		}
		if seen[c.Key] {
			errs = append(errs, fmt.Errorf("%w: duplicate column key %q", ErrInvalidSchema, c.Key))
		}
		seen[c.Key] = true
		if !c.Kind.Valid() {
			errs = append(errs, fmt.Errorf("%w: column %q has unknown kind %q", ErrInvalidSchema, c.Key, c.Kind))
		}
	}
	return errors.Join(errs...)
}

// Column returns the spec for key.
func (t Table) Column(key string) (ColumnSpec, bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// Keys returns all column keys in order.
func (t Table) Keys() []string {
	keys := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		keys[i] = c.Key
	}
	return keys
}

// Headers returns all column labels in order.
func (t Table) Headers() []string {
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Label()
	}
	return headers
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	cols := make([]ColumnSpec, len(t.Columns))
	copy(cols, t.Columns)
	return Table{Name: t.Name, Columns: cols}
}
