package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/spektr-org/ednadash/schema"
)

// ============================================================================
// ENGINE TYPES — Typed scalar records
// ============================================================================
// A Record maps column keys to Values. Values carry their Kind so search,
// filter and sort dispatch on declared types instead of coercing at runtime.
// A missing key and an unparsable number both read as Null, never as 0.
// ============================================================================

// ============================================================================
// VALUE
// ============================================================================

// Value is a loosely-typed scalar: string, number, bool or null.
// The zero Value is null.
type Value struct {
	kind schema.Kind
	s    string
	n    float64
	b    bool
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: schema.KindString, s: s} }

// Number returns a numeric value. NaN and ±Inf become null.
func Number(n float64) Value {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return Value{}
	}
	return Value{kind: schema.KindNumber, n: n}
}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: schema.KindBool, b: b} }

// ValueOf converts a Go scalar (as decoded from JSON or written in tests)
// into a Value. Unsupported types are formatted with %v as strings.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return String(x.String())
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

// Kind returns the value's kind, or "" for null.
func (v Value) Kind() schema.Kind { return v.kind }

// IsNull reports whether v holds no value.
func (v Value) IsNull() bool { return v.kind == "" }

// Text returns the string payload (empty unless kind is string).
func (v Value) Text() string { return v.s }

// Float returns the numeric payload and whether v is a number.
func (v Value) Float() (float64, bool) { return v.n, v.kind == schema.KindNumber }

// Boolean returns the bool payload and whether v is a bool.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == schema.KindBool }

// String is the representation used by search, filters and CSV export.
// Numbers use the shortest decimal form ("5", "0.25"); null is "".
func (v Value) String() string {
	switch v.kind {
	case schema.KindString:
		return v.s
	case schema.KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case schema.KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// MarshalJSON encodes v as a JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case schema.KindString:
		return json.Marshal(v.s)
	case schema.KindNumber:
		return json.Marshal(v.n)
	case schema.KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// ============================================================================
// RECORD
// ============================================================================

// Record is a single row. A key that is absent reads as Null.
type Record map[string]Value

// Get returns the value at key, or Null.
func (r Record) Get(key string) Value {
	if r == nil {
		return Null()
	}
	return r[key]
}

// RecordOf builds a Record from Go scalars.
func RecordOf(fields map[string]any) Record {
	r := make(Record, len(fields))
	for k, v := range fields {
		r[k] = ValueOf(v)
	}
	return r
}

// ============================================================================
// GROUP — Intermediate chart computation result
// ============================================================================

// Group is one bucket of GroupAndAggregate.
type Group struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Value float64    `json:"value"`
	Count int        `json:"count"`
	View  RecordView `json:"-"` // records in this group (zero-copy)
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig is the input shape handed to a charting library.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData is a render-ready page of a table.
type TableData struct {
	Title         string            `json:"title"`
	Columns       []Column          `json:"columns"`
	Rows          [][]string        `json:"rows"`
	Summary       *Summary          `json:"summary,omitempty"`
	Page          int               `json:"page"`
	TotalPages    int               `json:"totalPages"`
	TotalCount    int               `json:"totalCount"`
	ItemsPerPage  int               `json:"itemsPerPage"`
	Search        string            `json:"search,omitempty"`
	Filters       map[string]string `json:"filters,omitempty"`
	SortColumn    string            `json:"sortColumn,omitempty"`
	SortDirection Direction         `json:"sortDirection,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key        string      `json:"key"`
	Label      string      `json:"label"`
	Type       schema.Kind `json:"type"`
	Align      string      `json:"align"` // "left", "right"
	Width      int         `json:"width,omitempty"`
	Sortable   bool        `json:"sortable"`
	Filterable bool        `json:"filterable"`
	Sorted     Direction   `json:"sorted,omitempty"`
}

// Summary provides totals for a table footer.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
