package helpers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spektr-org/ednadash/engine"
	"github.com/spektr-org/ednadash/schema"
)

// ============================================================================
// JSON SUMMARY HELPER — Step summary objects
// ============================================================================
// Pipeline steps write free-form JSON summaries ({"total_reads": 123456,
// "samples": {"count": 12}}). They are decoded as-is, flattened into dotted
// paths for summary cards, and exposed as a two-column table.
// ============================================================================

var (
	// ErrEmptySummary is returned for an empty or whitespace-only body.
	ErrEmptySummary = errors.New("empty summary")
	// ErrNotObject is returned when the top-level JSON value is not an object.
	ErrNotObject = errors.New("summary is not a JSON object")
)

// Summary is a decoded JSON object. Numbers are json.Number.
type Summary map[string]any

// ParseSummary decodes a JSON object. Markdown code fences around the
// body are removed.
func ParseSummary(data []byte) (Summary, error) {
	body := strings.TrimSpace(string(data))
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptySummary
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w (body: %.200s)", err, body)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, v)
	}
	return Summary(obj), nil
}

// Lookup returns the value at a dotted path ("samples.count", "steps.0").
func (s Summary) Lookup(path string) (any, bool) {
	var cur any = map[string]any(s)
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Number returns the numeric value at path. Numeric strings ("1,234")
// are accepted.
func (s Summary) Number(path string) (float64, bool) {
	v, ok := s.Lookup(path)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case string:
		return schema.ParseNumber(x)
	}
	return 0, false
}

// String returns the value at path formatted as text. Objects and arrays
// are not strings.
func (s Summary) String(path string) (string, bool) {
	v, ok := s.Lookup(path)
	if !ok {
		return "", false
	}
	switch v.(type) {
	case map[string]any, []any:
		return "", false
	case nil:
		return "", true
	}
	return engine.ValueOf(v).String(), true
}

// Field is one flattened leaf of a Summary.
type Field struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Flatten returns every scalar leaf as a dotted path, sorted by path.
// Empty objects and arrays produce no fields.
func Flatten(s Summary) []Field {
	var out []Field
	flatten("", map[string]any(s), &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func flatten(prefix string, v any, out *[]Field) {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			flatten(join(prefix, k), child, out)
		}
	case []any:
		for i, child := range node {
			flatten(join(prefix, strconv.Itoa(i)), child, out)
		}
	default:
		*out = append(*out, Field{Path: prefix, Value: v})
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// ============================================================================
// SUMMARY TABLE — flattened fields as a RecordView
// ============================================================================

// SummaryTable is the schema of SummaryView.
var SummaryTable = schema.Table{
	Name: "summary",
	Columns: []schema.ColumnSpec{
		schema.Text("metric", "Metric").WithWidth(40),
		schema.Text("value", "Value").WithWidth(40),
	},
}

var summaryAdapter = engine.NewDomainAdapter[Field]().
	Column("metric", func(f Field) engine.Value { return engine.String(labelFor(f.Path)) }).
	Column("value", func(f Field) engine.Value { return engine.String(formatField(f.Value)) })

// SummaryView exposes fields as metric/value rows.
func SummaryView(fields []Field) engine.RecordView {
	return summaryAdapter.Bind(fields)
}

// labelFor turns "samples.total_reads" into "Samples › Total Reads".
func labelFor(path string) string {
	parts := strings.Split(path, ".")
	for i, p := range parts {
		parts[i] = schema.Text(p, "").Label()
	}
	return strings.Join(parts, " › ")
}

func formatField(v any) string {
	switch x := v.(type) {
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return formatFloat(f)
		}
		return x.String()
	case float64:
		return formatFloat(x)
	case nil:
		return ""
	}
	return engine.ValueOf(v).String()
}

// formatFloat keeps small fractions readable ("0.0042", not "0").
func formatFloat(f float64) string {
	if f != 0 && f > -0.01 && f < 0.01 {
		return strconv.FormatFloat(f, 'g', 3, 64)
	}
	return engine.FormatNumber(f)
}

// MarshalIndent renders s as indented JSON.
func (s Summary) MarshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any(s)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
