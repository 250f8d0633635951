package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spektr-org/ednadash/engine"
	"github.com/spektr-org/ednadash/schema"
)

// ============================================================================
// CSV HELPER — Parses CSV/TSV data into typed []engine.Record
// ============================================================================
// The caller fetches the bytes (loader, file, test fixture). This helper
// maps columns onto a schema.Table and converts each cell by its declared
// Kind. Bad cells become Null and are reported as RowIssues; they never
// turn into 0 or "NaN" strings.
// ============================================================================

var (
	// ErrEmptyInput is returned when the data has no header row.
	ErrEmptyInput = errors.New("no header row")
	// ErrNoMatchingColumns is returned when no header names a schema column.
	ErrNoMatchingColumns = errors.New("no header matches a schema column")
)

// ParseOptions controls column mapping.
type ParseOptions struct {
	// ByPosition maps fields to schema columns in order and treats the
	// first line as data.
	ByPosition bool
}

// RowIssue records one malformed cell or row.
type RowIssue struct {
	Line   int    `json:"line"`
	Column string `json:"column,omitempty"`
	Raw    string `json:"raw,omitempty"`
	Reason string `json:"reason"`
}

func (i RowIssue) String() string {
	if i.Column == "" {
		return fmt.Sprintf("line %d: %s", i.Line, i.Reason)
	}
	return fmt.Sprintf("line %d, %s: %s (%q)", i.Line, i.Column, i.Reason, i.Raw)
}

// ParseReport is the outcome of parsing one file.
type ParseReport struct {
	Records []engine.Record `json:"-"`
	Issues  []RowIssue      `json:"issues,omitempty"`
	Skipped int             `json:"skipped"`           // unreadable rows
	Missing []string        `json:"missing,omitempty"` // schema columns absent from the header
}

// View wraps the records as a RecordView.
func (r *ParseReport) View() engine.RecordView {
	return engine.NewSliceView(r.Records)
}

// ParseCSV parses comma-separated data.
func ParseCSV(data []byte, table schema.Table, opts ...ParseOptions) (*ParseReport, error) {
	return ParseDelimited(data, ',', table, opts...)
}

// ParseTSV parses tab-separated data.
func ParseTSV(data []byte, table schema.Table, opts ...ParseOptions) (*ParseReport, error) {
	return ParseDelimited(data, '\t', table, opts...)
}

// ParseDelimited parses delimited data into records keyed by table's
// column keys. Quoted fields, embedded delimiters and newlines are
// supported. Lines starting with '#' are comments.
func ParseDelimited(data []byte, delim rune, table schema.Table, opts ...ParseOptions) (*ParseReport, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := newReader(data, delim)
	report := &ParseReport{}

	var mapping []string // field index → column key, "" = unmapped
	if opt.ByPosition {
		mapping = table.Keys()
	} else {
		headers, err := reader.Read()
		if err == io.EOF {
			return nil, ErrEmptyInput
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read headers: %w", err)
		}
		mapping, report.Missing = mapHeaders(headers, table)
		if len(report.Missing) == len(table.Columns) {
			return nil, fmt.Errorf("%w: table %q", ErrNoMatchingColumns, table.Name)
		}
	}

	width := 0 // fields needed to fill every mapped column
	for i, key := range mapping {
		if key != "" {
			width = i + 1
		}
	}

	kinds := make(map[string]schema.Kind, len(table.Columns))
	for _, c := range table.Columns {
		kinds[c.Key] = c.Kind
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Skipped++
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				report.Issues = append(report.Issues, RowIssue{Line: pe.StartLine, Reason: pe.Err.Error()})
			}
			continue
		}
		line, _ := reader.FieldPos(0)

		if isBlank(row) {
			continue
		}
		if len(row) < width {
			report.Issues = append(report.Issues, RowIssue{
				Line:   line,
				Reason: fmt.Sprintf("short row: %d of %d fields", len(row), width),
			})
		}

		rec := make(engine.Record, len(table.Columns))
		for i, key := range mapping {
			if key == "" || i >= len(row) {
				continue
			}
			v, reason := convertCell(kinds[key], row[i])
			if reason != "" {
				report.Issues = append(report.Issues, RowIssue{Line: line, Column: key, Raw: row[i], Reason: reason})
			}
			if !v.IsNull() {
				rec[key] = v
			}
		}
		report.Records = append(report.Records, rec)
	}

	return report, nil
}

// ParseAuto discovers a schema from the data and parses it. A zero delim
// is detected from the header line.
func ParseAuto(data []byte, delim rune, name string) (*schema.Table, *ParseReport, error) {
	if delim == 0 {
		delim = DetectDelimiter(data)
	}
	opt := schema.DefaultDiscoverOptions()
	opt.Delimiter = delim
	opt.Name = name

	table, err := schema.DiscoverFromCSV(data, opt)
	if err != nil {
		return nil, nil, err
	}
	report, err := ParseDelimited(data, delim, *table)
	if err != nil {
		return nil, nil, err
	}
	return table, report, nil
}

// DetectDelimiter picks tab or comma by counting them on the first
// non-comment line.
func DetectDelimiter(data []byte) rune {
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 || line[0] == '#' {
			continue
		}
		if bytes.Count(line, []byte("\t")) > bytes.Count(line, []byte(",")) {
			return '\t'
		}
		return ','
	}
	return ','
}

func newReader(data []byte, delim rune) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// mapHeaders matches headers to columns by key or by display header.
func mapHeaders(headers []string, table schema.Table) (mapping []string, missing []string) {
	byHeader := make(map[string]string, len(table.Columns))
	for _, c := range table.Columns {
		byHeader[strings.ToLower(c.Label())] = c.Key
	}

	mapping = make([]string, len(headers))
	seen := make(map[string]bool)
	for i, h := range headers {
		key := schema.ToKey(h)
		if _, ok := table.Column(key); !ok {
			key = byHeader[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))]
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		mapping[i] = key
	}

	for _, c := range table.Columns {
		if !seen[c.Key] {
			missing = append(missing, c.Key)
		}
	}
	return mapping, missing
}

// convertCell parses raw by kind. A non-empty reason means raw was
// present but invalid.
func convertCell(kind schema.Kind, raw string) (engine.Value, string) {
	s := strings.TrimSpace(raw)
	if schema.IsNullToken(s) {
		return engine.Null(), ""
	}

	switch kind {
	case schema.KindNumber:
		if f, ok := schema.ParseNumber(s); ok {
			return engine.Number(f), ""
		}
		return engine.Null(), "not a number"
	case schema.KindBool:
		if b, ok := schema.ParseBool(s); ok {
			return engine.Bool(b), ""
		}
		return engine.Null(), "not a boolean"
	default:
		return engine.String(s), ""
	}
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
