package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic column typing from a CSV/TSV sample
// ============================================================================
// Used for pipeline files that have no entry in the step catalog.
//
// Per column:
//   1. Header → snake_case key + display header
//   2. Sample values → kind (bool, number, string), 80% of non-null values
//   3. Longest sample → width hint for the text renderer
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int             // Max rows to inspect (0 = all). Default: 1000
	Delimiter  rune            // Field delimiter. Default: ','
	Name       string          // Table name override
	Kinds      map[string]Kind // Force a kind per key, skipping detection
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
		Delimiter:  ',',
	}
}

const maxWidthHint = 40

// DiscoverFromCSV derives a Table from the header and a sample of rows.
// Every column is kept; columns with no values become strings.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Table, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
		if opt.Delimiter == 0 {
			opt.Delimiter = ','
		}
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = opt.Delimiter
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: file has no columns", ErrInvalidSchema)
	}

	var rows [][]string
	for i := 0; opt.SampleSize <= 0 || i < opt.SampleSize; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			continue // skip malformed rows
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rows: %w", err)
		}
		rows = append(rows, row)
	}

	name := opt.Name
	if name == "" {
		name = "discovered"
	}
	table := &Table{Name: name}

	used := make(map[string]int)
	for i, header := range headers {
		col := analyzeColumn(header, i, rows)

		// Keys must stay unique after snake-casing ("Reads", "reads").
		if n := used[col.Key]; n > 0 {
			used[col.Key]++
			col.Key = fmt.Sprintf("%s_%d", col.Key, n+1)
		} else {
			used[col.Key] = 1
		}
		if k, ok := opt.Kinds[col.Key]; ok && k.Valid() {
			col.Kind = k
		}
		table.Columns = append(table.Columns, col)
	}

	return table, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

func analyzeColumn(header string, index int, rows [][]string) ColumnSpec {
	header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	key := toSnakeCase(header)
	if key == "" {
		key = fmt.Sprintf("column_%d", index+1)
	}

	values := make([]string, 0, len(rows))
	width := utf8.RuneCountInString(header)
	for _, row := range rows {
		if index >= len(row) {
			continue
		}
		val := strings.TrimSpace(row[index])
		if IsNullToken(val) {
			continue
		}
		values = append(values, val)
		if w := utf8.RuneCountInString(val); w > width {
			width = w
		}
	}
	if width > maxWidthHint {
		width = maxWidthHint
	}

	display := header
	if display == "" || (!strings.Contains(display, " ") && strings.ContainsAny(display, "_-")) {
		display = toDisplayName(key)
	}

	return ColumnSpec{
		Key:        key,
		Header:     display,
		Kind:       detectKind(values),
		Sortable:   true,
		Filterable: true,
		Width:      width,
	}
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectKind requires 80%+ of non-null values to match for number/bool.
// A 0/1 column is a number unless some value is a word like "yes".
func detectKind(values []string) Kind {
	if len(values) == 0 {
		return KindString
	}

	numCount := 0
	boolCount := 0
	boolWords := 0
	for _, v := range values {
		if IsNumeric(v) {
			numCount++
		}
		if b, word := isBool(v); b {
			boolCount++
			if word {
				boolWords++
			}
		}
	}

	threshold := int(float64(len(values)) * 0.8)
	if threshold == 0 {
		threshold = 1
	}

	if boolCount >= threshold && boolWords > 0 {
		return KindBool
	}
	if numCount >= threshold {
		return KindNumber
	}
	return KindString
}

// groupedNumber matches thousands grouping ("1,234", "-12,345.5"). Any
// other comma makes the value text, so "1,2" is never 12.
var groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// IsNumeric reports whether s parses as a number once thousands separators
// and a trailing percent sign are removed.
func IsNumeric(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}

// ParseNumber parses pipeline numbers such as "1,234", "98.5%" or "1e-5".
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	if strings.Contains(s, ",") {
		if !groupedNumber.MatchString(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	// ParseFloat accepts "NaN" and "Inf"; those are null tokens, not data.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseBool accepts true/false, yes/no and 1/0 in any case.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0":
		return false, true
	}
	return false, false
}

func isBool(s string) (matched bool, word bool) {
	if _, ok := ParseBool(s); !ok {
		return false, false
	}
	t := strings.TrimSpace(s)
	return true, t != "1" && t != "0"
}

// IsNullToken reports whether s is one of the pipeline's "no value" spellings.
func IsNullToken(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "null", "NULL", "None", "N/A", "n/a", "NA", "na", "NaN", "nan", "-":
		return true
	}
	return false
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// ToKey converts a file header into a column key.
func ToKey(header string) string {
	return toSnakeCase(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
}

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	var result strings.Builder
	prev := rune(0)
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			result.WriteRune('_')
		}
		result.WriteRune(r)
		prev = r
	}

	s = strings.ToLower(result.String())
	s = strings.NewReplacer(" ", "_", "-", "_", ".", "_", "/", "_", "(", "", ")", "", "%", "pct").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// toDisplayName converts "story_points" → "Story Points".
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}
