package engine

import (
	"strings"
)

// ============================================================================
// FILTERS — Free-text search + per-column substring filters
// ============================================================================
// Both are case-insensitive literal substring matches on Value.String().
// Search: a record passes if ANY listed column contains the term.
// Column filters: a record passes if EVERY non-empty filter matches.
// Select runs both in a single pass and returns a SubView with no data copy,
// input order preserved.
// ============================================================================

// ApplySearch returns the records where any of columns contains term.
// An empty term returns view unchanged.
func ApplySearch(view RecordView, term string, columns []string) RecordView {
	return Select(view, term, columns, nil)
}

// ApplyColumnFilters returns the records matching every non-empty filter.
// Filters AND-combine across columns.
func ApplyColumnFilters(view RecordView, filters map[string]string) RecordView {
	return Select(view, "", nil, filters)
}

// Select applies search and column filters in one pass. The result is the
// intersection of ApplySearch and ApplyColumnFilters.
func Select(view RecordView, term string, columns []string, filters map[string]string) RecordView {
	needle := strings.ToLower(term)
	active := activeFilters(filters)

	if needle == "" && len(active) == 0 {
		return view
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if needle != "" && !matchesAny(view, i, columns, needle) {
			continue
		}
		if !matchesAll(view, i, active) {
			continue
		}
		indices = append(indices, i)
	}

	return newSubView(view, indices)
}

type columnFilter struct {
	key    string
	needle string
}

// activeFilters drops empty values and lower-cases the rest once.
// Keys are visited in sorted order so evaluation is deterministic.
func activeFilters(filters map[string]string) []columnFilter {
	if len(filters) == 0 {
		return nil
	}
	out := make([]columnFilter, 0, len(filters))
	for _, key := range sortedKeys(filters) {
		if v := filters[key]; v != "" {
			out = append(out, columnFilter{key: key, needle: strings.ToLower(v)})
		}
	}
	return out
}

func matchesAny(view RecordView, i int, columns []string, needle string) bool {
	for _, key := range columns {
		if strings.Contains(strings.ToLower(view.Value(i, key).String()), needle) {
			return true
		}
	}
	return false
}

func matchesAll(view RecordView, i int, filters []columnFilter) bool {
	for _, f := range filters {
		if !strings.Contains(strings.ToLower(view.Value(i, f.key).String()), f.needle) {
			return false
		}
	}
	return true
}
