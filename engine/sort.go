package engine

import (
	"sort"
	"strings"

	"github.com/spektr-org/ednadash/schema"
)

// ============================================================================
// SORT — Stable single-column sort with type-dispatched comparison
// ============================================================================
// Numbers compare numerically, strings by byte order, bools false < true.
// Null sorts before every value. Mixed kinds in one column order by kind
// rank (null < bool < number < string), so the order is always total.
//
// Descending negates the comparator; the output is never reversed, which
// keeps equal elements in their input order in both directions.
// ============================================================================

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Asc, Desc:
		return d, true
	}
	return Asc, false
}

// ApplySort returns view ordered by column. An empty column returns view
// unchanged.
func ApplySort(view RecordView, column string, dir Direction) RecordView {
	if column == "" {
		return view
	}

	n := view.Len()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	sign := 1
	if dir == Desc {
		sign = -1
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return sign*Compare(view.Value(indices[a], column), view.Value(indices[b], column)) < 0
	})

	return newSubView(view, indices)
}

// Compare returns -1, 0 or +1 ordering a before, equal to, or after b.
func Compare(a, b Value) int {
	ra, rb := kindRank(a.kind), kindRank(b.kind)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch a.kind {
	case schema.KindNumber:
		switch {
		case a.n < b.n:
			return -1
		case a.n > b.n:
			return 1
		}
		return 0
	case schema.KindString:
		return strings.Compare(a.s, b.s)
	case schema.KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		}
		return 1
	default:
		return 0 // both null
	}
}

func kindRank(k schema.Kind) int {
	switch k {
	case schema.KindBool:
		return 1
	case schema.KindNumber:
		return 2
	case schema.KindString:
		return 3
	default:
		return 0
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
