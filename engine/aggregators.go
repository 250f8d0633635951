package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Column Summaries via RecordView
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view). Null measure
// values are skipped, never counted as 0.
// ============================================================================

// Aggregation names accepted by GroupAndAggregate.
const (
	AggSum   = "sum"
	AggCount = "count"
	AggAvg   = "avg"
	AggMax   = "max"
	AggMin   = "min"
)

// BlankLabel labels the group of records whose group column is null or empty.
const BlankLabel = "(blank)"

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// Pipeline: group → aggregate → sort → limit.
// An empty groupKey yields a single "Total" group.
func GroupAndAggregate(
	view RecordView,
	groupKey string,
	measure string,
	aggregation string,
	sortBy string,
	limit int,
) []Group {
	if view.Len() == 0 {
		return nil
	}

	// 1. Group
	var groups []Group
	if groupKey == "" {
		groups = []Group{{Key: "all", Label: "Total", View: view}}
	} else {
		groups = groupBy(view, groupKey)
	}

	// 2. Aggregate
	for i := range groups {
		aggregateGroup(&groups[i], measure, aggregation)
	}

	// 3. Sort
	SortGroups(groups, sortBy)

	// 4. Limit
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBy(view RecordView, key string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		k := view.Value(i, key).String()
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], i)
	}

	groups := make([]Group, 0, len(order))
	for _, k := range order {
		label := k
		if label == "" {
			label = BlankLabel
		}
		groups = append(groups, Group{
			Key:   k,
			Label: label,
			View:  newSubView(view, grouped[k]),
		})
	}
	return groups
}

// FoldOther keeps the first keep groups and merges the rest into one group
// labelled label. Values are summed, so it is meant for sum/count groups.
func FoldOther(groups []Group, keep int, label string) []Group {
	if keep <= 0 || len(groups) <= keep {
		return groups
	}
	out := make([]Group, keep, keep+1)
	copy(out, groups[:keep])

	other := Group{Key: label, Label: label}
	for _, g := range groups[keep:] {
		other.Value += g.Value
		other.Count += g.Count
	}
	return append(out, other)
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, measure string, aggregation string) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	switch aggregation {
	case AggCount:
		group.Value = float64(group.Count)
	case AggAvg:
		group.Value = Summarize(group.View, measure).Mean
	case AggMax:
		group.Value = Summarize(group.View, measure).Max
	case AggMin:
		group.Value = Summarize(group.View, measure).Min
	default:
		group.Value = Summarize(group.View, measure).Sum
	}
}

// ColumnSummary describes the numeric values of one column.
type ColumnSummary struct {
	Count     int     `json:"count"`     // non-null numeric values
	NullCount int     `json:"nullCount"` // null or non-numeric values
	Sum       float64 `json:"sum"`
	Mean      float64 `json:"mean"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// Summarize computes count, sum, mean, min and max of key over view,
// ignoring values that are not numbers. With no numbers every statistic is 0.
func Summarize(view RecordView, key string) ColumnSummary {
	var s ColumnSummary
	min, max := math.Inf(1), math.Inf(-1)

	for i := 0; i < view.Len(); i++ {
		f, ok := view.Value(i, key).Float()
		if !ok {
			s.NullCount++
			continue
		}
		s.Count++
		s.Sum += f
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}

	if s.Count > 0 {
		s.Mean = s.Sum / float64(s.Count)
		s.Min, s.Max = min, max
	}
	return s
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts aggregate groups by the specified sort mode. Unknown
// modes keep first-seen order.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case "value_desc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	case "value_asc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value < groups[j].Value })
	case "label_asc":
		sort.SliceStable(groups, func(i, j int) bool { return strings.ToLower(groups[i].Label) < strings.ToLower(groups[j].Label) })
	case "label_desc":
		sort.SliceStable(groups, func(i, j int) bool { return strings.ToLower(groups[i].Label) > strings.ToLower(groups[j].Label) })
	default:
		// preserve grouping order
	}
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatNumber formats a number with comma separators. Integral values
// have no decimals; others keep two.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Sprintf("%v", f)
	}
	negative := f < 0
	if negative {
		f = -f
	}

	r := RoundTo2(f)
	intPart := int(r)
	frac := int(math.Round((r - float64(intPart)) * 100))
	if frac == 100 {
		intPart++
		frac = 0
	}

	out := FormatInt(intPart)
	if frac != 0 {
		out += fmt.Sprintf(".%02d", frac)
	}
	if negative && (intPart != 0 || frac != 0) {
		out = "-" + out
	}
	return out
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct non-empty values of key in first-seen order.
func UniqueValues(view RecordView, key string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Value(i, key).String()
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// LabelForAggregation returns a human-readable label for an aggregation type.
func LabelForAggregation(aggregation string) string {
	switch aggregation {
	case AggSum:
		return "Total"
	case AggCount:
		return "Count"
	case AggAvg:
		return "Average"
	case AggMax:
		return "Maximum"
	case AggMin:
		return "Minimum"
	default:
		return "Value"
	}
}
