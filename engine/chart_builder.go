package engine

import (
	"fmt"

	"github.com/spektr-org/ednadash/schema"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from a ChartSpec + RecordView
// ============================================================================
// Three shapes cover the report's charts:
//   bar    — one bar per group of an aggregated measure
//   pie    — composition: group shares, tail folded into "Other"
//   line / scatter / series — one point per record, one series per column
// ============================================================================

// Chart types understood by BuildChart.
const (
	ChartBar     = "bar"
	ChartPie     = "pie"
	ChartLine    = "line"
	ChartScatter = "scatter"
)

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// ChartSpec declares how to turn a table into a chart.
type ChartSpec struct {
	Type    string   `json:"type" mapstructure:"type"`
	Title   string   `json:"title" mapstructure:"title"`
	GroupBy string   `json:"groupBy,omitempty" mapstructure:"group_by"` // bar, pie
	Measure string   `json:"measure,omitempty" mapstructure:"measure"`  // bar, pie; empty counts records
	Agg     string   `json:"agg,omitempty" mapstructure:"agg"`          // bar, pie
	SortBy  string   `json:"sortBy,omitempty" mapstructure:"sort_by"`   // bar, pie
	Limit   int      `json:"limit,omitempty" mapstructure:"limit"`      // bar; pie folds the rest
	Label   string   `json:"label,omitempty" mapstructure:"label"`      // series x values
	Values  []string `json:"values,omitempty" mapstructure:"values"`    // series y columns
	XAxis   string   `json:"xAxis,omitempty" mapstructure:"x_axis"`
	YAxis   string   `json:"yAxis,omitempty" mapstructure:"y_axis"`
}

// BuildChart dispatches on spec.Type. It returns nil when the view is empty.
func BuildChart(spec ChartSpec, view RecordView, table schema.Table) (*ChartConfig, error) {
	if err := checkColumns(table, spec.GroupBy, spec.Measure, spec.Label); err != nil {
		return nil, fmt.Errorf("chart %q: %w", spec.Title, err)
	}
	if err := checkColumns(table, spec.Values...); err != nil {
		return nil, fmt.Errorf("chart %q: %w", spec.Title, err)
	}
	if view.Len() == 0 {
		return nil, nil
	}

	agg := spec.Agg
	if spec.Measure == "" {
		agg = AggCount
	}

	switch spec.Type {
	case ChartPie:
		groups := GroupAndAggregate(view, spec.GroupBy, spec.Measure, agg, "value_desc", 0)
		return BuildCompositionChart(FoldOther(groups, spec.Limit, "Other"), spec.Title), nil

	case ChartLine, ChartScatter:
		cfg := BuildSeriesChart(view, spec.Label, spec.Values, spec.Title, spec.Type)
		if spec.XAxis != "" {
			cfg.XAxis = spec.XAxis
		} else if col, ok := table.Column(spec.Label); ok {
			cfg.XAxis = col.Label()
		}
		cfg.YAxis = spec.YAxis
		seriesNames(cfg, table)
		return cfg, nil

	default:
		groups := GroupAndAggregate(view, spec.GroupBy, spec.Measure, agg, spec.SortBy, spec.Limit)
		xLabel, yLabel := spec.XAxis, spec.YAxis
		if col, ok := table.Column(spec.GroupBy); ok && xLabel == "" {
			xLabel = col.Label()
		}
		if yLabel == "" {
			yLabel = LabelForAggregation(agg)
			if col, ok := table.Column(spec.Measure); ok && agg != AggCount {
				yLabel = fmt.Sprintf("%s (%s)", col.Label(), yLabel)
			}
		}
		return BuildBarChart(groups, spec.Title, xLabel, yLabel), nil
	}
}

// BuildBarChart renders groups as a single bar series.
func BuildBarChart(groups []Group, title, xAxis, yAxis string) *ChartConfig {
	if len(groups) == 0 {
		return nil
	}
	series := buildSingleSeries(groups, yAxis)
	return &ChartConfig{
		ChartType:  ChartBar,
		Title:      title,
		XAxis:      xAxis,
		YAxis:      yAxis,
		Series:     series,
		Colors:     assignColors(len(series)),
		ShowLegend: false,
		ShowGrid:   true,
	}
}

// BuildCompositionChart renders groups as pie slices, one color per slice.
func BuildCompositionChart(groups []Group, title string) *ChartConfig {
	if len(groups) == 0 {
		return nil
	}
	return &ChartConfig{
		ChartType:  ChartPie,
		Title:      title,
		Series:     buildSingleSeries(groups, title),
		Colors:     assignColors(len(groups)),
		ShowLegend: true,
		ShowGrid:   false,
	}
}

// BuildSeriesChart emits one point per record for each value column,
// labelled by labelKey. Null values are skipped.
func BuildSeriesChart(view RecordView, labelKey string, valueKeys []string, title, chartType string) *ChartConfig {
	if chartType == "" {
		chartType = ChartLine
	}

	series := make([]ChartSeries, 0, len(valueKeys))
	for i, key := range valueKeys {
		points := make([]ChartPoint, 0, view.Len())
		for r := 0; r < view.Len(); r++ {
			f, ok := view.Value(r, key).Float()
			if !ok {
				continue
			}
			points = append(points, ChartPoint{
				Label: view.Value(r, labelKey).String(),
				Value: RoundTo2(f),
			})
		}
		series = append(series, ChartSeries{
			Name:  key,
			Data:  points,
			Color: defaultColors[i%len(defaultColors)],
		})
	}

	return &ChartConfig{
		ChartType:  chartType,
		Title:      title,
		Series:     series,
		Colors:     assignColors(len(series)),
		ShowLegend: len(series) > 1,
		ShowGrid:   true,
	}
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSingleSeries(groups []Group, seriesName string) []ChartSeries {
	if seriesName == "" {
		seriesName = "Value"
	}

	points := make([]ChartPoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, ChartPoint{
			Label: g.Label,
			Value: RoundTo2(g.Value),
		})
	}

	return []ChartSeries{{
		Name: seriesName,
		Data: points,
	}}
}

// seriesNames replaces column keys with headers.
func seriesNames(cfg *ChartConfig, table schema.Table) {
	for i := range cfg.Series {
		if col, ok := table.Column(cfg.Series[i].Name); ok {
			cfg.Series[i].Name = col.Label()
		}
	}
}

func checkColumns(table schema.Table, keys ...string) error {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := table.Column(k); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, k)
		}
	}
	return nil
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
