package engine

import (
	"fmt"

	"github.com/spektr-org/ednadash/schema"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from a DerivedView
// ============================================================================
// Rows are the current page only, rendered through each column's Render
// spec. Columns come from the schema, never from the data, so an empty page
// still carries its headers.
// ============================================================================

// BuildTable shapes the current page of d for display.
func BuildTable(d *DerivedView, table schema.Table, title string) *TableData {
	if title == "" {
		title = table.Name
	}

	columns := make([]Column, 0, len(table.Columns))
	renderers := make([]Renderer, 0, len(table.Columns))
	for _, c := range table.Columns {
		columns = append(columns, columnFor(c))
		renderers = append(renderers, mustRenderer(c.Render))
	}

	rows := make([][]string, 0, d.Page.Len())
	for i := 0; i < d.Page.Len(); i++ {
		row := make([]string, len(table.Columns))
		for j, c := range table.Columns {
			row[j] = renderers[j](d.Page.Value(i, c.Key))
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:        title,
		Columns:      columns,
		Rows:         rows,
		Page:         d.CurrentPage,
		TotalPages:   d.TotalPages,
		TotalCount:   d.TotalCount,
		ItemsPerPage: d.ItemsPerPage,
	}
}

// BuildTotals sums keys over view for a table footer. Values use each
// column's renderer.
func BuildTotals(view RecordView, table schema.Table, keys []string) *Summary {
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		col, ok := table.Column(key)
		if !ok {
			continue
		}
		s := Summarize(view, key)
		values[key] = mustRenderer(col.Render)(Number(s.Sum))
	}
	return &Summary{
		Label:  fmt.Sprintf("Total (%s rows)", FormatInt(view.Len())),
		Values: values,
	}
}

func columnFor(c schema.ColumnSpec) Column {
	align := "left"
	if c.Kind == schema.KindNumber {
		align = "right"
	}
	return Column{
		Key:        c.Key,
		Label:      c.Label(),
		Type:       c.Kind,
		Align:      align,
		Width:      c.Width,
		Sortable:   c.Sortable,
		Filterable: c.Filterable,
	}
}
