package engine

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ============================================================================
// TEXT BUILDER — Plain-text rendering of TableData for terminals
// ============================================================================
// Columns are padded to the widest cell, capped by the column's Width hint
// (cells beyond it are truncated). Numbers align right. An empty table
// prints its headers followed by "No data".
// ============================================================================

// NoDataText is printed in place of rows for an empty table.
const NoDataText = "No data"

const maxTextWidth = 60

// WriteText renders data as an aligned plain-text table.
func WriteText(w io.Writer, data *TableData) error {
	var b strings.Builder

	if data.Title != "" {
		b.WriteString(data.Title)
		b.WriteString("\n")
	}

	widths := textWidths(data)

	header := make([]string, len(data.Columns))
	for i, c := range data.Columns {
		label := c.Label
		switch c.Sorted {
		case Asc:
			label += " ▲"
		case Desc:
			label += " ▼"
		}
		header[i] = pad(truncate(label, widths[i]), widths[i], c.Align)
	}
	writeLine(&b, header)

	rule := make([]string, len(widths))
	for i, wd := range widths {
		rule[i] = strings.Repeat("-", wd)
	}
	writeLine(&b, rule)

	if len(data.Rows) == 0 {
		b.WriteString(NoDataText)
		b.WriteString("\n")
	}
	for _, row := range data.Rows {
		cells := make([]string, len(data.Columns))
		for i, c := range data.Columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = pad(truncate(cell, widths[i]), widths[i], c.Align)
		}
		writeLine(&b, cells)
	}

	if data.Summary != nil {
		cells := make([]string, len(data.Columns))
		for i, c := range data.Columns {
			cells[i] = pad(truncate(data.Summary.Values[c.Key], widths[i]), widths[i], c.Align)
		}
		writeLine(&b, rule)
		writeLine(&b, cells)
		b.WriteString(data.Summary.Label)
		b.WriteString("\n")
	}

	b.WriteString(Footer(data))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Footer describes the page position, e.g. "Page 2 of 3 · 25 rows".
func Footer(data *TableData) string {
	pages := data.TotalPages
	if pages == 0 {
		pages = 1
	}
	rows := "rows"
	if data.TotalCount == 1 {
		rows = "row"
	}
	out := fmt.Sprintf("Page %d of %d · %s %s", data.Page, pages, FormatInt(data.TotalCount), rows)
	if data.Search != "" {
		out += fmt.Sprintf(" · search %q", data.Search)
	}
	for _, k := range sortedKeys(data.Filters) {
		out += fmt.Sprintf(" · %s~%q", k, data.Filters[k])
	}
	return out
}

func textWidths(data *TableData) []int {
	widths := make([]int, len(data.Columns))
	for i, c := range data.Columns {
		limit := c.Width
		if limit <= 0 {
			limit = maxTextWidth
		}
		wd := utf8.RuneCountInString(c.Label)
		if c.Sorted != "" {
			wd += 2
		}
		for _, row := range data.Rows {
			if i < len(row) {
				wd = max(wd, utf8.RuneCountInString(row[i]))
			}
		}
		if data.Summary != nil {
			wd = max(wd, utf8.RuneCountInString(data.Summary.Values[c.Key]))
		}
		widths[i] = max(1, min(wd, limit))
	}
	return widths
}

func pad(s string, width int, align string) string {
	gap := width - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	if align == "right" {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

func writeLine(b *strings.Builder, cells []string) {
	b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
	b.WriteString("\n")
}
