package engine

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spektr-org/ednadash/schema"
)

// ContentTypeCSV is the media type of ExportCSV output.
const ContentTypeCSV = "text/csv"

// ExportCSV writes view as CSV: one header line of column labels, then one
// line per record in view order. Cells are raw values (not rendered); null
// cells are empty. Fields containing commas, quotes or newlines are quoted.
func ExportCSV(w io.Writer, view RecordView, columns []schema.ColumnSpec) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Label()
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export header: %w", err)
	}

	row := make([]string, len(columns))
	for i := 0; i < view.Len(); i++ {
		for j, c := range columns {
			row[j] = view.Value(i, c.Key).String()
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
