package shell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/ednadash/engine"
	"github.com/spektr-org/ednadash/schema"
)

var alphaTable = schema.Table{
	Name: "alpha",
	Columns: []schema.ColumnSpec{
		schema.Text("sample", "Sample"),
		schema.Text("site", "Site"),
		schema.Number("shannon", "Shannon"),
		schema.Text("notes", "Notes").Unsortable(),
	},
}

func newSession(t *testing.T) *Session {
	t.Helper()
	records := []engine.Record{
		engine.RecordOf(map[string]any{"sample": "S1", "site": "Reef", "shannon": 2.1}),
		engine.RecordOf(map[string]any{"sample": "S2", "site": "Bay", "shannon": 3.4}),
		engine.RecordOf(map[string]any{"sample": "S3", "site": "Reef", "shannon": 1.7}),
		engine.RecordOf(map[string]any{"sample": "S4", "site": "Harbour", "shannon": 2.9}),
	}
	opts := []engine.Option{engine.WithItemsPerPage(2), engine.WithLogger(zerolog.Nop())}
	alpha, err := engine.NewTable(alphaTable, engine.NewSliceView(records), opts...)
	require.NoError(t, err)
	empty, err := engine.NewTable(schema.Table{Name: "other", Columns: []schema.ColumnSpec{schema.Text("id", "ID")}}, nil, opts...)
	require.NoError(t, err)

	s, err := NewSession(map[string]*engine.Table{"alpha": alpha, "other": empty}, "alpha")
	require.NoError(t, err)
	s.logger = zerolog.Nop()
	return s
}

func TestSessionExec(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	s := newSession(t)

	out, err := s.Exec("show")
	req.NoError(err)
	req.Contains(out, "S1")
	req.Contains(out, "Page 1 of 2 · 4 rows")

	out, err = s.Exec("search reef")
	req.NoError(err)
	req.Contains(out, `search "reef"`)
	req.Contains(out, "2 rows")
	req.NotContains(out, "S2")

	out, err = s.Exec("clear")
	req.NoError(err)
	req.Contains(out, "4 rows")

	out, err = s.Exec("sort shannon")
	req.NoError(err)
	req.Contains(out, "Shannon ▲")
	_, cur := s.Current()
	req.Equal("shannon", cur.State().SortColumn)

	out, err = s.Exec("sort shannon")
	req.NoError(err)
	req.Contains(out, "Shannon ▼")
	d, err := cur.Derive()
	req.NoError(err)
	req.Equal("S2", d.Page.Value(0, "sample").String())

	_, err = s.Exec("sort off")
	req.NoError(err)
	req.Empty(cur.State().SortColumn)

	out, err = s.Exec("next")
	req.NoError(err)
	req.Contains(out, "Page 2 of 2")
	out, err = s.Exec("next")
	req.NoError(err)
	req.Contains(out, "Page 2 of 2")
	out, err = s.Exec("page 1")
	req.NoError(err)
	req.Contains(out, "Page 1 of 2")

	out, err = s.Exec("size 10")
	req.NoError(err)
	req.Contains(out, "Page 1 of 1")

	out, err = s.Exec("filter site ee")
	req.NoError(err)
	req.Contains(out, `site~"ee"`)
	req.Contains(out, "2 rows")
	out, err = s.Exec("unfilter site")
	req.NoError(err)
	req.Contains(out, "4 rows")

	out, err = s.Exec("sort notes")
	req.NoError(err, "non-sortable column is a no-op")
	req.Empty(cur.State().SortColumn)
	req.NotContains(out, "▲")
}

func TestSessionErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		line string
		is   error
	}{
		"quit":           {line: `\q`, is: ErrQuit},
		"exit":           {line: "exit", is: ErrQuit},
		"filter usage":   {line: "filter site", is: errUsage},
		"filter unknown": {line: "filter depth 3", is: engine.ErrUnknownColumn},
		"sort unknown":   {line: "sort depth", is: engine.ErrUnknownColumn},
		"page":           {line: "page two", is: errUsage},
		"size":           {line: "size 0", is: engine.ErrInvalidItemsPerPage},
		"export usage":   {line: "export", is: errUsage},
		"sort direction": {line: "sort shannon sideways", is: errUsage},
		"values usage":   {line: "values", is: errUsage},
		"values unknown": {line: "values depth", is: engine.ErrUnknownColumn},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newSession(t).Exec(tc.line)
			require.ErrorIs(t, err, tc.is)
		})
	}

	_, err := newSession(t).Exec("frobnicate")
	require.ErrorContains(t, err, "unknown command")
}

func TestSessionSortDirectionAndValues(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	s := newSession(t)
	_, cur := s.Current()

	out, err := s.Exec("sort shannon desc")
	req.NoError(err)
	req.Contains(out, "Shannon ▼")
	req.Equal(engine.Desc, cur.State().SortDirection)

	_, err = s.Exec("sort shannon DESC")
	req.NoError(err)
	req.Equal(engine.Desc, cur.State().SortDirection, "explicit direction does not flip")

	out, err = s.Exec("sort shannon asc")
	req.NoError(err)
	req.Contains(out, "Shannon ▲")
	d, err := cur.Derive()
	req.NoError(err)
	req.Equal("S3", d.Page.Value(0, "sample").String())

	_, err = s.Exec("search bay")
	req.NoError(err)
	out, err = s.Exec("values site")
	req.NoError(err)
	req.Equal("Reef\nBay\nHarbour", out, "first-seen order over unfiltered rows")

	out, err = s.Exec("values notes")
	req.NoError(err)
	req.Equal(engine.NoDataText, out)
}

func TestSessionTablesAndExport(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	s := newSession(t)

	out, err := s.Exec("tables")
	req.NoError(err)
	req.Equal("* alpha\n  other", out)

	out, err = s.Exec("cols")
	req.NoError(err)
	req.Contains(out, "shannon")
	req.Contains(out, "sortable,filterable")

	_, err = s.Exec("search bay")
	req.NoError(err)
	p := filepath.Join(t.TempDir(), "alpha.csv")
	out, err = s.Exec("export " + p)
	req.NoError(err)
	req.Equal("wrote "+p, out)
	data, err := os.ReadFile(p)
	req.NoError(err)
	req.Equal("Sample,Site,Shannon,Notes\nS2,Bay,3.4,\n", string(data))

	out, err = s.Exec("use other")
	req.NoError(err)
	req.Contains(out, engine.NoDataText)
	name, _ := s.Current()
	req.Equal("other", name)

	_, err = s.Exec("use missing")
	req.ErrorContains(err, "unknown table")

	_, err = NewSession(nil, "")
	req.Error(err)
}
