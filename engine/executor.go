package engine

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/spektr-org/ednadash/schema"
)

// ============================================================================
// TABLE — One table instance: schema + source + transient state
// ============================================================================
// Entry point: NewTable(schema, source, opts...)
//
// Derive pipeline (recomputed on every call, nothing cached):
//   1. Search + column filters → SubView (single pass)
//   2. Stable sort on the state's sort column → SubView
//   3. Paginate → page SubView
//
// The source is never mutated. A Table is owned by one caller and is not
// safe for concurrent mutation.
// ============================================================================

// DerivedView is the result of running the pipeline over the source.
type DerivedView struct {
	Filtered     RecordView // searched, filtered and sorted; export reads this
	TotalCount   int
	Page         RecordView
	TotalPages   int
	CurrentPage  int
	ItemsPerPage int
}

// Table binds a schema to a record source and holds the view state.
type Table struct {
	schema schema.Table
	source RecordView
	state  TableState
	totals []string
	logger zerolog.Logger
}

// NewTable validates table and returns an instance over source.
//
// Options:
//   - WithItemsPerPage(n) — initial page size (default 10)
//   - WithInitialSort(column, dir) — initial sort
//   - WithTotals(columns...) — footer sums
//   - WithLogger(l) — zerolog logger
func NewTable(table schema.Table, source RecordView, opts ...Option) (*Table, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)

	state := NewTableState(cfg.itemsPerPage)
	if cfg.sortColumn != "" {
		state.SortColumn = cfg.sortColumn
		state.SortDirection = cfg.sortDir
	}
	if err := state.Validate(table); err != nil {
		return nil, fmt.Errorf("table %q: %w", table.Name, err)
	}
	for _, key := range cfg.totals {
		if _, ok := table.Column(key); !ok {
			return nil, fmt.Errorf("table %q: totals: %w: %q", table.Name, ErrUnknownColumn, key)
		}
	}

	if source == nil {
		source = NewSliceView(nil)
	}

	return &Table{
		schema: table,
		source: source,
		state:  state,
		totals: cfg.totals,
		logger: cfg.logger.With().Str("table", table.Name).Logger(),
	}, nil
}

// Schema returns the table's column specification.
func (t *Table) Schema() schema.Table { return t.schema }

// Source returns the unfiltered record sequence.
func (t *Table) Source() RecordView { return t.source }

// State returns the current view state.
func (t *Table) State() TableState { return t.state }

// SetState replaces the view state after validating it.
func (t *Table) SetState(s TableState) error {
	if err := s.Validate(t.schema); err != nil {
		return err
	}
	t.state = s
	return nil
}

// Dispatch applies a reducer to the current state.
func (t *Table) Dispatch(reduce func(TableState) TableState) {
	t.state = reduce(t.state)
}

// ── Convenience reducers ──

func (t *Table) Search(term string) {
	t.Dispatch(func(s TableState) TableState { return s.WithSearch(term) })
}

func (t *Table) Filter(key, value string) {
	t.Dispatch(func(s TableState) TableState { return s.WithFilter(t.schema, key, value) })
}

func (t *Table) Unfilter(key string) {
	t.Dispatch(func(s TableState) TableState { return s.WithoutFilter(key) })
}

func (t *Table) ClearFilters() { t.Dispatch(TableState.ClearFilters) }

func (t *Table) ToggleSort(key string) {
	t.Dispatch(func(s TableState) TableState { return s.ToggleSort(t.schema, key) })
}

func (t *Table) SortBy(key string, dir Direction) {
	t.Dispatch(func(s TableState) TableState { return s.WithSort(t.schema, key, dir) })
}

func (t *Table) GoToPage(n int) { t.Dispatch(func(s TableState) TableState { return s.WithPage(n) }) }

func (t *Table) NextPage() { t.Dispatch(TableState.NextPage) }

func (t *Table) PrevPage() { t.Dispatch(TableState.PrevPage) }

// SetItemsPerPage changes the page size; n <= 0 returns ErrInvalidItemsPerPage.
func (t *Table) SetItemsPerPage(n int) error {
	s, err := t.state.WithItemsPerPage(n)
	if err != nil {
		return err
	}
	t.state = s
	return nil
}

// Derive runs search, filters, sort and pagination over the source.
// The state's page is clamped to the derived page count; the stored state
// is updated so that NextPage past the end stays on the last page.
func (t *Table) Derive() (*DerivedView, error) {
	s := t.state

	filtered := Select(t.source, s.Search, t.searchColumns(), t.activeFilters(s.Filters))
	sorted := ApplySort(filtered, s.SortColumn, s.SortDirection)

	page, err := Paginate(sorted, s.Page, s.ItemsPerPage)
	if err != nil {
		return nil, err
	}
	t.state.Page = page.Current

	t.logger.Debug().
		Int("source", t.source.Len()).
		Int("matched", sorted.Len()).
		Int("page", page.Current).
		Int("pages", page.TotalPages).
		Str("sort", s.SortColumn).
		Msg("derived view")

	return &DerivedView{
		Filtered:     sorted,
		TotalCount:   sorted.Len(),
		Page:         page.Records,
		TotalPages:   page.TotalPages,
		CurrentPage:  page.Current,
		ItemsPerPage: s.ItemsPerPage,
	}, nil
}

// Export writes the full filtered and sorted view as CSV.
func (t *Table) Export(w io.Writer) error {
	d, err := t.Derive()
	if err != nil {
		return err
	}
	return ExportCSV(w, d.Filtered, t.schema.Columns)
}

// Build derives the view and shapes it for rendering.
func (t *Table) Build(title string) (*TableData, error) {
	d, err := t.Derive()
	if err != nil {
		return nil, err
	}
	data := BuildTable(d, t.schema, title)
	data.Search = t.state.Search
	data.Filters = t.state.Filters
	data.SortColumn = t.state.SortColumn
	if t.state.SortColumn != "" {
		data.SortDirection = t.state.SortDirection
		for i := range data.Columns {
			if data.Columns[i].Key == t.state.SortColumn {
				data.Columns[i].Sorted = t.state.SortDirection
			}
		}
	}
	if len(t.totals) > 0 {
		data.Summary = BuildTotals(d.Filtered, t.schema, t.totals)
	}
	return data, nil
}

// searchColumns are every column of the schema.
func (t *Table) searchColumns() []string { return t.schema.Keys() }

// activeFilters drops filters on unknown or non-filterable columns.
func (t *Table) activeFilters(filters map[string]string) map[string]string {
	if len(filters) == 0 {
		return nil
	}
	out := make(map[string]string, len(filters))
	for k, v := range filters {
		if col, ok := t.schema.Column(k); ok && col.Filterable {
			out[k] = v
		}
	}
	return out
}
