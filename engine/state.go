package engine

import (
	"fmt"

	"github.com/spektr-org/ednadash/schema"
)

// ============================================================================
// TABLE STATE — Four independent knobs composed by pure reduction
// ============================================================================
// search, column filters, sort and page. Every transition returns a new
// TableState; the receiver is never modified (filters are copied on write).
// Changing the search term or any filter resets the page to 1.
// ============================================================================

// DefaultItemsPerPage is used when a table is built without a page size.
const DefaultItemsPerPage = 10

// TableState is the transient view state of one table instance.
type TableState struct {
	Search        string            `json:"search"`
	Filters       map[string]string `json:"filters,omitempty"`
	SortColumn    string            `json:"sortColumn,omitempty"` // "" keeps input order
	SortDirection Direction         `json:"sortDirection"`
	Page          int               `json:"page"`
	ItemsPerPage  int               `json:"itemsPerPage"`
}

// NewTableState returns the initial state for a page size.
func NewTableState(itemsPerPage int) TableState {
	return TableState{
		SortDirection: Asc,
		Page:          1,
		ItemsPerPage:  itemsPerPage,
	}
}

// WithSearch sets the free-text search term and resets the page.
func (s TableState) WithSearch(term string) TableState {
	s.Search = term
	s.Page = 1
	return s
}

// WithFilter sets the filter for key and resets the page. Unknown and
// non-filterable columns leave the state unchanged. An empty value removes
// the filter.
func (s TableState) WithFilter(table schema.Table, key, value string) TableState {
	col, ok := table.Column(key)
	if !ok || !col.Filterable {
		return s
	}
	if value == "" {
		return s.WithoutFilter(key)
	}
	s.Filters = cloneFilters(s.Filters)
	s.Filters[key] = value
	s.Page = 1
	return s
}

// WithoutFilter removes the filter for key and resets the page.
func (s TableState) WithoutFilter(key string) TableState {
	if _, ok := s.Filters[key]; !ok {
		return s
	}
	s.Filters = cloneFilters(s.Filters)
	delete(s.Filters, key)
	s.Page = 1
	return s
}

// ClearFilters removes search and every column filter and resets the page.
func (s TableState) ClearFilters() TableState {
	s.Search = ""
	s.Filters = nil
	s.Page = 1
	return s
}

// ToggleSort sorts by key ascending, or flips the direction if key is
// already the sort column. Unknown and non-sortable columns are a no-op.
func (s TableState) ToggleSort(table schema.Table, key string) TableState {
	col, ok := table.Column(key)
	if !ok || !col.Sortable {
		return s
	}
	if s.SortColumn == key {
		s.SortDirection = s.SortDirection.Flip()
		return s
	}
	s.SortColumn = key
	s.SortDirection = Asc
	return s
}

// WithSort sorts by key in dir. Unknown and non-sortable columns are a
// no-op.
func (s TableState) WithSort(table schema.Table, key string, dir Direction) TableState {
	col, ok := table.Column(key)
	if !ok || !col.Sortable {
		return s
	}
	s.SortColumn = key
	s.SortDirection = dir
	return s
}

// WithoutSort restores input order.
func (s TableState) WithoutSort() TableState {
	s.SortColumn = ""
	s.SortDirection = Asc
	return s
}

// WithPage moves to page n. Values below 1 become 1; the upper bound is
// applied when the view is derived.
func (s TableState) WithPage(n int) TableState {
	if n < 1 {
		n = 1
	}
	s.Page = n
	return s
}

// NextPage advances one page.
func (s TableState) NextPage() TableState { return s.WithPage(s.Page + 1) }

// PrevPage goes back one page, stopping at 1.
func (s TableState) PrevPage() TableState { return s.WithPage(s.Page - 1) }

// WithItemsPerPage changes the page size and resets the page.
func (s TableState) WithItemsPerPage(n int) (TableState, error) {
	if n <= 0 {
		return s, fmt.Errorf("%w: got %d", ErrInvalidItemsPerPage, n)
	}
	s.ItemsPerPage = n
	s.Page = 1
	return s, nil
}

// Validate reports page-size and sort problems against table.
func (s TableState) Validate(table schema.Table) error {
	if s.ItemsPerPage <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidItemsPerPage, s.ItemsPerPage)
	}
	if s.SortColumn != "" {
		col, ok := table.Column(s.SortColumn)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, s.SortColumn)
		}
		if !col.Sortable {
			return fmt.Errorf("%w: %q", ErrNotSortable, s.SortColumn)
		}
	}
	return nil
}

func cloneFilters(f map[string]string) map[string]string {
	out := make(map[string]string, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	return out
}
