package engine

import "fmt"

// ============================================================================
// PAGINATION
// ============================================================================
// TotalPages = ceil(n / itemsPerPage); an empty view has 0 pages.
// The requested page is clamped into [1, max(1, TotalPages)], so page 1 of
// an empty view is a valid, empty page.
// ============================================================================

// Page is one slice of a record sequence.
type Page struct {
	Records    RecordView
	Current    int
	TotalPages int
}

// Paginate returns the records on page (1-based) of view.
func Paginate(view RecordView, page, itemsPerPage int) (Page, error) {
	if itemsPerPage <= 0 {
		return Page{}, fmt.Errorf("%w: got %d", ErrInvalidItemsPerPage, itemsPerPage)
	}

	n := view.Len()
	totalPages := n / itemsPerPage
	if n%itemsPerPage != 0 {
		totalPages++
	}
	current := ClampPage(page, totalPages)

	start := (current - 1) * itemsPerPage
	return Page{
		Records:    Slice(view, start, start+itemsPerPage),
		Current:    current,
		TotalPages: totalPages,
	}, nil
}

// ClampPage bounds page into [1, max(1, totalPages)].
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}
