package engine

import "errors"

var (
	// ErrInvalidItemsPerPage is returned for a page size below 1.
	ErrInvalidItemsPerPage = errors.New("items per page must be at least 1")
	// ErrUnknownColumn is returned when a key names no column of the table.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotSortable is returned when an initial sort names a non-sortable column.
	ErrNotSortable = errors.New("column is not sortable")
	// ErrUnknownRenderer is returned for a render spec that cannot be parsed.
	ErrUnknownRenderer = errors.New("unknown renderer")
)
