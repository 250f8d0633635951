package engine

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ============================================================================
// TABLE OPTIONS — Functional options for NewTable()
// ============================================================================

// Option configures a Table via functional options pattern.
type Option func(*config)

type config struct {
	itemsPerPage int
	sortColumn   string
	sortDir      Direction
	totals       []string // numeric columns summed into the table footer
	logger       zerolog.Logger
}

// WithItemsPerPage sets the initial page size. Values below 1 are rejected
// by NewTable.
func WithItemsPerPage(n int) Option {
	return func(c *config) {
		c.itemsPerPage = n
	}
}

// WithInitialSort starts the table sorted by column.
func WithInitialSort(column string, dir Direction) Option {
	return func(c *config) {
		c.sortColumn = column
		c.sortDir = dir
	}
}

// WithTotals adds a footer summing the named numeric columns over the
// filtered view.
func WithTotals(columns ...string) Option {
	return func(c *config) {
		c.totals = append(c.totals, columns...)
	}
}

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		itemsPerPage: DefaultItemsPerPage,
		sortDir:      Asc,
		logger:       log.Logger,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
