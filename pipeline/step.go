package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spektr-org/ednadash/engine"
	"github.com/spektr-org/ednadash/helpers"
	"github.com/spektr-org/ednadash/loader"
	"github.com/spektr-org/ednadash/schema"
)

// ============================================================================
// STEP LOADING — One partial-failure policy for every step
// ============================================================================
//   required artifact failed → StatusFailed
//   optional artifact failed → StatusPartial, only that section missing
//   every failure            → kept in StepReport.Errors and rendered
// ============================================================================

var (
	// ErrUnknownStep is returned by Lookup for an unknown step id.
	ErrUnknownStep = errors.New("unknown step")
	// ErrUnknownFormat marks an artifact whose format LoadStep cannot read.
	ErrUnknownFormat = errors.New("unknown artifact format")
)

// DefaultPrefix is where the pipeline publishes its artifacts.
const DefaultPrefix = "/data"

// Status summarizes a step load.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// StepReport holds everything loaded for one step.
type StepReport struct {
	Step      Step
	Status    Status
	Summaries map[string]helpers.Summary
	Tables    map[string]*engine.Table
	Assets    map[string]string // artifact name → URL or file path
	Issues    map[string][]helpers.RowIssue
	Errors    []*loader.LoadError
}

// Table returns the named table.
func (r *StepReport) Table(name string) (*engine.Table, bool) {
	t, ok := r.Tables[name]
	return t, ok
}

// TableNames returns table names in catalog order.
func (r *StepReport) TableNames() []string {
	var names []string
	for _, a := range r.Step.Artifacts {
		if _, ok := r.Tables[a.Name]; ok {
			names = append(names, a.Name)
		}
	}
	return names
}

// SummaryTable exposes a JSON summary as a metric/value table.
func (r *StepReport) SummaryTable(name string, opts ...engine.Option) (*engine.Table, error) {
	s, ok := r.Summaries[name]
	if !ok {
		return nil, &loader.LoadError{Step: string(r.Step.ID), Path: name, Kind: loader.KindFetch, Err: loader.ErrNotFound}
	}
	table := helpers.SummaryTable.Clone()
	table.Name = name
	return engine.NewTable(table, helpers.SummaryView(helpers.Flatten(s)), opts...)
}

// Option configures step loading.
type Option func(*options)

type options struct {
	prefix       string
	itemsPerPage int
	verifyAssets bool
	overrides    map[string]map[string]schema.ColumnOverride
	logger       zerolog.Logger
}

// WithPrefix sets the path prefix artifacts live under.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithItemsPerPage sets the page size of every loaded table.
func WithItemsPerPage(n int) Option {
	return func(o *options) { o.itemsPerPage = n }
}

// WithVerifiedAssets fetches pass-through assets so a missing image or
// page is reported instead of rendered as a dead link.
func WithVerifiedAssets() Option {
	return func(o *options) { o.verifyAssets = true }
}

// WithOverrides adjusts loaded tables' columns, keyed by artifact name
// and then column key.
func WithOverrides(overrides map[string]map[string]schema.ColumnOverride) Option {
	return func(o *options) { o.overrides = overrides }
}

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func applyOptions(opts []Option) *options {
	o := &options{
		prefix:       DefaultPrefix,
		itemsPerPage: engine.DefaultItemsPerPage,
		logger:       log.Logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ArtifactPath joins the prefix and an artifact's relative path.
func ArtifactPath(prefix string, a Artifact) string {
	return path.Join("/", prefix, a.Path)
}

// LoadStep loads every artifact of step. It never returns a nil report;
// failures are recorded on it.
func LoadStep(ctx context.Context, l *loader.Loader, step Step, opts ...Option) *StepReport {
	o := applyOptions(opts)
	logger := o.logger.With().Str("step", string(step.ID)).Logger()

	r := &StepReport{
		Step:      step,
		Status:    StatusOK,
		Summaries: make(map[string]helpers.Summary),
		Tables:    make(map[string]*engine.Table),
		Assets:    make(map[string]string),
		Issues:    make(map[string][]helpers.RowIssue),
	}

	for _, a := range step.Artifacts {
		p := ArtifactPath(o.prefix, a)

		var lerr *loader.LoadError
		switch {
		case a.Format == FormatJSON:
			lerr = loadSummary(ctx, l, r, a, p)
		case a.Format.IsTable():
			lerr = loadTable(ctx, l, r, a, p, o)
		case a.Format.IsAsset():
			lerr = loadAsset(ctx, l, r, a, p, o)
		default:
			lerr = &loader.LoadError{Step: string(step.ID), Path: p, Kind: loader.KindParse, Err: fmt.Errorf("%w: %q", ErrUnknownFormat, a.Format)}
		}

		if lerr != nil {
			r.fail(a, lerr)
		}
	}

	logger.Info().
		Str("status", string(r.Status)).
		Int("tables", len(r.Tables)).
		Int("summaries", len(r.Summaries)).
		Int("errors", len(r.Errors)).
		Msg("step loaded")
	return r
}

// LoadAll loads every catalog step in order. Once ctx is done the
// remaining steps fail with canceled loads.
func LoadAll(ctx context.Context, l *loader.Loader, opts ...Option) []*StepReport {
	steps := Catalog()
	reports := make([]*StepReport, 0, len(steps))
	for _, s := range steps {
		reports = append(reports, LoadStep(ctx, l, s, opts...))
	}
	return reports
}

func (r *StepReport) fail(a Artifact, lerr *loader.LoadError) {
	r.Errors = append(r.Errors, lerr)
	switch {
	case a.Required:
		r.Status = StatusFailed
	case r.Status == StatusOK:
		r.Status = StatusPartial
	}
}

func loadSummary(ctx context.Context, l *loader.Loader, r *StepReport, a Artifact, p string) *loader.LoadError {
	res := l.FetchJSON(ctx, string(r.Step.ID), p)
	if !res.Ok() {
		return res.Err
	}
	r.Summaries[a.Name] = res.Value
	return nil
}

func loadTable(ctx context.Context, l *loader.Loader, r *StepReport, a Artifact, p string, o *options) *loader.LoadError {
	stepID := string(r.Step.ID)

	var (
		table  schema.Table
		report *helpers.ParseReport
	)
	if a.Table != nil {
		res := l.FetchTable(ctx, stepID, p, a.Format.Delimiter(), *a.Table)
		if !res.Ok() {
			return res.Err
		}
		table, report = *a.Table, res.Value
	} else {
		res := l.FetchRaw(ctx, stepID, p)
		if !res.Ok() {
			return res.Err
		}
		discovered, parsed, err := helpers.ParseAuto(res.Value, a.Format.Delimiter(), a.Name)
		if err != nil {
			return &loader.LoadError{Step: stepID, Path: p, Kind: loader.KindParse, Err: err}
		}
		table, report = *discovered, parsed
	}

	if ov, ok := o.overrides[a.Name]; ok {
		var unknown []string
		table, unknown = schema.ApplyOverrides(table, ov)
		if len(unknown) > 0 {
			o.logger.Warn().Str("table", a.Name).Strs("columns", unknown).Msg("overrides name unknown columns")
		}
	}

	tableOpts := []engine.Option{
		engine.WithItemsPerPage(o.itemsPerPage),
		engine.WithLogger(o.logger),
	}
	// Overrides may hide the catalog's sort or totals columns.
	if col, ok := table.Column(a.SortBy); ok && col.Sortable {
		tableOpts = append(tableOpts, engine.WithInitialSort(a.SortBy, a.SortDir))
	}
	var totals []string
	for _, key := range a.Totals {
		if _, ok := table.Column(key); ok {
			totals = append(totals, key)
		}
	}
	if len(totals) > 0 {
		tableOpts = append(tableOpts, engine.WithTotals(totals...))
	}

	t, err := engine.NewTable(table, report.View(), tableOpts...)
	if err != nil {
		return &loader.LoadError{Step: stepID, Path: p, Kind: loader.KindParse, Err: err}
	}
	r.Tables[a.Name] = t
	if len(report.Issues) > 0 {
		r.Issues[a.Name] = report.Issues
	}
	return nil
}

func loadAsset(ctx context.Context, l *loader.Loader, r *StepReport, a Artifact, p string, o *options) *loader.LoadError {
	if o.verifyAssets {
		res := l.FetchRaw(ctx, string(r.Step.ID), p)
		if !res.Ok() {
			return res.Err
		}
	}
	r.Assets[a.Name] = l.AssetURL(p)
	return nil
}

// IssueCount totals malformed-row issues across tables.
func (r *StepReport) IssueCount() int {
	n := 0
	for _, issues := range r.Issues {
		n += len(issues)
	}
	return n
}

// SummaryNames returns summary names sorted.
func (r *StepReport) SummaryNames() []string {
	names := make([]string, 0, len(r.Summaries))
	for n := range r.Summaries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
