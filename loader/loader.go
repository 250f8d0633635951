package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spektr-org/ednadash/helpers"
	"github.com/spektr-org/ednadash/schema"
)

// ============================================================================
// LOADER — Context-bound artifact loads with a uniform failure taxonomy
// ============================================================================
// Every load:
//   1. gets a load id (uuid) carried on its log lines
//   2. runs under ctx plus the configured per-load timeout
//   3. maps failures to *LoadError (fetch, status, parse, empty, canceled)
//
// Nothing here retries; callers decide what a failure means for the page.
// ============================================================================

// DefaultTimeout bounds a single artifact load.
const DefaultTimeout = 30 * time.Second

// Loader reads and decodes artifacts from a Source.
type Loader struct {
	source  Source
	timeout time.Duration
	logger  zerolog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout sets the per-load timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

// WithLogger replaces the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New creates a Loader over source.
func New(source Source, opts ...Option) *Loader {
	l := &Loader{
		source:  source,
		timeout: DefaultTimeout,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With().Str("source", source.Name()).Logger()
	return l
}

// Source returns the underlying source.
func (l *Loader) Source() Source { return l.source }

// FetchJSON loads and decodes a JSON summary object.
func (l *Loader) FetchJSON(ctx context.Context, step, p string) Result[helpers.Summary] {
	data, lerr := l.fetch(ctx, step, p)
	if lerr != nil {
		return fail[helpers.Summary](lerr)
	}

	summary, err := helpers.ParseSummary(data)
	if err != nil {
		return fail[helpers.Summary](l.failed(step, p, KindParse, err))
	}
	return ok(summary)
}

// FetchTable loads a delimited table. A zero delim is detected from the
// header line.
func (l *Loader) FetchTable(ctx context.Context, step, p string, delim rune, table schema.Table) Result[*helpers.ParseReport] {
	data, lerr := l.fetch(ctx, step, p)
	if lerr != nil {
		return fail[*helpers.ParseReport](lerr)
	}

	if delim == 0 {
		delim = helpers.DetectDelimiter(data)
	}
	report, err := helpers.ParseDelimited(data, delim, table)
	if err != nil {
		return fail[*helpers.ParseReport](l.failed(step, p, KindParse, err))
	}

	if len(report.Issues) > 0 || report.Skipped > 0 {
		l.logger.Warn().
			Str("step", step).
			Str("path", p).
			Int("issues", len(report.Issues)).
			Int("skipped", report.Skipped).
			Msg("table has malformed rows")
	}
	return ok(report)
}

// FetchRaw loads an artifact's bytes unchanged.
func (l *Loader) FetchRaw(ctx context.Context, step, p string) Result[[]byte] {
	data, lerr := l.fetch(ctx, step, p)
	if lerr != nil {
		return fail[[]byte](lerr)
	}
	return ok(data)
}

// CopyAsset writes an artifact to w unchanged and returns the byte count.
func (l *Loader) CopyAsset(ctx context.Context, p string, w io.Writer) (int64, error) {
	data, lerr := l.fetch(ctx, "", p)
	if lerr != nil {
		return 0, lerr
	}
	n, err := io.Copy(w, bytes.NewReader(data))
	if err != nil {
		return n, fmt.Errorf("copy %s: %w", p, err)
	}
	return n, nil
}

// AssetURL returns where p is served from, for linking images and pages.
func (l *Loader) AssetURL(p string) string { return l.source.Locate(p) }

func (l *Loader) fetch(ctx context.Context, step, p string) ([]byte, *LoadError) {
	id := uuid.NewString()
	logger := l.logger.With().Str("load_id", id).Str("step", step).Str("path", p).Logger()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	data, err := l.source.Fetch(ctx, p)
	if err != nil {
		lerr := classify(ctx, step, p, err)
		logger.Warn().Err(err).Str("kind", string(lerr.Kind)).Msg("artifact load failed")
		return nil, lerr
	}
	if len(bytes.TrimSpace(data)) == 0 {
		logger.Warn().Msg("artifact is empty")
		return nil, &LoadError{Step: step, Path: p, Kind: KindEmpty, Err: ErrEmpty}
	}

	logger.Debug().Int("bytes", len(data)).Dur("took", time.Since(start)).Msg("artifact loaded")
	return data, nil
}

func (l *Loader) failed(step, p string, kind Kind, err error) *LoadError {
	l.logger.Warn().Err(err).Str("step", step).Str("path", p).Str("kind", string(kind)).Msg("artifact load failed")
	return &LoadError{Step: step, Path: p, Kind: kind, Err: err}
}

func classify(ctx context.Context, step, p string, err error) *LoadError {
	lerr := &LoadError{Step: step, Path: p, Kind: KindFetch, Err: err}

	var se *StatusError
	switch {
	case errors.As(err, &se):
		lerr.Kind = KindStatus
		lerr.Status = se.Code
	case ctx.Err() != nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		lerr.Kind = KindCanceled
	}
	return lerr
}
