package loader

//go:generate mockgen -destination=source_mock.go -package=loader -source=source.go

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ============================================================================
// SOURCES — Where pipeline artifacts are read from
// ============================================================================
// Artifact paths are slash-separated and rooted ("/data/asv/summary.json").
// HTTPSource resolves them against a base URL (the static file server the
// pipeline publishes to); DirSource against a local directory.
// ============================================================================

// Source fetches raw artifact bytes.
type Source interface {
	// Fetch returns the body at p. A missing artifact wraps ErrNotFound.
	Fetch(ctx context.Context, p string) ([]byte, error)
	// Locate returns the URL or file path p resolves to.
	Locate(p string) string
	// Name describes the source for logs.
	Name() string
}

// NewSource returns an HTTPSource for http(s) URLs and a DirSource for
// anything else.
func NewSource(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, nil)
	}
	return &DirSource{Root: location}
}

// ── HTTP ──

// HTTPSource reads artifacts with GET requests under BaseURL.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource creates an HTTP source. A nil client gets a 30s timeout.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, truncate(e.Body, 200))
}

// Is matches ErrNotFound for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

func (s *HTTPSource) Fetch(ctx context.Context, p string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Locate(p), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (s *HTTPSource) Locate(p string) string {
	return s.BaseURL + cleanPath(p)
}

func (s *HTTPSource) Name() string { return s.BaseURL }

// ── Directory ──

// DirSource reads artifacts from files under Root.
type DirSource struct {
	Root string
}

func (s *DirSource) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Locate(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Locate joins the cleaned path to Root; ".." cannot escape Root.
func (s *DirSource) Locate(p string) string {
	return filepath.Join(s.Root, filepath.FromSlash(cleanPath(p)))
}

func (s *DirSource) Name() string { return s.Root }

// cleanPath roots and normalizes p, dropping any leading "..".
func cleanPath(p string) string {
	return path.Clean("/" + p)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
