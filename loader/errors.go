package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped when an artifact does not exist (404, missing file).
	ErrNotFound = errors.New("artifact not found")
	// ErrEmpty is wrapped when an artifact body is empty.
	ErrEmpty = errors.New("artifact is empty")
)

// Kind classifies a load failure.
type Kind string

const (
	KindFetch    Kind = "fetch"    // transport or filesystem failure
	KindStatus   Kind = "status"   // non-2xx response
	KindParse    Kind = "parse"    // body could not be decoded
	KindEmpty    Kind = "empty"    // body was empty
	KindCanceled Kind = "canceled" // context canceled or timed out
)

// LoadError describes one failed artifact load.
type LoadError struct {
	Step   string `json:"step"`
	Path   string `json:"path"`
	Kind   Kind   `json:"kind"`
	Status int    `json:"status,omitempty"`
	Err    error  `json:"-"`
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Kind, e.Path)
	if e.Step != "" {
		msg = fmt.Sprintf("step %s: %s", e.Step, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// NotFound reports whether the artifact was missing.
func (e *LoadError) NotFound() bool { return errors.Is(e, ErrNotFound) }

// Result carries a loaded value or the reason it could not be loaded.
type Result[T any] struct {
	Value T
	Err   *LoadError
}

// Ok reports whether the load succeeded.
func (r Result[T]) Ok() bool { return r.Err == nil }

// Unwrap returns the value and a plain error.
func (r Result[T]) Unwrap() (T, error) {
	if r.Err != nil {
		var zero T
		return zero, r.Err
	}
	return r.Value, nil
}

func ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func fail[T any](err *LoadError) Result[T] { return Result[T]{Err: err} }
