package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrMalformedExport indicates an export document has no usable embedded state
	ErrMalformedExport = errors.New("malformed export")

	// ErrNoSources indicates none of the configured export documents exist
	ErrNoSources = errors.New("no export documents found")

	// ErrNoUsableState indicates no document (and no fallback) produced a state
	ErrNoUsableState = errors.New("no usable embedded state")

	// ErrMissingInput indicates a stage's required input file is absent
	ErrMissingInput = errors.New("missing input file")

	// ErrDownloadsFailed indicates at least one asset failed after all retries
	ErrDownloadsFailed = errors.New("asset downloads failed")

	// ErrLocked indicates another run holds the workspace lock
	ErrLocked = errors.New("workspace is locked by another run")

	// ErrInvalidURL indicates an invalid URL was provided
	ErrInvalidURL = errors.New("invalid URL")

	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")
)

// FetchError represents an error during fetching
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode
	}
	return 0
}

// MalformedExportError reports an export document whose embedded state
// could not be located or decoded.
type MalformedExportError struct {
	Source string
	Reason string
	Err    error
}

func (e *MalformedExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed export %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed export %s: %s", e.Source, e.Reason)
}

func (e *MalformedExportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedExport, e.Err}
	}
	return []error{ErrMalformedExport}
}

// NewMalformedExportError creates a new MalformedExportError
func NewMalformedExportError(source, reason string, err error) *MalformedExportError {
	return &MalformedExportError{
		Source: source,
		Reason: reason,
		Err:    err,
	}
}

// MissingInputError names an absent input file and the command producing it.
type MissingInputError struct {
	Path   string
	Remedy string
}

func (e *MissingInputError) Error() string {
	if e.Remedy != "" {
		return fmt.Sprintf("input file not found: %s (run %q first)", e.Path, e.Remedy)
	}
	return fmt.Sprintf("input file not found: %s", e.Path)
}

func (e *MissingInputError) Unwrap() error {
	return ErrMissingInput
}

// NewMissingInputError creates a new MissingInputError
func NewMissingInputError(path, remedy string) *MissingInputError {
	return &MissingInputError{
		Path:   path,
		Remedy: remedy,
	}
}
