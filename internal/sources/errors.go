package sources

import "errors"

// Sentinel errors for the sources package
var (
	// ErrNoSources indicates the sources file lists no documents
	ErrNoSources = errors.New("sources file must contain at least one source")

	// ErrEmptyPath indicates a source is missing the required path field
	ErrEmptyPath = errors.New("source path cannot be empty")

	// ErrInvalidFormat indicates the sources file is not valid YAML, JSON or TOML
	ErrInvalidFormat = errors.New("sources file must be valid YAML, JSON or TOML")

	// ErrFileNotFound indicates the sources file does not exist
	ErrFileNotFound = errors.New("sources file not found")

	// ErrUnsupportedExt indicates an unsupported file extension
	ErrUnsupportedExt = errors.New("unsupported file extension (use .yaml, .yml, .json or .toml)")
)
