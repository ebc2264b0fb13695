package cache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/quantmind-br/cargomirror-go/internal/domain"
)

// Ensure BadgerCache implements domain.Cache
var _ domain.Cache = (*BadgerCache)(nil)

// Options contains cache configuration options
type Options struct {
	Directory string
	InMemory  bool
	Logger    bool
	// GCInterval is how often the value log is garbage collected. Zero
	// uses the default; negative disables collection.
	GCInterval time.Duration
}

// DefaultGCInterval is the value log GC period
const DefaultGCInterval = 5 * time.Minute

// DefaultOptions returns default cache options
func DefaultOptions() Options {
	return Options{
		GCInterval: DefaultGCInterval,
	}
}

// DefaultDirectory returns the cache directory used when none is configured
func DefaultDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cargomirror", "cache"), nil
}
