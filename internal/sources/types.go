package sources

import (
	"fmt"
	"strings"
)

// Config represents a complete sources file
type Config struct {
	Sources     []Source `yaml:"sources" json:"sources" toml:"sources"`
	FallbackURL string   `yaml:"fallback_url,omitempty" json:"fallback_url,omitempty" toml:"fallback_url,omitempty"`
}

// Source is one export document
type Source struct {
	Path    string `yaml:"path" json:"path" toml:"path"`
	Landing *bool  `yaml:"landing,omitempty" json:"landing,omitempty" toml:"landing,omitempty"`
}

// NewSource creates a source whose landing flag is inferred from its path
func NewSource(path string) Source {
	return Source{Path: path}
}

// IsLanding reports whether the document is the landing page export
func (s Source) IsLanding() bool {
	if s.Landing != nil {
		return *s.Landing
	}
	return strings.Contains(s.Path, "landing")
}

// Validate validates the sources configuration
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	for i, src := range c.Sources {
		if strings.TrimSpace(src.Path) == "" {
			return fmt.Errorf("source %d: %w", i, ErrEmptyPath)
		}
	}
	return nil
}
