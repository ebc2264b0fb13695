package sources

import (
	"os"
	"path/filepath"

	"github.com/quantmind-br/cargomirror-go/internal/domain"
)

// Selection is the resolved list of export documents for one run
type Selection struct {
	Sources []Source
	// Explicit is true when documents were named on the command line.
	Explicit    bool
	FallbackURL string
}

// Request describes where the document list comes from, highest
// precedence first.
type Request struct {
	Args        []string
	SourcesFile string
	Defaults    []string
}

// Resolve picks the document list: positional args, then the sources file,
// then the defaults. Documents that do not exist are skipped and duplicate
// paths are dropped.
func Resolve(loader *Loader, req Request) (*Selection, error) {
	sel := &Selection{}

	var candidates []Source
	switch {
	case len(req.Args) > 0:
		sel.Explicit = true
		for _, arg := range req.Args {
			candidates = append(candidates, NewSource(arg))
		}
	case req.SourcesFile != "":
		cfg, err := loader.Load(req.SourcesFile)
		if err != nil {
			return nil, err
		}
		sel.FallbackURL = cfg.FallbackURL
		candidates = cfg.Sources
	default:
		for _, path := range req.Defaults {
			candidates = append(candidates, NewSource(path))
		}
	}

	seen := make(map[string]bool, len(candidates))
	for _, src := range candidates {
		key := filepath.Clean(src.Path)
		if seen[key] || !fileExists(src.Path) {
			continue
		}
		seen[key] = true
		sel.Sources = append(sel.Sources, src)
	}

	if len(sel.Sources) == 0 {
		return nil, domain.ErrNoSources
	}
	return sel, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
