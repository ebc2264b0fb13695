package app

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/quantmind-br/cargomirror-go/internal/domain"
	"github.com/quantmind-br/cargomirror-go/internal/utils"
)

// LockFileName is created next to the state file
const LockFileName = ".cargomirror.lock"

// LockPath returns the workspace lock file path
func (p *Pipeline) LockPath() string {
	return filepath.Join(filepath.Dir(p.config.Paths.State), LockFileName)
}

// Lock takes the workspace lock so two runs cannot write the same
// artifacts. It fails with domain.ErrLocked when another process holds it.
// Dry runs write nothing and take no lock.
func (p *Pipeline) Lock() (unlock func() error, err error) {
	if p.opts.DryRun {
		return func() error { return nil }, nil
	}

	path := p.LockPath()
	if err := utils.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLocked, path)
	}

	p.logger.Debug().Str("path", path).Msg("Acquired workspace lock")
	return lock.Unlock, nil
}
