package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/quantmind-br/cargomirror-go/internal/domain"
	"github.com/quantmind-br/cargomirror-go/internal/utils"
)

// Writer persists pipeline artifacts as pretty-printed JSON.
type Writer struct {
	dryRun bool
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	DryRun bool
}

// NewWriter creates a new output writer
func NewWriter(opts WriterOptions) *Writer {
	return &Writer{dryRun: opts.DryRun}
}

// DryRun reports whether writes are suppressed.
func (w *Writer) DryRun() bool {
	return w.dryRun
}

// WriteJSON encodes v with two-space indentation and a trailing newline,
// without HTML escaping, and writes it to path. In dry-run mode the value
// is still encoded so encoding errors surface, but nothing is written.
func (w *Writer) WriteJSON(path string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if w.dryRun {
		return nil
	}

	if err := utils.WriteFile(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Encode renders v the way every artifact is stored on disk.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadJSON decodes the artifact at path into v. A missing file yields a
// *domain.MissingInputError naming remedy, the command that produces it.
func ReadJSON(path, remedy string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewMissingInputError(path, remedy)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Exists reports whether an artifact is present at path.
func Exists(path string) bool {
	return utils.FileExists(path)
}
