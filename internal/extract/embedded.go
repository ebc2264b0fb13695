package extract

import (
	"strings"

	"github.com/quantmind-br/cargomirror-go/internal/cargo"
	"github.com/quantmind-br/cargomirror-go/internal/domain"
)

const scriptClose = "</script>"

// ParseEmbeddedState locates the serialized state blob in an export document
// and decodes it. source only labels errors.
func ParseEmbeddedState(html, source string) (*cargo.State, error) {
	start := strings.Index(html, cargo.StateMarker)
	if start == -1 {
		return nil, domain.NewMalformedExportError(source, "state marker not found", nil)
	}

	rest := html[start+len(cargo.StateMarker):]
	end := strings.Index(rest, scriptClose)
	if end == -1 {
		return nil, domain.NewMalformedExportError(source, "closing </script> not found", nil)
	}

	blob := strings.TrimSpace(rest[:end])
	blob = strings.TrimSpace(strings.TrimSuffix(blob, ";"))

	state, err := cargo.DecodeState([]byte(blob))
	if err != nil {
		return nil, domain.NewMalformedExportError(source, "invalid state JSON", err)
	}
	return state, nil
}
