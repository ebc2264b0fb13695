package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/cargomirror-go/internal/cargo"
	"github.com/stretchr/testify/require"
)

// exportHTML wraps a state blob and rendered body like a saved export page.
func exportHTML(state, body string) string {
	return `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Export</title>` +
		`<script>window.__PRELOADED_STATE__=` + state + `;</script></head><body>` +
		body + `</body></html>`
}

// pageBlock renders one page container the way the export does.
func pageBlock(id, pageURL, class, content, css string) string {
	return `<div id="` + id + `" page-url="` + pageURL + `" class="page ` + class + `">` +
		`<div class="page-layout"><div class="page-content"><bodycopy>` + content + `</bodycopy></div></div>` +
		css + `<style id="mobile-offset-styles-` + id + `"></style></div>`
}

func mustState(t *testing.T, doc string) *cargo.State {
	t.Helper()
	state, err := cargo.DecodeState([]byte(doc))
	require.NoError(t, err)
	return state
}

func writeExport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
