package extract

import (
	"errors"
	"testing"

	"github.com/quantmind-br/cargomirror-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmbeddedState(t *testing.T) {
	t.Run("valid export", func(t *testing.T) {
		doc := exportHTML(`{"pages":{"byId":{"P1":{"id":"P1"}}},"site":{"title":"A </b> title"}}`, "")

		state, err := ParseEmbeddedState(doc, "landing.html")
		require.NoError(t, err)
		assert.Equal(t, 1, state.PageCount())
		assert.Equal(t, "A </b> title", state.Site().String("title"))
	})

	t.Run("no trailing semicolon", func(t *testing.T) {
		doc := `<script>window.__PRELOADED_STATE__= {"a":1} </script>`

		state, err := ParseEmbeddedState(doc, "x.html")
		require.NoError(t, err)
		assert.Contains(t, state.Root(), "a")
	})

	tests := []struct {
		name   string
		doc    string
		reason string
	}{
		{"missing marker", `<html><script>var x = 1;</script></html>`, "state marker not found"},
		{"missing close", `<script>window.__PRELOADED_STATE__={"a":1}`, "closing </script> not found"},
		{"invalid json", `<script>window.__PRELOADED_STATE__={"a":</script>`, "invalid state JSON"},
		{"array root", `<script>window.__PRELOADED_STATE__=[1,2];</script>`, "invalid state JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := ParseEmbeddedState(tt.doc, "broken.html")

			assert.Nil(t, state)
			assert.ErrorIs(t, err, domain.ErrMalformedExport)

			var malformed *domain.MalformedExportError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, "broken.html", malformed.Source)
			assert.Equal(t, tt.reason, malformed.Reason)
		})
	}
}

func TestDecodeHTML(t *testing.T) {
	t.Run("utf-8 passthrough", func(t *testing.T) {
		doc := `<html><head><meta charset="utf-8"></head><body>信息</body></html>`
		assert.Equal(t, doc, DecodeHTML([]byte(doc)))
	})

	t.Run("latin-1 declared", func(t *testing.T) {
		doc := append([]byte(`<html><head><meta charset="iso-8859-1"></head><body>caf`), 0xe9)
		doc = append(doc, []byte(`</body></html>`)...)

		assert.Contains(t, DecodeHTML(doc), "café")
	})

	t.Run("detect from meta", func(t *testing.T) {
		assert.Equal(t, "windows-1252", DetectEncoding([]byte(`<meta charset='Windows-1252'>`)))
		assert.Equal(t, "utf-8", DetectEncoding([]byte(`<p>plain ü</p>`)))
	})
}
