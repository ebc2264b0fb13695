package extract

import (
	"testing"

	"github.com/quantmind-br/cargomirror-go/internal/cargo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mergeBase = `{
  "site": {"homepage_purl": "home"},
  "css": {"stylesheet": "a{}", "version": 1},
  "pages": {"byId": {
    "P1": {"id": "P1", "title": "One", "content": "", "media": [{"hash": "H1"}], "tags": []}
  }},
  "sets": {"byId": {"S1": {"id": "S1", "purl": "home"}}},
  "structure": {
    "byParent": {"root": ["S1"], "S1": ["P1", "P2"]},
    "bySort": {"P1": 1},
    "liveIndexes": {"a": 1}
  },
  "extra": "base"
}`

const mergeIncoming = `{
  "site": {"homepage_purl": "other"},
  "css": {"stylesheet": "a{}b{}"},
  "pages": {"byId": {
    "P1": {"id": "P1", "title": "Changed", "content": "<p>x</p>", "media": [{"hash": "H2"}], "tags": ["t"]},
    "P3": {"id": "P3"}
  }},
  "structure": {
    "byParent": {"S1": ["P3", "P1"], "S2": ["P4"]},
    "bySort": {"P3": 2},
    "indexById": {"P3": 0}
  },
  "extra": "incoming"
}`

func TestMerge(t *testing.T) {
	base := mustState(t, mergeBase)
	incoming := mustState(t, mergeIncoming)
	baseBefore, _ := base.MarshalJSON()
	incomingBefore, _ := incoming.MarshalJSON()

	merged := Merge(base, incoming)

	t.Run("site keeps base", func(t *testing.T) {
		assert.Equal(t, "home", merged.Site().String("homepage_purl"))
	})

	t.Run("longer stylesheet wins", func(t *testing.T) {
		assert.Equal(t, "a{}b{}", merged.Stylesheet())
		assert.NotNil(t, merged.Root().Object("css")["version"])
	})

	t.Run("records fill missing fields", func(t *testing.T) {
		rec, ok := merged.PageRecord("P1")
		require.True(t, ok)
		assert.Equal(t, "One", rec.String("title"))
		assert.Equal(t, "<p>x</p>", rec.String("content"))
		require.Len(t, rec.Array("media"), 1)
		media, _ := cargo.AsObject(rec.Array("media")[0])
		assert.Equal(t, "H1", media.String("hash"))
		assert.Equal(t, []string{"t"}, cargo.StringList(rec["tags"]))

		_, ok = merged.PageRecord("P3")
		assert.True(t, ok)
		_, ok = merged.Set("S1")
		assert.True(t, ok)
	})

	t.Run("byParent is an order-stable union", func(t *testing.T) {
		assert.Equal(t, []string{"S1"}, merged.Children("root"))
		assert.Equal(t, []string{"P1", "P2", "P3"}, merged.Children("S1"))
		assert.Equal(t, []string{"P4"}, merged.Children("S2"))
	})

	t.Run("indices merge incoming-wins", func(t *testing.T) {
		structure := merged.Root().Object("structure")
		assert.Len(t, structure.Object("bySort"), 2)
		assert.Len(t, structure.Object("indexById"), 1)
		assert.Len(t, structure.Object("liveIndexes"), 1)
	})

	t.Run("other keys overwrite", func(t *testing.T) {
		assert.Equal(t, "incoming", merged.Root().String("extra"))
	})

	t.Run("inputs untouched", func(t *testing.T) {
		merged.SetChildren("S1", nil)
		baseAfter, _ := base.MarshalJSON()
		incomingAfter, _ := incoming.MarshalJSON()
		assert.Equal(t, string(baseBefore), string(baseAfter))
		assert.Equal(t, string(incomingBefore), string(incomingAfter))
	})
}

func TestMerge_CommutesForDisjointFields(t *testing.T) {
	a := mustState(t, `{
	  "pages": {"byId": {"P1": {"id": "P1", "title": "One"}, "P2": {"id": "P2", "purl": "two"}}},
	  "sets": {"byId": {"S1": {"id": "S1", "purl": "home"}}},
	  "structure": {"byParent": {"root": ["S1"], "S1": ["P1"]}}
	}`)
	b := mustState(t, `{
	  "pages": {"byId": {"P1": {"id": "P1", "content": "<p>c</p>"}, "P3": {"id": "P3"}}},
	  "sets": {"byId": {"S2": {"id": "S2", "purl": "blog"}}},
	  "structure": {"byParent": {"S2": ["P2", "P3"]}}
	}`)

	ab, err := Merge(a, b).MarshalJSON()
	require.NoError(t, err)
	ba, err := Merge(b, a).MarshalJSON()
	require.NoError(t, err)

	assert.JSONEq(t, string(ab), string(ba))
}

func TestMerge_Idempotent(t *testing.T) {
	base := mustState(t, mergeBase)

	once := Merge(base, base)
	twice := Merge(once, base)

	first, err := once.MarshalJSON()
	require.NoError(t, err)
	second, err := twice.MarshalJSON()
	require.NoError(t, err)
	original, err := base.MarshalJSON()
	require.NoError(t, err)

	assert.Equal(t, string(original), string(first))
	assert.Equal(t, string(first), string(second))
}

func TestFillMissing(t *testing.T) {
	base := cargo.Object{"a": "x", "b": "", "c": nil, "d": []any{}, "e": false}
	incoming := cargo.Object{"a": "y", "b": "filled", "c": "", "d": []any{"t"}, "e": true, "f": 1}

	out := FillMissing(base, incoming)

	assert.Equal(t, "x", out["a"])
	assert.Equal(t, "filled", out["b"])
	assert.Nil(t, out["c"])
	assert.Equal(t, []any{"t"}, out["d"])
	assert.Equal(t, false, out["e"])
	assert.Equal(t, 1, out["f"])
	assert.Equal(t, "", base["b"])
}
