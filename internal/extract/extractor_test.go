package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/quantmind-br/cargomirror-go/internal/domain"
	"github.com/quantmind-br/cargomirror-go/internal/mocks"
	"github.com/quantmind-br/cargomirror-go/internal/sources"
	"github.com/quantmind-br/cargomirror-go/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const stateA = `{
  "site": {"homepage_purl": "home"},
  "pages": {"byId": {"P1": {"id": "P1", "purl": "intro", "title": "Intro", "content": "<img hash=\"H1\">"}}},
  "sets": {"byId": {"S1": {"id": "S1", "purl": "home", "title": "Home"}}},
  "structure": {"byParent": {"root": ["S1"], "S1": ["P1"]}},
  "css": {"stylesheet": "body{}"}
}`

const bioState = `{
  "pages": {"byId": {"P9": {"id": "P9", "purl": "information", "title": "Information"}}},
  "sets": {"byId": {"S9": {"id": "S9", "purl": "information-1"}}},
  "structure": {"byParent": {"root": ["S9"], "S9": ["P9"]}}
}`

func TestExtractor_Run_AttachesUnparentedRenderedPage(t *testing.T) {
	dir := t.TempDir()
	a := writeExport(t, dir, "a.html", exportHTML(stateA,
		`<img src="https://freight.cargo.site/t/original/i/H1/one.png">`))
	b := writeExport(t, dir, "b.html", exportHTML(`{}`,
		pageBlock("P2000000000", "https://example.com/blog", "", "<p>Blog post</p>", "")))

	opts := DefaultOptions()
	opts.Explicit = true
	extractor := NewExtractor(nil, utils.NewNopLogger(), opts)

	state, stats, err := extractor.Run(context.Background(), []sources.Source{
		sources.NewSource(a), sources.NewSource(b),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"P1", "P2000000000"}, state.Children("S1"))
	page, ok := state.Page("P2000000000")
	require.True(t, ok)
	assert.Equal(t, "blog", page.Purl)
	assert.Equal(t, "Blog post", page.Title)

	p1, _ := state.Page("P1")
	require.Len(t, p1.Media, 1)
	assert.Equal(t, "one.png", p1.Media[0].Name)

	assert.Equal(t, 2, stats.Parsed)
	assert.Equal(t, 1, stats.RenderedPages)
	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 1, stats.Sets)
	assert.False(t, stats.FallbackMerged)
}

func TestExtractor_Run_IsDeterministic(t *testing.T) {
	dir := t.TempDir()
	landing := writeExport(t, dir, "exports/landing/index.html", exportHTML(stateA,
		pageBlock("P3000000000", "three", "pinned", "<p>Three</p>", "")+
			pageBlock("P1", "intro", "", "x", "")+
			pageBlock("P2000000000", "two", "", "<p>Two</p>", "")))
	srcs := []sources.Source{sources.NewSource(landing)}

	opts := DefaultOptions()
	opts.Explicit = true

	first, _, err := NewExtractor(nil, nil, opts).Run(context.Background(), srcs)
	require.NoError(t, err)
	second, _, err := NewExtractor(nil, nil, opts).Run(context.Background(), srcs)
	require.NoError(t, err)

	assert.Equal(t, []string{"P3000000000", "P2000000000", "P1"}, first.Children("S1"))

	firstJSON, err := first.MarshalJSON()
	require.NoError(t, err)
	secondJSON, err := second.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestExtractor_Run_SkipsMalformedDocuments(t *testing.T) {
	dir := t.TempDir()
	good := writeExport(t, dir, "good.html", exportHTML(stateA, ""))
	bad := writeExport(t, dir, "bad.html", "<html>no state</html>")

	opts := DefaultOptions()
	opts.Explicit = true

	state, stats, err := NewExtractor(nil, nil, opts).Run(context.Background(), []sources.Source{
		sources.NewSource(bad), sources.NewSource(good), sources.NewSource(dir + "/missing.html"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, state.PageCount())
	assert.Equal(t, 1, stats.Parsed)
	assert.Equal(t, 2, stats.Skipped)
}

func TestExtractor_Run_NoUsableState(t *testing.T) {
	dir := t.TempDir()
	bad := writeExport(t, dir, "bad.html", "<html>no state</html>")

	opts := DefaultOptions()
	opts.FallbackURL = ""

	_, _, err := NewExtractor(nil, nil, opts).Run(context.Background(), []sources.Source{sources.NewSource(bad)})
	assert.ErrorIs(t, err, domain.ErrNoUsableState)
}

func TestExtractor_Run_Fallback(t *testing.T) {
	dir := t.TempDir()
	a := writeExport(t, dir, "a.html", exportHTML(stateA, ""))
	srcs := []sources.Source{sources.NewSource(a)}
	opts := DefaultOptions()
	opts.FallbackURL = "https://example.com/information-1"

	t.Run("merges fetched state", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fetcher := mocks.NewMockFetcher(ctrl)
		fetcher.EXPECT().
			Get(gomock.Any(), "https://example.com/information-1").
			Return(&domain.Response{StatusCode: 200, Body: []byte(exportHTML(bioState, ""))}, nil)

		state, stats, err := NewExtractor(fetcher, nil, opts).Run(context.Background(), srcs)
		require.NoError(t, err)

		assert.True(t, stats.FallbackMerged)
		assert.True(t, state.HasPageNamed("information"))
		assert.Equal(t, "home", state.Site().String("homepage_purl"))
		assert.Equal(t, []string{"S1", "S9"}, state.Children("root"))
	})

	t.Run("failure is not fatal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fetcher := mocks.NewMockFetcher(ctrl)
		fetcher.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(nil, domain.NewFetchError(opts.FallbackURL, 503, errors.New("unavailable")))

		state, stats, err := NewExtractor(fetcher, nil, opts).Run(context.Background(), srcs)
		require.NoError(t, err)
		assert.False(t, stats.FallbackMerged)
		assert.Equal(t, 1, state.PageCount())
	})

	t.Run("skipped when bio page present", func(t *testing.T) {
		withBio := writeExport(t, dir, "bio.html", exportHTML(bioState, ""))
		ctrl := gomock.NewController(t)
		fetcher := mocks.NewMockFetcher(ctrl)

		_, stats, err := NewExtractor(fetcher, nil, opts).Run(context.Background(),
			[]sources.Source{sources.NewSource(a), sources.NewSource(withBio)})
		require.NoError(t, err)
		assert.False(t, stats.FallbackMerged)
	})

	t.Run("skipped for explicit sources", func(t *testing.T) {
		explicit := opts
		explicit.Explicit = true
		ctrl := gomock.NewController(t)
		fetcher := mocks.NewMockFetcher(ctrl)

		_, stats, err := NewExtractor(fetcher, nil, explicit).Run(context.Background(), srcs)
		require.NoError(t, err)
		assert.False(t, stats.FallbackMerged)
	})

	t.Run("rescues a run with no parsable document", func(t *testing.T) {
		bad := writeExport(t, dir, "broken.html", "<html></html>")
		explicit := opts
		explicit.Explicit = true
		ctrl := gomock.NewController(t)
		fetcher := mocks.NewMockFetcher(ctrl)
		fetcher.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(&domain.Response{StatusCode: 200, Body: []byte(exportHTML(bioState, ""))}, nil)

		state, stats, err := NewExtractor(fetcher, nil, explicit).Run(context.Background(),
			[]sources.Source{sources.NewSource(bad)})
		require.NoError(t, err)
		assert.True(t, stats.FallbackMerged)
		assert.Equal(t, 1, state.PageCount())
	})
}
