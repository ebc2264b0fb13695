package extract

import (
	"context"
	"fmt"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/quantmind-br/cargomirror-go/internal/cargo"
	"github.com/quantmind-br/cargomirror-go/internal/domain"
	"github.com/quantmind-br/cargomirror-go/internal/sources"
	"github.com/quantmind-br/cargomirror-go/internal/utils"
)

// Options configures an Extractor
type Options struct {
	Routing
	// FallbackURL is fetched when the local documents lack the bio page.
	// Empty disables the fallback.
	FallbackURL string
	// Explicit marks a document list named by the user; it suppresses the
	// fallback unless no document could be parsed.
	Explicit bool
}

// DefaultOptions returns the routing and fallback used for the reference site
func DefaultOptions() Options {
	return Options{
		Routing: Routing{
			HomepageSetID: "K3898273367",
			BioSetID:      "D1206349348",
			BioSetSlug:    "information-1",
			BioPageSlugs:  []string{"information", "信息-1"},
		},
		FallbackURL: "https://xuechuntao.com/information-1",
	}
}

// Stats summarizes one extraction run
type Stats struct {
	Sources        int
	Parsed         int
	Skipped        int
	Pages          int
	Sets           int
	RenderedPages  int
	FallbackMerged bool
}

// Extractor turns export documents into one canonical state
type Extractor struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
	opts    Options
}

// NewExtractor creates an Extractor. fetcher may be nil when no fallback
// URL is configured.
func NewExtractor(fetcher domain.Fetcher, logger *utils.Logger, opts Options) *Extractor {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Extractor{
		fetcher: fetcher,
		logger:  logger.WithComponent("extract"),
		opts:    opts,
	}
}

type document struct {
	source sources.Source
	raw    string
	dom    *goquery.Document
}

// Run parses, merges and augments the given documents. A document that
// cannot be read or has no usable embedded state is skipped with a warning.
func (e *Extractor) Run(ctx context.Context, srcs []sources.Source) (*cargo.State, Stats, error) {
	stats := Stats{Sources: len(srcs)}

	var merged *cargo.State
	docs := make([]document, 0, len(srcs))

	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		log := e.logger.WithSource(src.Path)
		doc, state, err := e.load(src)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping export document")
			stats.Skipped++
			continue
		}
		stats.Parsed++
		docs = append(docs, doc)

		if merged == nil {
			merged = state
		} else {
			merged = Merge(merged, state)
		}
		log.Debug().
			Int("pages", state.PageCount()).
			Int("sets", state.SetCount()).
			Msg("Merged embedded state")
	}

	if e.wantsFallback(merged) {
		fallback, err := e.fetchFallback(ctx)
		switch {
		case err != nil:
			e.logger.WithURL(e.opts.FallbackURL).Warn().Err(err).Msg("Unable to fetch fallback state")
		case merged == nil:
			merged = fallback
			stats.FallbackMerged = true
		default:
			merged = Merge(merged, fallback)
			stats.FallbackMerged = true
		}
		if stats.FallbackMerged {
			e.logger.WithURL(e.opts.FallbackURL).Info().Msg("Merged fallback state")
		}
	}

	if merged == nil {
		return nil, stats, domain.ErrNoUsableState
	}

	for _, doc := range docs {
		rendered := ExtractRenderedPages(doc.dom)
		stats.RenderedPages += len(rendered)
		merged = e.AppendRenderedPages(merged, rendered, doc.source.IsLanding())
		merged = AppendMediaFromHTML(merged, ExtractMediaByHash(doc.raw))
	}

	for _, doc := range docs {
		if !doc.source.IsLanding() {
			continue
		}
		if order := ExtractPageOrder(doc.dom); len(order) > 0 {
			home := newSetResolver(merged, e.opts.Routing, e.logger).homepageSetID()
			merged.SetChildren(home, cargo.MergeUnique(order, merged.Children(home)))
		}
		break
	}

	stats.Pages = merged.PageCount()
	stats.Sets = merged.SetCount()
	e.logger.Info().
		Int("parsed", stats.Parsed).
		Int("skipped", stats.Skipped).
		Int("rendered", stats.RenderedPages).
		Int("pages", stats.Pages).
		Int("sets", stats.Sets).
		Msg("Extracted state")
	return merged, stats, nil
}

func (e *Extractor) load(src sources.Source) (document, *cargo.State, error) {
	content, err := os.ReadFile(src.Path)
	if err != nil {
		return document{}, nil, fmt.Errorf("failed to read export: %w", err)
	}
	raw := DecodeHTML(content)

	state, err := ParseEmbeddedState(raw, src.Path)
	if err != nil {
		return document{}, nil, err
	}

	dom, err := ParseDocument(raw)
	if err != nil {
		return document{}, nil, domain.NewMalformedExportError(src.Path, "unparseable markup", err)
	}
	return document{source: src, raw: raw, dom: dom}, state, nil
}

// wantsFallback reports whether the fallback document should be fetched:
// always when nothing parsed, otherwise only for an implicit document list
// missing the bio page.
func (e *Extractor) wantsFallback(merged *cargo.State) bool {
	if e.opts.FallbackURL == "" {
		return false
	}
	if merged == nil {
		return true
	}
	if e.opts.Explicit {
		return false
	}
	for _, slug := range e.opts.Routing.BioPageSlugs {
		if merged.HasPageNamed(slug) {
			return false
		}
	}
	return true
}

func (e *Extractor) fetchFallback(ctx context.Context) (*cargo.State, error) {
	if e.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}
	resp, err := e.fetcher.Get(ctx, e.opts.FallbackURL)
	if err != nil {
		return nil, err
	}
	return ParseEmbeddedState(DecodeHTML(resp.Body), e.opts.FallbackURL)
}
