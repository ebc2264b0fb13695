package routes

import (
	"time"

	"github.com/quantmind-br/cargomirror-go/internal/assets"
	"github.com/quantmind-br/cargomirror-go/internal/cargo"
	"github.com/quantmind-br/cargomirror-go/internal/utils"
)

// DefaultHomepageFallback is used when neither the site nor any route names a homepage
const DefaultHomepageFallback = "xuechun-tao"

// Options configures a Normalizer
type Options struct {
	HomepageFallback string
	// Index, when set, adds local public URLs to media descriptors.
	Index *assets.LocalIndex
}

// Normalizer derives the route manifest from a state
type Normalizer struct {
	opts   Options
	logger *utils.Logger
	now    func() time.Time
}

// NewNormalizer creates a Normalizer
func NewNormalizer(logger *utils.Logger, opts Options) *Normalizer {
	if opts.HomepageFallback == "" {
		opts.HomepageFallback = DefaultHomepageFallback
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Normalizer{
		opts:   opts,
		logger: logger.WithComponent("routes"),
		now:    time.Now,
	}
}

// Normalize builds the manifest. Sets are visited in root order; a set
// without a record or slug, or with display false, is not routable.
func (n *Normalizer) Normalize(state *cargo.State) *Manifest {
	m := &Manifest{
		GeneratedAt:       n.now().UTC(),
		RouteSlugs:        []string{},
		Routes:            []Route{},
		PageSlugToSetSlug: map[string]string{},
		RemovedPages:      []string{},
		MediaByHash:       n.mediaByHash(state),
	}

	for _, setID := range state.Children(cargo.RootID) {
		if setID == cargo.RootID {
			continue
		}
		set, ok := state.Set(setID)
		if !ok || set.ID == cargo.RootID || set.Purl == "" || !set.Display {
			continue
		}

		route := Route{
			SetID:           setID,
			Slug:            set.Purl,
			Title:           set.Title,
			AllChildPageIDs: state.Children(setID),
			PageIDs:         []string{},
			PinnedPageIDs:   []string{},
			ContentPageIDs:  []string{},
		}
		if route.Title == "" {
			route.Title = set.Purl
		}

		for _, pageID := range route.AllChildPageIDs {
			page, ok := state.Page(pageID)
			if !ok || !page.Display {
				continue
			}
			// first claim wins
			if page.Purl != "" {
				if _, claimed := m.PageSlugToSetSlug[page.Purl]; !claimed {
					m.PageSlugToSetSlug[page.Purl] = set.Purl
				}
			}

			route.PageIDs = append(route.PageIDs, pageID)
			if page.Pin {
				route.PinnedPageIDs = append(route.PinnedPageIDs, pageID)
			} else {
				route.ContentPageIDs = append(route.ContentPageIDs, pageID)
			}
		}

		m.Routes = append(m.Routes, route)
		m.RouteSlugs = append(m.RouteSlugs, route.Slug)
	}

	m.HomepageSlug = state.Site().String("homepage_purl")
	if m.HomepageSlug == "" && len(m.Routes) > 0 {
		m.HomepageSlug = m.Routes[0].Slug
	}
	if m.HomepageSlug == "" {
		m.HomepageSlug = n.opts.HomepageFallback
		n.logger.Warn().Str("slug", m.HomepageSlug).Msg("No homepage slug in state, using fallback")
	}
	m.Redirects = map[string]string{"/": "/" + m.HomepageSlug}

	n.logger.Info().
		Int("routes", len(m.Routes)).
		Int("removed_pages", len(m.RemovedPages)).
		Int("media", len(m.MediaByHash)).
		Str("homepage", m.HomepageSlug).
		Msg("Routes normalized")

	return m
}

// mediaByHash indexes page media in sorted page order; the first
// occurrence of a hash wins.
func (n *Normalizer) mediaByHash(state *cargo.State) map[string]MediaDescriptor {
	out := make(map[string]MediaDescriptor)
	for _, id := range state.PageIDs() {
		page, ok := state.Page(id)
		if !ok {
			continue
		}
		for _, media := range page.AllMedia() {
			if _, seen := out[media.Hash]; seen {
				continue
			}
			out[media.Hash] = n.describe(media)
		}
	}
	return out
}

func (n *Normalizer) describe(media cargo.Media) MediaDescriptor {
	d := MediaDescriptor{
		Hash:     media.Hash,
		Name:     media.Name,
		Width:    positive(media.Width),
		Height:   positive(media.Height),
		FileType: nonEmpty(media.FileType),
		MimeType: nonEmpty(media.MimeType),
		URL:      media.OriginalURL(),
	}
	if n.opts.Index != nil {
		d.LocalURL, _ = n.opts.Index.Lookup(media)
	}
	return d
}

func positive(v *int) *int {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
