package extract

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/quantmind-br/cargomirror-go/internal/cargo"
	"github.com/quantmind-br/cargomirror-go/internal/utils"
)

// Routing decides where rendered pages without a structural parent go.
type Routing struct {
	// HomepageSetID is used when the state names no resolvable homepage set.
	HomepageSetID string
	// BioSetID is used when no set carries BioSetSlug.
	BioSetID   string
	BioSetSlug string
	// BioPageSlugs are the page slugs routed to the bio set.
	BioPageSlugs []string
}

// IsBioPage reports whether slug belongs under the bio set.
func (r Routing) IsBioPage(slug string) bool {
	return slices.Contains(r.BioPageSlugs, slug)
}

// setResolver resolves the homepage and bio sets at most once per state,
// warning when a configured fallback id has to be used.
type setResolver struct {
	state    *cargo.State
	routing  Routing
	logger   *utils.Logger
	homepage string
	bio      string

	homepageResolved bool
	bioResolved      bool
}

func newSetResolver(state *cargo.State, routing Routing, logger *utils.Logger) *setResolver {
	return &setResolver{state: state, routing: routing, logger: logger}
}

func (r *setResolver) homepageSetID() string {
	if r.homepageResolved {
		return r.homepage
	}
	r.homepageResolved = true
	r.homepage = r.state.HomepageSetID()
	if r.homepage == "" {
		r.homepage = r.routing.HomepageSetID
		r.logger.Warn().
			Str("set_id", r.homepage).
			Msg("Homepage set not found in state, using configured fallback id")
	}
	return r.homepage
}

func (r *setResolver) bioSetID() string {
	if r.bioResolved {
		return r.bio
	}
	r.bioResolved = true
	if id, ok := r.state.SetIDByPurl(r.routing.BioSetSlug); ok {
		r.bio = id
		return r.bio
	}
	r.bio = r.routing.BioSetID
	r.logger.Warn().
		Str("slug", r.routing.BioSetSlug).
		Str("set_id", r.bio).
		Msg("Bio set not found in state, using configured fallback id")
	return r.bio
}

// AppendRenderedPages folds rendered pages into a copy of state. A page
// already listed under a parent stays there; otherwise bio slugs go to the
// bio set and everything else to the homepage set. Existing record fields
// win; missing ones are filled from the rendered page. For the landing
// document, homepage pages are moved to the front of the homepage child
// list in encounter order.
func (e *Extractor) AppendRenderedPages(state *cargo.State, pages []RenderedPage, landing bool) *cargo.State {
	next := state.Clone()
	if len(pages) == 0 {
		return next
	}

	sets := newSetResolver(next, e.opts.Routing, e.logger)
	var landingOrder []string

	for _, rendered := range pages {
		existing, _ := next.PageRecord(rendered.ID)

		var target string
		if parents := next.ParentsOf(rendered.ID); len(parents) > 0 {
			target = parents[0]
		} else if e.opts.Routing.IsBioPage(rendered.Purl) {
			target = sets.bioSetID()
		} else {
			target = sets.homepageSetID()
		}

		next.PutPageRecord(rendered.ID, fillFromRendered(existing, rendered))

		children := next.Children(target)
		if !slices.Contains(children, rendered.ID) {
			next.SetChildren(target, append(children, rendered.ID))
		}

		if landing && target == sets.homepageSetID() {
			landingOrder = append(landingOrder, rendered.ID)
		}
	}

	if len(landingOrder) > 0 {
		home := sets.homepageSetID()
		next.SetChildren(home, cargo.MergeUnique(landingOrder, next.Children(home)))
	}

	return next
}

// fillFromRendered returns the page record with every missing field taken
// from the rendered page, plus defaults for a synthesised record.
func fillFromRendered(existing cargo.Object, rendered RenderedPage) cargo.Object {
	rec := existing.Copy()
	rec["id"] = rendered.ID

	fill := func(key string, v any) {
		if current, ok := rec[key]; !ok || cargo.IsMissing(current) {
			rec[key] = v
		}
	}

	purl := rendered.Purl
	if purl == "" {
		purl = strings.ToLower(rendered.ID)
	}

	fill("title", rendered.Title)
	fill("purl", purl)
	fill("content", rendered.Content)
	fill("local_css", rendered.LocalCSS)
	fill("pin", rendered.Pin)
	fill("stack", rendered.Stack)
	fill("overlay", rendered.Overlay)
	fill("page_type", "page")
	fill("display", true)
	fill("password_enabled", false)
	fill("page_count", json.Number("0"))
	fill("access_level", "public")

	for _, key := range []string{"media", "tags"} {
		if _, ok := rec[key].([]any); !ok {
			rec[key] = []any{}
		}
	}

	return rec
}
