package routes

import "time"

// Route is one navigable set.
type Route struct {
	SetID           string   `json:"setId"`
	Slug            string   `json:"slug"`
	Title           string   `json:"title"`
	AllChildPageIDs []string `json:"allChildPageIds"`
	PageIDs         []string `json:"pageIds"`
	PinnedPageIDs   []string `json:"pinnedPageIds"`
	ContentPageIDs  []string `json:"contentPageIds"`
}

// MediaDescriptor is the renderer-facing view of one media hash.
type MediaDescriptor struct {
	Hash     string  `json:"hash"`
	Name     string  `json:"name"`
	Width    *int    `json:"width"`
	Height   *int    `json:"height"`
	FileType *string `json:"fileType"`
	MimeType *string `json:"mimeType"`
	URL      string  `json:"url"`
	// LocalURL is the public path of the mirrored copy, when known.
	LocalURL string `json:"localUrl,omitempty"`
}

// Manifest is the routing table consumed by the site renderer.
type Manifest struct {
	GeneratedAt       time.Time                  `json:"generatedAt"`
	HomepageSlug      string                     `json:"homepageSlug"`
	RouteSlugs        []string                   `json:"routeSlugs"`
	Routes            []Route                    `json:"routes"`
	Redirects         map[string]string          `json:"redirects"`
	PageSlugToSetSlug map[string]string          `json:"pageSlugToSetSlug"`
	RemovedPages      []string                   `json:"removedPages"`
	MediaByHash       map[string]MediaDescriptor `json:"mediaByHash"`
}

// Route returns the route with the given slug.
func (m *Manifest) Route(slug string) (Route, bool) {
	for _, r := range m.Routes {
		if r.Slug == slug {
			return r, true
		}
	}
	return Route{}, false
}
