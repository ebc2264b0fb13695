package cargo

import "strings"

// Page is a read-only typed view over a page record.
type Page struct {
	ID               string
	Purl             string
	Title            string
	Content          string
	LocalCSS         string
	Display          bool
	Pin              bool
	Stack            bool
	Overlay          bool
	ScreenVisibility string
	AccessLevel      string
	Thumbnail        *Media
	Media            []Media
}

// PageFromObject builds a Page from its record. The record's own id wins
// over the map key when both are present.
func PageFromObject(key string, rec Object) Page {
	p := Page{
		ID:          key,
		Purl:        rec.String("purl"),
		Title:       rec.String("title"),
		Content:     rec.String("content"),
		LocalCSS:    rec.String("local_css"),
		Display:     !rec.IsFalse("display"),
		AccessLevel: rec.String("access_level"),
	}
	if id := rec.String("id"); id != "" {
		p.ID = id
	}
	p.Pin, _ = rec.Bool("pin")
	p.Stack, _ = rec.Bool("stack")
	p.Overlay, _ = rec.Bool("overlay")
	p.ScreenVisibility = rec.Object("pin_options").String("screen_visibility")

	if thumb, ok := MediaFromValue(rec["thumbnail"]); ok {
		p.Thumbnail = &thumb
	}
	for _, item := range rec.Array("media") {
		if m, ok := MediaFromValue(item); ok {
			p.Media = append(p.Media, m)
		}
	}
	return p
}

// AllMedia returns the thumbnail followed by inline media, keeping only
// records with both a hash and a name.
func (p Page) AllMedia() []Media {
	items := make([]Media, 0, len(p.Media)+1)
	if p.Thumbnail != nil && p.Thumbnail.Addressable() {
		items = append(items, *p.Thumbnail)
	}
	for _, m := range p.Media {
		if m.Addressable() {
			items = append(items, m)
		}
	}
	return items
}

// Set is a read-only typed view over a set record.
type Set struct {
	ID      string
	Purl    string
	Title   string
	Display bool
}

// SetFromObject builds a Set from its record.
func SetFromObject(key string, rec Object) Set {
	s := Set{
		ID:      key,
		Purl:    rec.String("purl"),
		Title:   rec.String("title"),
		Display: !rec.IsFalse("display"),
	}
	if id := rec.String("id"); id != "" {
		s.ID = id
	}
	return s
}

// Media references one remotely hosted asset. Hash is its identity.
type Media struct {
	Hash     string `json:"hash"`
	Name     string `json:"name"`
	Width    *int   `json:"width"`
	Height   *int   `json:"height"`
	FileType string `json:"file_type,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// MediaFromValue decodes a media record.
func MediaFromValue(v any) (Media, bool) {
	rec, ok := AsObject(v)
	if !ok {
		return Media{}, false
	}
	m := Media{
		Hash:     rec.String("hash"),
		Name:     rec.String("name"),
		FileType: rec.String("file_type"),
		MimeType: rec.String("mime_type"),
	}
	if m.FileType == "" {
		m.FileType = rec.String("fileType")
	}
	if w, ok := IntValue(rec["width"]); ok {
		m.Width = &w
	}
	if h, ok := IntValue(rec["height"]); ok {
		m.Height = &h
	}
	return m, true
}

// Addressable reports whether the media can be turned into a CDN URL.
func (m Media) Addressable() bool {
	return m.Hash != "" && m.Name != ""
}

// IsGIF reports whether the media is an animated-image candidate.
func (m Media) IsGIF() bool {
	return strings.EqualFold(m.FileType, "gif")
}
