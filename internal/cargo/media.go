package cargo

import (
	"fmt"
	"regexp"
	"strings"
)

// FreightHost serves every uploaded media file.
const FreightHost = "freight.cargo.site"

// Variant selection for optimized downloads.
const (
	GIFMaxWidth        = 720
	GIFQuality         = 65
	ImageQuality       = 75
	DefaultSourceWidth = 1200
)

// WidthBuckets are the standard widths static images are snapped down to,
// widest first.
var WidthBuckets = []int{1600, 1200}

var hashInURL = regexp.MustCompile(`/i/([A-Za-z0-9]+)/`)

// OriginalURL is the canonical, undownsized URL for a media file. It is the
// identity key used by every manifest.
func OriginalURL(hash, name string) string {
	return fmt.Sprintf("https://%s/t/original/i/%s/%s", FreightHost, hash, encodeName(name))
}

// OriginalURL returns the canonical URL of m.
func (m Media) OriginalURL() string {
	return OriginalURL(m.Hash, m.Name)
}

// OptimizedWidth picks the download width for m. GIFs are capped at
// GIFMaxWidth; static images snap down to a bucket. Images are never upscaled.
func (m Media) OptimizedWidth() int {
	width := DefaultSourceWidth
	if m.Width != nil && *m.Width > 0 {
		width = *m.Width
	}
	if m.IsGIF() {
		return min(width, GIFMaxWidth)
	}
	for _, bucket := range WidthBuckets {
		if width > bucket {
			return bucket
		}
	}
	return width
}

// OptimizedQuality returns the requested quality for m.
func (m Media) OptimizedQuality() int {
	if m.IsGIF() {
		return GIFQuality
	}
	return ImageQuality
}

// OptimizedURL is the resized variant actually downloaded for m.
func (m Media) OptimizedURL() string {
	return fmt.Sprintf("https://%s/w/%d/q/%d/i/%s/%s",
		FreightHost, m.OptimizedWidth(), m.OptimizedQuality(), m.Hash, encodeName(m.Name))
}

// HashFromURL extracts the content hash from a CDN URL.
func HashFromURL(rawURL string) (string, bool) {
	match := hashInURL.FindStringSubmatch(rawURL)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// IsOriginalURL reports whether rawURL addresses the full original variant.
func IsOriginalURL(rawURL string) bool {
	return strings.Contains(rawURL, "/t/original/")
}

// encodeName escapes a file name like encodeURIComponent but keeps slashes.
func encodeName(name string) string {
	return strings.ReplaceAll(EncodeURIComponent(name), "%2F", "/")
}

// EncodeURIComponent escapes every byte except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreservedComponent(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreservedComponent(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
