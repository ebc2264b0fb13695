package assets

import (
	"strings"

	"github.com/quantmind-br/cargomirror-go/internal/cargo"
)

// LocalIndex maps remote assets to the public URLs of their mirrored copies.
type LocalIndex struct {
	byURL  map[string]string
	byHash map[string]string
}

// NewLocalIndex indexes a manifest. Local paths are made public by removing
// the publicDir prefix. When a hash has several variants the original one
// is preferred.
func NewLocalIndex(manifest *Manifest, publicDir string) *LocalIndex {
	idx := &LocalIndex{
		byURL:  make(map[string]string),
		byHash: make(map[string]string),
	}
	if manifest == nil {
		return idx
	}

	for _, entry := range manifest.Assets {
		public := PublicPath(entry.LocalPath, publicDir)
		idx.byURL[entry.URL] = public

		hash, ok := cargo.HashFromURL(entry.URL)
		if !ok {
			continue
		}
		if _, seen := idx.byHash[hash]; !seen || cargo.IsOriginalURL(entry.URL) {
			idx.byHash[hash] = public
		}
	}
	return idx
}

// PublicPath turns a local asset path into a site-absolute URL path.
func PublicPath(localPath, publicDir string) string {
	p := strings.ReplaceAll(localPath, `\`, "/")
	prefix := strings.TrimSuffix(strings.ReplaceAll(publicDir, `\`, "/"), "/") + "/"
	p = strings.TrimPrefix(p, prefix)
	return "/" + strings.TrimLeft(p, "/")
}

// ByURL returns the public path mirrored from a remote URL.
func (idx *LocalIndex) ByURL(remote string) (string, bool) {
	p, ok := idx.byURL[remote]
	return p, ok
}

// ByHash returns the public path of any mirrored variant of a hash.
func (idx *LocalIndex) ByHash(hash string) (string, bool) {
	p, ok := idx.byHash[hash]
	return p, ok
}

// Lookup resolves a media record: its canonical URL first, then its hash.
func (idx *LocalIndex) Lookup(media cargo.Media) (string, bool) {
	if !media.Addressable() {
		return "", false
	}
	if p, ok := idx.ByURL(media.OriginalURL()); ok {
		return p, true
	}
	return idx.ByHash(media.Hash)
}

// Len returns the number of indexed URLs.
func (idx *LocalIndex) Len() int {
	return len(idx.byURL)
}
