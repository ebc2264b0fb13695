package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/quantmind-br/cargomirror-go/internal/cargo"
)

var (
	freightURLPattern = regexp.MustCompile(`https://freight\.cargo\.site/(?:t/original|w/\d+(?:/q/\d+)?)/i/([A-Za-z0-9]+)/([^"'?\s<>]+)`)
	inlineHashPattern = regexp.MustCompile(`hash="([^"]+)"`)
)

// ExtractMediaByHash scans raw markup for CDN media URLs and rebuilds a
// minimal media record per hash. An original-variant URL replaces a resized
// one seen earlier; otherwise the first occurrence is kept.
func ExtractMediaByHash(doc string) map[string]cargo.Object {
	table := make(map[string]cargo.Object)

	for _, match := range freightURLPattern.FindAllStringSubmatch(doc, -1) {
		found, hash, rawName := match[0], match[1], match[2]
		if _, seen := table[hash]; seen && !cargo.IsOriginalURL(found) {
			continue
		}

		name := rawName
		if decoded, err := url.PathUnescape(rawName); err == nil {
			name = decoded
		}

		var fileType any
		if i := strings.LastIndex(name, "."); i >= 0 {
			fileType = strings.ToLower(name[i+1:])
		}

		table[hash] = cargo.Object{
			"hash":      hash,
			"name":      name,
			"file_type": fileType,
			"mime_type": nil,
			"width":     nil,
			"height":    nil,
		}
	}

	return table
}

// AppendMediaFromHTML backfills page media: every hash="…" attribute in a
// page's content that is not already among the page's media is appended
// from table when the table knows it.
func AppendMediaFromHTML(state *cargo.State, table map[string]cargo.Object) *cargo.State {
	next := state.Clone()
	if len(table) == 0 {
		return next
	}

	for _, id := range next.PageIDs() {
		rec, ok := next.PageRecord(id)
		if !ok {
			continue
		}
		matches := inlineHashPattern.FindAllStringSubmatch(rec.String("content"), -1)
		if len(matches) == 0 {
			continue
		}

		media := rec.Array("media")
		known := make(map[string]bool, len(media))
		for _, item := range media {
			if m, ok := cargo.AsObject(item); ok && m.String("hash") != "" {
				known[m.String("hash")] = true
			}
		}

		added := false
		for _, match := range matches {
			hash := match[1]
			stub, ok := table[hash]
			if known[hash] || !ok {
				continue
			}
			media = append(media, map[string]any(stub.Copy()))
			known[hash] = true
			added = true
		}
		if added {
			rec["media"] = media
		}
	}

	return next
}
