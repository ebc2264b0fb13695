package assets

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/quantmind-br/cargomirror-go/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// DefaultAssetsDir is where mirrored assets live, relative to the project root.
const DefaultAssetsDir = "public/assets/cargo"

// queryHashLength is the number of hex digits of the query digest kept in
// file names.
const queryHashLength = 10

var (
	unsafeSegmentChars = regexp.MustCompile(`[^\w.-]`)
	underscoreRuns     = regexp.MustCompile(`_+`)
)

// SafeSegment makes one URL path segment safe for any file system.
func SafeSegment(segment string) string {
	s := norm.NFKC.String(segment)
	s = unsafeSegmentChars.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if strings.Trim(s, ".") == "" {
		// "", "." and ".." would address the parent or the directory itself
		return "asset"
	}
	return s
}

// ResolveLocalPath maps an asset URL to its mirrored file path under
// assetsDir, in slash form. The host namespaces the tree and a short digest
// of the query string is spliced before the extension, so the mapping is
// stable and distinct URLs get distinct paths. Dot segments are resolved
// against the URL root first, so the result always stays under
// assetsDir/host.
func ResolveLocalPath(assetsDir, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: %s: missing host", domain.ErrInvalidURL, rawURL)
	}

	var segments []string
	for _, seg := range strings.Split(path.Clean("/"+u.EscapedPath()), "/") {
		if seg != "" {
			segments = append(segments, SafeSegment(seg))
		}
	}

	file := "asset"
	if n := len(segments); n > 0 {
		file = segments[n-1]
		segments = segments[:n-1]
	}

	if u.RawQuery != "" {
		sum := sha1.Sum([]byte("?" + u.RawQuery))
		digest := "__q" + hex.EncodeToString(sum[:])[:queryHashLength]
		if dot := strings.LastIndex(file, "."); dot > 0 {
			file = file[:dot] + digest + file[dot:]
		} else {
			file += digest
		}
	}

	parts := make([]string, 0, len(segments)+3)
	parts = append(parts, filepath.ToSlash(assetsDir), host)
	parts = append(parts, segments...)
	parts = append(parts, file)
	return path.Join(parts...), nil
}
