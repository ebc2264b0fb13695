package assets

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/quantmind-br/cargomirror-go/internal/cargo"
	"github.com/quantmind-br/cargomirror-go/internal/utils"
)

var assetURLPattern = regexp.MustCompile(`(?i)https://(?:freight|static)\.cargo\.site[^"' )>]+?\.(?:png|jpe?g|gif|webp|svg|ico|pdf)(?:\?[^"' )>]*)?`)

// Builder derives the asset manifest from a state
type Builder struct {
	assetsDir string
	logger    *utils.Logger
	now       func() time.Time
}

// NewBuilder creates a Builder writing local paths under assetsDir
func NewBuilder(assetsDir string, logger *utils.Logger) *Builder {
	if assetsDir == "" {
		assetsDir = DefaultAssetsDir
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Builder{
		assetsDir: assetsDir,
		logger:    logger.WithComponent("assets"),
		now:       time.Now,
	}
}

// pending is an entry still collecting its sources
type pending struct {
	url         string
	downloadURL string
	sources     map[string]bool
}

// urlIndex deduplicates discovered assets by canonical URL
type urlIndex map[string]*pending

func (ix urlIndex) add(raw, source, downloadURL string) {
	if raw == "" {
		return
	}
	clean := strings.TrimSuffix(raw, `\`)

	entry, ok := ix[clean]
	if !ok {
		entry = &pending{url: clean, downloadURL: clean, sources: make(map[string]bool)}
		ix[clean] = entry
	}
	if downloadURL != "" {
		entry.downloadURL = downloadURL
	}
	entry.sources[source] = true
}

// Build walks the whole state for asset URLs, adds the canonical URL of
// every page media record, and resolves local paths. Entries whose URL
// cannot be parsed are logged and left out.
func (b *Builder) Build(state *cargo.State) *Manifest {
	ix := make(urlIndex)

	b.scanStrings(state.Root(), ix)
	scanned := len(ix)

	for _, id := range state.PageIDs() {
		page, ok := state.Page(id)
		if !ok {
			continue
		}
		for _, media := range page.AllMedia() {
			ix.add(media.OriginalURL(), SourceDerivedOriginal, media.OptimizedURL())
		}
	}

	urls := make([]string, 0, len(ix))
	for u := range ix {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	manifest := &Manifest{
		GeneratedAt: b.now().UTC(),
		Assets:      make([]Entry, 0, len(urls)),
	}
	skipped := 0
	for _, u := range urls {
		entry := ix[u]
		localPath, err := ResolveLocalPath(b.assetsDir, entry.url)
		if err != nil {
			skipped++
			b.logger.Warn().Err(err).Str("url", entry.url).Msg("Skipping asset with unparseable URL")
			continue
		}
		manifest.Assets = append(manifest.Assets, Entry{
			URL:         entry.url,
			DownloadURL: entry.downloadURL,
			LocalPath:   localPath,
			Sources:     sortedKeys(entry.sources),
		})
	}
	manifest.Total = len(manifest.Assets)

	b.logger.Info().
		Int("assets", manifest.Total).
		Int("from_strings", scanned).
		Int("skipped", skipped).
		Msg("Built asset manifest")
	return manifest
}

// scanStrings matches every string leaf of the document against the asset
// pattern. It walks an explicit stack, so document depth is unbounded.
func (b *Builder) scanStrings(root cargo.Object, ix urlIndex) {
	stack := []any{map[string]any(root)}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v := current.(type) {
		case string:
			for _, match := range assetURLPattern.FindAllString(v, -1) {
				ix.add(match, SourceStateString, "")
			}
		case []any:
			stack = append(stack, v...)
		case map[string]any:
			for _, child := range v {
				stack = append(stack, child)
			}
		case cargo.Object:
			for _, child := range v {
				stack = append(stack, child)
			}
		}
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
