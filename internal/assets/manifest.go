package assets

import "time"

// Discovery sources recorded on manifest entries
const (
	SourceStateString     = "state-string"
	SourceDerivedOriginal = "derived-original"
)

// Entry is one remote asset to mirror. URL is the canonical identity.
type Entry struct {
	URL         string   `json:"url"`
	DownloadURL string   `json:"downloadUrl"`
	LocalPath   string   `json:"localPath"`
	Sources     []string `json:"sources"`
}

// Manifest lists every asset referenced by a state, sorted by URL.
type Manifest struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Total       int       `json:"total"`
	Assets      []Entry   `json:"assets"`
}
