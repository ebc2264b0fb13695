package download

import (
	"fmt"
	"time"

	"github.com/quantmind-br/cargomirror-go/internal/domain"
)

// Item statuses
const (
	StatusDownloaded = "downloaded"
	StatusFailed     = "failed"
)

// Item is the outcome for one manifest entry.
type Item struct {
	URL         string `json:"url"`
	FetchedFrom string `json:"fetchedFrom"`
	LocalPath   string `json:"localPath"`
	Status      string `json:"status"`
	Attempts    int    `json:"attempts"`
	HTTPStatus  *int   `json:"httpStatus"`
	Bytes       int    `json:"bytes"`
	Error       string `json:"error,omitempty"`
}

// Report summarises a download run. Items are sorted by URL.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Total       int       `json:"total"`
	Downloaded  int       `json:"downloaded"`
	Failed      int       `json:"failed"`
	Items       []Item    `json:"items"`
}

// Err returns domain.ErrDownloadsFailed when any item failed.
func (r *Report) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d", domain.ErrDownloadsFailed, r.Failed, r.Total)
}
