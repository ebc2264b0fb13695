//go:generate mockgen -source=interfaces.go -destination=../mocks/domain.go -package=mocks

package domain

import (
	"context"
	"net/http"
	"time"
)

// Fetcher retrieves the bio fallback page and mirrored assets.
type Fetcher interface {
	// Get performs one GET. A non-2xx answer is returned as *FetchError
	// carrying the status code.
	Get(ctx context.Context, url string) (*Response, error)
	Close() error
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	URL         string
	// FromCache is set when the body came from the response cache.
	FromCache bool
}

// Cache stores response bodies keyed by URL
type Cache interface {
	// Get returns ErrCacheMiss when url has no live entry.
	Get(ctx context.Context, url string) ([]byte, error)
	// Set stores body; a non-positive ttl never expires.
	Set(ctx context.Context, url string, body []byte, ttl time.Duration) error
	Has(ctx context.Context, url string) bool
	Delete(ctx context.Context, url string) error
	Close() error
}
