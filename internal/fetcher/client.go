package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/quantmind-br/cargomirror-go/internal/domain"
)

var _ domain.Fetcher = (*Client)(nil)

const (
	// DefaultTimeout bounds one request, body included
	DefaultTimeout = 60 * time.Second
	// DefaultMaxBodyBytes caps a response; Cargo serves videos too
	DefaultMaxBodyBytes int64 = 512 << 20
)

// Client fetches export pages and assets over a browser TLS profile.
// Each Get performs a single request; retries are the caller's concern.
type Client struct {
	tlsClient    tls_client.HttpClient
	userAgent    string
	maxBodyBytes int64
	// cache is nil unless caching was enabled
	cache    domain.Cache
	cacheTTL time.Duration
}

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	Timeout      time.Duration
	EnableCache  bool
	CacheTTL     time.Duration
	Cache        domain.Cache
	UserAgent    string
	ProxyURL     string
	MaxBodyBytes int64
}

// DefaultClientOptions returns default client options
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:      DefaultTimeout,
		CacheTTL:     24 * time.Hour,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// NewClient creates a Client. A zero Timeout or MaxBodyBytes takes the default.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	tlsOpts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(opts.Timeout.Seconds())),
		tls_client.WithClientProfile(profiles.Chrome_131),
		tls_client.WithRandomTLSExtensionOrder(),
	}
	if opts.ProxyURL != "" {
		tlsOpts = append(tlsOpts, tls_client.WithProxyUrl(opts.ProxyURL))
	}

	tlsClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), tlsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tls client: %w", err)
	}

	c := &Client{
		tlsClient:    tlsClient,
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
		cacheTTL:     opts.CacheTTL,
	}
	if opts.EnableCache {
		c.cache = opts.Cache
	}
	return c, nil
}

// Get fetches url, answering from the cache when possible. Only successful
// responses are cached.
func (c *Client) Get(ctx context.Context, url string) (*domain.Response, error) {
	if c.cache != nil {
		if body, err := c.cache.Get(ctx, url); err == nil {
			return &domain.Response{
				StatusCode:  http.StatusOK,
				Body:        body,
				ContentType: http.DetectContentType(body),
				URL:         url,
				FromCache:   true,
			}, nil
		}
	}

	resp, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		// a failed write only costs a refetch next run
		_ = c.cache.Set(ctx, url, resp.Body, c.cacheTTL)
	}
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, targetURL string) (*domain.Response, error) {
	req, err := fhttp.NewRequest(fhttp.MethodGet, targetURL, nil)
	if err != nil {
		return nil, domain.NewFetchError(targetURL, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req = req.WithContext(ctx)
	for k, v := range RequestHeaders(c.userAgent) {
		req.Header.Set(k, v)
	}

	resp, err := c.tlsClient.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(targetURL, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewFetchError(targetURL, resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, domain.NewFetchError(targetURL, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, domain.NewFetchError(targetURL, resp.StatusCode, fmt.Errorf("response exceeds %d bytes", c.maxBodyBytes))
	}

	headers := make(http.Header, len(resp.Header))
	for k, v := range resp.Header {
		headers[k] = v
	}

	return &domain.Response{
		StatusCode:  resp.StatusCode,
		Body:        body,
		Headers:     headers,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         targetURL,
	}, nil
}

// Close releases client resources; the cache is owned by the caller.
func (c *Client) Close() error {
	return nil
}
