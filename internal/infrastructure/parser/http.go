package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"NewsClassifier/internal/domain"
)

const (
	defaultUserAgent = "NewsClassifier/1.0"
	maxDocumentBytes = 10 << 20
)

// HTTPOptions configures the shared document fetcher.
type HTTPOptions struct {
	Timeout        time.Duration
	UserAgent      string
	RequestsPerSec float64
	Burst          int
}

// documentFetcher downloads documents with a per-host rate limit.
type documentFetcher struct {
	client    *http.Client
	userAgent string
	limit     rate.Limit
	burst     int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newDocumentFetcher(client *http.Client, opts HTTPOptions) *documentFetcher {
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &documentFetcher{
		client:    client,
		userAgent: opts.UserAgent,
		limit:     limit,
		burst:     opts.Burst,
		limiters:  map[string]*rate.Limiter{},
	}
}

// get returns the document body. All failures are reported as *domain.FeedFetchError.
func (d *documentFetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	fail := func(err error) error { return &domain.FeedFetchError{FeedURL: rawURL, Err: err} }

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fail(fmt.Errorf("invalid url: %w", err))
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fail(fmt.Errorf("unsupported scheme %q", parsed.Scheme))
	}
	if err := d.limiterFor(parsed.Host).Wait(ctx); err != nil {
		return nil, fail(fmt.Errorf("rate limit: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fail(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fail(fmt.Errorf("request document: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fail(fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fail(fmt.Errorf("read body: %w", err))
	}
	return body, nil
}

func (d *documentFetcher) limiterFor(host string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[host]
	if !ok {
		l = rate.NewLimiter(d.limit, d.burst)
		d.limiters[host] = l
	}
	return l
}
