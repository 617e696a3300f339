package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pders01/reel/internal/config"
)

const (
	defaultUserAgent = "reel/1.0 (watchlist import; github.com/pders01/reel)"
	defaultTimeout   = 30 * time.Second
)

// CacheKeys are the HTTP validators remembered between imports of a feed.
type CacheKeys struct {
	ETag         string
	LastModified string
}

type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(cfg *config.Config) *Fetcher {
	timeout := defaultTimeout
	userAgent := defaultUserAgent
	if cfg != nil {
		if cfg.Feed.HTTPTimeout > 0 {
			timeout = cfg.Feed.HTTPTimeout
		}
		if cfg.Feed.UserAgent != "" {
			userAgent = cfg.Feed.UserAgent
		}
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch performs a conditional GET. It returns (nil, false, nil) when the
// server reports the feed unchanged. The caller closes the response body.
func (f *Fetcher) Fetch(ctx context.Context, url string, keys CacheKeys) (*http.Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	if keys.ETag != "" {
		req.Header.Set("If-None-Match", keys.ETag)
	}
	if keys.LastModified != "" {
		req.Header.Set("If-Modified-Since", keys.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetching feed: %w", err)
	}

	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		return nil, false, nil
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, false, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	return resp, true, nil
}

// CacheKeysFrom reads the validators of a successful response.
func CacheKeysFrom(resp *http.Response) CacheKeys {
	return CacheKeys{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
}
