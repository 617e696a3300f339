// Package plugins maps the URLs people paste, such as a profile page, to the
// watchlist feed behind them.
package plugins

import (
	"context"
	"net/http"
	"time"
)

// FeedInfo describes the feed a plugin resolved a URL to.
type FeedInfo struct {
	// URL that was requested
	OriginalURL string
	// Feed to fetch instead
	FeedURL string
	// Display title, e.g. "Letterboxd - someone"
	Title string
	// Plugin specific details such as the account name
	Metadata map[string]string
}

// Plugin resolves URLs for one site or convention.
type Plugin interface {
	Name() string

	// CanHandle reports whether ResolveFeed understands rawURL.
	CanHandle(rawURL string) bool

	// ResolveFeed returns the feed for rawURL. It may make HTTP requests
	// with client.
	ResolveFeed(ctx context.Context, rawURL string, client *http.Client) (*FeedInfo, error)

	// Priority breaks ties when several plugins handle a URL; higher wins.
	Priority() int
}

// Registry picks the best plugin for a URL.
type Registry struct {
	plugins []Plugin
	client  *http.Client
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		plugins: make([]Plugin, 0),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (r *Registry) Register(plugin Plugin) {
	r.plugins = append(r.plugins, plugin)
}

// FindPlugin returns the highest priority plugin that handles rawURL, or nil.
func (r *Registry) FindPlugin(rawURL string) Plugin {
	var best Plugin
	highest := -1

	for _, p := range r.plugins {
		if p.CanHandle(rawURL) && p.Priority() > highest {
			best = p
			highest = p.Priority()
		}
	}

	return best
}

// ResolveFeed runs the matching plugin. URLs no plugin handles are returned
// unchanged.
func (r *Registry) ResolveFeed(ctx context.Context, rawURL string) (*FeedInfo, error) {
	p := r.FindPlugin(rawURL)
	if p == nil {
		return Unchanged(rawURL), nil
	}
	return p.ResolveFeed(ctx, rawURL, r.client)
}

// ListPlugins returns a copy of the registered plugins.
func (r *Registry) ListPlugins() []Plugin {
	return append([]Plugin(nil), r.plugins...)
}

// Unchanged is the FeedInfo for a URL that is already a feed.
func Unchanged(rawURL string) *FeedInfo {
	return &FeedInfo{
		OriginalURL: rawURL,
		FeedURL:     rawURL,
		Metadata:    make(map[string]string),
	}
}
