package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/reel/internal/plugins"
)

func TestLetterboxdPlugin_CanHandle(t *testing.T) {
	plugin := NewLetterboxdPlugin()

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"member page", "https://letterboxd.com/someone/", true},
		{"www host", "https://www.letterboxd.com/someone", true},
		{"watchlist page", "https://letterboxd.com/someone/watchlist/", true},
		{"already a feed", "https://letterboxd.com/someone/rss/", false},
		{"film page", "https://letterboxd.com/film/eddington/", false},
		{"site root", "https://letterboxd.com/", false},
		{"other site", "https://example.com/someone/", false},
		{"not http", "ftp://letterboxd.com/someone/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, plugin.CanHandle(tt.url))
		})
	}
}

func TestLetterboxdPlugin_ResolveFeed(t *testing.T) {
	plugin := NewLetterboxdPlugin()
	assert.Equal(t, "letterboxd", plugin.Name())
	assert.Equal(t, 50, plugin.Priority())

	info, err := plugin.ResolveFeed(context.Background(), "https://www.letterboxd.com/someone/watchlist/", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://letterboxd.com/someone/rss/", info.FeedURL)
	assert.Equal(t, "Letterboxd - someone", info.Title)
	assert.Equal(t, "someone", info.Metadata["member"])
}

func TestDiscoveryPlugin_CanHandle(t *testing.T) {
	plugin := NewDiscoveryPlugin("")

	assert.True(t, plugin.CanHandle("https://blog.example/picks/"))
	assert.False(t, plugin.CanHandle("https://blog.example/picks.xml"))
	assert.False(t, plugin.CanHandle("https://blog.example/feed/"))
	assert.False(t, plugin.CanHandle("mailto:someone@example.com"))
}

func TestDiscoveryPlugin_ResolveFeed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/picks/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "reel-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<!doctype html><html><head>
			<link rel="stylesheet" href="/style.css">
			<link rel="alternate" type="application/atom+xml" title="Friends' picks" href="../picks.atom">
		</head><body></body></html>`))
	})
	mux.HandleFunc("/plain/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>nothing here</title></head></html>`))
	})
	mux.HandleFunc("/raw/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<rss version="2.0"><channel><title>x</title></channel></rss>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	plugin := NewDiscoveryPlugin("reel-test")
	client := &http.Client{Timeout: 5 * time.Second}
	ctx := context.Background()

	info, err := plugin.ResolveFeed(ctx, srv.URL+"/picks/", client)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/picks.atom", info.FeedURL)
	assert.Equal(t, "Friends' picks", info.Title)

	info, err = plugin.ResolveFeed(ctx, srv.URL+"/plain/", client)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/plain/", info.FeedURL)

	info, err = plugin.ResolveFeed(ctx, srv.URL+"/raw/", client)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/raw/", info.FeedURL)

	_, err = plugin.ResolveFeed(ctx, srv.URL+"/missing", client)
	assert.Error(t, err)
}

func TestRegistryPrefersLetterboxd(t *testing.T) {
	registry := plugins.NewRegistry(time.Second)
	registry.Register(NewDiscoveryPlugin(""))
	registry.Register(NewLetterboxdPlugin())

	p := registry.FindPlugin("https://letterboxd.com/someone/")
	require.NotNil(t, p)
	assert.Equal(t, "letterboxd", p.Name())

	p = registry.FindPlugin("https://blog.example/picks/")
	require.NotNil(t, p)
	assert.Equal(t, "discovery", p.Name())
}
