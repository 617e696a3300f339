package user

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/pders01/reel/internal/plugins"
)

const maxPageSize = 1 << 20

var feedTypes = map[string]bool{
	"application/rss+xml":  true,
	"application/atom+xml": true,
}

// DiscoveryPlugin follows the feed a web page advertises with
// <link rel="alternate" type="application/rss+xml">. Responses that are not
// HTML are assumed to be feeds already.
type DiscoveryPlugin struct {
	userAgent string
}

func NewDiscoveryPlugin(userAgent string) *DiscoveryPlugin {
	return &DiscoveryPlugin{userAgent: userAgent}
}

func (p *DiscoveryPlugin) Name() string {
	return "discovery"
}

// Priority is the lowest so that site specific plugins win.
func (p *DiscoveryPlugin) Priority() int {
	return 0
}

func (p *DiscoveryPlugin) CanHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	path := strings.ToLower(strings.TrimSuffix(u.Path, "/"))
	for _, suffix := range []string{".xml", ".rss", ".atom", "/rss", "/feed", "/atom"} {
		if strings.HasSuffix(path, suffix) {
			return false
		}
	}
	return true
}

func (p *DiscoveryPlugin) ResolveFeed(ctx context.Context, rawURL string, client *http.Client) (*plugins.FeedInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: HTTP %d", rawURL, resp.StatusCode)
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "text/html" {
		return plugins.Unchanged(rawURL), nil
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rawURL, err)
	}

	href, title := findFeedLink(doc)
	if href == "" {
		return plugins.Unchanged(rawURL), nil
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("feed link %q: %w", href, err)
	}

	return &plugins.FeedInfo{
		OriginalURL: rawURL,
		FeedURL:     base.ResolveReference(ref).String(),
		Title:       title,
		Metadata:    map[string]string{"plugin": "discovery"},
	}, nil
}

// findFeedLink returns the href and title of the first advertised feed.
func findFeedLink(doc *html.Node) (string, string) {
	var href, title string

	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "link" {
			attrs := make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				attrs[strings.ToLower(a.Key)] = a.Val
			}
			rels := strings.Fields(strings.ToLower(attrs["rel"]))
			if slices.Contains(rels, "alternate") && feedTypes[strings.ToLower(attrs["type"])] && attrs["href"] != "" {
				href, title = attrs["href"], attrs["title"]
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)

	return href, title
}
