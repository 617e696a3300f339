package user

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pders01/reel/internal/plugins"
)

// Letterboxd paths that are site sections rather than members.
var letterboxdReserved = map[string]bool{
	"film": true, "films": true, "lists": true, "members": true, "search": true,
	"journal": true, "about": true, "pro": true, "settings": true, "activity": true,
}

// LetterboxdPlugin turns a Letterboxd member page into the member's RSS feed,
// whose items carry tmdb:movieId.
type LetterboxdPlugin struct{}

func NewLetterboxdPlugin() *LetterboxdPlugin {
	return &LetterboxdPlugin{}
}

func (p *LetterboxdPlugin) Name() string {
	return "letterboxd"
}

func (p *LetterboxdPlugin) Priority() int {
	return 50
}

func (p *LetterboxdPlugin) CanHandle(rawURL string) bool {
	member, rest, ok := letterboxdMember(rawURL)
	if !ok {
		return false
	}
	// already a feed
	return member != "" && (len(rest) == 0 || rest[len(rest)-1] != "rss")
}

func (p *LetterboxdPlugin) ResolveFeed(_ context.Context, rawURL string, _ *http.Client) (*plugins.FeedInfo, error) {
	member, _, _ := letterboxdMember(rawURL)

	return &plugins.FeedInfo{
		OriginalURL: rawURL,
		FeedURL:     "https://letterboxd.com/" + member + "/rss/",
		Title:       "Letterboxd - " + member,
		Metadata: map[string]string{
			"plugin": "letterboxd",
			"member": member,
		},
	}, nil
}

// letterboxdMember splits a letterboxd.com URL into the member name and the
// remaining path segments.
func letterboxdMember(rawURL string) (string, []string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", nil, false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "letterboxd.com" {
		return "", nil, false
	}

	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 || letterboxdReserved[strings.ToLower(segs[0])] {
		return "", nil, true
	}
	return segs[0], segs[1:], true
}
