package feed

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pders01/reel/internal/deeplink"
)

// Entry is one feed item that names a movie.
type Entry struct {
	Title   string
	Link    string
	MovieID int
}

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
	}
}

// Parse returns the movie entries of a feed and its title. Items whose
// movie id cannot be determined are skipped; repeated ids keep the first
// occurrence.
func (p *Parser) Parse(reader io.Reader) (string, []Entry, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return "", nil, fmt.Errorf("parsing feed: %w", err)
	}

	seen := make(map[int]bool)
	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		id, ok := movieID(item)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		entries = append(entries, Entry{
			Title:   strings.TrimSpace(item.Title),
			Link:    item.Link,
			MovieID: id,
		})
	}

	return feed.Title, entries, nil
}

// movieID prefers the tmdb:movieId extension used by Letterboxd feeds and
// falls back to resolving the item link as a movie deep link.
func movieID(item *gofeed.Item) (int, bool) {
	if ext, ok := item.Extensions["tmdb"]; ok {
		for _, e := range ext["movieId"] {
			if id, err := strconv.Atoi(strings.TrimSpace(e.Value)); err == nil && id > 0 {
				return id, true
			}
		}
	}

	for _, link := range append([]string{item.Link}, item.Links...) {
		if l, ok := deeplink.Parse(link); ok {
			return l.MovieID, true
		}
	}
	return 0, false
}
