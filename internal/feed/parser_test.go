package feed

import (
	"strings"
	"testing"
)

const letterboxdWatchlist = `<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0" xmlns:letterboxd="https://letterboxd.com" xmlns:tmdb="https://themoviedb.org">
	<channel>
		<title>Letterboxd - someone</title>
		<link>https://letterboxd.com/someone/</link>
		<description>Watchlist</description>
		<item>
			<title>Eddington, 2025</title>
			<link>https://letterboxd.com/someone/film/eddington/</link>
			<tmdb:movieId>648878</tmdb:movieId>
		</item>
		<item>
			<title>Weapons, 2025</title>
			<link>https://letterboxd.com/someone/film/weapons/</link>
			<tmdb:movieId>1078605</tmdb:movieId>
		</item>
		<item>
			<title>A list, not a film</title>
			<link>https://letterboxd.com/someone/list/favourites/</link>
		</item>
	</channel>
</rss>`

const deepLinkAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Friends' picks</title>
	<updated>2025-07-20T12:00:00Z</updated>
	<entry>
		<title>Jurassic World Rebirth</title>
		<link href="https://www.themoviedb.org/movie/1234821-jurassic-world-rebirth"/>
		<id>urn:pick:1</id>
		<updated>2025-07-20T12:00:00Z</updated>
	</entry>
	<entry>
		<title>Thunderbolts*</title>
		<link href="https://movieapp.com/movie/986056"/>
		<id>urn:pick:2</id>
		<updated>2025-07-20T12:00:00Z</updated>
	</entry>
	<entry>
		<title>Duplicate</title>
		<link href="movieapp://movie/986056"/>
		<id>urn:pick:3</id>
		<updated>2025-07-20T12:00:00Z</updated>
	</entry>
	<entry>
		<title>Somewhere else</title>
		<link href="https://example.org/blog/post"/>
		<id>urn:pick:4</id>
		<updated>2025-07-20T12:00:00Z</updated>
	</entry>
</feed>`

func TestParser_Parse(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name        string
		feedContent string
		wantTitle   string
		wantIDs     []int
		expectError bool
	}{
		{
			name:        "letterboxd extension",
			feedContent: letterboxdWatchlist,
			wantTitle:   "Letterboxd - someone",
			wantIDs:     []int{648878, 1078605},
		},
		{
			name:        "deep link items",
			feedContent: deepLinkAtom,
			wantTitle:   "Friends' picks",
			wantIDs:     []int{1234821, 986056},
		},
		{
			name:        "empty channel",
			feedContent: `<rss version="2.0"><channel><title>Nothing</title></channel></rss>`,
			wantTitle:   "Nothing",
			wantIDs:     []int{},
		},
		{
			name:        "not a feed",
			feedContent: "this is not xml",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, entries, err := parser.Parse(strings.NewReader(tt.feedContent))
			if (err != nil) != tt.expectError {
				t.Fatalf("Parse() error = %v, expectError %v", err, tt.expectError)
			}
			if tt.expectError {
				return
			}

			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if len(entries) != len(tt.wantIDs) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if entries[i].MovieID != id {
					t.Errorf("entries[%d].MovieID = %d, want %d", i, entries[i].MovieID, id)
				}
			}
		})
	}
}

func TestParser_EntryFields(t *testing.T) {
	_, entries, err := NewParser().Parse(strings.NewReader(letterboxdWatchlist))
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Title != "Eddington, 2025" {
		t.Errorf("Title = %q", entries[0].Title)
	}
	if entries[0].Link != "https://letterboxd.com/someone/film/eddington/" {
		t.Errorf("Link = %q", entries[0].Link)
	}
}
