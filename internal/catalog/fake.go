package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/reel/internal/movie"
)

//go:embed sample_catalog.toml
var sampleCatalogTOML []byte

type sampleCatalog struct {
	Movies  []movie.Movie  `toml:"movies"`
	Details []movie.Detail `toml:"details"`
}

// Latency is the simulated delay of each Fake operation.
type Latency struct {
	Trending time.Duration
	Search   time.Duration
	Detail   time.Duration
}

// DefaultLatency mimics a slow network.
var DefaultLatency = Latency{
	Trending: 1000 * time.Millisecond,
	Search:   800 * time.Millisecond,
	Detail:   600 * time.Millisecond,
}

// Fake serves the embedded sample catalog.
type Fake struct {
	movies  []movie.Movie
	details map[int]*movie.Detail
	latency Latency
}

// NewFake decodes the embedded catalog. Pass a zero Latency for instant
// responses.
func NewFake(latency Latency) (*Fake, error) {
	var cat sampleCatalog
	if err := toml.Unmarshal(sampleCatalogTOML, &cat); err != nil {
		return nil, fmt.Errorf("parsing sample_catalog.toml: %w", err)
	}

	f := &Fake{
		movies:  cat.Movies,
		details: make(map[int]*movie.Detail, len(cat.Details)),
		latency: latency,
	}
	for i := range cat.Details {
		d := cat.Details[i]
		f.details[d.ID] = &d
	}
	return f, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fake) Trending(ctx context.Context) ([]movie.Movie, error) {
	if err := sleep(ctx, f.latency.Trending); err != nil {
		return nil, err
	}
	return append([]movie.Movie(nil), f.movies...), nil
}

// Search matches query case-insensitively against title, overview and
// original title.
func (f *Fake) Search(ctx context.Context, query string) ([]movie.Movie, error) {
	if err := sleep(ctx, f.latency.Search); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := []movie.Movie{}
	for _, m := range f.movies {
		if strings.Contains(strings.ToLower(m.Title), q) ||
			strings.Contains(strings.ToLower(m.Overview), q) ||
			strings.Contains(strings.ToLower(m.OriginalTitle), q) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Detail returns the full record when the catalog has one, otherwise a
// record built from the movie summary.
func (f *Fake) Detail(ctx context.Context, id int) (*movie.Detail, error) {
	if err := sleep(ctx, f.latency.Detail); err != nil {
		return nil, err
	}
	if d, ok := f.details[id]; ok {
		cp := *d
		return &cp, nil
	}
	for _, m := range f.movies {
		if m.ID == id {
			return fromSummary(m), nil
		}
	}
	return nil, fmt.Errorf("movie %d: %w", id, ErrNotFound)
}

// Similar returns the other movies sharing at least one genre with id.
func (f *Fake) Similar(ctx context.Context, id int) ([]movie.Movie, error) {
	if err := sleep(ctx, f.latency.Detail); err != nil {
		return nil, err
	}
	var base *movie.Movie
	for i := range f.movies {
		if f.movies[i].ID == id {
			base = &f.movies[i]
			break
		}
	}
	if base == nil {
		return nil, fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}

	out := []movie.Movie{}
	for _, m := range f.movies {
		if m.ID == id {
			continue
		}
		for _, g := range base.GenreIDs {
			if m.HasGenre(g) {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

func fromSummary(m movie.Movie) *movie.Detail {
	return &movie.Detail{
		ID:               m.ID,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		Overview:         m.Overview,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		ReleaseDate:      m.ReleaseDate,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Popularity:       m.Popularity,
		Adult:            m.Adult,
		OriginalLanguage: m.OriginalLanguage,
		Video:            m.Video,
		Status:           "Released",
		Genres:           movie.Genres(m.GenreIDs),
	}
}
