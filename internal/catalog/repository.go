// Package catalog provides the movie lookup capability: an in-memory sample
// catalog, a TMDB client and a caching decorator over either.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/pders01/reel/internal/movie"
)

var (
	// ErrNotFound is returned when a movie id does not exist in the source.
	ErrNotFound = errors.New("movie not found")
	// ErrUnavailable wraps transport and upstream failures.
	ErrUnavailable = errors.New("catalog unavailable")
)

// Repository is the movie data source used by the search pipeline and the
// detail screen.
type Repository interface {
	Trending(ctx context.Context) ([]movie.Movie, error)
	Search(ctx context.Context, query string) ([]movie.Movie, error)
	Detail(ctx context.Context, id int) (*movie.Detail, error)
	Similar(ctx context.Context, id int) ([]movie.Movie, error)
}

// SearchUseCase adapts repo to a query lookup. Blank queries succeed with
// no results and never reach the repository.
func SearchUseCase(repo Repository) func(context.Context, string) ([]movie.Movie, error) {
	return func(ctx context.Context, query string) ([]movie.Movie, error) {
		if strings.TrimSpace(query) == "" {
			return []movie.Movie{}, nil
		}
		return repo.Search(ctx, query)
	}
}
