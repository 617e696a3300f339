package search

import "github.com/pders01/reel/internal/movie"

// Searcher defines the minimal search API used for offline lookups.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// Source is the read side of the movie cache that engines search over.
// *storage.Store satisfies it.
type Source interface {
	GetAllMovies() ([]movie.Movie, error)
	GetMovie(id int) (movie.Movie, error)
}

// UpdateListener can be implemented by search engines that maintain
// an external index and want to be notified about data changes.
type UpdateListener interface {
	OnMoviesUpdated(movies []movie.Movie)
}

// DebugStatser provides lightweight stats for visibility/debugging.
// Implemented by engines that can report index doc counts, etc.
type DebugStatser interface {
	DocCount() (int, error)
}

// Result represents a search match with relevance scoring
type Result struct {
	Movie   movie.Movie
	Score   float64
	Matches []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "title", "original_title", "overview"
	Text   string
	Weight float64
}

// Movies flattens results into the list shape the UI consumes.
func Movies(results []*Result) []movie.Movie {
	out := make([]movie.Movie, 0, len(results))
	for _, r := range results {
		out = append(out, r.Movie)
	}
	return out
}
