package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/movie"
)

// DetailSource fetches single movies and their neighbours.
type DetailSource interface {
	Detail(ctx context.Context, id int) (*movie.Detail, error)
	Similar(ctx context.Context, id int) ([]movie.Movie, error)
}

// MarkStore persists favorite and watchlist flags.
type MarkStore interface {
	IsFavorite(id int) (bool, error)
	SetFavorite(id int, on bool) error
	IsWatchlisted(id int) (bool, error)
	SetWatchlisted(id int, on bool) error
}

// DetailState is one snapshot of the detail screen.
type DetailState struct {
	MovieID        int
	Detail         *movie.Detail
	Loading        bool
	Err            string
	Favorite       bool
	Watchlisted    bool
	Similar        []movie.Movie
	LoadingSimilar bool
}

func (s DetailState) HasError() bool { return s.Err != "" }

// ClearError returns s without its failure message.
func (s DetailState) ClearError() DetailState {
	s.Err = ""
	return s
}

var errNoMarks = errors.New("favorites are not available")

// DetailLoader builds DetailState snapshots. marks may be nil, in which
// case favorite and watchlist flags stay false and toggles fail.
type DetailLoader struct {
	source DetailSource
	marks  MarkStore
	log    *debuglog.FieldLogger
}

func NewDetailLoader(source DetailSource, marks MarkStore) *DetailLoader {
	return &DetailLoader{
		source: source,
		marks:  marks,
		log:    debuglog.WithFields(map[string]interface{}{"component": "detail"}),
	}
}

// LoadDetail fetches the movie and its marks. The returned state has
// LoadingSimilar set when the detail loaded.
func (l *DetailLoader) LoadDetail(ctx context.Context, id int) DetailState {
	d, err := l.source.Detail(ctx, id)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = DefaultErrorMessage
		}
		return DetailState{MovieID: id, Err: msg}
	}

	s := DetailState{MovieID: id, Detail: d, LoadingSimilar: true}
	if l.marks != nil {
		if s.Favorite, err = l.marks.IsFavorite(id); err != nil {
			l.log.Warnf("reading favorite flag for %d: %v", id, err)
		}
		if s.Watchlisted, err = l.marks.IsWatchlisted(id); err != nil {
			l.log.Warnf("reading watchlist flag for %d: %v", id, err)
		}
	}
	return s
}

// LoadSimilar fills in the similar movies for a loaded detail state.
func (l *DetailLoader) LoadSimilar(ctx context.Context, s DetailState) DetailState {
	s.LoadingSimilar = false
	if s.Detail == nil {
		return s
	}
	similar, err := l.source.Similar(ctx, s.MovieID)
	if err != nil {
		l.log.Warnf("similar movies for %d: %v", s.MovieID, err)
		s.Similar = nil
		return s
	}
	s.Similar = similar
	return s
}

// Load runs the whole detail flow, calling emit with each snapshot in order.
func (l *DetailLoader) Load(ctx context.Context, id int, emit func(DetailState)) {
	emit(DetailState{MovieID: id, Loading: true})

	s := l.LoadDetail(ctx, id)
	emit(s)
	if s.Detail == nil {
		return
	}
	emit(l.LoadSimilar(ctx, s))
}

// ToggleFavorite flips and persists the favorite flag.
func (l *DetailLoader) ToggleFavorite(s DetailState) (DetailState, error) {
	if l.marks == nil {
		return s, errNoMarks
	}
	on := !s.Favorite
	if err := l.marks.SetFavorite(s.MovieID, on); err != nil {
		return s, fmt.Errorf("saving favorite: %w", err)
	}
	s.Favorite = on
	return s, nil
}

// ToggleWatchlist flips and persists the watchlist flag.
func (l *DetailLoader) ToggleWatchlist(s DetailState) (DetailState, error) {
	if l.marks == nil {
		return s, errNoMarks
	}
	on := !s.Watchlisted
	if err := l.marks.SetWatchlisted(s.MovieID, on); err != nil {
		return s, fmt.Errorf("saving watchlist: %w", err)
	}
	s.Watchlisted = on
	return s, nil
}
