package catalog

import (
	"context"
	"errors"

	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/movie"
	"github.com/pders01/reel/internal/search"
	"github.com/pders01/reel/internal/storage"
)

// Cached writes upstream results into the local store and serves from it
// when the upstream fails.
type Cached struct {
	upstream Repository
	store    *storage.Store
	searcher search.Searcher
	listener search.UpdateListener
	limit    int
	log      *debuglog.FieldLogger
}

// NewCached wraps upstream. searcher may be nil, in which case offline
// searches fail with the upstream error. If searcher also implements
// search.UpdateListener it is told about every saved batch.
func NewCached(upstream Repository, store *storage.Store, searcher search.Searcher, limit int) *Cached {
	c := &Cached{
		upstream: upstream,
		store:    store,
		searcher: searcher,
		limit:    limit,
		log:      debuglog.WithFields(map[string]interface{}{"component": "catalog"}),
	}
	if l, ok := searcher.(search.UpdateListener); ok {
		c.listener = l
	}
	return c
}

func (c *Cached) save(movies []movie.Movie) {
	if len(movies) == 0 {
		return
	}
	if err := c.store.SaveMovies(movies); err != nil {
		c.log.Warnf("caching %d movies: %v", len(movies), err)
		return
	}
	if c.listener != nil {
		c.listener.OnMoviesUpdated(movies)
	}
}

func (c *Cached) Trending(ctx context.Context) ([]movie.Movie, error) {
	movies, err := c.upstream.Trending(ctx)
	if err == nil {
		c.save(movies)
		return movies, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	cached, cerr := c.store.GetAllMovies()
	if cerr != nil || len(cached) == 0 {
		return nil, err
	}
	c.log.Infof("trending offline: serving %d cached movies (%v)", len(cached), err)
	return cached, nil
}

func (c *Cached) Search(ctx context.Context, query string) ([]movie.Movie, error) {
	movies, err := c.upstream.Search(ctx, query)
	if err == nil {
		c.save(movies)
		return movies, nil
	}
	if ctx.Err() != nil || c.searcher == nil {
		return nil, err
	}

	results, serr := c.searcher.Search(query, c.limit)
	if serr != nil || len(results) == 0 {
		return nil, err
	}
	c.log.Infof("search offline: %d local matches for %q (%v)", len(results), query, err)
	return search.Movies(results), nil
}

func (c *Cached) Detail(ctx context.Context, id int) (*movie.Detail, error) {
	d, err := c.upstream.Detail(ctx, id)
	if err == nil {
		if serr := c.store.SaveDetail(d); serr != nil {
			c.log.Warnf("caching detail %d: %v", id, serr)
		} else if c.listener != nil {
			c.listener.OnMoviesUpdated([]movie.Movie{d.Summary()})
		}
		return d, nil
	}
	if errors.Is(err, ErrNotFound) || ctx.Err() != nil {
		return nil, err
	}

	cached, cerr := c.store.GetDetail(id)
	if cerr != nil {
		return nil, err
	}
	c.log.Infof("detail offline: serving cached %d (%v)", id, err)
	return cached, nil
}

// Similar is never served offline.
func (c *Cached) Similar(ctx context.Context, id int) ([]movie.Movie, error) {
	movies, err := c.upstream.Similar(ctx, id)
	if err != nil {
		return nil, err
	}
	c.save(movies)
	return movies, nil
}
