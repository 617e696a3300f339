package catalog

import (
	"fmt"
	"strings"

	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/search"
	"github.com/pders01/reel/internal/storage"
)

const (
	SourceFake = "fake"
	SourceTMDB = "tmdb"
)

// Open builds the repository named by cfg.Catalog.Source. When store is
// non-nil the result is wrapped in a Cached decorator.
func Open(cfg *config.Config, store *storage.Store, searcher search.Searcher) (Repository, error) {
	var repo Repository

	switch strings.ToLower(cfg.Catalog.Source) {
	case "", SourceFake:
		latency := Latency{}
		if cfg.Catalog.SimulateLatency {
			latency = DefaultLatency
		}
		fake, err := NewFake(latency)
		if err != nil {
			return nil, err
		}
		repo = fake
	case SourceTMDB:
		t := cfg.Catalog.TMDB
		client, err := NewTMDB(TMDBOptions{
			BaseURL:       t.BaseURL,
			APIKey:        t.APIKey,
			AccessToken:   t.AccessToken,
			Language:      t.Language,
			UserAgent:     t.UserAgent,
			Timeout:       t.Timeout,
			RatePerSecond: t.RatePerSecond,
			Burst:         t.Burst,
		})
		if err != nil {
			return nil, err
		}
		repo = client
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}

	if store == nil {
		return repo, nil
	}
	return NewCached(repo, store, searcher, cfg.Search.Limit), nil
}
