package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/movie"
	"github.com/pders01/reel/internal/plugins"
	"github.com/pders01/reel/internal/storage"
	"github.com/pders01/reel/internal/validation"
)

const maxConcurrentDetails = 4

// DetailFetcher loads a movie so it is cached before being watchlisted.
type DetailFetcher interface {
	Detail(ctx context.Context, id int) (*movie.Detail, error)
}

// FeedResolver maps a pasted URL to the feed behind it. *plugins.Registry
// satisfies it.
type FeedResolver interface {
	ResolveFeed(ctx context.Context, rawURL string) (*plugins.FeedInfo, error)
}

// Failure is an entry that could not be imported.
type Failure struct {
	Entry Entry
	Err   error
}

// Report summarises one import run.
type Report struct {
	URL         string
	Title       string
	NotModified bool
	Imported    []Entry
	Failed      []Failure
}

type Importer struct {
	store        *storage.Store
	details      DetailFetcher
	fetcher      *Fetcher
	parser       *Parser
	urlValidator *validation.FeedURLValidator
	resolver     FeedResolver
	force        bool
}

func NewImporter(store *storage.Store, details DetailFetcher, cfg *config.Config) *Importer {
	return &Importer{
		store:        store,
		details:      details,
		fetcher:      NewFetcher(cfg),
		parser:       NewParser(),
		urlValidator: validation.NewFeedURLValidator(),
	}
}

// SetForceRefresh makes the next imports ignore stored ETag/Last-Modified.
func (im *Importer) SetForceRefresh(force bool) {
	im.force = force
}

// SetPermissiveValidation allows localhost and private feed hosts.
func (im *Importer) SetPermissiveValidation(permissive bool) {
	if permissive {
		im.urlValidator = validation.NewPermissiveFeedURLValidator()
	} else {
		im.urlValidator = validation.NewFeedURLValidator()
	}
}

// SetResolver makes Import pass URLs through r before fetching.
func (im *Importer) SetResolver(r FeedResolver) {
	im.resolver = r
}

func metaKey(url, field string) string {
	return "feed:" + url + ":" + field
}

func (im *Importer) cacheKeys(url string) CacheKeys {
	if im.force {
		return CacheKeys{}
	}
	var keys CacheKeys
	keys.ETag, _ = im.store.GetMeta(metaKey(url, "etag"))
	keys.LastModified, _ = im.store.GetMeta(metaKey(url, "last_modified"))
	return keys
}

func (im *Importer) saveCacheKeys(url string, keys CacheKeys) error {
	if err := im.store.SetMeta(metaKey(url, "etag"), keys.ETag); err != nil {
		return err
	}
	return im.store.SetMeta(metaKey(url, "last_modified"), keys.LastModified)
}

// Import fetches a watchlist feed and adds every movie it names to the
// watchlist. Individual movies that fail to load are reported, not fatal.
func (im *Importer) Import(ctx context.Context, rawURL string) (*Report, error) {
	url, err := im.urlValidator.ValidateAndNormalize(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	var resolvedTitle string
	if im.resolver != nil {
		info, err := im.resolver.ResolveFeed(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("resolving feed for %s: %w", url, err)
		}
		if info.FeedURL != url {
			// the resolved feed gets the same checks as the input
			if url, err = im.urlValidator.ValidateAndNormalize(info.FeedURL); err != nil {
				return nil, fmt.Errorf("invalid feed URL: %w", err)
			}
		}
		resolvedTitle = info.Title
	}

	report := &Report{URL: url}
	resp, updated, err := im.fetcher.Fetch(ctx, url, im.cacheKeys(url))
	if err != nil {
		return nil, err
	}
	if !updated {
		report.NotModified = true
		return report, nil
	}
	defer resp.Body.Close()

	title, entries, err := im.parser.Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	report.Title = title
	if report.Title == "" {
		report.Title = resolvedTitle
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDetails)

	for _, e := range entries {
		g.Go(func() error {
			ferr := im.importEntry(gctx, e)

			mu.Lock()
			defer mu.Unlock()
			if ferr == nil {
				report.Imported = append(report.Imported, e)
				return nil
			}
			if errors.Is(ferr, context.Canceled) || errors.Is(ferr, context.DeadlineExceeded) {
				return ferr
			}
			report.Failed = append(report.Failed, Failure{Entry: e, Err: ferr})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	order := make(map[int]int, len(entries))
	for i, e := range entries {
		order[e.MovieID] = i
	}
	sort.Slice(report.Imported, func(i, j int) bool {
		return order[report.Imported[i].MovieID] < order[report.Imported[j].MovieID]
	})
	sort.Slice(report.Failed, func(i, j int) bool {
		return order[report.Failed[i].Entry.MovieID] < order[report.Failed[j].Entry.MovieID]
	})

	// keep the next import unconditional until every movie made it in
	keys := CacheKeysFrom(resp)
	if len(report.Failed) > 0 {
		keys = CacheKeys{}
	}
	if err := im.saveCacheKeys(url, keys); err != nil {
		return nil, fmt.Errorf("saving feed metadata: %w", err)
	}

	debuglog.WithFields(map[string]interface{}{"component": "import", "feed": url}).
		Infof("imported %d movies, %d failed", len(report.Imported), len(report.Failed))
	return report, nil
}

func (im *Importer) importEntry(ctx context.Context, e Entry) error {
	if _, err := im.details.Detail(ctx, e.MovieID); err != nil {
		return fmt.Errorf("loading movie %d: %w", e.MovieID, err)
	}
	if err := im.store.SetWatchlisted(e.MovieID, true); err != nil {
		return fmt.Errorf("watchlisting movie %d: %w", e.MovieID, err)
	}
	return nil
}
