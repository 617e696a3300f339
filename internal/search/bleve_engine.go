package search

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/movie"
)

type bleveEngine struct {
	source Source
	idx    bleve.Index
}

// BleveSearcher is a Searcher backed by a persistent bleve index.
type BleveSearcher interface {
	Searcher
	UpdateListener
	DebugStatser
	Close() error
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes current data.
func NewBleveEngine(source Source, indexPath string) (BleveSearcher, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, err
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, err
		}
	}

	be := &bleveEngine{source: source, idx: idx}
	if err := be.reindexAll(); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	original := bleve.NewTextFieldMapping()
	original.Analyzer = standard.Name
	original.Store = false

	overview := bleve.NewTextFieldMapping()
	overview.Analyzer = standard.Name
	overview.Store = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("original_title", original)
	dm.AddFieldMappingsAt("overview", overview)

	im.DefaultMapping = dm
	return im
}

func (b *bleveEngine) reindexAll() error {
	movies, err := b.source.GetAllMovies()
	if err != nil {
		return err
	}
	return b.index(movies)
}

func (b *bleveEngine) index(movies []movie.Movie) error {
	batch := b.idx.NewBatch()
	for _, m := range movies {
		if err := batch.Index(docID(m.ID), map[string]any{
			"title":          m.Title,
			"original_title": m.OriginalTitle,
			"overview":       m.Overview,
		}); err != nil {
			return err
		}
	}
	return b.idx.Batch(batch)
}

func (b *bleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len([]rune(strings.TrimSpace(query))) < MinQueryLength {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	// OR of per-term match and prefix queries with field boosts
	fields := []struct {
		name  string
		boost float64
	}{
		{"title", 4.0},
		{"original_title", 3.0},
		{"overview", 1.0},
	}
	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range fields {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.boost)
			qs = append(qs, mq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.name)
			pq.SetBoost(f.boost * 0.8)
			qs = append(qs, pq)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.Atoi(strings.TrimPrefix(h.ID, "movie:"))
		if err != nil {
			continue
		}
		m, err := b.source.GetMovie(id)
		if err != nil {
			// index is ahead of the cache; keep what the index knows
			m = movie.Movie{ID: id}
			if t, ok := h.Fields["title"].(string); ok {
				m.Title = t
			}
		}
		out = append(out, &Result{Movie: m, Score: h.Score})
	}
	return out, nil
}

// OnMoviesUpdated indexes the provided movies.
func (b *bleveEngine) OnMoviesUpdated(movies []movie.Movie) {
	if len(movies) == 0 {
		return
	}
	if err := b.index(movies); err != nil {
		debuglog.Warnf("bleve: indexing %d movies: %v", len(movies), err)
	}
}

// DocCount reports total documents in the index.
func (b *bleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *bleveEngine) Close() error {
	return b.idx.Close()
}

func docID(id int) string { return "movie:" + strconv.Itoa(id) }
