package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pders01/reel/internal/movie"
	bolt "go.etcd.io/bbolt"
)

var (
	moviesBucket    = []byte("movies")
	detailsBucket   = []byte("details")
	favoritesBucket = []byte("favorites")
	watchlistBucket = []byte("watchlist")
	metaBucket      = []byte("metadata")
)

// ErrNotFound is returned when a movie, detail or metadata key is absent.
var ErrNotFound = errors.New("not found")

// Mark records when a movie was added to a personal list.
type Mark struct {
	MovieID int       `json:"movie_id"`
	AddedAt time.Time `json:"added_at"`
}

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{moviesBucket, detailsBucket, favoritesBucket, watchlistBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(id int) []byte {
	return []byte(strconv.Itoa(id))
}

// SaveMovies upserts movie summaries in one transaction.
func (s *Store) SaveMovies(movies []movie.Movie) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(moviesBucket)
		for _, m := range movies {
			data, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err := b.Put(key(m.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetMovie(id int) (movie.Movie, error) {
	var m movie.Movie
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(moviesBucket).Get(key(id))
		if data == nil {
			return fmt.Errorf("movie %d: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &m)
	})
	return m, err
}

// GetAllMovies returns every cached summary, most popular first.
func (s *Store) GetAllMovies() ([]movie.Movie, error) {
	var movies []movie.Movie
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(moviesBucket).ForEach(func(_ []byte, v []byte) error {
			var m movie.Movie
			if err := json.Unmarshal(v, &m); err != nil {
				// skip corrupt rows rather than failing the whole listing
				return nil
			}
			movies = append(movies, m)
			return nil
		})
	})
	sort.SliceStable(movies, func(i, j int) bool {
		if movies[i].Popularity == movies[j].Popularity {
			return movies[i].ID < movies[j].ID
		}
		return movies[i].Popularity > movies[j].Popularity
	})
	return movies, err
}

// SaveDetail stores the detail and refreshes its summary row.
func (s *Store) SaveDetail(d *movie.Detail) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		if err := tx.Bucket(detailsBucket).Put(key(d.ID), data); err != nil {
			return err
		}
		summary, err := json.Marshal(d.Summary())
		if err != nil {
			return err
		}
		return tx.Bucket(moviesBucket).Put(key(d.ID), summary)
	})
}

func (s *Store) GetDetail(id int) (*movie.Detail, error) {
	var d movie.Detail
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(detailsBucket).Get(key(id))
		if data == nil {
			return fmt.Errorf("detail %d: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &d)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) SetFavorite(id int, on bool) error {
	return s.setMark(favoritesBucket, id, on)
}

func (s *Store) IsFavorite(id int) (bool, error) {
	return s.hasMark(favoritesBucket, id)
}

func (s *Store) SetWatchlisted(id int, on bool) error {
	return s.setMark(watchlistBucket, id, on)
}

func (s *Store) IsWatchlisted(id int) (bool, error) {
	return s.hasMark(watchlistBucket, id)
}

// Favorites returns favorite marks, oldest first.
func (s *Store) Favorites() ([]Mark, error) {
	return s.marks(favoritesBucket)
}

// Watchlist returns watchlist marks, oldest first.
func (s *Store) Watchlist() ([]Mark, error) {
	return s.marks(watchlistBucket)
}

func (s *Store) setMark(bucket []byte, id int, on bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if !on {
			return b.Delete(key(id))
		}
		if b.Get(key(id)) != nil {
			return nil
		}
		data, err := json.Marshal(Mark{MovieID: id, AddedAt: time.Now()})
		if err != nil {
			return err
		}
		return b.Put(key(id), data)
	})
}

func (s *Store) hasMark(bucket []byte, id int) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucket).Get(key(id)) != nil
		return nil
	})
	return found, err
}

func (s *Store) marks(bucket []byte) ([]Mark, error) {
	var marks []Mark
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(_ []byte, v []byte) error {
			var m Mark
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			marks = append(marks, m)
			return nil
		})
	})
	sort.SliceStable(marks, func(i, j int) bool {
		return marks[i].AddedAt.Before(marks[j].AddedAt)
	})
	return marks, err
}

func (s *Store) SetMeta(k, v string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put([]byte(k), []byte(v))
	})
}

func (s *Store) GetMeta(k string) (string, error) {
	var v string
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get([]byte(k))
		if data == nil {
			return fmt.Errorf("metadata %q: %w", k, ErrNotFound)
		}
		v = string(data)
		return nil
	})
	return v, err
}
