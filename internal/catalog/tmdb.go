package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/movie"
)

const DefaultTMDBBaseURL = "https://api.themoviedb.org/3"

// TMDBOptions configures the TMDB client. Either APIKey (v3 query key) or
// AccessToken (v4 bearer token) must be set.
type TMDBOptions struct {
	BaseURL       string
	APIKey        string
	AccessToken   string
	Language      string
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	HTTPClient    *http.Client
}

// TMDB talks to the TMDB v3 REST API.
type TMDB struct {
	baseURL     string
	apiKey      string
	accessToken string
	language    string
	userAgent   string
	client      *http.Client
	limiter     *rate.Limiter
}

type pagedMovies struct {
	Page         int           `json:"page"`
	Results      []movie.Movie `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

type apiStatus struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func NewTMDB(opts TMDBOptions) (*TMDB, error) {
	if opts.APIKey == "" && opts.AccessToken == "" {
		return nil, fmt.Errorf("tmdb: api_key or access_token is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultTMDBBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "reel/1.0"
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &TMDB{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		accessToken: opts.AccessToken,
		language:    opts.Language,
		userAgent:   opts.UserAgent,
		client:      client,
		limiter:     rate.NewLimiter(limit, opts.Burst),
	}, nil
}

func (t *TMDB) Trending(ctx context.Context) ([]movie.Movie, error) {
	var page pagedMovies
	if err := t.get(ctx, "/trending/movie/week", nil, &page); err != nil {
		return nil, err
	}
	return nonNil(page.Results), nil
}

func (t *TMDB) Search(ctx context.Context, query string) ([]movie.Movie, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("include_adult", "false")

	var page pagedMovies
	if err := t.get(ctx, "/search/movie", q, &page); err != nil {
		return nil, err
	}
	return nonNil(page.Results), nil
}

func (t *TMDB) Detail(ctx context.Context, id int) (*movie.Detail, error) {
	var d movie.Detail
	if err := t.get(ctx, "/movie/"+strconv.Itoa(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (t *TMDB) Similar(ctx context.Context, id int) ([]movie.Movie, error) {
	var page pagedMovies
	if err := t.get(ctx, "/movie/"+strconv.Itoa(id)+"/similar", nil, &page); err != nil {
		return nil, err
	}
	return nonNil(page.Results), nil
}

func (t *TMDB) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	if t.apiKey != "" && t.accessToken == "" {
		query.Set("api_key", t.apiKey)
	}
	if t.language != "" {
		query.Set("language", t.language)
	}

	u := t.baseURL + path
	if enc := query.Encode(); enc != "" {
		u += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	if t.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.accessToken)
	}

	debuglog.Debugf("tmdb: GET %s", path)
	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s", ErrUnavailable, statusMessage(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func statusMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var st apiStatus
	if json.Unmarshal(body, &st) == nil && st.StatusMessage != "" {
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, st.StatusMessage)
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}

func nonNil(ms []movie.Movie) []movie.Movie {
	if ms == nil {
		return []movie.Movie{}
	}
	return ms
}
