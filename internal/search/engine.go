package search

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/reel/internal/movie"
)

// MinQueryLength is the shortest query (in runes, after trimming) that is searched.
const MinQueryLength = 2

// Engine scores cached movies in memory without an index.
type Engine struct {
	source Source
}

// NewEngine creates a new search engine
func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// Search ranks cached movies against query, best first.
func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len([]rune(strings.TrimSpace(query))) < MinQueryLength {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	movies, err := e.source.GetAllMovies()
	if err != nil {
		return nil, err
	}

	results := []*Result{}
	for _, m := range movies {
		if result := scoreMovie(m, terms); result != nil {
			results = append(results, result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func scoreMovie(m movie.Movie, terms []string) *Result {
	var matches []Match
	var total float64

	fields := []struct {
		name   string
		text   string
		weight float64
	}{
		{"title", m.Title, 4.0},
		{"original_title", m.OriginalTitle, 3.0},
		{"overview", m.Overview, 1.0},
	}

	for _, f := range fields {
		if f.name == "original_title" && strings.EqualFold(f.text, m.Title) {
			continue
		}
		if s := scoreField(f.text, terms, f.weight); s > 0 {
			text := f.text
			if f.name == "overview" {
				text = truncate(text, 150)
			}
			matches = append(matches, Match{Field: f.name, Text: text, Weight: s})
			total += s
		}
	}

	if total == 0 {
		return nil
	}
	// popularity only breaks near-ties
	total *= 1.0 + math.Log1p(math.Max(m.Popularity, 0))/100.0
	return &Result{Movie: m, Score: total, Matches: matches}
}

// scoreField calculates relevance score for a field
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matched++
		}
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
			case strings.HasPrefix(word, term):
				score += 1.0
			}
		}
	}

	if matched == 0 {
		return 0
	}
	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}

	tf := float64(matched) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// tokenize breaks text into lowercase searchable terms, dropping single runes.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder
	n := 0

	flush := func() {
		if n > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
		n = 0
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
			n++
		} else {
			flush()
		}
	}
	flush()

	return terms
}

// truncate limits text length with ellipsis
func truncate(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen-1]) + "…"
}
