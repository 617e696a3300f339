package tui

import (
	"strings"

	"github.com/pders01/reel/internal/movie"
)

// truncateEnd shortens s to at most limit runes, ending in an ellipsis when
// anything was cut.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle keeps both ends of s, which is what matters for URLs.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	left := (limit - 1) / 2
	right := limit - 1 - left
	return string(r[:left]) + "…" + string(r[n-right:])
}

// titleLine renders "Title (2025)" for list rows.
func titleLine(m movie.Movie) string {
	year := m.ReleaseYear()
	if year == "Unknown" {
		return m.Title
	}
	return m.Title + " (" + year + ")"
}

// oneLine collapses whitespace so an overview fits a list row.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
