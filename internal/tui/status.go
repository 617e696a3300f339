package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoadingTrending = "Loading trending…"
	MsgSearching       = "Searching…"
	MsgRefreshing      = "Refreshing…"
	MsgLoadingMovie    = "Loading movie…"
	MsgLoadingSimilar  = "Loading similar movies…"
	MsgNoResults       = "No results"
	MsgUnhandledLink   = "Link not recognised"
	MsgNothingToOpen   = "Nothing to open"
)

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// MsgMarked describes a favorite or watchlist toggle.
func MsgMarked(list string, on bool) string {
	if on {
		return fmt.Sprintf("Added to %s", list)
	}
	return fmt.Sprintf("Removed from %s", list)
}

func MsgOpened(label, opener string) string {
	return fmt.Sprintf("Opened %s with %s", strings.TrimSpace(label), opener)
}
