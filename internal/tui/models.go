package tui

import (
	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/movie"
	"github.com/pders01/reel/internal/pipeline"
)

type View int

const (
	ViewList View = iota
	ViewSearch
	ViewDetail
	ViewHelp
)

func (v View) String() string {
	switch v {
	case ViewList:
		return "list"
	case ViewSearch:
		return "search"
	case ViewDetail:
		return "detail"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

type trendingLoadedMsg struct {
	seq    uint64
	movies []movie.Movie
	err    error
}

type debounceFireMsg struct {
	ticket uint64
}

type lookupDoneMsg struct {
	generation uint64
	movies     []movie.Movie
	err        error
}

// Detail messages carry the navigation sequence they were issued under so
// a late response for a movie the user already left is dropped.
type detailLoadedMsg struct {
	seq   uint64
	state pipeline.DetailState
}

type similarLoadedMsg struct {
	seq   uint64
	state pipeline.DetailState
}

type detailMarkedMsg struct {
	seq   uint64
	state pipeline.DetailState
	label string
	on    bool
	err   error
}

type detailRenderedMsg struct {
	seq     uint64
	content string
}

type statusMsg struct {
	text string
	kind StatusKind
}

type configReloadedMsg struct {
	cfg *config.Config
}

// ConfigReloaded wraps a freshly loaded configuration for Program.Send.
func ConfigReloaded(cfg *config.Config) any {
	return configReloadedMsg{cfg: cfg}
}
