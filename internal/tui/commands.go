package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/reel/internal/movie"
	"github.com/pders01/reel/internal/opener"
	"github.com/pders01/reel/internal/pipeline"
)

// loadTrending supersedes any trending load still in flight.
func (a *App) loadTrending() tea.Cmd {
	a.trendingSeq++
	seq := a.trendingSeq
	return func() tea.Msg {
		movies, err := a.repo.Trending(a.ctx)
		return trendingLoadedMsg{seq: seq, movies: movies, err: err}
	}
}

// lookupCmd runs one dispatched search. Results come back tagged with the
// generation so LookupFinished can drop superseded ones.
func (a *App) lookupCmd(l pipeline.Lookup) tea.Cmd {
	return func() tea.Msg {
		movies, err := a.lookup(a.ctx, l.Query)
		return lookupDoneMsg{generation: l.Generation, movies: movies, err: err}
	}
}

func (a *App) loadDetail(seq uint64, id int) tea.Cmd {
	return func() tea.Msg {
		return detailLoadedMsg{seq: seq, state: a.loader.LoadDetail(a.ctx, id)}
	}
}

func (a *App) loadSimilar(seq uint64, s pipeline.DetailState) tea.Cmd {
	return func() tea.Msg {
		return similarLoadedMsg{seq: seq, state: a.loader.LoadSimilar(a.ctx, s)}
	}
}

func (a *App) toggleFavorite(seq uint64, s pipeline.DetailState) tea.Cmd {
	return func() tea.Msg {
		next, err := a.loader.ToggleFavorite(s)
		return detailMarkedMsg{seq: seq, state: next, label: "favorites", on: next.Favorite, err: err}
	}
}

func (a *App) toggleWatchlist(seq uint64, s pipeline.DetailState) tea.Cmd {
	return func() tea.Msg {
		next, err := a.loader.ToggleWatchlist(s)
		return detailMarkedMsg{seq: seq, state: next, label: "watchlist", on: next.Watchlisted, err: err}
	}
}

func (a *App) openTarget(t opener.Target) tea.Cmd {
	return func() tea.Msg {
		if err := a.launcher.Open(t.URL); err != nil {
			return statusMsg{text: errorText(wrapErr("opening "+t.Label, err)), kind: StatusError}
		}
		return statusMsg{text: MsgOpened(t.Label, a.launcher.Opener()), kind: StatusSuccess}
	}
}

func (a *App) renderDetail(seq uint64, s pipeline.DetailState) tea.Cmd {
	width := a.width
	return func() tea.Msg {
		md := renderDetailMarkdown(s)

		a.renderMu.Lock()
		defer a.renderMu.Unlock()
		r, err := a.getRenderer(width)
		if err != nil {
			return detailRenderedMsg{seq: seq, content: md}
		}
		out, err := r.Render(md)
		if err != nil {
			return detailRenderedMsg{seq: seq, content: md}
		}
		return detailRenderedMsg{seq: seq, content: out}
	}
}

// renderDetailMarkdown lays out a detail snapshot as markdown for glamour.
func renderDetailMarkdown(s pipeline.DetailState) string {
	var b strings.Builder

	if s.Loading {
		b.WriteString("*" + MsgLoadingMovie + "*\n")
		return b.String()
	}
	if s.Detail == nil {
		fmt.Fprintf(&b, "# Movie %d\n\n", s.MovieID)
		if s.HasError() {
			fmt.Fprintf(&b, "**Error:** %s\n", s.Err)
		}
		return b.String()
	}

	d := s.Detail
	fmt.Fprintf(&b, "# %s (%s)\n\n", d.Title, d.ReleaseYear())
	if d.Tagline != "" {
		fmt.Fprintf(&b, "*%s*\n\n", d.Tagline)
	}

	facts := []string{fmt.Sprintf("★ %s (%d votes)", d.FormattedRating(), d.VoteCount)}
	if d.Runtime > 0 {
		facts = append(facts, d.FormattedRuntime())
	}
	if g := d.GenresString(); g != "" {
		facts = append(facts, g)
	}
	b.WriteString(strings.Join(facts, " • ") + "\n\n")

	var marks []string
	if s.Favorite {
		marks = append(marks, "♥ Favorite")
	}
	if s.Watchlisted {
		marks = append(marks, "◉ On watchlist")
	}
	if len(marks) > 0 {
		b.WriteString("**" + strings.Join(marks, " • ") + "**\n\n")
	}

	if d.Overview != "" {
		b.WriteString(d.Overview + "\n\n")
	}

	b.WriteString("---\n\n")
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "- **%s:** %s\n", name, value)
		}
	}
	field("Status", d.Status)
	if d.OriginalTitle != d.Title {
		field("Original title", d.OriginalTitle)
	}
	field("Released", d.ReleaseDate)
	field("Budget", d.FormattedBudget())
	field("Revenue", d.FormattedRevenue())
	if d.Collection != nil {
		field("Collection", d.Collection.Name)
	}
	field("Companies", d.CompaniesString())
	field("Countries", d.CountriesString())
	field("Languages", d.LanguagesString())
	b.WriteString("\n")

	if targets := opener.Targets(d); len(targets) > 0 {
		b.WriteString("## Links\n\n")
		for _, t := range targets {
			fmt.Fprintf(&b, "- [%s](%s)\n", t.Label, t.URL)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Similar\n\n")
	switch {
	case s.LoadingSimilar:
		b.WriteString("*" + MsgLoadingSimilar + "*\n")
	case len(s.Similar) == 0:
		b.WriteString("*Nothing similar found*\n")
	default:
		for _, m := range s.Similar {
			fmt.Fprintf(&b, "- %s ★ %s\n", titleLine(m), m.FormattedRating())
		}
	}

	if s.HasError() {
		fmt.Fprintf(&b, "\n**Error:** %s\n", s.Err)
	}
	return b.String()
}

// movieItem adapts a movie to the bubbles list.
type movieItem struct {
	movie movie.Movie
}

func (i movieItem) Title() string { return titleLine(i.movie) }

func (i movieItem) Description() string {
	return RatingStyle.Render("★ "+i.movie.FormattedRating()) + " " +
		renderMuted(truncateEnd(oneLine(i.movie.Overview), 72))
}

func (i movieItem) FilterValue() string { return i.movie.Title }
