package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/deeplink"
	"github.com/pders01/reel/internal/opener"
)

type KeyHandler struct {
	app         *App
	modifierKey string
	bindings    config.KeyBindings
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{
		app:         app,
		modifierKey: cfg.Keys.Modifier + "+",
		bindings:    cfg.Keys.Bindings,
	}
}

// bind returns the modified chord for an action key, e.g. "ctrl+f".
func (kh *KeyHandler) bind(key string) string {
	return kh.modifierKey + key
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return kh.quit()
	}

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if cmd, handled := kh.handleCustomKeys(key); handled {
		return cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	return kh.app.view == ViewSearch && kh.app.searchInput.Focused()
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	switch key {
	case kh.bindings.Back:
		return kh.navigateBack()
	case "enter":
		return kh.handleSearchEnter()
	case "tab", "down":
		if len(kh.app.movieList.Items()) > 0 {
			kh.focusList()
			kh.app.movieList.Select(0)
		}
		return nil
	}

	// modified chords never produce text, so actions stay reachable
	if strings.HasPrefix(key, kh.modifierKey) {
		if cmd, handled := kh.handleCustomKeys(key); handled {
			return cmd
		}
	}

	return kh.delegateToTextInput(msg)
}

// handleSearchEnter opens a pasted movie link, or moves focus to the results.
func (kh *KeyHandler) handleSearchEnter() tea.Cmd {
	raw := strings.TrimSpace(kh.app.searchInput.Value())
	if strings.Contains(raw, "://") {
		kh.app.OpenLink(raw)
		return nil
	}
	if len(kh.app.movieList.Items()) > 0 {
		kh.focusList()
		kh.app.movieList.Select(0)
	}
	return nil
}

func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) tea.Cmd {
	prev := kh.app.searchInput.Value()
	var cmd tea.Cmd
	kh.app.searchInput, cmd = kh.app.searchInput.Update(msg)

	if kh.app.searchInput.Value() == prev {
		return cmd
	}
	return tea.Batch(cmd, kh.app.queryChanged(kh.sanitizeSearchInput(kh.app.searchInput.Value())))
}

// handleCustomKeys handles only our action keys.
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Cmd, bool) {
	switch key {
	case kh.bindings.Quit:
		return kh.quit(), true
	case kh.bindings.Back:
		return kh.navigateBack(), true
	case kh.bindings.Help:
		kh.toggleHelp()
		return nil, true
	case kh.bind(kh.bindings.Search):
		return kh.enterSearchMode(), true
	}

	switch kh.app.view {
	case ViewList, ViewSearch:
		return kh.handleListCustomKeys(key)
	case ViewDetail:
		return kh.handleDetailCustomKeys(key)
	default:
		return nil, false
	}
}

func (kh *KeyHandler) handleListCustomKeys(key string) (tea.Cmd, bool) {
	switch key {
	case kh.bind(kh.bindings.Refresh):
		return kh.app.refreshList(), true
	case kh.bind(kh.bindings.ClearError):
		kh.app.clearError()
		return nil, true
	}
	return nil, false
}

func (kh *KeyHandler) handleDetailCustomKeys(key string) (tea.Cmd, bool) {
	a := kh.app
	loaded := a.detail.Detail != nil

	switch key {
	case kh.bind(kh.bindings.Favorite):
		if loaded {
			return a.toggleFavorite(a.detailSeq, a.detail), true
		}
		return nil, true
	case kh.bind(kh.bindings.Watchlist):
		if loaded {
			return a.toggleWatchlist(a.detailSeq, a.detail), true
		}
		return nil, true
	case kh.bind(kh.bindings.Open):
		targets := opener.Targets(a.detail.Detail)
		if len(targets) == 0 {
			a.setStatus(MsgNothingToOpen, StatusWarn)
			return nil, true
		}
		return a.openTarget(targets[0]), true
	case kh.bind(kh.bindings.Refresh):
		a.Navigate(deeplink.Destination{Route: deeplink.RouteMovieDetail, MovieID: a.detail.MovieID})
		return nil, true
	case kh.bind(kh.bindings.ClearError):
		a.clearError()
		return nil, true
	}
	return nil, false
}

// delegateToCharm lets the bubbles components handle everything else.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) tea.Cmd {
	a := kh.app
	var cmd tea.Cmd

	switch a.view {
	case ViewList, ViewSearch:
		switch msg.String() {
		case "/":
			return kh.enterSearchMode()
		case "up", "k":
			if a.movieList.Index() == 0 {
				return kh.enterSearchMode()
			}
		case "enter":
			if i, ok := a.movieList.SelectedItem().(movieItem); ok {
				a.Navigate(deeplink.Destination{Route: deeplink.RouteMovieDetail, MovieID: i.movie.ID})
			}
			return nil
		}
		a.movieList, cmd = a.movieList.Update(msg)
		return cmd

	case ViewDetail:
		a.viewport, cmd = a.viewport.Update(msg)
		return cmd

	default:
		return nil
	}
}

func (kh *KeyHandler) focusList() {
	kh.app.searchInput.Blur()
	kh.app.view = ViewList
}

func (kh *KeyHandler) enterSearchMode() tea.Cmd {
	a := kh.app
	if a.view == ViewDetail {
		a.detailSeq++
	}
	a.view = ViewSearch
	a.setStatus("", StatusInfo)
	return a.searchInput.Focus()
}

func (kh *KeyHandler) toggleHelp() {
	a := kh.app
	if a.view == ViewHelp {
		a.view = a.beforeHelp
		return
	}
	a.searchInput.Blur()
	a.beforeHelp = a.view
	if a.beforeHelp == ViewSearch {
		a.beforeHelp = ViewList
	}
	a.view = ViewHelp
}

// navigateBack implements back navigation. Backing out of a non-empty
// search clears it; backing out of the root quits.
func (kh *KeyHandler) navigateBack() tea.Cmd {
	a := kh.app

	switch a.view {
	case ViewSearch:
		kh.focusList()
		return nil

	case ViewDetail:
		// drop whatever the detail screen still has in flight
		a.detailSeq++
		a.view = a.previousView
		a.setStatus("", StatusInfo)
		if a.view == ViewSearch {
			return a.searchInput.Focus()
		}
		return nil

	case ViewHelp:
		a.view = a.beforeHelp
		return nil

	case ViewList:
		if a.searchInput.Value() != "" || a.machine.State().Query != "" {
			a.searchInput.Reset()
			return a.queryChanged("")
		}
		return kh.quit()

	default:
		return kh.quit()
	}
}

func (kh *KeyHandler) quit() tea.Cmd {
	kh.app.Close()
	return tea.Quit
}

// sanitizeSearchInput trims, caps and collapses whitespace in a query.
func (kh *KeyHandler) sanitizeSearchInput(input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if r := []rune(input); len(r) > 256 {
		input = strings.TrimSpace(string(r[:256]))
	}
	return input
}

// GetHelpForCurrentView returns the short hints shown in the status bar.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	m := kh.bind
	b := kh.bindings

	switch kh.app.view {
	case ViewList:
		return []string{"enter: open", m(b.Search) + ": search", m(b.Refresh) + ": refresh", b.Help + ": keys", b.Quit + ": quit"}
	case ViewSearch:
		return []string{"type to search", "enter: results or open link", "tab: results", b.Back + ": back"}
	case ViewDetail:
		return []string{m(b.Favorite) + ": favorite", m(b.Watchlist) + ": watchlist", m(b.Open) + ": open", b.Back + ": back"}
	case ViewHelp:
		return []string{b.Back + ": back"}
	default:
		return nil
	}
}

// HelpRows lists every binding for the help view.
func (kh *KeyHandler) HelpRows() [][2]string {
	m := kh.bind
	b := kh.bindings
	return [][2]string{
		{"enter", "open movie / leave search box"},
		{"/ or " + m(b.Search), "search"},
		{m(b.Refresh), "refresh list or movie"},
		{m(b.ClearError), "dismiss error"},
		{m(b.Favorite), "toggle favorite"},
		{m(b.Watchlist), "toggle watchlist"},
		{m(b.Open), "open homepage"},
		{b.Back, "back / clear search"},
		{b.Help, "toggle this help"},
		{b.Quit + " / ctrl+c", "quit"},
	}
}

func joinHints(hints []string) string {
	return strings.Join(hints, " • ")
}
