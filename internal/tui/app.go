package tui

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/reel/internal/catalog"
	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/deeplink"
	"github.com/pders01/reel/internal/movie"
	"github.com/pders01/reel/internal/opener"
	"github.com/pders01/reel/internal/pipeline"
)

// chrome is the number of rows taken by the list header, the search box
// and the status bar.
const chrome = 7

type App struct {
	config     *config.Config
	ctx        context.Context
	cancel     context.CancelFunc
	repo       catalog.Repository
	lookup     pipeline.LookupFunc
	loader     *pipeline.DetailLoader
	launcher   *opener.Launcher
	resolver   *deeplink.Resolver
	keyHandler *KeyHandler
	log        *debuglog.FieldLogger

	// search pipeline, driven from Update
	machine  *pipeline.Machine
	debounce time.Duration
	minQuery int
	ticket   uint64
	shown    uint64

	trending        []movie.Movie
	trendingLoading bool
	trendingErr     string
	trendingSeq     uint64

	movieList   list.Model
	searchInput textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model

	view         View
	previousView View
	beforeHelp   View

	detail    pipeline.DetailState
	detailSeq uint64
	rendered  bool

	// commands queued by Navigate, flushed by the next Init or Update
	pending []tea.Cmd

	status     string
	statusKind StatusKind

	width  int
	height int

	renderMu        sync.Mutex
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

// NewApp builds the TUI over repo. marks may be nil, which disables the
// favorite and watchlist toggles.
func NewApp(cfg *config.Config, repo catalog.Repository, marks pipeline.MarkStore) *App {
	movieList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	movieList.SetShowTitle(false)
	movieList.SetShowStatusBar(false)
	movieList.SetFilteringEnabled(false)
	movieList.SetShowHelp(false)

	si := textinput.New()
	si.Placeholder = "Search movies or paste a movie link..."
	si.CharLimit = 256

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		config:          cfg,
		ctx:             ctx,
		cancel:          cancel,
		repo:            repo,
		lookup:          catalog.SearchUseCase(repo),
		loader:          pipeline.NewDetailLoader(repo, marks),
		launcher:        opener.NewLauncher(cfg),
		log:             debuglog.WithFields(map[string]interface{}{"component": "tui"}),
		machine:         pipeline.NewMachine(),
		debounce:        cfg.Search.Debounce,
		minQuery:        cfg.Search.MinQueryLength,
		trendingLoading: true,
		movieList:       movieList,
		searchInput:     si,
		viewport:        viewport.New(0, 0),
		spinner:         sp,
		view:            ViewList,
		previousView:    ViewList,
	}
	if app.debounce <= 0 {
		app.debounce = pipeline.DefaultDebounce
	}

	ApplyColors(cfg.UI.Colors)
	app.spinner.Style = lipgloss.NewStyle().Foreground(AccentColor)
	app.keyHandler = NewKeyHandler(app, cfg)
	app.resolver = deeplink.NewResolver(app)

	return app
}

// Navigate implements deeplink.Navigator. Opening a movie switches to the
// detail view and queues its load.
func (a *App) Navigate(d deeplink.Destination) {
	if d.Route != deeplink.RouteMovieDetail {
		a.log.Warnf("no view for route %q", d.Route)
		return
	}
	if a.view != ViewDetail && a.view != ViewHelp {
		a.previousView = a.view
	}
	a.view = ViewDetail
	a.searchInput.Blur()

	a.detailSeq++
	a.detail = pipeline.DetailState{MovieID: d.MovieID, Loading: true}
	a.rendered = false
	a.viewport.SetContent(renderMuted(MsgLoadingMovie))
	a.setStatus(MsgLoadingMovie, StatusInfo)
	a.pending = append(a.pending, a.loadDetail(a.detailSeq, d.MovieID))
}

// OpenLink routes a deep link through the resolver. It reports whether the
// link named a movie.
func (a *App) OpenLink(raw string) bool {
	if a.resolver.Dispatch(raw) {
		return true
	}
	a.setStatus(MsgUnhandledLink, StatusWarn)
	return false
}

// Close cancels in-flight catalog requests.
func (a *App) Close() {
	a.cancel()
}

func (a *App) takePending() tea.Cmd {
	if len(a.pending) == 0 {
		return nil
	}
	cmds := a.pending
	a.pending = nil
	return tea.Batch(cmds...)
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
}

// getRenderer caches a glamour renderer for the current wrap width. Callers
// hold renderMu.
func (a *App) getRenderer(width int) (*glamour.TermRenderer, error) {
	wordWrap := (width * 9) / 10
	if wordWrap > 120 {
		wordWrap = 120
	}
	if wordWrap < 40 {
		wordWrap = 40
	}
	if width < 50 {
		wordWrap = max(width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrap) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrap),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrap
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.loadTrending(),
		a.spinner.Tick,
		a.takePending(),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.update(msg)
	return a, tea.Batch(cmd, a.takePending())
}

func (a *App) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		if a.view == ViewDetail && !a.detail.Loading {
			return a.renderDetail(a.detailSeq, a.detail)
		}

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case tea.MouseMsg:
		if a.view == ViewDetail {
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			return cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return cmd

	case trendingLoadedMsg:
		if msg.seq != a.trendingSeq {
			return nil
		}
		a.trendingLoading = false
		if msg.err != nil {
			a.trendingErr = errorText(msg.err)
			a.setStatus(a.trendingErr, StatusError)
		} else {
			a.trending = msg.movies
			a.trendingErr = ""
		}
		a.syncList(true)

	case debounceFireMsg:
		l, ok := a.machine.DebounceElapsed(msg.ticket)
		a.syncList(false)
		if !ok {
			return nil
		}
		a.log.Debugf("lookup %d for %q", l.Generation, l.Query)
		return a.lookupCmd(l)

	case lookupDoneMsg:
		if !a.machine.LookupFinished(msg.generation, msg.movies, msg.err) {
			a.log.Debugf("dropping superseded lookup %d", msg.generation)
			return nil
		}
		a.syncList(false)

	case detailLoadedMsg:
		if msg.seq != a.detailSeq {
			return nil
		}
		a.detail = msg.state
		if msg.state.HasError() {
			a.setStatus(msg.state.Err, StatusError)
			return a.renderDetail(msg.seq, msg.state)
		}
		a.setStatus("", StatusInfo)
		return tea.Batch(a.renderDetail(msg.seq, msg.state), a.loadSimilar(msg.seq, msg.state))

	case similarLoadedMsg:
		if msg.seq != a.detailSeq {
			return nil
		}
		// marks may have been toggled while similar movies loaded
		a.detail.Similar = msg.state.Similar
		a.detail.LoadingSimilar = false
		return a.renderDetail(msg.seq, a.detail)

	case detailMarkedMsg:
		if msg.seq != a.detailSeq {
			return nil
		}
		if msg.err != nil {
			a.setStatus(errorText(msg.err), StatusError)
			return nil
		}
		a.detail.Favorite = msg.state.Favorite
		a.detail.Watchlisted = msg.state.Watchlisted
		a.setStatus(MsgMarked(msg.label, msg.on), StatusSuccess)
		return a.renderDetail(msg.seq, a.detail)

	case detailRenderedMsg:
		if msg.seq != a.detailSeq {
			return nil
		}
		a.viewport.SetContent(msg.content)
		if !a.rendered {
			a.viewport.GotoTop()
			a.rendered = true
		}

	case statusMsg:
		a.setStatus(msg.text, msg.kind)

	case configReloadedMsg:
		a.applyConfig(msg.cfg)
	}

	return nil
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.movieList.SetSize(width, max(height-chrome, 3))
	a.viewport.Width = width
	a.viewport.Height = max(height-2, 1)
	a.searchInput.Width = max(width-8, 10)
}

func (a *App) applyConfig(cfg *config.Config) {
	a.config = cfg
	if cfg.Search.Debounce > 0 {
		a.debounce = cfg.Search.Debounce
	}
	a.minQuery = cfg.Search.MinQueryLength
	ApplyColors(cfg.UI.Colors)
	a.keyHandler = NewKeyHandler(a, cfg)
	a.log.Infof("configuration reloaded, debounce %s", a.debounce)
	a.setStatus("Configuration reloaded", StatusInfo)
}

// queryChanged feeds a new search box value into the machine and schedules
// its debounce tick.
func (a *App) queryChanged(q string) tea.Cmd {
	if len([]rune(q)) < a.minQuery {
		q = ""
	}
	if q == a.machine.Pending() && a.machine.Phase() == pipeline.PhaseDebouncing {
		return nil
	}
	ticket := a.machine.QueryChanged(q)
	a.ticket = ticket
	return tea.Tick(a.debounce, func(time.Time) tea.Msg {
		return debounceFireMsg{ticket: ticket}
	})
}

func (a *App) refreshList() tea.Cmd {
	if a.showingTrending() {
		a.trendingLoading = true
		a.setStatus(MsgRefreshing, StatusInfo)
		return a.loadTrending()
	}
	l, ok := a.machine.Refresh()
	if !ok {
		return nil
	}
	a.syncList(false)
	a.setStatus(MsgRefreshing, StatusInfo)
	return a.lookupCmd(l)
}

func (a *App) clearError() {
	switch a.view {
	case ViewDetail:
		if a.detail.HasError() {
			a.detail = a.detail.ClearError()
			a.pending = append(a.pending, a.renderDetail(a.detailSeq, a.detail))
		}
	default:
		a.machine.ClearError()
		a.trendingErr = ""
		a.syncList(false)
	}
	if a.statusKind == StatusError {
		a.setStatus("", StatusInfo)
	}
}

// showingTrending reports whether the list shows trending movies rather
// than search results.
func (a *App) showingTrending() bool {
	s := a.machine.State()
	return s.Query == "" && !s.Loading
}

func (a *App) syncList(force bool) {
	if !force && a.machine.Version() == a.shown {
		return
	}
	a.shown = a.machine.Version()

	movies := a.machine.State().Movies
	if a.showingTrending() {
		movies = a.trending
	}
	items := make([]list.Item, len(movies))
	for i, m := range movies {
		items[i] = movieItem{movie: m}
	}
	a.movieList.SetItems(items)
}

func (a *App) busy() bool {
	s := a.machine.State()
	return s.Loading || s.Refreshing || a.trendingLoading || a.detail.Loading || a.detail.LoadingSimilar
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewList, ViewSearch:
		content = a.listView()
	case ViewDetail:
		content = a.viewport.View()
	case ViewHelp:
		content = renderCentered(a.width, max(a.height-2, 1), lipgloss.JoinVertical(
			lipgloss.Left,
			TitleStyle.Render("› keys"),
			"",
			renderKeyTable(a.keyHandler.HelpRows()),
			"",
			renderHelp("esc: back"),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Top, content, renderSeparator(a.width-1), a.statusBar())
}

func (a *App) listView() string {
	s := a.machine.State()
	bodyHeight := max(a.height-chrome, 3)

	title := "› trending"
	if !a.showingTrending() {
		title = "› results for “" + s.Query + "”"
	}

	subtitle := MsgResultsCount(len(a.movieList.Items()))
	switch {
	case s.Loading:
		subtitle = MsgSearching
	case s.Refreshing:
		subtitle = MsgRefreshing
	case a.showingTrending() && a.trendingLoading:
		subtitle = MsgLoadingTrending
	}

	inputWidth := max(a.width-8, 10)
	input := renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), inputWidth)

	var body string
	switch {
	case s.HasError():
		body = renderCentered(a.width, bodyHeight, ErrorMessageStyle.Render("✗ "+s.Err)+"\n\n"+
			renderHelp(a.keyHandler.bind(a.keyHandler.bindings.ClearError)+": dismiss • "+
				a.keyHandler.bind(a.keyHandler.bindings.Refresh)+": retry"))
	case a.showingTrending() && a.trendingErr != "":
		body = renderCentered(a.width, bodyHeight, ErrorMessageStyle.Render("✗ "+a.trendingErr))
	case s.Loading || (a.showingTrending() && a.trendingLoading && len(a.trending) == 0):
		body = renderCentered(a.width, bodyHeight, a.spinner.View()+" "+renderMuted(subtitle))
	case len(a.movieList.Items()) == 0 && a.showingTrending():
		body = renderCentered(a.width, bodyHeight, GetWelcomeMessage())
	case len(a.movieList.Items()) == 0:
		body = renderCentered(a.width, bodyHeight, renderMuted(MsgNoResults))
	default:
		body = a.movieList.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, renderHeader(title, subtitle, a.width), input, body)
}

func (a *App) statusBar() string {
	text := a.status
	style := a.statusKind.style()
	if text == "" {
		text = joinHints(a.keyHandler.GetHelpForCurrentView())
		style = StatusInfoStyle
	}
	text = style.Render(truncateEnd(text, max(a.width-4, 1)))
	if a.busy() {
		text = a.spinner.View() + " " + text
	}
	return StatusBarStyle.Width(a.width).Render(text)
}
