package pipeline

import (
	"context"
	"time"

	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/movie"
)

// DefaultDebounce is the quiet window before a query change triggers a lookup.
const DefaultDebounce = 300 * time.Millisecond

// LookupFunc is the movie lookup capability the pipeline drives.
type LookupFunc func(ctx context.Context, query string) ([]movie.Movie, error)

type Option func(*Pipeline)

// AfterFunc schedules f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfter(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// WithClock replaces the timer used for debounce windows.
func WithClock(after AfterFunc) Option {
	return func(p *Pipeline) {
		if after != nil {
			p.after = after
		}
	}
}

// WithDebounce overrides DefaultDebounce. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.debounce = d
		}
	}
}

type eventKind int

const (
	evQuery eventKind = iota
	evClearError
	evRefresh
	evDebounce
)

type event struct {
	kind     eventKind
	query    string
	debounce time.Duration
}

type completion struct {
	gen    uint64
	movies []movie.Movie
	err    error
}

// Pipeline runs a Machine on a single goroutine. Query changes, debounce
// timers and lookup completions are all funnelled into Run, which is the
// only writer of state. Snapshots are delivered on States in the order
// they were produced.
type Pipeline struct {
	lookup   LookupFunc
	debounce time.Duration
	after    AfterFunc

	events  chan event
	fires   chan uint64
	results chan completion
	states  chan ListState
	done    chan struct{}

	log *debuglog.FieldLogger
}

func New(lookup LookupFunc, opts ...Option) *Pipeline {
	p := &Pipeline{
		lookup:   lookup,
		debounce: DefaultDebounce,
		after:    realAfter,
		events:   make(chan event),
		fires:    make(chan uint64),
		results:  make(chan completion),
		states:   make(chan ListState),
		done:     make(chan struct{}),
		log:      debuglog.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// States yields every snapshot, starting with the initial empty state.
// The channel is closed when Run returns.
func (p *Pipeline) States() <-chan ListState { return p.states }

// SetQuery reports a new query value. It blocks until Run accepts it and is
// a no-op after Run has returned.
func (p *Pipeline) SetQuery(q string) { p.send(event{kind: evQuery, query: q}) }

// ClearError acknowledges the current failure message.
func (p *Pipeline) ClearError() { p.send(event{kind: evClearError}) }

// Refresh re-runs the settled query.
func (p *Pipeline) Refresh() { p.send(event{kind: evRefresh}) }

// SetDebounce changes the quiet window for subsequent query changes.
func (p *Pipeline) SetDebounce(d time.Duration) {
	if d > 0 {
		p.send(event{kind: evDebounce, debounce: d})
	}
}

func (p *Pipeline) send(ev event) {
	select {
	case p.events <- ev:
	case <-p.done:
	}
}

// Run drives the pipeline until ctx is cancelled. Lookups share ctx; a
// superseded lookup is left to finish and its result is dropped.
func (p *Pipeline) Run(ctx context.Context) error {
	defer close(p.states)
	defer close(p.done)

	m := NewMachine()
	queue := []ListState{m.State()}
	emitted := m.Version()
	var stopTimer func() bool

	defer func() {
		if stopTimer != nil {
			stopTimer()
		}
	}()

	start := func(l Lookup) {
		p.log.Debugf("lookup gen=%d query=%q", l.Generation, l.Query)
		go func() {
			movies, err := p.lookup(ctx, l.Query)
			select {
			case p.results <- completion{gen: l.Generation, movies: movies, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	for {
		var out chan ListState
		var next ListState
		if len(queue) > 0 {
			out = p.states
			next = queue[0]
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case out <- next:
			queue = queue[1:]

		case ev := <-p.events:
			switch ev.kind {
			case evQuery:
				ticket := m.QueryChanged(ev.query)
				if stopTimer != nil {
					stopTimer()
				}
				stopTimer = p.after(p.debounce, func() {
					select {
					case p.fires <- ticket:
					case <-ctx.Done():
					}
				})
			case evClearError:
				m.ClearError()
			case evRefresh:
				if l, ok := m.Refresh(); ok {
					start(l)
				}
			case evDebounce:
				p.debounce = ev.debounce
			}

		case ticket := <-p.fires:
			if l, ok := m.DebounceElapsed(ticket); ok {
				start(l)
			}

		case c := <-p.results:
			if !m.LookupFinished(c.gen, c.movies, c.err) {
				p.log.Debugf("discarding stale lookup gen=%d (current %d)", c.gen, m.Generation())
			}
		}

		if v := m.Version(); v != emitted {
			emitted = v
			queue = append(queue, m.State())
		}
	}
}
