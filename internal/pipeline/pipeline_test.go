package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/reel/internal/movie"
)

// manualClock fires debounce timers only when told to.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (c *manualClock) After(_ time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.timers = append(c.timers, t)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		was := !t.stopped
		t.stopped = true
		return was
	}
}

func (c *manualClock) armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// fire waits until n timers have been scheduled in total, then runs every
// live one.
func (c *manualClock) fire(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return c.armed() >= n }, 2*time.Second, time.Millisecond)
	c.fireAll()
}

func (c *manualClock) fireAll() {
	c.mu.Lock()
	var live []func()
	for _, t := range c.timers {
		if !t.stopped {
			t.stopped = true
			live = append(live, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range live {
		go f()
	}
}

// gatedLookup records calls and blocks each one until released.
type gatedLookup struct {
	mu    sync.Mutex
	calls []string
	gates map[string]chan lookupResult
}

type lookupResult struct {
	movies []movie.Movie
	err    error
}

func newGatedLookup() *gatedLookup {
	return &gatedLookup{gates: map[string]chan lookupResult{}}
}

func (g *gatedLookup) gate(q string) chan lookupResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[q]
	if !ok {
		ch = make(chan lookupResult, 1)
		g.gates[q] = ch
	}
	return ch
}

func (g *gatedLookup) Lookup(ctx context.Context, q string) ([]movie.Movie, error) {
	g.mu.Lock()
	g.calls = append(g.calls, q)
	g.mu.Unlock()

	select {
	case r := <-g.gate(q):
		return r.movies, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedLookup) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *gatedLookup) release(q string, movies []movie.Movie, err error) {
	g.gate(q) <- lookupResult{movies: movies, err: err}
}

// collector drains States into a slice.
type collector struct {
	mu     sync.Mutex
	states []ListState
	done   chan struct{}
}

func collect(p *Pipeline) *collector {
	c := &collector{done: make(chan struct{})}
	go func() {
		defer close(c.done)
		for s := range p.States() {
			c.mu.Lock()
			c.states = append(c.states, s)
			c.mu.Unlock()
		}
	}()
	return c
}

func (c *collector) snapshot() []ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ListState(nil), c.states...)
}

func (c *collector) last() (ListState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.states) == 0 {
		return ListState{}, false
	}
	return c.states[len(c.states)-1], true
}

func startPipeline(t *testing.T, lookup LookupFunc, opts ...Option) (*Pipeline, *collector) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	p := New(lookup, opts...)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()
	c := collect(p)
	t.Cleanup(func() {
		cancel()
		<-errCh
		<-c.done
	})
	return p, c
}

func waitFor(t *testing.T, c *collector, cond func(ListState) bool) ListState {
	t.Helper()
	var got ListState
	require.Eventually(t, func() bool {
		s, ok := c.last()
		if ok && cond(s) {
			got = s
			return true
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestPipelineEmitsInitialState(t *testing.T) {
	g := newGatedLookup()
	_, c := startPipeline(t, g.Lookup)

	s := waitFor(t, c, func(ListState) bool { return true })
	assert.Equal(t, ListState{}, s)
	assert.Empty(t, g.Calls())
}

func TestPipelineDebouncesBurst(t *testing.T) {
	clock := &manualClock{}
	g := newGatedLookup()
	p, c := startPipeline(t, g.Lookup, WithClock(clock.After))

	p.SetQuery("a")
	p.SetQuery("ab")
	clock.fire(t, 2)
	waitFor(t, c, func(s ListState) bool { return s.Loading && s.Query == "ab" })

	g.release("ab", []movie.Movie{batman}, nil)
	s := waitFor(t, c, func(s ListState) bool { return !s.Loading && s.Query == "ab" })
	assert.Equal(t, []movie.Movie{batman}, s.Movies)
	assert.Equal(t, []string{"ab"}, g.Calls())
}

func TestPipelineDiscardsSupersededLookup(t *testing.T) {
	clock := &manualClock{}
	g := newGatedLookup()
	p, c := startPipeline(t, g.Lookup, WithClock(clock.After))

	p.SetQuery("x")
	clock.fire(t, 1)
	waitFor(t, c, func(s ListState) bool { return s.Loading && s.Query == "x" })

	p.SetQuery("y")
	clock.fire(t, 2)
	waitFor(t, c, func(s ListState) bool { return s.Loading && s.Query == "y" })

	g.release("y", []movie.Movie{batman}, nil)
	waitFor(t, c, func(s ListState) bool { return !s.Loading && s.Query == "y" })

	// x resolves late and with an error; neither may surface
	g.release("x", []movie.Movie{avatar}, errors.New("late"))

	p.SetQuery("y") // round-trip through Run so the late result is processed
	clock.fire(t, 3)

	assert.Never(t, func() bool {
		for _, s := range c.snapshot() {
			if s.Err != "" {
				return true
			}
			for _, m := range s.Movies {
				if m.ID == avatar.ID {
					return true
				}
			}
		}
		return false
	}, 100*time.Millisecond, 10*time.Millisecond)

	s, _ := c.last()
	assert.Equal(t, "y", s.Query)
	assert.Equal(t, []movie.Movie{batman}, s.Movies)
	assert.Equal(t, []string{"x", "y"}, g.Calls())
}

func TestPipelineSkipsRepeatedQuery(t *testing.T) {
	clock := &manualClock{}
	g := newGatedLookup()
	p, c := startPipeline(t, g.Lookup, WithClock(clock.After))

	p.SetQuery("Batman")
	clock.fire(t, 1)
	g.release("Batman", []movie.Movie{batman}, nil)
	waitFor(t, c, func(s ListState) bool { return !s.Loading && len(s.Movies) == 1 })
	count := len(c.snapshot())

	p.SetQuery("Batman")
	clock.fire(t, 2)

	assert.Never(t, func() bool { return len(c.snapshot()) != count }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, []string{"Batman"}, g.Calls())
}

func TestPipelineErrorAndClear(t *testing.T) {
	clock := &manualClock{}
	g := newGatedLookup()
	p, c := startPipeline(t, g.Lookup, WithClock(clock.After))

	p.SetQuery("bad")
	clock.fire(t, 1)
	g.release("bad", nil, errors.New(""))
	waitFor(t, c, func(s ListState) bool { return s.Err == DefaultErrorMessage })

	p.ClearError()
	s := waitFor(t, c, func(s ListState) bool { return s.Err == "" })
	assert.Equal(t, "bad", s.Query)
	assert.False(t, s.Loading)
}

func TestPipelineRefresh(t *testing.T) {
	clock := &manualClock{}
	g := newGatedLookup()
	p, c := startPipeline(t, g.Lookup, WithClock(clock.After))

	p.SetQuery("bat")
	clock.fire(t, 1)
	g.release("bat", []movie.Movie{batman}, nil)
	waitFor(t, c, func(s ListState) bool { return len(s.Movies) == 1 && !s.Loading })

	p.Refresh()
	waitFor(t, c, func(s ListState) bool { return s.Refreshing })

	g.release("bat", []movie.Movie{batman, avatar}, nil)
	s := waitFor(t, c, func(s ListState) bool { return !s.Refreshing && len(s.Movies) == 2 })
	assert.Equal(t, "bat", s.Query)
	assert.Equal(t, []string{"bat", "bat"}, g.Calls())
}

func TestPipelineRealTimer(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	lookup := func(_ context.Context, q string) ([]movie.Movie, error) {
		mu.Lock()
		calls = append(calls, q)
		mu.Unlock()
		return []movie.Movie{thunder}, nil
	}

	p, c := startPipeline(t, lookup, WithDebounce(20*time.Millisecond))
	p.SetQuery("t")
	p.SetQuery("th")
	p.SetQuery("thu")

	s := waitFor(t, c, func(s ListState) bool { return s.Query == "thu" && !s.Loading })
	assert.Equal(t, []movie.Movie{thunder}, s.Movies)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"thu"}, calls)
}

func TestPipelineStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(func(context.Context, string) ([]movie.Movie, error) { return nil, nil })

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()
	<-p.States()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, open := <-p.States()
	assert.False(t, open)

	// calls after shutdown must not block
	p.SetQuery("late")
	p.ClearError()
}
