package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/reel/internal/movie"
)

var (
	avatar  = movie.Movie{ID: 19995, Title: "Avatar"}
	batman  = movie.Movie{ID: 268, Title: "Batman"}
	thunder = movie.Movie{ID: 986056, Title: "Thunderbolts*"}
)

func TestInitialState(t *testing.T) {
	m := NewMachine()

	s := m.State()
	assert.Equal(t, "", s.Query)
	assert.Empty(t, s.Movies)
	assert.False(t, s.Loading)
	assert.False(t, s.HasError())
	assert.Equal(t, PhaseIdle, m.Phase())
	assert.Equal(t, uint64(0), m.Generation())
}

func TestBurstWithinWindowDispatchesOnce(t *testing.T) {
	m := NewMachine()

	first := m.QueryChanged("a")
	second := m.QueryChanged("ab")

	_, ok := m.DebounceElapsed(first)
	assert.False(t, ok, "superseded ticket must not dispatch")

	l, ok := m.DebounceElapsed(second)
	require.True(t, ok)
	assert.Equal(t, "ab", l.Query)
	assert.Equal(t, uint64(1), l.Generation)

	s := m.State()
	assert.True(t, s.Loading)
	assert.Equal(t, "ab", s.Query)
	assert.Empty(t, s.Movies)
	assert.Equal(t, PhaseLookingUp, m.Phase())
}

func TestSuccessAndFailureSnapshots(t *testing.T) {
	m := NewMachine()
	l, ok := m.DebounceElapsed(m.QueryChanged("bat"))
	require.True(t, ok)

	require.True(t, m.LookupFinished(l.Generation, []movie.Movie{batman}, nil))
	s := m.State()
	assert.False(t, s.Loading)
	assert.Equal(t, []movie.Movie{batman}, s.Movies)
	assert.Equal(t, PhaseSettled, m.Phase())

	l, ok = m.DebounceElapsed(m.QueryChanged("bad"))
	require.True(t, ok)
	require.True(t, m.LookupFinished(l.Generation, nil, errors.New("network down")))
	s = m.State()
	assert.Equal(t, "network down", s.Err)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Movies)
}

func TestEmptyErrorMessageDefaults(t *testing.T) {
	m := NewMachine()
	l, _ := m.DebounceElapsed(m.QueryChanged("x"))
	m.LookupFinished(l.Generation, nil, errors.New(""))
	assert.Equal(t, DefaultErrorMessage, m.State().Err)
}

func TestSuccessWithNoResultsIsEmptyNotNil(t *testing.T) {
	m := NewMachine()
	l, _ := m.DebounceElapsed(m.QueryChanged("zzz"))
	m.LookupFinished(l.Generation, nil, nil)
	assert.NotNil(t, m.State().Movies)
	assert.Empty(t, m.State().Movies)
}

func TestStaleLookupDiscarded(t *testing.T) {
	m := NewMachine()

	lx, ok := m.DebounceElapsed(m.QueryChanged("x"))
	require.True(t, ok)
	ly, ok := m.DebounceElapsed(m.QueryChanged("y"))
	require.True(t, ok)

	require.True(t, m.LookupFinished(ly.Generation, []movie.Movie{batman}, nil))
	before := m.Version()

	assert.False(t, m.LookupFinished(lx.Generation, []movie.Movie{avatar}, nil))
	assert.Equal(t, before, m.Version(), "stale result must not produce a snapshot")
	assert.Equal(t, "y", m.State().Query)
	assert.Equal(t, []movie.Movie{batman}, m.State().Movies)
}

func TestStaleFailureDiscarded(t *testing.T) {
	m := NewMachine()

	lx, _ := m.DebounceElapsed(m.QueryChanged("x"))
	ly, _ := m.DebounceElapsed(m.QueryChanged("y"))

	assert.False(t, m.LookupFinished(lx.Generation, nil, errors.New("boom")))
	assert.False(t, m.State().HasError())
	assert.True(t, m.State().Loading)

	assert.True(t, m.LookupFinished(ly.Generation, []movie.Movie{thunder}, nil))
}

func TestRepeatedQueryIsNotDispatched(t *testing.T) {
	m := NewMachine()
	l, _ := m.DebounceElapsed(m.QueryChanged("Batman"))
	m.LookupFinished(l.Generation, []movie.Movie{batman}, nil)
	v := m.Version()

	// typed something then restored the previous value
	m.QueryChanged("Batma")
	ticket := m.QueryChanged("Batman")
	_, ok := m.DebounceElapsed(ticket)

	assert.False(t, ok)
	assert.Equal(t, v, m.Version())
	assert.Equal(t, PhaseSettled, m.Phase())
	assert.Equal(t, uint64(1), m.Generation())
}

func TestInitialEmptyQueryIsNotDispatched(t *testing.T) {
	m := NewMachine()
	_, ok := m.DebounceElapsed(m.QueryChanged(""))
	assert.False(t, ok)
	assert.Equal(t, PhaseIdle, m.Phase())
}

func TestResultArrivingWhileTyping(t *testing.T) {
	m := NewMachine()
	l, _ := m.DebounceElapsed(m.QueryChanged("bat"))

	m.QueryChanged("batm")
	assert.Equal(t, PhaseDebouncing, m.Phase())

	require.True(t, m.LookupFinished(l.Generation, []movie.Movie{batman}, nil))
	assert.Equal(t, PhaseDebouncing, m.Phase(), "typing keeps the debounce window open")

	// restoring the settled query goes back to Settled without a lookup
	_, ok := m.DebounceElapsed(m.QueryChanged("bat"))
	assert.False(t, ok)
	assert.Equal(t, PhaseSettled, m.Phase())
}

func TestClearError(t *testing.T) {
	m := NewMachine()
	assert.False(t, m.ClearError())

	l, _ := m.DebounceElapsed(m.QueryChanged("x"))
	m.LookupFinished(l.Generation, nil, errors.New("offline"))
	require.True(t, m.State().HasError())

	assert.True(t, m.ClearError())
	assert.Equal(t, "", m.State().Err)
	assert.Equal(t, "x", m.State().Query)
}

func TestRefresh(t *testing.T) {
	m := NewMachine()
	l, _ := m.DebounceElapsed(m.QueryChanged("bat"))

	_, ok := m.Refresh()
	assert.False(t, ok, "refresh refused while a lookup is in flight")

	m.LookupFinished(l.Generation, []movie.Movie{batman}, nil)

	r, ok := m.Refresh()
	require.True(t, ok)
	assert.Equal(t, "bat", r.Query)
	assert.Equal(t, l.Generation+1, r.Generation)

	s := m.State()
	assert.True(t, s.Refreshing)
	assert.False(t, s.Loading)
	assert.Equal(t, []movie.Movie{batman}, s.Movies, "results stay visible while refreshing")

	m.LookupFinished(r.Generation, []movie.Movie{batman, avatar}, nil)
	assert.False(t, m.State().Refreshing)
	assert.Len(t, m.State().Movies, 2)

	m.QueryChanged("batm")
	_, ok = m.Refresh()
	assert.False(t, ok, "refresh refused while typing")
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "debouncing", PhaseDebouncing.String())
	assert.Equal(t, "looking-up", PhaseLookingUp.String())
	assert.Equal(t, "settled", PhaseSettled.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
