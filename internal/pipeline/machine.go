// Package pipeline turns a stream of typed search queries into ordered list
// state snapshots, and loads movie detail state.
//
// Machine is the pure core: it owns the debounce ticket, the generation
// counter and the current ListState. Callers supply time (firing debounce
// tickets) and run lookups; Machine decides what to keep. Pipeline wraps a
// Machine with timers and goroutines.
package pipeline

import (
	"github.com/pders01/reel/internal/movie"
)

// DefaultErrorMessage is shown when a lookup fails without a message.
const DefaultErrorMessage = "Unknown Error"

// Phase is the position of the search flow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDebouncing
	PhaseLookingUp
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDebouncing:
		return "debouncing"
	case PhaseLookingUp:
		return "looking-up"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// ListState is one snapshot of the search/list screen. Snapshots are
// replaced whole, never edited in place.
type ListState struct {
	Query      string
	Movies     []movie.Movie
	Loading    bool
	Err        string
	Refreshing bool
}

func (s ListState) HasError() bool { return s.Err != "" }

// Lookup is a request the caller must run and report back with
// LookupFinished using the same Generation.
type Lookup struct {
	Query      string
	Generation uint64
}

// Machine is the search state machine. The zero value is not ready; use
// NewMachine.
type Machine struct {
	phase  Phase
	resume Phase // where a no-op debounce returns to

	pending    string
	ticket     uint64
	dispatched string
	generation uint64
	inFlight   bool

	state   ListState
	version uint64
}

// NewMachine returns a machine in the idle phase whose baseline query is "".
func NewMachine() *Machine {
	return &Machine{phase: PhaseIdle, resume: PhaseIdle}
}

func (m *Machine) Phase() Phase { return m.phase }
func (m *Machine) State() ListState { return m.state }
func (m *Machine) Generation() uint64 { return m.generation }
func (m *Machine) Pending() string { return m.pending }
func (m *Machine) InFlight() bool { return m.inFlight }

// Version increases every time the state is replaced.
func (m *Machine) Version() uint64 { return m.version }

func (m *Machine) replace(s ListState) {
	m.state = s
	m.version++
}

// QueryChanged records q as the pending query and returns the debounce
// ticket. The caller fires DebounceElapsed with that ticket once the quiet
// window has passed; any later QueryChanged makes earlier tickets stale.
func (m *Machine) QueryChanged(q string) uint64 {
	if m.phase != PhaseDebouncing {
		m.resume = m.phase
		m.phase = PhaseDebouncing
	}
	m.pending = q
	m.ticket++
	return m.ticket
}

// DebounceElapsed settles a quiet window. It returns a lookup to run unless
// the ticket is stale or the pending query equals the last dispatched one.
func (m *Machine) DebounceElapsed(ticket uint64) (Lookup, bool) {
	if m.phase != PhaseDebouncing || ticket != m.ticket {
		return Lookup{}, false
	}

	if m.pending == m.dispatched {
		m.phase = m.resume
		return Lookup{}, false
	}

	return m.dispatch(m.pending, ListState{Query: m.pending, Loading: true}), true
}

func (m *Machine) dispatch(q string, s ListState) Lookup {
	m.dispatched = q
	m.generation++
	m.inFlight = true
	m.phase = PhaseLookingUp
	m.replace(s)
	return Lookup{Query: q, Generation: m.generation}
}

// LookupFinished applies the outcome of lookup gen. Outcomes from any
// generation other than the latest are discarded and false is returned.
func (m *Machine) LookupFinished(gen uint64, movies []movie.Movie, err error) bool {
	if gen != m.generation || !m.inFlight {
		return false
	}
	m.inFlight = false

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = DefaultErrorMessage
		}
		m.replace(ListState{Query: m.dispatched, Err: msg})
	} else {
		if movies == nil {
			movies = []movie.Movie{}
		}
		m.replace(ListState{Query: m.dispatched, Movies: movies})
	}

	if m.phase == PhaseDebouncing {
		m.resume = PhaseSettled
	} else {
		m.phase = PhaseSettled
	}
	return true
}

// ClearError acknowledges a surfaced failure. It reports whether there was
// anything to clear.
func (m *Machine) ClearError() bool {
	if m.state.Err == "" {
		return false
	}
	next := m.state
	next.Err = ""
	m.replace(next)
	return true
}

// Refresh re-runs the last dispatched query, keeping the current results
// visible with Refreshing set. It is refused while typing or while a lookup
// is already running.
func (m *Machine) Refresh() (Lookup, bool) {
	if m.inFlight || m.phase == PhaseDebouncing {
		return Lookup{}, false
	}
	return m.dispatch(m.dispatched, ListState{
		Query:      m.dispatched,
		Movies:     m.state.Movies,
		Refreshing: true,
	}), true
}
