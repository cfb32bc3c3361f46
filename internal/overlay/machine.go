// Package overlay drives the search overlay: visibility, query text, the
// result cursor and keyboard commands. It has no rendering surface; callers
// feed it events and carry out the effects it returns.
package overlay

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Paintersrp/textsearch/internal/logging"
	"github.com/Paintersrp/textsearch/internal/runtime"
	"github.com/Paintersrp/textsearch/internal/search"
)

const (
	// FocusDelay is how long after opening the input receives focus.
	FocusDelay = 20 * time.Millisecond
	// FadeDuration is how long a closing overlay stays rendered.
	FadeDuration = 200 * time.Millisecond
)

// Key names understood by the machine.
const (
	KeyArrowDown = "ArrowDown"
	KeyArrowUp   = "ArrowUp"
	KeyEnter     = "Enter"
	KeyEscape    = "Escape"
	KeyTab       = "Tab"
)

// Phase is the overlay lifecycle position.
type Phase int

const (
	Closed Phase = iota
	Opening
	Open
	Closing
)

func (p Phase) String() string {
	switch p {
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "closed"
	}
}

// State is the observable selection state.
type State struct {
	OverlayOpen    bool
	OverlayVisible bool
	Query          string
	Results        []search.SearchDoc
	SelectedIndex  int
}

// Selected returns the document under the cursor.
func (s State) Selected() (search.SearchDoc, bool) {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Results) {
		return search.SearchDoc{}, false
	}
	return s.Results[s.SelectedIndex], true
}

// Timer identifies one of the machine's delayed transitions.
type Timer int

const (
	FocusTimer Timer = iota + 1
	FadeTimer
)

// Event is an input to Dispatch.
type Event interface{ isEvent() }

// KeyPress is a keyboard event. Key uses DOM key names ("ArrowDown", "k").
type KeyPress struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
}

// OutsideClick is a pointer press outside the overlay panel.
type OutsideClick struct{}

// TimerElapsed reports that a scheduled timer fired. Gen must echo the
// generation from the ScheduleTimer effect.
type TimerElapsed struct {
	Timer Timer
	Gen   uint64
}

// QueryChanged carries the current input text.
type QueryChanged struct {
	Query string
}

// ResultsChanged replaces the result set wholesale.
type ResultsChanged struct {
	Results []search.SearchDoc
}

func (KeyPress) isEvent()       {}
func (OutsideClick) isEvent()   {}
func (TimerElapsed) isEvent()   {}
func (QueryChanged) isEvent()   {}
func (ResultsChanged) isEvent() {}

// Effect is a side effect the caller must perform.
type Effect interface{ isEffect() }

// ScheduleTimer asks the caller to deliver TimerElapsed{Timer, Gen} after
// Delay.
type ScheduleTimer struct {
	Timer Timer
	Delay time.Duration
	Gen   uint64
}

// CancelTimer withdraws a scheduled timer.
type CancelTimer struct {
	Timer Timer
	Gen   uint64
}

// FocusInput moves keyboard focus to the query input.
type FocusInput struct{}

// Navigate opens URL for the activated document.
type Navigate struct {
	URL string
	Doc search.SearchDoc
}

func (ScheduleTimer) isEffect() {}
func (CancelTimer) isEffect()   {}
func (FocusInput) isEffect()    {}
func (Navigate) isEffect()      {}

// Options configures a Machine.
type Options struct {
	// Searcher recomputes results on QueryChanged. Nil leaves results to
	// ResultsChanged events.
	Searcher runtime.Searcher
	// Limit caps results per query. Zero selects search.DefaultLimit.
	Limit int
	// Mac selects Meta instead of Ctrl as the shortcut modifier.
	Mac bool
	// BaseURL prefixes navigation targets.
	BaseURL string
	Logger  *slog.Logger
}

// Machine is the overlay state machine. It is not safe for concurrent use;
// events are expected from a single event loop.
type Machine struct {
	opts   Options
	logger *slog.Logger

	phase  Phase
	state  State
	err    error
	gen    uint64
	timers map[Timer]uint64
	done   bool
}

// New returns a closed machine.
func New(opts Options) *Machine {
	if opts.Limit <= 0 {
		opts.Limit = search.DefaultLimit
	}
	return &Machine{
		opts:   opts,
		logger: logging.OrDiscard(opts.Logger),
		timers: make(map[Timer]uint64),
	}
}

// Phase returns the current lifecycle phase.
func (m *Machine) Phase() Phase { return m.phase }

// State returns a copy of the selection state.
func (m *Machine) State() State {
	s := m.state
	s.Results = append([]search.SearchDoc(nil), m.state.Results...)
	return s
}

// Err returns the error from the most recent search, if any. An
// runtime.ErrUnavailable error means no index is loaded, as opposed to a
// query without matches.
func (m *Machine) Err() error { return m.err }

// Dispatch applies ev and returns the effects to perform, in order.
func (m *Machine) Dispatch(ev Event) []Effect {
	if m.done {
		return nil
	}
	switch ev := ev.(type) {
	case KeyPress:
		return m.key(ev)
	case OutsideClick:
		return m.close()
	case TimerElapsed:
		return m.elapsed(ev)
	case QueryChanged:
		return m.query(ev.Query)
	case ResultsChanged:
		m.replace(ev.Results)
	}
	return nil
}

// Teardown cancels pending timers and stops the machine. Later events are
// ignored.
func (m *Machine) Teardown() []Effect {
	if m.done {
		return nil
	}
	m.done = true
	var effects []Effect
	for _, timer := range []Timer{FocusTimer, FadeTimer} {
		if effect, ok := m.cancel(timer); ok {
			effects = append(effects, effect)
		}
	}
	return effects
}

func (m *Machine) key(ev KeyPress) []Effect {
	if m.isShortcut(ev) {
		return m.open()
	}
	if ev.Key == KeyEscape {
		return m.close()
	}
	if m.phase != Open || len(m.state.Results) == 0 {
		return nil
	}

	last := len(m.state.Results) - 1
	switch ev.Key {
	case KeyArrowDown:
		m.state.SelectedIndex = min(m.state.SelectedIndex+1, last)
	case KeyArrowUp:
		m.state.SelectedIndex = max(m.state.SelectedIndex-1, 0)
	case KeyTab:
		m.state.SelectedIndex = (m.state.SelectedIndex + 1) % len(m.state.Results)
	case KeyEnter:
		return m.activate()
	}
	return nil
}

func (m *Machine) isShortcut(ev KeyPress) bool {
	if !ev.Shift || !strings.EqualFold(ev.Key, "k") {
		return false
	}
	if m.opts.Mac {
		return ev.Meta
	}
	return ev.Ctrl
}

func (m *Machine) open() []Effect {
	var effects []Effect
	if effect, ok := m.cancel(FadeTimer); ok {
		effects = append(effects, effect)
	}
	if effect, ok := m.cancel(FocusTimer); ok {
		effects = append(effects, effect)
	}
	if m.phase == Closed || m.phase == Closing {
		m.phase = Opening
	}
	m.state.OverlayOpen = true
	m.state.OverlayVisible = true
	return append(effects, m.schedule(FocusTimer, FocusDelay))
}

func (m *Machine) close() []Effect {
	if m.phase != Opening && m.phase != Open {
		return nil
	}
	var effects []Effect
	if effect, ok := m.cancel(FocusTimer); ok {
		effects = append(effects, effect)
	}
	m.phase = Closing
	m.state.OverlayOpen = false
	return append(effects, m.schedule(FadeTimer, FadeDuration))
}

func (m *Machine) elapsed(ev TimerElapsed) []Effect {
	if gen, ok := m.timers[ev.Timer]; !ok || gen != ev.Gen {
		return nil
	}
	delete(m.timers, ev.Timer)

	switch ev.Timer {
	case FocusTimer:
		if m.phase == Opening {
			m.phase = Open
		}
		if m.phase == Open {
			return []Effect{FocusInput{}}
		}
	case FadeTimer:
		if m.phase == Closing {
			m.phase = Closed
			m.state.OverlayVisible = false
			m.state.Query = ""
			m.err = nil
			m.replace(nil)
		}
	}
	return nil
}

func (m *Machine) query(text string) []Effect {
	if m.phase != Opening && m.phase != Open {
		return nil
	}
	m.state.Query = text
	if m.opts.Searcher == nil {
		return nil
	}

	results, err := m.opts.Searcher.Query(text, m.opts.Limit)
	m.err = err
	if err != nil {
		m.logger.Debug("search failed", "query", text, "error", err)
		results = nil
	}
	m.replace(results)
	return nil
}

func (m *Machine) replace(results []search.SearchDoc) {
	m.state.Results = append([]search.SearchDoc(nil), results...)
	m.state.SelectedIndex = 0
}

func (m *Machine) activate() []Effect {
	doc, ok := m.state.Selected()
	if !ok {
		return nil
	}
	target, ok := Target(doc)
	if !ok {
		m.logger.Warn("no navigation target for result", "id", doc.ID)
		return nil
	}
	url, err := ResolveURL(m.opts.BaseURL, target)
	if err != nil {
		m.logger.Warn("resolve navigation url", "id", doc.ID, "error", err)
		return nil
	}
	return []Effect{Navigate{URL: url, Doc: doc}}
}

func (m *Machine) schedule(timer Timer, delay time.Duration) Effect {
	m.gen++
	m.timers[timer] = m.gen
	return ScheduleTimer{Timer: timer, Delay: delay, Gen: m.gen}
}

func (m *Machine) cancel(timer Timer) (Effect, bool) {
	gen, ok := m.timers[timer]
	if !ok {
		return nil, false
	}
	delete(m.timers, timer)
	return CancelTimer{Timer: timer, Gen: gen}, true
}
