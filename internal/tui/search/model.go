// Package search is the terminal rendition of the search overlay.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Paintersrp/textsearch/internal/highlight"
	"github.com/Paintersrp/textsearch/internal/overlay"
	"github.com/Paintersrp/textsearch/internal/runtime"
	"github.com/Paintersrp/textsearch/internal/state"
)

// ExcerptLength is the number of content runes shown under each result.
const ExcerptLength = 200

type timerMsg struct {
	timer overlay.Timer
	gen   uint64
}

type navigatedMsg struct {
	url string
	err error
}

// Options configures the overlay model.
type Options struct {
	Navigator overlay.Navigator
	BaseURL   string
	Mac       bool
	Limit     int
	// Heartbeat refreshes the footer status line, typically
	// state.State.IndexHeartbeatCmd.
	Heartbeat func() tea.Cmd
	// OpenOnStart opens the overlay as soon as the program starts.
	OpenOnStart bool
	Logger      *slog.Logger
}

// Model hosts an overlay.Machine in a bubbletea program.
type Model struct {
	machine   *overlay.Machine
	input     textinput.Model
	keys      keyMap
	navigator overlay.Navigator
	heartbeat func() tea.Cmd
	openFirst bool

	status      string
	statusLine  string
	panelHeight int
	width       int
	height      int
}

// NewModel builds the overlay over searcher.
func NewModel(searcher runtime.Searcher, opts Options) *Model {
	input := textinput.New()
	input.Placeholder = "Search documentation"
	input.Prompt = "› "
	input.CharLimit = 256

	navigator := opts.Navigator
	if navigator == nil {
		navigator = overlay.BrowserNavigator{}
	}

	return &Model{
		machine: overlay.New(overlay.Options{
			Searcher: searcher,
			Limit:    opts.Limit,
			Mac:      opts.Mac,
			BaseURL:  opts.BaseURL,
			Logger:   opts.Logger,
		}),
		input:     input,
		keys:      newKeyMap(),
		navigator: navigator,
		heartbeat: opts.Heartbeat,
		openFirst: opts.OpenOnStart,
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.heartbeat != nil {
		cmds = append(cmds, m.heartbeat())
	}
	if m.openFirst {
		shortcut := overlay.KeyPress{Key: "k", Ctrl: true, Meta: true, Shift: true}
		cmds = append(cmds, m.perform(m.machine.Dispatch(shortcut)))
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-12, 10)
		return m, nil
	case timerMsg:
		return m, m.perform(m.machine.Dispatch(overlay.TimerElapsed{Timer: msg.timer, Gen: msg.gen}))
	case navigatedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("navigation failed: %v", msg.err))
		} else {
			m.status = statusMessageStyle(fmt.Sprintf("opened %s", msg.url))
		}
		return m, nil
	case state.IndexStatsMsg:
		m.statusLine = msg.Line
		return m, nil
	case tea.MouseMsg:
		if msg.Type == tea.MouseLeft && m.machine.State().OverlayVisible && msg.Y >= m.panelHeight {
			return m, m.perform(m.machine.Dispatch(overlay.OutsideClick{}))
		}
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.machine.Teardown()
			return m, tea.Quit
		}
		if press, ok := m.keys.keyPress(msg); ok {
			return m, m.perform(m.machine.Dispatch(press))
		}
		if !m.interactive() {
			if msg.String() == "q" {
				m.machine.Teardown()
				return m, tea.Quit
			}
			return m, nil
		}
	}

	if !m.interactive() {
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.machine.Dispatch(overlay.QueryChanged{Query: after})
	}
	return m, cmd
}

func (m *Model) interactive() bool {
	phase := m.machine.Phase()
	return phase == overlay.Opening || phase == overlay.Open
}

// perform turns machine effects into bubbletea commands.
func (m *Model) perform(effects []overlay.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, effect := range effects {
		switch effect := effect.(type) {
		case overlay.ScheduleTimer:
			timer, gen := effect.Timer, effect.Gen
			cmds = append(cmds, tea.Tick(effect.Delay, func(time.Time) tea.Msg {
				return timerMsg{timer: timer, gen: gen}
			}))
		case overlay.FocusInput:
			cmds = append(cmds, m.input.Focus())
		case overlay.Navigate:
			navigator, url := m.navigator, effect.URL
			cmds = append(cmds, func() tea.Msg {
				return navigatedMsg{url: url, err: navigator.Navigate(context.Background(), url)}
			})
		case overlay.CancelTimer:
			// Stale ticks are dropped by the machine's generation check.
		}
	}

	// The input is cleared with the query once the fade completes.
	if m.machine.Phase() == overlay.Closed && m.input.Value() != "" {
		m.input.Reset()
		m.input.Blur()
	}
	if m.machine.Phase() == overlay.Closing {
		m.input.Blur()
	}
	return tea.Batch(cmds...)
}

func (m *Model) View() string {
	st := m.machine.State()

	var b strings.Builder
	b.WriteString(titleStyle.Render("textsearch"))
	b.WriteString("\n\n")

	if st.OverlayVisible {
		panel := m.panel(st)
		b.WriteString(panel)
		b.WriteString("\n")
		m.panelHeight = lipgloss.Height(panel) + 3
	} else {
		b.WriteString(helpStyle.Render(fmt.Sprintf("press %s to search · %s to quit", m.keys.open.Help().Key, m.keys.quit.Help().Key)))
		b.WriteString("\n")
		m.panelHeight = 0
	}

	if footer := m.footer(); footer != "" {
		b.WriteString("\n")
		b.WriteString(footer)
	}
	return appStyle.Render(b.String())
}

func (m *Model) panel(st overlay.State) string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch {
	case errors.Is(m.machine.Err(), runtime.ErrUnavailable):
		b.WriteString(errorStyle.Render("Search index unavailable. Run `textsearch build` first."))
	case len(st.Results) == 0 && len([]rune(st.Query)) >= runtime.MinQueryLength:
		b.WriteString(helpStyle.Render("No results"))
	case len(st.Results) > 0:
		for i, doc := range st.Results {
			b.WriteString("\n")
			title := resultTitleStyle.Render(doc.DisplayTitle())
			if i == st.SelectedIndex {
				title = selectedItemStyle.Render("▸ " + doc.DisplayTitle())
			}
			b.WriteString(title)
			b.WriteString("\n")
			b.WriteString(renderExcerpt(highlight.Find(doc.Content, st.Query, ExcerptLength/2), ExcerptLength))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.helpLine())

	style := panelStyle
	if m.machine.Phase() == overlay.Closing {
		style = fadingPanelStyle
	}
	if m.width > 0 {
		style = style.Copy().Width(max(m.width-6, 20))
	}
	return style.Render(b.String())
}

func (m *Model) helpLine() string {
	parts := make([]string, 0, len(m.keys.help()))
	for _, binding := range m.keys.help() {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " · "))
}

func (m *Model) footer() string {
	var lines []string
	if m.status != "" {
		lines = append(lines, m.status)
	}
	if m.statusLine != "" {
		lines = append(lines, helpStyle.Render(m.statusLine))
	}
	return strings.Join(lines, "\n")
}

// renderExcerpt styles the match and clips the excerpt to limit runes,
// appending "..." when text was cut.
func renderExcerpt(ex highlight.Excerpt, limit int) string {
	budget := limit
	var b strings.Builder
	clipped := false
	for i, segment := range []string{ex.Before, ex.Match, ex.After} {
		runes := []rune(segment)
		if len(runes) > budget {
			runes = runes[:budget]
			clipped = true
		}
		budget -= len(runes)
		if len(runes) == 0 {
			continue
		}
		if i == 1 {
			b.WriteString(matchStyle.Render(string(runes)))
		} else {
			b.WriteString(excerptStyle.Render(string(runes)))
		}
	}
	if clipped {
		b.WriteString(excerptStyle.Render("..."))
	}
	return b.String()
}
