package search

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Paintersrp/textsearch/internal/highlight"
	"github.com/Paintersrp/textsearch/internal/overlay"
	"github.com/Paintersrp/textsearch/internal/runtime"
	"github.com/Paintersrp/textsearch/internal/search"
	"github.com/Paintersrp/textsearch/internal/state"
)

func newSession(t *testing.T) *runtime.Session {
	t.Helper()
	idx := search.NewIndex(search.DefaultConfig())
	err := idx.Build([]search.SearchDoc{
		{ID: "docs/button", Title: "button", Content: "Buttons trigger actions", MetaTitle: "Components/Button", Type: search.TypeMDX},
		{ID: "docs/badge", Title: "badge", Content: "Badges label things", MetaTitle: "Components/Badge", Type: search.TypeMDX},
		{ID: "docs/theming", Title: "theming", Content: "Colors for buttons and badges", Type: search.TypeMDX},
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return runtime.NewSession(idx)
}

type recordingNavigator struct {
	urls []string
}

func (n *recordingNavigator) Navigate(_ context.Context, url string) error {
	n.urls = append(n.urls, url)
	return nil
}

// drain runs a command and feeds resulting messages back into the model,
// expanding batches.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 50; steps++ {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case timerMsg, navigatedMsg, state.IndexStatsMsg:
			_, follow := m.Update(msg)
			queue = append(queue, follow)
		}
	}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestOverlayOpensSearchesAndNavigates(t *testing.T) {
	nav := &recordingNavigator{}
	m := NewModel(newSession(t), Options{Navigator: nav, BaseURL: "http://localhost:6006"})
	m.Init()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlK})
	if m.machine.Phase() != overlay.Opening {
		t.Fatalf("expected opening, got %s", m.machine.Phase())
	}
	drain(t, m, cmd)
	if m.machine.Phase() != overlay.Open || !m.input.Focused() {
		t.Fatalf("expected focused open overlay, got %s focused=%v", m.machine.Phase(), m.input.Focused())
	}

	typeText(m, "butt")
	st := m.machine.State()
	if st.Query != "butt" || len(st.Results) != 2 {
		t.Fatalf("unexpected state %+v", st)
	}

	view := m.View()
	if !strings.Contains(view, "Components/Button") || !strings.Contains(view, "Buttons") {
		t.Fatalf("expected result in view, got:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := m.machine.State().SelectedIndex; got != 1 {
		t.Fatalf("expected clamped index 1, got %d", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.machine.State().SelectedIndex; got != 0 {
		t.Fatalf("expected wrapped index 0, got %d", got)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, m, cmd)
	if len(nav.urls) != 1 || nav.urls[0] != "http://localhost:6006/?path=/docs/components-button" {
		t.Fatalf("unexpected navigation %v", nav.urls)
	}
	if !strings.Contains(m.View(), "opened http://localhost:6006/?path=/docs/components-button") {
		t.Fatalf("expected navigation status in view")
	}
}

func TestOverlayEscapeFadesAndClears(t *testing.T) {
	m := NewModel(newSession(t), Options{Navigator: &recordingNavigator{}, OpenOnStart: true})
	drain(t, m, m.Init())
	typeText(m, "badge")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.machine.Phase() != overlay.Closing {
		t.Fatalf("expected closing, got %s", m.machine.Phase())
	}

	// Typing while fading is ignored.
	typeText(m, "x")
	if m.machine.State().Query != "badge" {
		t.Fatalf("expected query unchanged while closing")
	}

	drain(t, m, cmd)
	if m.machine.Phase() != overlay.Closed || m.input.Value() != "" {
		t.Fatalf("expected cleared closed overlay, got %s %q", m.machine.Phase(), m.input.Value())
	}
	if !strings.Contains(m.View(), "press ctrl+k to search") {
		t.Fatalf("expected closed hint")
	}
}

func TestOverlayOutsideClickCloses(t *testing.T) {
	m := NewModel(newSession(t), Options{OpenOnStart: true})
	drain(t, m, m.Init())
	m.View()

	m.Update(tea.MouseMsg{Type: tea.MouseLeft, Y: 0})
	if m.machine.Phase() != overlay.Open {
		t.Fatalf("expected click inside the panel to keep it open")
	}
	m.Update(tea.MouseMsg{Type: tea.MouseLeft, Y: m.panelHeight + 1})
	if m.machine.Phase() != overlay.Closing {
		t.Fatalf("expected outside click to close, got %s", m.machine.Phase())
	}
}

func TestOverlayShowsUnavailableIndex(t *testing.T) {
	var missing *runtime.Session
	m := NewModel(missing, Options{OpenOnStart: true})
	drain(t, m, m.Init())
	typeText(m, "anything")
	if !strings.Contains(m.View(), "Search index unavailable") {
		t.Fatalf("expected unavailable message, got:\n%s", m.View())
	}

	live := NewModel(newSession(t), Options{OpenOnStart: true})
	drain(t, live, live.Init())
	typeText(live, "zzz")
	if !strings.Contains(live.View(), "No results") {
		t.Fatalf("expected empty results message")
	}
}

func TestOverlayFooterShowsHeartbeat(t *testing.T) {
	hb := func() tea.Cmd {
		return func() tea.Msg { return state.IndexStatsMsg{Line: "3 documents"} }
	}
	m := NewModel(newSession(t), Options{Heartbeat: hb})
	drain(t, m, m.Init())
	if !strings.Contains(m.View(), "3 documents") {
		t.Fatalf("expected heartbeat line in footer")
	}
}

func TestRenderExcerptClips(t *testing.T) {
	ex := highlight.Excerpt{Before: strings.Repeat("a", 8), Match: "bb", After: strings.Repeat("c", 8)}
	got := renderExcerpt(ex, 12)
	if !strings.Contains(got, "bb") || !strings.HasSuffix(stripANSI(got), "...") {
		t.Fatalf("unexpected excerpt %q", got)
	}
	if n := strings.Count(stripANSI(got), "c"); n != 2 {
		t.Fatalf("expected 2 trailing runes, got %d", n)
	}
	if got := stripANSI(renderExcerpt(highlight.Excerpt{Before: "short"}, 12)); got != "short" {
		t.Fatalf("unexpected short excerpt %q", got)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEscape = false
		case !inEscape:
			b.WriteRune(r)
		}
	}
	return b.String()
}
