package search

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Paintersrp/textsearch/internal/overlay"
)

type keyMap struct {
	open  key.Binding
	close key.Binding
	down  key.Binding
	up    key.Binding
	next  key.Binding
	enter key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		open: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("ctrl+k", "search"),
		),
		close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next"),
		),
		up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous"),
		),
		next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "open"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// keyPress translates a terminal key into an overlay key event. Terminals
// cannot report shift together with ctrl+k, so ctrl+k carries every shortcut
// modifier.
func (k keyMap) keyPress(msg tea.KeyMsg) (overlay.KeyPress, bool) {
	switch {
	case key.Matches(msg, k.open):
		return overlay.KeyPress{Key: "k", Ctrl: true, Meta: true, Shift: true}, true
	case key.Matches(msg, k.close):
		return overlay.KeyPress{Key: overlay.KeyEscape}, true
	case key.Matches(msg, k.down):
		return overlay.KeyPress{Key: overlay.KeyArrowDown}, true
	case key.Matches(msg, k.up):
		return overlay.KeyPress{Key: overlay.KeyArrowUp}, true
	case key.Matches(msg, k.next):
		return overlay.KeyPress{Key: overlay.KeyTab}, true
	case key.Matches(msg, k.enter):
		return overlay.KeyPress{Key: overlay.KeyEnter}, true
	}
	return overlay.KeyPress{}, false
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.up, k.down, k.next, k.enter, k.close}
}
