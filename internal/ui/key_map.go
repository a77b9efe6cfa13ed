package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the dashboard.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	play   key.Binding
	prev   key.Binding
	toggle key.Binding
	next   key.Binding
	search key.Binding
	submit key.Binding
	back   key.Binding
	drain  key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		play:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play playlist")),
		prev:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
		toggle: key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		next:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add top match")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		drain:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "drain now")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.prev, k.toggle, k.next, k.search, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.play},
		{k.prev, k.toggle, k.next},
		{k.search, k.drain, k.quit},
	}
}
