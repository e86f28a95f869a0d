package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the renderer's key bindings.
type KeyMap struct {
	Quit  key.Binding
	Reset key.Binding
	Plain key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Plain: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "plain text"),
		),
	}
}
