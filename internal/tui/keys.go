package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the preview.
type KeyMap struct {
	// Face
	Compose key.Binding
	Clear   key.Binding
	Advance key.Binding
	Reset   key.Binding

	// Compose
	Send key.Binding
	Back key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Compose, k.Advance, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Compose, k.Clear},
		{k.Advance, k.Reset},
		{k.Send, k.Back},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Compose: key.NewBinding(
			key.WithKeys("n", "i"),
			key.WithHelp("n", "new notification"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "send empty"),
		),
		Advance: key.NewBinding(
			key.WithKeys("t", "right"),
			key.WithHelp("t/→", "advance a minute"),
		),
		Reset: key.NewBinding(
			key.WithKeys("T", "0"),
			key.WithHelp("T", "back to now"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
