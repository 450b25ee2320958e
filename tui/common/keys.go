package common

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines key bindings shared by the views that are not gestures.
type KeyMap struct {
	ForceQuit   key.Binding
	ToggleHints key.Binding

	// Category picker.
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Add    key.Binding
	Remove key.Binding // d: drop a custom category
	Edit   key.Binding // e: edit the custom list in $EDITOR
	Back   key.Binding
	Submit key.Binding // enter: confirm the inline input
	Cancel key.Binding // esc: abandon the inline input
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		ToggleHints: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "keys"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Choose: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "show category"),
		),
		Add: key.NewBinding(
			key.WithKeys("a", "+"),
			key.WithHelp("a", "add category"),
		),
		Remove: key.NewBinding(
			key.WithKeys("d", "x"),
			key.WithHelp("d", "remove custom"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit list ($EDITOR)"),
		),
		Back: key.NewBinding(
			key.WithKeys("b", "esc", "f"),
			key.WithHelp("b/esc", "back"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp implements help.KeyMap for the category picker.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Choose, k.Add, k.Remove, k.Back}
}

// FullHelp implements help.KeyMap for the category picker.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Choose},
		{k.Add, k.Remove, k.Edit},
		{k.Back, k.ToggleHints, k.ForceQuit},
	}
}
