package gesture

import "github.com/charmbracelet/bubbles/key"

// KeyMap binds keys to intents.
type KeyMap struct {
	Next     key.Binding
	Previous key.Binding
	Filter   key.Binding
	Back     key.Binding
	Refresh  key.Binding
	Open     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("right", "down", "j", " "),
			key.WithHelp("→/↓/j", "next"),
		),
		Previous: key.NewBinding(
			key.WithKeys("left", "up", "k"),
			key.WithHelp("←/↑/k", "previous"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "categories"),
		),
		Back: key.NewBinding(
			key.WithKeys("b", "esc"),
			key.WithHelp("b/esc", "back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open page"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Previous, k.Filter, k.Open, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Previous},
		{k.Filter, k.Back, k.Refresh},
		{k.Open, k.Quit},
	}
}

func (k KeyMap) match(ev Key) (IntentKind, bool) {
	switch {
	case key.Matches(ev, k.Next):
		return Next, true
	case key.Matches(ev, k.Previous):
		return Previous, true
	case key.Matches(ev, k.Filter):
		return ShowFilterView, true
	case key.Matches(ev, k.Back):
		return ShowMainView, true
	case key.Matches(ev, k.Refresh):
		return Refresh, true
	case key.Matches(ev, k.Open):
		return OpenExternal, true
	case key.Matches(ev, k.Quit):
		return Quit, true
	}
	return 0, false
}
