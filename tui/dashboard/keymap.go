package dashboard

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard keybindings.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Add         key.Binding
	Remove      key.Binding
	BatteryUp   key.Binding
	BatteryDown key.Binding
	Cycle       key.Binding
	Return      key.Binding
	Mode        key.Binding
	Filter      key.Binding
	Search      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap is the default set of keybindings.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add robot"),
	),
	Remove: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "remove last"),
	),
	BatteryUp: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "battery +10"),
	),
	BatteryDown: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "battery -10"),
	),
	Cycle: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "cycle status"),
	),
	Return: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "return to base"),
	),
	Mode: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "name/status filter"),
	),
	Filter: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "next status"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search name"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Cycle, k.Return, k.Mode, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Add, k.Remove},
		{k.BatteryUp, k.BatteryDown, k.Cycle, k.Return},
		{k.Mode, k.Filter, k.Search, k.Help, k.Quit},
	}
}
