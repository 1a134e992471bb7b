package update

import (
	"github.com/charmbracelet/bubbles/key"
)

type helpKeyMap struct {
	Today   key.Binding
	Meds    key.Binding
	History key.Binding
	Take    key.Binding
	Snooze  key.Binding
	Add     key.Binding
	Editor  key.Binding
	Pause   key.Binding
	Clear   key.Binding
	Palette key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newHelpKeyMap() helpKeyMap {
	return helpKeyMap{
		Today:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "today view")),
		Meds:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "medications view")),
		History: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "history view")),
		Take:    key.NewBinding(key.WithKeys("t", "enter"), key.WithHelp("t", "take dose")),
		Snooze:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "snooze dose")),
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "quick add medication")),
		Editor:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "edit schedule")),
		Pause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume schedule")),
		Clear:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear history")),
		Palette: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command palette")),
		Refresh: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "refresh data")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k helpKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Take, k.Snooze, k.Add, k.Palette, k.Help, k.Quit}
}

func (k helpKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Today, k.Meds, k.History},
		{k.Take, k.Snooze, k.Add, k.Editor, k.Pause},
		{k.Clear, k.Palette, k.Refresh, k.Help, k.Quit},
	}
}
