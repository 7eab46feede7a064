package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play    key.Binding
	Back    key.Binding
	Forward key.Binding
	Next    key.Binding
	Prev    key.Binding
	Toggle  key.Binding
	Demo    key.Binding
	Export  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Play:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		Back:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "-5s")),
		Forward: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "+5s")),
		Next:    key.NewBinding(key.WithKeys("tab", "down", "j"), key.WithHelp("tab", "next entity")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab", "up", "k"), key.WithHelp("shift+tab", "prev entity")),
		Toggle:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "highlight")),
		Demo:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next demo")),
		Export:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Back, k.Forward, k.Next, k.Toggle, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Back, k.Forward},
		{k.Next, k.Prev, k.Toggle},
		{k.Demo, k.Export, k.Help, k.Quit},
	}
}
