package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle    key.Binding
	Stop      key.Binding
	Restart   key.Binding
	Faster    key.Binding
	Slower    key.Binding
	NextVoice key.Binding
	PrevVoice key.Binding
	Copy      key.Binding
	Up        key.Binding
	Down      key.Binding
	Follow    key.Binding
	Suspend   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle:    key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		Stop:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Restart:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		Faster:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		Slower:    key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
		NextVoice: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "next voice")),
		PrevVoice: key.NewBinding(key.WithKeys("V"), key.WithHelp("V", "previous voice")),
		Copy:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy chunk")),
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "scroll up")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "scroll down")),
		Follow:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "follow playback")),
		Suspend:   key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "suspend")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Stop, k.Faster, k.Slower, k.NextVoice, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Stop, k.Restart},
		{k.Faster, k.Slower, k.NextVoice, k.PrevVoice},
		{k.Up, k.Down, k.Follow, k.Copy},
		{k.Suspend, k.Help, k.Quit},
	}
}
