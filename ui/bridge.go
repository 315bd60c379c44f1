package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/readaloud/tts"
)

// Messages delivered from the controller to the program.
type (
	stateMsg    tts.StateSnapshot
	progressMsg struct{ current, total int }
	errorMsg    struct{ err *tts.TTSError }
)

// StatusMsg shows a transient note in the status bar.
type StatusMsg string

// Bridge turns controller callbacks into Bubble Tea messages. The controller
// is built before the program, so events wait in a channel until the model
// starts listening.
type Bridge struct {
	events chan tea.Msg
	done   chan struct{}
	once   sync.Once
}

// NewBridge creates a bridge.
func NewBridge() *Bridge {
	return &Bridge{
		events: make(chan tea.Msg, 64),
		done:   make(chan struct{}),
	}
}

// Observer returns the callbacks to hand to tts.NewController.
func (b *Bridge) Observer() tts.Observer {
	return tts.Observer{
		OnStateChange: func(s tts.StateSnapshot) {
			b.send(stateMsg(s))
		},
		OnProgressChange: func(current, total int) {
			b.send(progressMsg{current: current, total: total})
		},
		OnError: func(err *tts.TTSError) {
			b.send(errorMsg{err: err})
		},
	}
}

// send blocks until the model takes the message or the bridge closes, so no
// state change is ever dropped.
func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.events <- msg:
	case <-b.done:
	}
}

// listen waits for the next controller message.
func (b *Bridge) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.events:
			return msg
		case <-b.done:
			return nil
		}
	}
}

// Close unblocks pending sends. Later events are discarded.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}
