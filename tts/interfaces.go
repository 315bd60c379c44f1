package tts

import (
	"github.com/dgnsrekt/readaloud/tts/voice"
)

// Voice is a synthesis voice reported by an engine.
type Voice = voice.Voice

// SpeechEngine is the host speech synthesis capability. The controller never
// has more than one request outstanding.
type SpeechEngine interface {
	// Speak starts speaking an utterance. The returned channel delivers the
	// request's events and is closed after SynthesisEnd or SynthesisError.
	// Speak must not block on playback.
	Speak(u Utterance) (<-chan SynthesisEvent, error)

	// Cancel ends the current request. Its channel reports an error that
	// wraps ErrInterrupted or ErrCanceled. Cancel must not wait for the
	// consumer to drain events.
	Cancel()

	// Pause suspends the current request in place. Engines that cannot do
	// so return ErrPauseUnsupported.
	Pause() error

	// Resume continues a paused request.
	Resume() error

	// Voices returns the voices known so far. The list may be empty until
	// the platform has finished loading it.
	Voices() []Voice
}

// VoiceWatcher is implemented by engines whose voice list is populated
// after construction.
type VoiceWatcher interface {
	// VoicesChanged signals every time the voice list changes.
	VoicesChanged() <-chan struct{}
}

// Utterance is one synthesis request.
type Utterance struct {
	Text  string
	Rate  float64 // 1.0 is the engine's normal speed
	Pitch float64 // 1.0 is the engine's normal pitch
	Voice Voice
}

// SynthesisEventType identifies a synthesis lifecycle signal.
type SynthesisEventType int

const (
	// SynthesisStart is sent when audio output begins.
	SynthesisStart SynthesisEventType = iota
	// SynthesisBoundary is sent at word boundaries.
	SynthesisBoundary
	// SynthesisEnd is sent when the utterance finished normally.
	SynthesisEnd
	// SynthesisError is sent when the utterance failed or was cancelled.
	SynthesisError
)

// String returns the string representation of the event type.
func (t SynthesisEventType) String() string {
	switch t {
	case SynthesisStart:
		return "start"
	case SynthesisBoundary:
		return "boundary"
	case SynthesisEnd:
		return "end"
	case SynthesisError:
		return "error"
	default:
		return "unknown"
	}
}

// SynthesisEvent is a signal from an in-flight request.
type SynthesisEvent struct {
	Type      SynthesisEventType
	CharIndex int   // rune offset within the utterance, for boundaries
	Err       error // set for SynthesisError
}
