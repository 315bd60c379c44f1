// Package engines provides speech engine implementations and wrappers.
package engines

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/tts"
)

// FallbackEngine wraps a primary engine with automatic fallback to a
// secondary engine when the primary fails consistently. Failures are counted
// across consecutive requests: a Speak error or a non-ignorable synthesis
// error counts, a finished request resets the count.
type FallbackEngine struct {
	primary     tts.SpeechEngine
	fallback    tts.SpeechEngine
	maxFailures int

	mu            sync.Mutex
	failures      int
	usingFallback bool
	active        tts.SpeechEngine // engine serving the current request

	changed   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewFallbackEngine creates a new engine with automatic fallback capability.
func NewFallbackEngine(primary, fallback tts.SpeechEngine, maxFailures int) *FallbackEngine {
	if maxFailures < 1 {
		maxFailures = 1
	}
	f := &FallbackEngine{
		primary:     primary,
		fallback:    fallback,
		maxFailures: maxFailures,
		active:      primary,
		changed:     make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	go f.forwardVoices(voicesChanged(primary), voicesChanged(fallback))
	return f
}

func voicesChanged(e tts.SpeechEngine) <-chan struct{} {
	if w, ok := e.(tts.VoiceWatcher); ok {
		return w.VoicesChanged()
	}
	return nil
}

// forwardVoices relays voice notifications of both engines until Close.
func (f *FallbackEngine) forwardVoices(primary, fallback <-chan struct{}) {
	for {
		select {
		case <-f.done:
			return
		case _, ok := <-primary:
			if !ok {
				primary = nil
				continue
			}
		case _, ok := <-fallback:
			if !ok {
				fallback = nil
				continue
			}
		}
		f.notifyVoices()
	}
}

func (f *FallbackEngine) notifyVoices() {
	select {
	case f.changed <- struct{}{}:
	default:
	}
}

// Speak speaks u with the active engine, switching to the fallback once the
// primary has failed maxFailures times in a row.
func (f *FallbackEngine) Speak(u tts.Utterance) (<-chan tts.SynthesisEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.usingFallback {
		f.active = f.fallback
		return f.fallback.Speak(u)
	}

	events, err := f.primary.Speak(u)
	if err == nil {
		f.active = f.primary
		return f.watch(events), nil
	}

	if f.recordFailureLocked(err) {
		f.active = f.fallback
		events, ferr := f.fallback.Speak(u)
		if ferr != nil {
			return nil, fmt.Errorf("both engines failed: primary=%v, fallback=%w", err, ferr)
		}
		return events, nil
	}
	return nil, err
}

// watch forwards a primary request's events while counting its outcome.
func (f *FallbackEngine) watch(in <-chan tts.SynthesisEvent) <-chan tts.SynthesisEvent {
	out := make(chan tts.SynthesisEvent, cap(in))
	go func() {
		defer close(out)
		for ev := range in {
			switch {
			case ev.Type == tts.SynthesisEnd:
				f.recordSuccess()
			case ev.Type == tts.SynthesisError && !tts.IsIgnorable(ev.Err):
				f.mu.Lock()
				f.recordFailureLocked(ev.Err)
				f.mu.Unlock()
			}
			out <- ev
		}
	}()
	return out
}

// recordFailureLocked counts a primary failure and reports whether the
// fallback is now in use.
func (f *FallbackEngine) recordFailureLocked(err error) bool {
	f.failures++
	log.Warn("Primary engine failed", "attempt", f.failures, "max", f.maxFailures, "error", err)

	if f.failures >= f.maxFailures && !f.usingFallback {
		log.Warn("Switching to fallback engine", "failures", f.failures)
		f.usingFallback = true
		f.notifyVoices()
	}
	return f.usingFallback
}

func (f *FallbackEngine) recordSuccess() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failures > 0 && !f.usingFallback {
		log.Info("Primary engine recovered", "failures", f.failures)
		f.failures = 0
	}
}

// Cancel cancels the request on the engine serving it.
func (f *FallbackEngine) Cancel() {
	f.current().Cancel()
}

// Pause pauses the engine serving the current request.
func (f *FallbackEngine) Pause() error {
	return f.current().Pause()
}

// Resume resumes the engine serving the current request.
func (f *FallbackEngine) Resume() error {
	return f.current().Resume()
}

// Voices returns voices from the active engine.
func (f *FallbackEngine) Voices() []tts.Voice {
	f.mu.Lock()
	using := f.usingFallback
	f.mu.Unlock()

	if using {
		return f.fallback.Voices()
	}
	return f.primary.Voices()
}

// VoicesChanged fires when either engine reports new voices and when the
// engine switches between primary and fallback.
func (f *FallbackEngine) VoicesChanged() <-chan struct{} {
	return f.changed
}

// Close stops relaying voice notifications. It does not close the wrapped
// engines.
func (f *FallbackEngine) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

func (f *FallbackEngine) current() tts.SpeechEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Reset attempts to reset to primary engine.
func (f *FallbackEngine) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	switched := f.usingFallback
	f.failures = 0
	f.usingFallback = false
	f.active = f.primary
	if switched {
		f.notifyVoices()
	}
	log.Info("Reset to primary engine")
}

// Status returns the current engine status.
func (f *FallbackEngine) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.usingFallback {
		return fmt.Sprintf("Using fallback engine (primary failed %d times)", f.failures)
	}
	return fmt.Sprintf("Using primary engine (failures: %d/%d)", f.failures, f.maxFailures)
}

// UsingFallback reports whether the fallback engine is active.
func (f *FallbackEngine) UsingFallback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback
}
