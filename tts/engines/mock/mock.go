// Package mock provides a deterministic in-process speech engine for demos
// and tests. It produces no audio: it walks the utterance word by word at
// the configured speed and reports boundaries as a real engine would.
package mock

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/tts"
)

// ErrInjected is reported for utterances matching Options.FailOn.
var ErrInjected = errors.New("mock: injected failure")

// DefaultVoices are used when no voices are configured.
var DefaultVoices = []tts.Voice{
	{Name: "Mock Voice 1", Locale: "en-US"},
	{Name: "Mock Voice 2", Locale: "en-GB"},
	{Name: "Mock Stimme", Locale: "de-DE"},
}

// Options configure the mock engine.
type Options struct {
	WordsPerMinute int           // speaking speed at rate 1.0
	StartDelay     time.Duration // latency before a request starts
	FailOn         string        // utterances containing this text fail
	NativePause    bool          // false makes Pause return ErrPauseUnsupported
	Voices         []tts.Voice   // nil uses DefaultVoices
	VoiceDelay     time.Duration // voices appear only after this delay
}

// Engine implements tts.SpeechEngine and tts.VoiceWatcher.
type Engine struct {
	opts Options

	mu         sync.Mutex
	voices     []tts.Voice
	current    *request
	utterances []tts.Utterance
	failNext   error
	changed    chan struct{}
}

// New creates a new mock engine.
func New(opts Options) *Engine {
	if opts.WordsPerMinute <= 0 {
		opts.WordsPerMinute = 180
	}
	if opts.Voices == nil {
		opts.Voices = DefaultVoices
	}

	e := &Engine{
		opts:    opts,
		changed: make(chan struct{}, 1),
	}
	if opts.VoiceDelay > 0 {
		time.AfterFunc(opts.VoiceDelay, func() { e.SetVoices(opts.Voices) })
	} else {
		e.voices = append([]tts.Voice(nil), opts.Voices...)
	}
	return e
}

// FromConfig creates a mock engine from its configuration section.
func FromConfig(cfg tts.MockConfig) *Engine {
	opts := Options{
		WordsPerMinute: cfg.WordsPerMinute,
		StartDelay:     cfg.StartDelay,
		FailOn:         cfg.FailOn,
		NativePause:    cfg.NativePause,
	}
	for _, name := range cfg.Voices {
		name, locale, _ := strings.Cut(name, ":")
		opts.Voices = append(opts.Voices, tts.Voice{Name: strings.TrimSpace(name), Locale: strings.TrimSpace(locale)})
	}
	return New(opts)
}

// Speak starts walking through u.
func (e *Engine) Speak(u tts.Utterance) (<-chan tts.SynthesisEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.utterances = append(e.utterances, u)
	if err := e.failNext; err != nil {
		e.failNext = nil
		return nil, err
	}
	if e.current != nil {
		// One request at a time, like a platform speech queue.
		e.current.stop()
	}

	rate := u.Rate
	if rate < tts.MinRate {
		rate = tts.MinRate
	}
	perWord := time.Duration(float64(time.Minute) / (float64(e.opts.WordsPerMinute) * rate))
	words := wordStarts(u.Text)

	var fail error
	if e.opts.FailOn != "" && strings.Contains(u.Text, e.opts.FailOn) {
		fail = ErrInjected
	}

	r := newRequest(len(words))
	e.current = r
	go func() {
		r.run(words, perWord, e.opts.StartDelay, fail)
		e.mu.Lock()
		if e.current == r {
			e.current = nil
		}
		e.mu.Unlock()
	}()

	log.Debug("Mock speaking", "words", len(words), "per_word", perWord, "voice", u.Voice.Name)
	return r.events, nil
}

// Cancel interrupts the current request.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		e.current.stop()
		e.current = nil
	}
}

// Pause freezes the current request.
func (e *Engine) Pause() error {
	if !e.opts.NativePause {
		return tts.ErrPauseUnsupported
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		e.current.setPaused(true)
	}
	return nil
}

// Resume continues a paused request.
func (e *Engine) Resume() error {
	if !e.opts.NativePause {
		return tts.ErrPauseUnsupported
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		e.current.setPaused(false)
	}
	return nil
}

// Voices returns the voices loaded so far.
func (e *Engine) Voices() []tts.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tts.Voice(nil), e.voices...)
}

// VoicesChanged signals when SetVoices replaced the voice list.
func (e *Engine) VoicesChanged() <-chan struct{} {
	return e.changed
}

// Test control methods

// SetVoices replaces the voice list and signals watchers.
func (e *Engine) SetVoices(voices []tts.Voice) {
	e.mu.Lock()
	e.voices = append([]tts.Voice(nil), voices...)
	e.mu.Unlock()

	select {
	case e.changed <- struct{}{}:
	default:
	}
}

// FailNext makes the next Speak call return err.
func (e *Engine) FailNext(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failNext = err
}

// Utterances returns every utterance passed to Speak.
func (e *Engine) Utterances() []tts.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tts.Utterance(nil), e.utterances...)
}

// String returns a string representation of the engine.
func (e *Engine) String() string {
	return fmt.Sprintf("mock(%d wpm)", e.opts.WordsPerMinute)
}

// wordStarts returns the rune offset of every word in s.
func wordStarts(s string) []int {
	var starts []int
	inWord := false
	i := 0
	for _, r := range s {
		space := unicode.IsSpace(r)
		if !space && !inWord {
			starts = append(starts, i)
		}
		inWord = !space
		i++
	}
	return starts
}

type request struct {
	events chan tts.SynthesisEvent
	cancel chan struct{}
	once   sync.Once

	mu     sync.Mutex
	paused bool
	wake   chan struct{}
}

func newRequest(words int) *request {
	return &request{
		// Room for start, every boundary and the final event, so the
		// walker never blocks on a slow consumer.
		events: make(chan tts.SynthesisEvent, words+3),
		cancel: make(chan struct{}),
		wake:   make(chan struct{}, 1),
	}
}

func (r *request) stop() {
	r.once.Do(func() { close(r.cancel) })
}

func (r *request) setPaused(p bool) {
	r.mu.Lock()
	r.paused = p
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *request) isPaused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

func (r *request) run(words []int, perWord, startDelay time.Duration, fail error) {
	defer close(r.events)

	if !r.wait(startDelay) {
		r.events <- tts.SynthesisEvent{Type: tts.SynthesisError, Err: tts.ErrInterrupted}
		return
	}
	r.events <- tts.SynthesisEvent{Type: tts.SynthesisStart}

	for i, start := range words {
		r.events <- tts.SynthesisEvent{Type: tts.SynthesisBoundary, CharIndex: start}
		if fail != nil && i == len(words)/2 {
			r.events <- tts.SynthesisEvent{Type: tts.SynthesisError, Err: fail}
			return
		}
		if !r.wait(perWord) {
			r.events <- tts.SynthesisEvent{Type: tts.SynthesisError, Err: tts.ErrInterrupted}
			return
		}
	}
	if fail != nil {
		r.events <- tts.SynthesisEvent{Type: tts.SynthesisError, Err: fail}
		return
	}
	r.events <- tts.SynthesisEvent{Type: tts.SynthesisEnd}
}

// wait sleeps for d of unpaused time. It returns false if the request was
// cancelled first.
func (r *request) wait(d time.Duration) bool {
	remaining := d
	for {
		if r.isPaused() {
			select {
			case <-r.cancel:
				return false
			case <-r.wake:
				continue
			}
		}
		if remaining <= 0 {
			select {
			case <-r.cancel:
				return false
			default:
				return true
			}
		}

		started := time.Now()
		timer := time.NewTimer(remaining)
		select {
		case <-r.cancel:
			timer.Stop()
			return false
		case <-timer.C:
			remaining = 0
		case <-r.wake:
			timer.Stop()
			remaining -= time.Since(started)
		}
	}
}
