package tts

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgnsrekt/readaloud/tts/platform"
)

// fakeEngine records requests; tests drive each request's events by hand.
type fakeEngine struct {
	mu       sync.Mutex
	voices   []Voice
	speaks   []Utterance
	current  chan SynthesisEvent
	cancels  int
	pauses   int
	resumes  int
	pauseErr error
	speakErr error
}

func newFakeEngine(voices ...Voice) *fakeEngine {
	if len(voices) == 0 {
		voices = []Voice{
			{Name: "Deutsch", Locale: "de-DE"},
			{Name: "English (America)", Locale: "en-US"},
		}
	}
	return &fakeEngine{voices: voices}
}

func (f *fakeEngine) Speak(u Utterance) (<-chan SynthesisEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.speaks = append(f.speaks, u)
	if f.speakErr != nil {
		return nil, f.speakErr
	}
	ch := make(chan SynthesisEvent, 64)
	ch <- SynthesisEvent{Type: SynthesisStart}
	f.current = ch
	return ch, nil
}

// Cancel reports the interruption but leaves the channel open so tests can
// push late events through it.
func (f *fakeEngine) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancels++
	if f.current != nil {
		f.current <- SynthesisEvent{Type: SynthesisError, Err: ErrInterrupted}
		f.current = nil
	}
}

func (f *fakeEngine) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return f.pauseErr
}

func (f *fakeEngine) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
	return nil
}

func (f *fakeEngine) Voices() []Voice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Voice(nil), f.voices...)
}

func (f *fakeEngine) setVoices(voices []Voice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voices = voices
}

func (f *fakeEngine) send(ev SynthesisEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != nil {
		f.current <- ev
	}
}

func (f *fakeEngine) boundary(i int) {
	f.send(SynthesisEvent{Type: SynthesisBoundary, CharIndex: i})
}

// finish ends the current request with ev.
func (f *fakeEngine) finish(ev SynthesisEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != nil {
		f.current <- ev
		close(f.current)
		f.current = nil
	}
}

func (f *fakeEngine) end() {
	f.finish(SynthesisEvent{Type: SynthesisEnd})
}

func (f *fakeEngine) fail(err error) {
	f.finish(SynthesisEvent{Type: SynthesisError, Err: err})
}

func (f *fakeEngine) speakCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.speaks)
}

func (f *fakeEngine) utterances() []Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Utterance(nil), f.speaks...)
}

func (f *fakeEngine) counts() (cancels, pauses, resumes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels, f.pauses, f.resumes
}

type fakeWatchingEngine struct {
	*fakeEngine
	changed chan struct{}
}

func (f *fakeWatchingEngine) VoicesChanged() <-chan struct{} {
	return f.changed
}

type countingHandle struct {
	released atomic.Bool
	provider *countingProvider
}

func (h *countingHandle) Release() error {
	time.Sleep(h.provider.releaseDelay)
	if h.released.CompareAndSwap(false, true) {
		h.provider.releases.Add(1)
	}
	return nil
}

func (h *countingHandle) Released() bool { return h.released.Load() }

type countingProvider struct {
	acquires     atomic.Int32
	releases     atomic.Int32
	releaseDelay time.Duration

	mu   sync.Mutex
	last *countingHandle
}

func (p *countingProvider) Acquire(context.Context) (platform.WakeLockHandle, error) {
	p.acquires.Add(1)
	h := &countingHandle{provider: p}
	p.mu.Lock()
	p.last = h
	p.mu.Unlock()
	return h, nil
}

// revoke simulates the platform dropping the grant, as when the screen
// turns off.
func (p *countingProvider) revoke() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last != nil {
		p.last.released.Store(true)
	}
}

// recorder collects observer callbacks in delivery order.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observer() Observer {
	return Observer{
		OnStateChange: func(s StateSnapshot) {
			r.add(StateEvent{Snapshot: s})
		},
		OnProgressChange: func(current, total int) {
			r.add(ProgressEvent{Current: current, Total: total})
		},
		OnError: func(err *TTSError) {
			r.add(ErrorEvent{Err: err})
		},
	}
}

func (r *recorder) add(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) states() []StateType {
	var states []StateType
	for _, ev := range r.all() {
		if s, ok := ev.(StateEvent); ok {
			states = append(states, s.Snapshot.State)
		}
	}
	return states
}

func (r *recorder) snapshots() []StateSnapshot {
	var snaps []StateSnapshot
	for _, ev := range r.all() {
		if s, ok := ev.(StateEvent); ok {
			snaps = append(snaps, s.Snapshot)
		}
	}
	return snaps
}

func (r *recorder) progress() []int {
	var out []int
	for _, ev := range r.all() {
		if p, ok := ev.(ProgressEvent); ok {
			out = append(out, p.Current)
		}
	}
	return out
}

func (r *recorder) errors() []*TTSError {
	var out []*TTSError
	for _, ev := range r.all() {
		if e, ok := ev.(ErrorEvent); ok {
			out = append(out, e.Err)
		}
	}
	return out
}

func (r *recorder) hasState(state StateType) bool {
	for _, s := range r.states() {
		if s == state {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testConfig(class platform.DeviceClass, maxChunk int) ControllerConfig {
	cfg := DefaultControllerConfig()
	cfg.Profile = platform.NewProfile(class, platform.Options{
		MobileChunkSize:  maxChunk,
		DesktopChunkSize: maxChunk,
		DisableKeepAlive: true,
	})
	cfg.ChunkGap = time.Millisecond
	cfg.ErrorDelay = 5 * time.Millisecond
	return cfg
}

// fiveChunks splits into five one-sentence chunks at a limit of 15.
const fiveChunks = "<p>Alpha one. Bravo two.</p><p>Charlie three. Delta four. Echo five.</p>"

type harness struct {
	t      *testing.T
	engine *fakeEngine
	rec    *recorder
	c      *Controller
}

func newHarness(t *testing.T, engine *fakeEngine, cfg ControllerConfig) *harness {
	t.Helper()
	rec := &recorder{}
	c := NewController(engine, cfg, rec.observer())
	t.Cleanup(c.Destroy)
	return &harness{t: t, engine: engine, rec: rec, c: c}
}

// endChunk finishes the current request and waits for the controller to
// issue the next one.
func (h *harness) endChunk() {
	h.t.Helper()
	n := h.engine.speakCount()
	h.engine.end()
	waitFor(h.t, "next request", func() bool { return h.engine.speakCount() == n+1 })
}
