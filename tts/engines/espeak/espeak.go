// Package espeak speaks utterances with the espeak-ng command line
// synthesizer and plays the result through the audio package.
package espeak

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/internal/cache"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/audio"
)

// Accepted ranges of the espeak-ng -s and -p flags.
const (
	minWPM   = 80
	maxWPM   = 450
	maxPitch = 99
)

// boundaryInterval is how often playback progress is mapped to boundaries.
var boundaryInterval = 50 * time.Millisecond

// runner executes the synthesizer with text on stdin and returns stdout.
type runner func(ctx context.Context, input string, name string, args ...string) ([]byte, error)

// Engine implements tts.SpeechEngine and tts.VoiceWatcher on espeak-ng.
type Engine struct {
	config tts.EspeakConfig
	player *audio.Player
	cache  *cache.Cache
	run    runner

	mu      sync.Mutex
	voices  []tts.Voice
	current *request
	changed chan struct{}
}

// New creates an engine. Voices are listed in the background and announced
// on VoicesChanged.
func New(config tts.EspeakConfig, player *audio.Player, c *cache.Cache) (*Engine, error) {
	path, err := exec.LookPath(config.Binary)
	if err != nil {
		return nil, fmt.Errorf("espeak-ng not found: %w", err)
	}
	config.Binary = path

	e := newEngine(config, player, c, execute)
	go e.loadVoices()
	return e, nil
}

func newEngine(config tts.EspeakConfig, player *audio.Player, c *cache.Cache, run runner) *Engine {
	return &Engine{
		config:  config,
		player:  player,
		cache:   c,
		run:     run,
		changed: make(chan struct{}, 1),
	}
}

func (e *Engine) loadVoices() {
	ctx, cancel := context.WithTimeout(context.Background(), e.config.Timeout)
	defer cancel()

	out, err := e.run(ctx, "", e.config.Binary, "--voices")
	if err != nil {
		log.Warn("Failed to list espeak-ng voices", "error", err)
		return
	}
	voices := parseVoices(string(out))
	log.Debug("espeak-ng voices loaded", "count", len(voices))

	e.mu.Lock()
	e.voices = voices
	e.mu.Unlock()

	select {
	case e.changed <- struct{}{}:
	default:
	}
}

// Voices returns the voices listed so far.
func (e *Engine) Voices() []tts.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tts.Voice(nil), e.voices...)
}

// VoicesChanged fires once the voice list is available.
func (e *Engine) VoicesChanged() <-chan struct{} {
	return e.changed
}

// Speak synthesizes u and starts playing it. Any earlier request is
// interrupted.
func (e *Engine) Speak(u tts.Utterance) (<-chan tts.SynthesisEvent, error) {
	if strings.TrimSpace(u.Text) == "" {
		return nil, tts.ErrNoContent
	}

	e.mu.Lock()
	if e.current != nil {
		e.current.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &request{
		events: make(chan tts.SynthesisEvent, 16),
		ctx:    ctx,
		cancel: cancel,
	}
	e.current = r
	e.mu.Unlock()

	go func() {
		e.speak(r, u)
		e.mu.Lock()
		if e.current == r {
			e.current = nil
		}
		e.mu.Unlock()
	}()
	return r.events, nil
}

// Cancel interrupts the current request.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		e.current.cancel()
		e.current = nil
	}
}

// Pause pauses the current playback. A request still synthesizing starts
// paused.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		e.current.setPaused(true)
	}
	return nil
}

// Resume continues the current playback.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		e.current.setPaused(false)
	}
	return nil
}

// String returns a string representation of the engine.
func (e *Engine) String() string {
	return "espeak-ng(" + e.config.Binary + ")"
}

func (e *Engine) speak(r *request, u tts.Utterance) {
	defer close(r.events)

	pcm, err := e.synthesize(r.ctx, u)
	if r.ctx.Err() != nil {
		r.events <- tts.SynthesisEvent{Type: tts.SynthesisError, Err: tts.ErrInterrupted}
		return
	}
	if err != nil {
		r.events <- tts.SynthesisEvent{Type: tts.SynthesisError, Err: fmt.Errorf("%w: %w", tts.ErrSynthesisFailed, err)}
		return
	}

	pb, err := r.start(e.player, pcm)
	if err != nil {
		r.events <- tts.SynthesisEvent{Type: tts.SynthesisError, Err: fmt.Errorf("%w: %w", tts.ErrSynthesisFailed, err)}
		return
	}
	r.events <- tts.SynthesisEvent{Type: tts.SynthesisStart}

	words := wordStarts(u.Text)
	length := len([]rune(u.Text))
	next := 0
	emit := func(progress float64) {
		at := int(progress * float64(length))
		for next < len(words) && words[next] <= at {
			r.events <- tts.SynthesisEvent{Type: tts.SynthesisBoundary, CharIndex: words[next]}
			next++
		}
	}

	ticker := time.NewTicker(boundaryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			pb.Stop()
			r.events <- tts.SynthesisEvent{Type: tts.SynthesisError, Err: tts.ErrInterrupted}
			return
		case <-pb.Done():
			if !pb.Finished() {
				r.events <- tts.SynthesisEvent{Type: tts.SynthesisError, Err: tts.ErrInterrupted}
				return
			}
			emit(1)
			r.events <- tts.SynthesisEvent{Type: tts.SynthesisEnd}
			return
		case <-ticker.C:
			emit(pb.Progress())
		}
	}
}

// synthesize returns the PCM for u from the cache or from espeak-ng.
func (e *Engine) synthesize(ctx context.Context, u tts.Utterance) ([]byte, error) {
	args := e.args(u)
	key := cache.Key(u.Text, strings.Join(args, " "), u.Rate, u.Pitch)
	if pcm, ok := e.cache.Get(key); ok {
		log.Debug("espeak-ng cache hit", "key", key)
		return pcm, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	started := time.Now()
	out, err := e.run(ctx, u.Text, e.config.Binary, args...)
	if err != nil {
		return nil, err
	}
	pcm, rate, err := stripWAV(out)
	if err != nil {
		return nil, err
	}
	if rate != e.player.SampleRate() {
		log.Warn("espeak-ng sample rate differs from the audio output", "wav", rate, "output", e.player.SampleRate())
	}
	log.Debug("espeak-ng synthesized", "bytes", len(pcm), "took", time.Since(started))

	e.cache.Put(key, pcm)
	return pcm, nil
}

// args maps utterance settings onto espeak-ng flags. Rate 1.0 speaks at the
// configured WPM and pitch 1.0 at the configured pitch.
func (e *Engine) args(u tts.Utterance) []string {
	wpm := clampInt(int(float64(e.config.WPM)*u.Rate+0.5), minWPM, maxWPM)
	pitch := clampInt(int(float64(e.config.Pitch)*u.Pitch+0.5), 0, maxPitch)

	args := []string{"--stdout", "--stdin", "-s", strconv.Itoa(wpm), "-p", strconv.Itoa(pitch)}
	if v := voiceName(u.Voice); v != "" {
		args = append(args, "-v", v)
	}
	return args
}

func voiceName(v tts.Voice) string {
	if v.Locale != "" {
		return v.Locale
	}
	return v.Name
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// wordStarts returns the rune offset of every word in s.
func wordStarts(s string) []int {
	var starts []int
	inWord := false
	i := 0
	for _, r := range s {
		space := r == ' ' || r == '\n' || r == '\t'
		if !space && !inWord {
			starts = append(starts, i)
		}
		inWord = !space
		i++
	}
	return starts
}

// execute runs name with input on stdin. Stdin is wired before the process
// starts.
func execute(ctx context.Context, input string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("espeak-ng timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("espeak-ng cancelled: %w", ctx.Err())
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("espeak-ng failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("espeak-ng failed: %w", err)
	}
	return stdout.Bytes(), nil
}

type request struct {
	events chan tts.SynthesisEvent
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	paused   bool
	playback *audio.Playback
}

// start begins playback, paused if Pause arrived during synthesis.
func (r *request) start(player *audio.Player, pcm []byte) (*audio.Playback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pb, err := player.Play(pcm)
	if err != nil {
		return nil, err
	}
	if r.paused {
		pb.Pause()
	}
	r.playback = pb
	return pb, nil
}

func (r *request) setPaused(p bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.paused = p
	if r.playback == nil {
		return
	}
	if p {
		r.playback.Pause()
	} else {
		r.playback.Resume()
	}
}
