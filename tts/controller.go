// Package tts implements a resumable, chunked read-aloud engine on top of a
// host speech synthesis capability.
package tts

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/tts/platform"
	"github.com/dgnsrekt/readaloud/tts/text"
	"github.com/dgnsrekt/readaloud/tts/voice"
)

// Default timings.
const (
	DefaultChunkGap   = 75 * time.Millisecond
	DefaultErrorDelay = 300 * time.Millisecond
)

// ControllerConfig holds configuration for the playback controller.
type ControllerConfig struct {
	Profile    platform.Profile          // device policies
	Family     voice.Family              // preferred voice language
	Settings   Settings                  // initial rate, pitch and voice
	VoiceName  string                    // fuzzy voice name resolved on first Start
	ChunkGap   time.Duration             // pause between chunks
	ErrorDelay time.Duration             // wait before skipping a failed chunk
	WakeLock   platform.WakeLockProvider // nil disables the wake lock
}

// DefaultControllerConfig returns a desktop configuration.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Profile:    platform.NewProfile(platform.Desktop, platform.Options{}),
		Family:     voice.English,
		Settings:   DefaultSettings(),
		ChunkGap:   DefaultChunkGap,
		ErrorDelay: DefaultErrorDelay,
	}
}

// Controller is the playback state machine. All public methods are safe for
// concurrent use, return immediately, and report problems through the
// observer's OnError instead of return values.
type Controller struct {
	engine  SpeechEngine
	config  ControllerConfig
	events  *emitter
	wake    *platform.WakeLock
	keepers *platform.KeepAlive

	mu           sync.Mutex
	machine      *StateMachine
	settings     Settings
	voiceName    string
	voices       []Voice
	session      *PlaybackSession
	epoch        uint64 // bumped by Start, Stop and Destroy
	seq          uint64 // bumped for every request
	inFlight     bool
	enginePaused bool
	destroyed    bool
	quit         chan struct{}
}

// NewController creates a controller speaking through engine.
func NewController(engine SpeechEngine, config ControllerConfig, observer Observer) *Controller {
	if config.ChunkGap < 0 {
		config.ChunkGap = 0
	}
	if config.ErrorDelay < 0 {
		config.ErrorDelay = 0
	}
	if config.Settings == (Settings{}) {
		config.Settings = DefaultSettings()
	}

	c := &Controller{
		engine:    engine,
		config:    config,
		events:    newEmitter(observer),
		machine:   NewStateMachine(),
		settings:  config.Settings,
		voiceName: config.VoiceName,
		quit:      make(chan struct{}),
	}
	c.voices, _ = voice.Rank(engine.Voices(), config.Family)

	c.wake = platform.NewWakeLock(config.WakeLock, func(err error) {
		c.emitError(NewTTSError(fmt.Errorf("%w: %w", ErrWakeLock, err), KindAdvisory, "platform", "acquire wake lock"))
	})
	c.keepers = platform.NewKeepAlive(config.Profile.KeepAlive, c.kick)

	c.machine.OnEnter(StatePlaying, c.keepers.Start)
	c.machine.OnExit(StatePlaying, c.keepers.Stop)

	if w, ok := engine.(VoiceWatcher); ok {
		go c.watchVoices(w.VoicesChanged())
	}

	log.Debug("Controller created", "profile", config.Profile)
	return c
}

// Start reads html aloud from the beginning. An active session is stopped
// first.
func (c *Controller) Start(html string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		log.Debug("Start ignored, controller destroyed")
		return
	}
	if c.machine.Current().IsActive() {
		c.stopLocked()
	}

	normalized := text.Normalize(html)
	chunks := text.Split(normalized, c.config.Profile.MaxChunkSize)
	if len(chunks) == 0 {
		c.emitError(NewTTSError(ErrNoContent, KindAdvisory, "controller", "start"))
		return
	}

	ranked, preferred := voice.Rank(c.engine.Voices(), c.config.Family)
	c.voices = ranked
	if len(ranked) == 0 {
		c.emitError(NewTTSError(ErrNoVoices, KindFatal, "controller", "start"))
		return
	}
	if !preferred {
		c.emitError(NewTTSError(ErrNoPreferredVoice, KindAdvisory, "voice", "start").
			WithContext("family", c.config.Family.Name).
			WithContext("fallback", ranked[0].Name))
	}
	c.resolveVoiceLocked()
	if c.settings.VoiceIndex >= len(ranked) {
		c.settings.VoiceIndex = 0
	}

	c.epoch++
	s := newSession(normalized, chunks, c.settings)
	c.session = &s
	c.transitionLocked(StatePlaying)

	log.Debug("Session started",
		"session", s.ID,
		"chunks", len(chunks),
		"chars", s.TotalChars,
		"voice", ranked[c.settings.VoiceIndex].Name,
		"epoch", c.epoch)

	if c.config.Profile.UseWakeLock {
		c.wake.Acquire()
	}
	c.speakLocked()
}

// Pause suspends playback. It does nothing unless playing.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

// Resume continues a paused session. On devices without reliable native
// pause the current chunk is spoken again from its beginning.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeLocked()
}

// Toggle pauses when playing and resumes when paused. It reports whether it
// did either.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return false
	}
	switch c.machine.Current() {
	case StatePlaying:
		c.pauseLocked()
		return true
	case StatePaused:
		c.resumeLocked()
		return true
	default:
		return false
	}
}

// Stop ends the session. The state is Idle when Stop returns.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.stopLocked()
}

// UpdateSettings changes speech parameters. They take effect with the next
// request.
func (c *Controller) UpdateSettings(u SettingsUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.updateSettingsLocked(u)
}

// ApplySettings changes speech parameters and, if a session is active,
// restarts the current chunk with them. Playing and paused sessions keep
// their state.
func (c *Controller) ApplySettings(u SettingsUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.updateSettingsLocked(u)

	switch c.machine.Current() {
	case StatePlaying:
		c.cancelLocked()
		c.speakLocked()
	case StatePaused:
		// Resume speaks the chunk again with the new settings.
		c.cancelLocked()
	default:
		return
	}
	c.emitStateLocked()
}

// Progress returns the position in the current session as a percentage.
func (c *Controller) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return 0
	}
	return percent(c.session.CharIndex, c.session.TotalChars)
}

// State returns a snapshot of the controller state.
func (c *Controller) State() StateSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Session returns a copy of the active session.
func (c *Controller) Session() (PlaybackSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return PlaybackSession{}, false
	}
	return *c.session, true
}

// Voices returns the ranked voice list, preferred voices first.
func (c *Controller) Voices() []Voice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Voice(nil), c.voices...)
}

// NotifyVisibility tells the controller whether the user can see the
// application. Regaining visibility while playing reacquires a wake lock the
// platform may have revoked.
func (c *Controller) NotifyVisibility(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	log.Debug("Visibility changed", "visible", visible, "state", c.machine.Current())
	if visible && c.machine.Current() == StatePlaying && c.config.Profile.UseWakeLock {
		c.wake.Reacquire()
	}
}

// Wait blocks until wake lock requests and releases issued by the
// controller have finished.
func (c *Controller) Wait() {
	c.wake.Wait()
}

// Destroy stops playback and tears the controller down for good. Later
// calls on the controller do nothing. Wake lock release continues in the
// background; call Wait to block on it.
func (c *Controller) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.epoch++
	c.destroyed = true
	c.keepers.Stop()
	c.wake.Release()
	close(c.quit)
	c.mu.Unlock()

	c.events.close()
	log.Debug("Controller destroyed")
}

func (c *Controller) pauseLocked() {
	if c.destroyed || c.machine.Current() != StatePlaying {
		log.Debug("Pause ignored", "state", c.machine.Current())
		return
	}

	if c.inFlight {
		if c.config.Profile.Pause == platform.PauseNative {
			err := c.engine.Pause()
			switch {
			case err == nil:
				c.enginePaused = true
			case errors.Is(err, ErrPauseUnsupported):
				log.Debug("Engine cannot pause, cancelling instead")
				c.cancelLocked()
			default:
				log.Warn("Engine pause failed, cancelling instead", "error", err)
				c.cancelLocked()
			}
		} else {
			c.cancelLocked()
		}
	}

	c.transitionLocked(StatePaused)
	log.Debug("Paused", "chunk", c.session.ChunkIndex, "native", c.enginePaused)
}

func (c *Controller) resumeLocked() {
	if c.destroyed || c.machine.Current() != StatePaused {
		log.Debug("Resume ignored", "state", c.machine.Current())
		return
	}

	c.transitionLocked(StatePlaying)

	if c.inFlight && c.enginePaused {
		c.enginePaused = false
		err := c.engine.Resume()
		if err == nil {
			log.Debug("Resumed", "chunk", c.session.ChunkIndex, "native", true)
			return
		}
		log.Warn("Engine resume failed, restarting chunk", "error", err)
		c.cancelLocked()
	}
	if !c.inFlight {
		log.Debug("Resumed", "chunk", c.session.ChunkIndex, "native", false)
		c.speakLocked()
	}
}

func (c *Controller) stopLocked() {
	if !c.machine.Current().IsActive() {
		log.Debug("Stop ignored", "state", c.machine.Current())
		return
	}

	id := c.session.ID
	c.transitionLocked(StateStopping)
	c.events.cut(c.epoch)
	c.teardownLocked()
	c.transitionLocked(StateIdle)
	log.Debug("Stopped", "session", id)
}

func (c *Controller) completeLocked() {
	id := c.session.ID
	c.transitionLocked(StateCompleted)
	c.teardownLocked()
	c.transitionLocked(StateIdle)
	log.Debug("Session completed", "session", id)
}

// teardownLocked invalidates every request and timer of the session and
// drops it.
func (c *Controller) teardownLocked() {
	c.epoch++
	c.cancelLocked()
	if c.config.Profile.UseWakeLock {
		c.wake.Release()
	}
	c.session = nil
}

// cancelLocked cancels the in-flight request, if any. Its remaining events
// become stale.
func (c *Controller) cancelLocked() {
	c.seq++
	c.enginePaused = false
	if !c.inFlight {
		return
	}
	c.inFlight = false
	c.engine.Cancel()
}

func (c *Controller) updateSettingsLocked(u SettingsUpdate) {
	c.settings = c.settings.apply(u, len(c.voices))
	if c.session != nil {
		next := c.session.withSettings(c.settings)
		c.session = &next
	}
	log.Debug("Settings updated",
		"rate", c.settings.Rate,
		"pitch", c.settings.Pitch,
		"voice", c.settings.VoiceIndex)
}

func (c *Controller) resolveVoiceLocked() {
	if c.voiceName == "" {
		return
	}
	name := c.voiceName
	c.voiceName = ""

	if i := voice.Find(c.voices, name); i >= 0 {
		c.settings.VoiceIndex = i
		log.Debug("Voice selected", "query", name, "voice", c.voices[i].Name)
		return
	}
	c.emitError(NewTTSError(ErrVoiceNotFound, KindAdvisory, "voice", "select voice").
		WithContext("voice", name))
}

// speakLocked issues a request for the current chunk from its beginning.
func (c *Controller) speakLocked() {
	s := c.session
	if s.VoiceIndex < 0 || s.VoiceIndex >= len(c.voices) {
		c.emitError(NewTTSError(ErrNoVoices, KindFatal, "controller", "speak chunk").
			WithContext("session", s.ID).
			WithContext("voice", s.VoiceIndex).
			WithContext("voices", len(c.voices)))
		c.stopLocked()
		return
	}
	chunk := s.Chunk()
	u := Utterance{
		Text:  chunk.Text,
		Rate:  s.Rate,
		Pitch: s.Pitch,
		Voice: c.voices[s.VoiceIndex],
	}

	c.seq++
	c.enginePaused = false
	events, err := c.engine.Speak(u)
	if err != nil {
		c.chunkFailedLocked(err)
		return
	}
	c.inFlight = true
	log.Debug("Speaking chunk", "index", s.ChunkIndex, "start", chunk.Start, "len", chunk.Len(), "seq", c.seq)
	go c.forward(c.epoch, c.seq, events)
}

func (c *Controller) forward(epoch, seq uint64, events <-chan SynthesisEvent) {
	for ev := range events {
		c.handleSynthesis(epoch, seq, ev)
	}
}

func (c *Controller) handleSynthesis(epoch, seq uint64, ev SynthesisEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed || epoch != c.epoch || seq != c.seq || c.session == nil {
		log.Debug("Dropping stale synthesis event", "type", ev.Type, "epoch", epoch, "seq", seq)
		return
	}

	switch ev.Type {
	case SynthesisStart:
		log.Debug("Chunk started", "index", c.session.ChunkIndex)
	case SynthesisBoundary:
		chunk := c.session.Chunk()
		pos := ev.CharIndex
		if pos > chunk.Len() {
			pos = chunk.Len()
		}
		c.advanceLocked(chunk.Start + pos)
	case SynthesisEnd:
		c.inFlight = false
		c.chunkDoneLocked()
	case SynthesisError:
		// Cancels issued here always bump seq, so an interruption for the
		// current request came from outside and the chunk is skipped.
		c.inFlight = false
		if IsIgnorable(ev.Err) {
			log.Debug("Chunk interrupted externally", "index", c.session.ChunkIndex, "error", ev.Err)
		}
		c.chunkFailedLocked(ev.Err)
	}
}

// advanceLocked moves the position forward and reports progress.
func (c *Controller) advanceLocked(pos int) {
	next := c.session.withCharIndex(pos)
	if next.CharIndex == c.session.CharIndex {
		return
	}
	c.session = &next
	c.events.emit(ProgressEvent{Current: next.CharIndex, Total: next.TotalChars, epoch: c.epoch})
}

func (c *Controller) chunkDoneLocked() {
	c.advanceLocked(c.session.Chunk().End())
	log.Debug("Chunk finished", "index", c.session.ChunkIndex)

	if c.session.IsLastChunk() {
		c.completeLocked()
		return
	}
	next := c.session.withChunkIndex(c.session.ChunkIndex + 1)
	c.session = &next
	c.scheduleLocked(c.config.ChunkGap, false)
}

// chunkFailedLocked reports a failed chunk and skips it after a delay. The
// failed chunk is never spoken again.
func (c *Controller) chunkFailedLocked(err error) {
	index := c.session.ChunkIndex
	c.emitError(NewTTSError(fmt.Errorf("%w: %w", ErrSynthesisFailed, err), KindRecoverable, "engine", "speak chunk").
		WithContext("session", c.session.ID).
		WithContext("chunk", index).
		WithContext("chunks", len(c.session.Chunks)))

	last := c.session.IsLastChunk()
	if !last {
		next := c.session.withChunkIndex(index + 1)
		c.session = &next
	}
	c.scheduleLocked(c.config.ErrorDelay, last)
}

// scheduleLocked speaks the current chunk after delay, or completes the
// session if complete is set. Nothing happens if the session ended, a
// request was issued in the meantime, or playback is paused.
func (c *Controller) scheduleLocked(delay time.Duration, complete bool) {
	epoch := c.epoch
	time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.destroyed || epoch != c.epoch || c.session == nil {
			return
		}
		if complete {
			c.completeLocked()
			return
		}
		if c.machine.Current() == StatePlaying && !c.inFlight {
			c.speakLocked()
		}
	})
}

// kick nudges engines that stall on long utterances.
func (c *Controller) kick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed || c.machine.Current() != StatePlaying || !c.inFlight || c.enginePaused {
		return
	}
	if err := c.engine.Pause(); err != nil {
		log.Debug("Keep-alive pause skipped", "error", err)
		return
	}
	if err := c.engine.Resume(); err != nil {
		log.Warn("Keep-alive resume failed", "error", err)
	}
}

func (c *Controller) watchVoices(changed <-chan struct{}) {
	for {
		select {
		case <-c.quit:
			return
		case _, ok := <-changed:
			if !ok {
				return
			}
			c.refreshVoices()
		}
	}
}

func (c *Controller) refreshVoices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	var current *Voice
	if i := c.settings.VoiceIndex; i >= 0 && i < len(c.voices) {
		v := c.voices[i]
		current = &v
	}

	var preferred bool
	c.voices, preferred = voice.Rank(c.engine.Voices(), c.config.Family)
	index := resolveVoice(c.voices, current, c.settings.VoiceIndex)
	log.Debug("Voice list changed", "voices", len(c.voices), "preferred", preferred, "voice", index)

	if index == c.settings.VoiceIndex && (c.session == nil || c.session.VoiceIndex == index) {
		return
	}
	c.settings.VoiceIndex = index
	if c.session != nil {
		next := c.session.withSettings(c.settings)
		c.session = &next
		c.emitStateLocked()
	}
}

// resolveVoice finds the selected voice in a re-ranked list. A voice that
// disappeared falls back to the top ranked one.
func resolveVoice(voices []Voice, current *Voice, index int) int {
	if current != nil {
		for i, v := range voices {
			if v.Name == current.Name && v.Locale == current.Locale {
				return i
			}
		}
		return 0
	}
	if index >= 0 && index < len(voices) {
		return index
	}
	return 0
}

func (c *Controller) transitionLocked(to StateType) {
	from := c.machine.Current()
	if !c.machine.Transition(to) {
		log.Warn("Invalid state transition", "from", from, "to", to)
		return
	}
	if c.session != nil {
		next := c.session.withState(to)
		c.session = &next
	}
	c.emitStateLocked()
}

func (c *Controller) emitStateLocked() {
	c.events.emit(StateEvent{Snapshot: c.snapshotLocked()})
}

func (c *Controller) emitError(err *TTSError) {
	switch err.Kind {
	case KindFatal:
		log.Error("Playback error", "error", err, "kind", err.Kind)
	case KindRecoverable:
		log.Warn("Playback error", "error", err, "kind", err.Kind)
	default:
		log.Info("Playback notice", "error", err, "kind", err.Kind)
	}
	c.events.emit(ErrorEvent{Err: err})
}

func (c *Controller) snapshotLocked() StateSnapshot {
	state := c.machine.Current()
	snap := StateSnapshot{
		State:      state,
		IsPlaying:  state == StatePlaying,
		IsPaused:   state == StatePaused,
		IsEnabled:  state.IsActive(),
		Rate:       c.settings.Rate,
		Pitch:      c.settings.Pitch,
		VoiceIndex: c.settings.VoiceIndex,
	}
	if c.settings.VoiceIndex < len(c.voices) {
		snap.Voice = c.voices[c.settings.VoiceIndex].Name
	}
	if s := c.session; s != nil {
		snap.CharIndex = s.CharIndex
		snap.TotalChars = s.TotalChars
		snap.ChunkIndex = s.ChunkIndex
		snap.TotalChunks = len(s.Chunks)
	}
	return snap
}
