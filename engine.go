package main

import (
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"

	"github.com/dgnsrekt/readaloud/internal/cache"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/audio"
	"github.com/dgnsrekt/readaloud/tts/engines"
	"github.com/dgnsrekt/readaloud/tts/engines/espeak"
	"github.com/dgnsrekt/readaloud/tts/engines/mock"
)

// maxEngineFailures is how many failed espeak-ng requests in a row switch
// playback to the mock engine.
const maxEngineFailures = 3

// buildEngine creates the configured speech engine. espeak-ng falls back to
// the mock engine when it cannot start or keeps failing.
func buildEngine(cfg tts.Config) (tts.SpeechEngine, func(), error) {
	if cfg.Engine == "mock" {
		log.Debug("Using mock engine", "wpm", cfg.Mock.WordsPerMinute)
		return mock.FromConfig(cfg.Mock), func() {}, nil
	}

	out, err := audio.OpenOutput(cfg.Espeak.SampleRate)
	if err != nil {
		log.Warn("Audio output unavailable, using mock engine", "error", err)
		return mock.FromConfig(cfg.Mock), func() {}, nil
	}

	c, err := buildCache(cfg.Cache)
	if err != nil {
		log.Warn("Audio cache disabled", "error", err)
	}

	primary, err := espeak.New(cfg.Espeak, audio.NewPlayer(out), c)
	if err != nil {
		log.Warn("espeak-ng unavailable, using mock engine", "error", err)
		_ = c.Close()
		return mock.FromConfig(cfg.Mock), func() {}, nil
	}

	engine := engines.NewFallbackEngine(primary, mock.FromConfig(cfg.Mock), maxEngineFailures)
	closer := func() {
		memory, disk := c.Stats()
		log.Debug("Audio cache",
			"memory_hits", memory.Hits,
			"disk_hits", disk.Hits,
			"disk_size", humanize.IBytes(uint64(disk.Bytes))) //nolint:gosec
		log.Debug("Engine status", "status", engine.Status())
		engine.Close()
		_ = c.Close()
	}
	return engine, closer, nil
}

// buildCache opens the PCM cache. A nil cache is valid and caches nothing.
func buildCache(cfg tts.CacheConfig) (*cache.Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	dir := cfg.Dir
	if dir == "" {
		base, err := gap.NewScope(gap.User, "readaloud").CacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "audio")
	}

	return cache.New(cache.Config{
		MemoryItems: cfg.MemoryItems,
		Dir:         expandPath(dir),
		MaxDiskSize: int64(cfg.MaxSizeMB) << 20,
	})
}

// voiceWait bounds how long startup waits for a late voice list.
const voiceWait = 3 * time.Second

// waitForVoices blocks until engine reports at least one voice, the voice
// list stops changing or timeout passes. It returns the voices known then.
func waitForVoices(engine tts.SpeechEngine, timeout time.Duration) []tts.Voice {
	if voices := engine.Voices(); len(voices) > 0 {
		return voices
	}
	w, ok := engine.(tts.VoiceWatcher)
	if !ok || w.VoicesChanged() == nil {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			log.Warn("Timed out waiting for voices", "timeout", timeout)
			return engine.Voices()
		case <-w.VoicesChanged():
			if voices := engine.Voices(); len(voices) > 0 {
				return voices
			}
		}
	}
}
