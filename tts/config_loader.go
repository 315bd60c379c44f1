package tts

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads playback configuration from Viper, then applies
// READALOUD_* environment overrides and validates the result.
func LoadConfigFromViper() (Config, error) {
	return LoadConfig(viper.GetViper())
}

// LoadConfig loads playback configuration from v.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	if v.IsSet("tts.engine") {
		cfg.Engine = v.GetString("tts.engine")
	}
	if v.IsSet("tts.device") {
		cfg.Device = v.GetString("tts.device")
	}

	// Speech settings
	if v.IsSet("tts.rate") {
		cfg.Rate = v.GetFloat64("tts.rate")
	}
	if v.IsSet("tts.pitch") {
		cfg.Pitch = v.GetFloat64("tts.pitch")
	}
	if v.IsSet("tts.voice") {
		cfg.Voice = v.GetString("tts.voice")
	}
	if v.IsSet("tts.voice_index") {
		cfg.VoiceIndex = v.GetInt("tts.voice_index")
	}
	if v.IsSet("tts.locale_prefix") {
		cfg.LocalePrefix = v.GetString("tts.locale_prefix")
	}
	if v.IsSet("tts.locale_name") {
		cfg.LocaleName = v.GetString("tts.locale_name")
	}

	// Playback settings
	if v.IsSet("tts.max_chunk_mobile") {
		cfg.MaxChunkMobile = v.GetInt("tts.max_chunk_mobile")
	}
	if v.IsSet("tts.max_chunk_desktop") {
		cfg.MaxChunkDesktop = v.GetInt("tts.max_chunk_desktop")
	}
	if v.IsSet("tts.chunk_gap") {
		cfg.ChunkGap = v.GetDuration("tts.chunk_gap")
	}
	if v.IsSet("tts.error_delay") {
		cfg.ErrorDelay = v.GetDuration("tts.error_delay")
	}
	if v.IsSet("tts.keep_alive") {
		cfg.KeepAlive = v.GetDuration("tts.keep_alive")
	}
	if v.IsSet("tts.wake_lock") {
		cfg.WakeLock = v.GetString("tts.wake_lock")
	}

	cfg.Espeak = loadEspeakConfig(v)
	cfg.Cache = loadCacheConfig(v)
	cfg.Mock = loadMockConfig(v)

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// loadEspeakConfig loads espeak-ng specific configuration from Viper.
func loadEspeakConfig(v *viper.Viper) EspeakConfig {
	cfg := DefaultEspeakConfig()

	if v.IsSet("tts.espeak.binary") {
		cfg.Binary = v.GetString("tts.espeak.binary")
	}
	if v.IsSet("tts.espeak.wpm") {
		cfg.WPM = v.GetInt("tts.espeak.wpm")
	}
	if v.IsSet("tts.espeak.pitch") {
		cfg.Pitch = v.GetInt("tts.espeak.pitch")
	}
	if v.IsSet("tts.espeak.sample_rate") {
		cfg.SampleRate = v.GetInt("tts.espeak.sample_rate")
	}
	if v.IsSet("tts.espeak.timeout") {
		cfg.Timeout = v.GetDuration("tts.espeak.timeout")
	}

	return cfg
}

// loadCacheConfig loads audio cache configuration from Viper.
func loadCacheConfig(v *viper.Viper) CacheConfig {
	cfg := DefaultCacheConfig()

	if v.IsSet("tts.cache.enabled") {
		cfg.Enabled = v.GetBool("tts.cache.enabled")
	}
	if v.IsSet("tts.cache.dir") {
		cfg.Dir = v.GetString("tts.cache.dir")
	}
	if v.IsSet("tts.cache.memory_items") {
		cfg.MemoryItems = v.GetInt("tts.cache.memory_items")
	}
	if v.IsSet("tts.cache.max_size_mb") {
		cfg.MaxSizeMB = v.GetInt("tts.cache.max_size_mb")
	}

	return cfg
}

// loadMockConfig loads mock engine configuration from Viper.
func loadMockConfig(v *viper.Viper) MockConfig {
	cfg := DefaultMockConfig()

	if v.IsSet("tts.mock.words_per_minute") {
		cfg.WordsPerMinute = v.GetInt("tts.mock.words_per_minute")
	}
	if v.IsSet("tts.mock.start_delay") {
		cfg.StartDelay = v.GetDuration("tts.mock.start_delay")
	}
	if v.IsSet("tts.mock.fail_on") {
		cfg.FailOn = v.GetString("tts.mock.fail_on")
	}
	if v.IsSet("tts.mock.native_pause") {
		cfg.NativePause = v.GetBool("tts.mock.native_pause")
	}
	if v.IsSet("tts.mock.voices") {
		cfg.Voices = v.GetStringSlice("tts.mock.voices")
	}

	return cfg
}

// SetDefaults sets default values in Viper for playback configuration.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("tts.engine", defaults.Engine)
	viper.SetDefault("tts.device", defaults.Device)

	// Speech settings
	viper.SetDefault("tts.rate", defaults.Rate)
	viper.SetDefault("tts.pitch", defaults.Pitch)
	viper.SetDefault("tts.voice", defaults.Voice)
	viper.SetDefault("tts.voice_index", defaults.VoiceIndex)
	viper.SetDefault("tts.locale_prefix", defaults.LocalePrefix)
	viper.SetDefault("tts.locale_name", defaults.LocaleName)

	// Playback settings
	viper.SetDefault("tts.max_chunk_mobile", defaults.MaxChunkMobile)
	viper.SetDefault("tts.max_chunk_desktop", defaults.MaxChunkDesktop)
	viper.SetDefault("tts.chunk_gap", defaults.ChunkGap.String())
	viper.SetDefault("tts.error_delay", defaults.ErrorDelay.String())
	viper.SetDefault("tts.keep_alive", defaults.KeepAlive.String())
	viper.SetDefault("tts.wake_lock", defaults.WakeLock)

	// espeak-ng defaults
	viper.SetDefault("tts.espeak.binary", defaults.Espeak.Binary)
	viper.SetDefault("tts.espeak.wpm", defaults.Espeak.WPM)
	viper.SetDefault("tts.espeak.pitch", defaults.Espeak.Pitch)
	viper.SetDefault("tts.espeak.sample_rate", defaults.Espeak.SampleRate)
	viper.SetDefault("tts.espeak.timeout", defaults.Espeak.Timeout.String())

	// Cache defaults
	viper.SetDefault("tts.cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("tts.cache.dir", defaults.Cache.Dir)
	viper.SetDefault("tts.cache.memory_items", defaults.Cache.MemoryItems)
	viper.SetDefault("tts.cache.max_size_mb", defaults.Cache.MaxSizeMB)

	// Mock defaults
	viper.SetDefault("tts.mock.words_per_minute", defaults.Mock.WordsPerMinute)
	viper.SetDefault("tts.mock.start_delay", defaults.Mock.StartDelay.String())
	viper.SetDefault("tts.mock.native_pause", defaults.Mock.NativePause)
}
