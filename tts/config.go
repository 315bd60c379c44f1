package tts

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dgnsrekt/readaloud/tts/platform"
	"github.com/dgnsrekt/readaloud/tts/voice"
)

// Config contains all playback configuration options. Defaults come from
// DefaultConfig, the config file is applied by LoadConfigFromViper, and
// READALOUD_* variables are applied last by ApplyEnv.
type Config struct {
	Engine string `yaml:"engine" env:"READALOUD_ENGINE"`
	Device string `yaml:"device" env:"READALOUD_DEVICE"`

	// Speech settings
	Rate       float64 `yaml:"rate" env:"READALOUD_RATE"`
	Pitch      float64 `yaml:"pitch" env:"READALOUD_PITCH"`
	Voice      string  `yaml:"voice" env:"READALOUD_VOICE"`
	VoiceIndex int     `yaml:"voice_index" env:"READALOUD_VOICE_INDEX"`

	// Preferred voice language
	LocalePrefix string `yaml:"locale_prefix" env:"READALOUD_LOCALE_PREFIX"`
	LocaleName   string `yaml:"locale_name" env:"READALOUD_LOCALE_NAME"`

	// Playback settings
	MaxChunkMobile  int           `yaml:"max_chunk_mobile" env:"READALOUD_MAX_CHUNK_MOBILE"`
	MaxChunkDesktop int           `yaml:"max_chunk_desktop" env:"READALOUD_MAX_CHUNK_DESKTOP"`
	ChunkGap        time.Duration `yaml:"chunk_gap" env:"READALOUD_CHUNK_GAP"`
	ErrorDelay      time.Duration `yaml:"error_delay" env:"READALOUD_ERROR_DELAY"`
	KeepAlive       time.Duration `yaml:"keep_alive" env:"READALOUD_KEEP_ALIVE"`
	WakeLock        string        `yaml:"wake_lock" env:"READALOUD_WAKE_LOCK"`

	// Engine-specific configurations
	Espeak EspeakConfig `yaml:"espeak"`
	Cache  CacheConfig  `yaml:"cache"`
	Mock   MockConfig   `yaml:"mock"`
}

// EspeakConfig contains espeak-ng engine specific settings.
type EspeakConfig struct {
	Binary     string        `yaml:"binary" env:"READALOUD_ESPEAK_BINARY"`
	WPM        int           `yaml:"wpm" env:"READALOUD_ESPEAK_WPM"`
	Pitch      int           `yaml:"pitch" env:"READALOUD_ESPEAK_PITCH"`
	SampleRate int           `yaml:"sample_rate" env:"READALOUD_ESPEAK_SAMPLE_RATE"`
	Timeout    time.Duration `yaml:"timeout" env:"READALOUD_ESPEAK_TIMEOUT"`
}

// CacheConfig contains synthesized audio cache settings.
type CacheConfig struct {
	Enabled     bool   `yaml:"enabled" env:"READALOUD_CACHE_ENABLED"`
	Dir         string `yaml:"dir" env:"READALOUD_CACHE_DIR"`
	MemoryItems int    `yaml:"memory_items" env:"READALOUD_CACHE_MEMORY_ITEMS"`
	MaxSizeMB   int    `yaml:"max_size_mb" env:"READALOUD_CACHE_MAX_SIZE_MB"`
}

// MockConfig contains mock engine specific settings.
type MockConfig struct {
	WordsPerMinute int           `yaml:"words_per_minute" env:"READALOUD_MOCK_WORDS_PER_MINUTE"`
	StartDelay     time.Duration `yaml:"start_delay" env:"READALOUD_MOCK_START_DELAY"`
	FailOn         string        `yaml:"fail_on" env:"READALOUD_MOCK_FAIL_ON"`
	NativePause    bool          `yaml:"native_pause" env:"READALOUD_MOCK_NATIVE_PAUSE"`
	Voices         []string      `yaml:"voices" env:"READALOUD_MOCK_VOICES" envSeparator:","`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine: "espeak",
		Device: "auto",

		Rate:  1.0,
		Pitch: 1.0,

		LocalePrefix: voice.English.Prefix,
		LocaleName:   voice.English.Name,

		MaxChunkMobile:  platform.DefaultMobileChunkSize,
		MaxChunkDesktop: platform.DefaultDesktopChunkSize,
		ChunkGap:        DefaultChunkGap,
		ErrorDelay:      DefaultErrorDelay,
		KeepAlive:       platform.DefaultKeepAlive,
		WakeLock:        platform.ProviderAuto,

		Espeak: DefaultEspeakConfig(),
		Cache:  DefaultCacheConfig(),
		Mock:   DefaultMockConfig(),
	}
}

// DefaultEspeakConfig returns default espeak-ng configuration.
func DefaultEspeakConfig() EspeakConfig {
	return EspeakConfig{
		Binary:     "espeak-ng",
		WPM:        175,
		Pitch:      50,
		SampleRate: 22050,
		Timeout:    30 * time.Second,
	}
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:     true,
		MemoryItems: 32,
		MaxSizeMB:   100,
	}
}

// DefaultMockConfig returns default mock engine configuration.
func DefaultMockConfig() MockConfig {
	return MockConfig{
		WordsPerMinute: 180,
		NativePause:    true,
	}
}

// ApplyEnv overrides fields from READALOUD_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validEngines := []string{"espeak", "mock"}
	engineValid := false
	for _, e := range validEngines {
		if strings.EqualFold(c.Engine, e) {
			engineValid = true
			c.Engine = strings.ToLower(c.Engine)
			break
		}
	}
	if !engineValid {
		return fmt.Errorf("invalid engine '%s': must be one of %v", c.Engine, validEngines)
	}

	if _, err := platform.ParseDeviceClass(c.Device); err != nil {
		return err
	}

	if c.Rate < MinRate || c.Rate > MaxRate {
		return fmt.Errorf("rate must be between %.1f and %.1f, got %f", MinRate, MaxRate, c.Rate)
	}
	if c.Pitch < MinPitch || c.Pitch > MaxPitch {
		return fmt.Errorf("pitch must be between %.1f and %.1f, got %f", MinPitch, MaxPitch, c.Pitch)
	}
	if c.VoiceIndex < 0 {
		return fmt.Errorf("voice_index cannot be negative, got %d", c.VoiceIndex)
	}

	if c.MaxChunkMobile < 1 || c.MaxChunkDesktop < 1 {
		return fmt.Errorf("chunk sizes must be positive, got mobile=%d desktop=%d", c.MaxChunkMobile, c.MaxChunkDesktop)
	}
	if c.ChunkGap < 0 || c.ChunkGap > time.Second {
		return fmt.Errorf("chunk_gap must be between 0 and 1s, got %v", c.ChunkGap)
	}
	if c.ErrorDelay < 0 || c.ErrorDelay > 10*time.Second {
		return fmt.Errorf("error_delay must be between 0 and 10s, got %v", c.ErrorDelay)
	}
	if c.KeepAlive < 0 {
		return fmt.Errorf("keep_alive cannot be negative, got %v", c.KeepAlive)
	}

	validWakeLocks := []string{
		platform.ProviderAuto, platform.ProviderTermux, platform.ProviderSystemd,
		platform.ProviderCaffeinate, platform.ProviderNone,
	}
	wakeLockValid := false
	for _, w := range validWakeLocks {
		if strings.EqualFold(c.WakeLock, w) {
			wakeLockValid = true
			c.WakeLock = strings.ToLower(c.WakeLock)
			break
		}
	}
	if !wakeLockValid {
		return fmt.Errorf("invalid wake_lock '%s': must be one of %v", c.WakeLock, validWakeLocks)
	}

	switch c.Engine {
	case "espeak":
		if err := c.Espeak.Validate(); err != nil {
			return fmt.Errorf("espeak config: %w", err)
		}
	case "mock":
		if err := c.Mock.Validate(); err != nil {
			return fmt.Errorf("mock config: %w", err)
		}
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	return nil
}

// Validate checks if the espeak-ng configuration is valid.
func (c *EspeakConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("espeak binary path cannot be empty")
	}

	if c.WPM < 80 || c.WPM > 450 {
		return fmt.Errorf("wpm must be between 80 and 450, got %d", c.WPM)
	}

	if c.Pitch < 0 || c.Pitch > 99 {
		return fmt.Errorf("pitch must be between 0 and 99, got %d", c.Pitch)
	}

	validSampleRates := []int{16000, 22050, 24000, 44100, 48000}
	sampleRateValid := false
	for _, sr := range validSampleRates {
		if c.SampleRate == sr {
			sampleRateValid = true
			break
		}
	}
	if !sampleRateValid {
		return fmt.Errorf("invalid sample rate %d: must be one of %v", c.SampleRate, validSampleRates)
	}

	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}

	return nil
}

// Validate checks if the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if c.MemoryItems < 0 {
		return fmt.Errorf("memory_items cannot be negative, got %d", c.MemoryItems)
	}
	if c.MaxSizeMB < 0 {
		return fmt.Errorf("max_size_mb cannot be negative, got %d", c.MaxSizeMB)
	}
	return nil
}

// Validate checks if the mock configuration is valid.
func (c *MockConfig) Validate() error {
	if c.WordsPerMinute < 50 || c.WordsPerMinute > 2000 {
		return fmt.Errorf("words_per_minute must be between 50 and 2000, got %d", c.WordsPerMinute)
	}
	if c.StartDelay < 0 {
		return fmt.Errorf("start_delay cannot be negative, got %v", c.StartDelay)
	}
	return nil
}

// Family returns the preferred voice family.
func (c *Config) Family() voice.Family {
	return voice.Family{Prefix: c.LocalePrefix, Name: c.LocaleName}
}

// Profile returns the device policies for the configured device class.
func (c *Config) Profile() (platform.Profile, error) {
	class, err := platform.ParseDeviceClass(c.Device)
	if err != nil {
		return platform.Profile{}, err
	}
	return platform.NewProfile(class, platform.Options{
		MobileChunkSize:  c.MaxChunkMobile,
		DesktopChunkSize: c.MaxChunkDesktop,
		KeepAlive:        c.KeepAlive,
		DisableKeepAlive: c.KeepAlive == 0,
	}), nil
}

// Settings returns the initial speech settings.
func (c *Config) Settings() Settings {
	return Settings{Rate: c.Rate, Pitch: c.Pitch, VoiceIndex: c.VoiceIndex}
}

// ToControllerConfig converts the configuration to controller config.
func (c *Config) ToControllerConfig() (ControllerConfig, error) {
	profile, err := c.Profile()
	if err != nil {
		return ControllerConfig{}, err
	}

	cc := ControllerConfig{
		Profile:    profile,
		Family:     c.Family(),
		Settings:   c.Settings(),
		VoiceName:  c.Voice,
		ChunkGap:   c.ChunkGap,
		ErrorDelay: c.ErrorDelay,
	}
	if profile.UseWakeLock {
		provider, err := platform.NewProvider(c.WakeLock)
		if err != nil {
			return ControllerConfig{}, err
		}
		cc.WakeLock = provider
	}
	return cc, nil
}
