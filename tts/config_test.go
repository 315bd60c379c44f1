package tts

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/dgnsrekt/readaloud/tts/platform"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.ChunkGap < 50*time.Millisecond || cfg.ChunkGap > 100*time.Millisecond {
		t.Errorf("default chunk gap %v outside 50-100ms", cfg.ChunkGap)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"engine case folded", func(c *Config) { c.Engine = "MOCK" }, ""},
		{"unknown engine", func(c *Config) { c.Engine = "piper" }, "invalid engine"},
		{"bad device", func(c *Config) { c.Device = "watch" }, "invalid device class"},
		{"rate too high", func(c *Config) { c.Rate = 11 }, "rate must be"},
		{"pitch negative", func(c *Config) { c.Pitch = -0.1 }, "pitch must be"},
		{"negative voice index", func(c *Config) { c.VoiceIndex = -1 }, "voice_index"},
		{"zero chunk size", func(c *Config) { c.MaxChunkMobile = 0 }, "chunk sizes"},
		{"gap too long", func(c *Config) { c.ChunkGap = 2 * time.Second }, "chunk_gap"},
		{"negative keep-alive", func(c *Config) { c.KeepAlive = -time.Second }, "keep_alive"},
		{"bad wake lock", func(c *Config) { c.WakeLock = "screen" }, "invalid wake_lock"},
		{"espeak binary empty", func(c *Config) { c.Espeak.Binary = "" }, "espeak config"},
		{"espeak sample rate", func(c *Config) { c.Espeak.SampleRate = 8000 }, "sample rate"},
		{"mock wpm ignored for espeak", func(c *Config) { c.Mock.WordsPerMinute = 1 }, ""},
		{"mock wpm", func(c *Config) { c.Engine = "mock"; c.Mock.WordsPerMinute = 1 }, "mock config"},
		{"cache negative", func(c *Config) { c.Cache.MaxSizeMB = -1 }, "cache config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

const testYAML = `
tts:
  engine: mock
  device: mobile
  rate: 1.25
  voice: "english"
  chunk_gap: 90ms
  keep_alive: 0s
  wake_lock: none
  max_chunk_mobile: 400
  mock:
    words_per_minute: 300
    fail_on: "boom"
    voices: ["One", "Two"]
  cache:
    enabled: false
`

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(testYAML)); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}

	if cfg.Engine != "mock" || cfg.Device != "mobile" || cfg.Rate != 1.25 || cfg.Voice != "english" {
		t.Errorf("top-level settings not loaded: %+v", cfg)
	}
	if cfg.ChunkGap != 90*time.Millisecond || cfg.KeepAlive != 0 {
		t.Errorf("durations = %v, %v", cfg.ChunkGap, cfg.KeepAlive)
	}
	if cfg.Mock.WordsPerMinute != 300 || cfg.Mock.FailOn != "boom" || len(cfg.Mock.Voices) != 2 {
		t.Errorf("mock config = %+v", cfg.Mock)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled")
	}
	// Untouched keys keep their defaults.
	if cfg.Pitch != 1.0 || cfg.ErrorDelay != DefaultErrorDelay || cfg.Espeak.WPM != 175 {
		t.Errorf("defaults lost: %+v", cfg)
	}

	cc, err := cfg.ToControllerConfig()
	if err != nil {
		t.Fatalf("ToControllerConfig() = %v", err)
	}
	if cc.Profile.Class != platform.Mobile || cc.Profile.MaxChunkSize != 400 || !cc.Profile.UseWakeLock {
		t.Errorf("profile = %v", cc.Profile)
	}
	if cc.WakeLock != nil {
		t.Errorf("wake lock provider = %v, want none", cc.WakeLock)
	}
	if cc.VoiceName != "english" || cc.Settings.Rate != 1.25 {
		t.Errorf("controller config = %+v", cc)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("READALOUD_RATE", "2.5")
	t.Setenv("READALOUD_DEVICE", "desktop")
	t.Setenv("READALOUD_MOCK_VOICES", "A,B,C")
	t.Setenv("READALOUD_KEEP_ALIVE", "10s")

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(testYAML)); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}
	if cfg.Rate != 2.5 || cfg.Device != "desktop" {
		t.Errorf("env overrides not applied: rate=%v device=%q", cfg.Rate, cfg.Device)
	}
	if len(cfg.Mock.Voices) != 3 {
		t.Errorf("mock voices = %v", cfg.Mock.Voices)
	}
	// File values without an override survive.
	if cfg.Engine != "mock" || cfg.ChunkGap != 90*time.Millisecond {
		t.Errorf("file values lost: engine=%q gap=%v", cfg.Engine, cfg.ChunkGap)
	}

	profile, err := cfg.Profile()
	if err != nil {
		t.Fatal(err)
	}
	if profile.KeepAlive != 10*time.Second || profile.Class != platform.Desktop {
		t.Errorf("profile = %v", profile)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	v := viper.New()
	v.Set("tts.engine", "nope")

	if _, err := LoadConfig(v); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadConfig() = %v, want ErrInvalidConfig", err)
	}
}

func TestSetDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	cfg, err := LoadConfigFromViper()
	if err != nil {
		t.Fatalf("LoadConfigFromViper() = %v", err)
	}
	if cfg.ChunkGap != DefaultChunkGap || cfg.KeepAlive != platform.DefaultKeepAlive || cfg.WakeLock != "auto" {
		t.Errorf("defaults = %+v", cfg)
	}
}
