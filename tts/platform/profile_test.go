package platform

import (
	"testing"
	"time"
)

func TestParseDeviceClass(t *testing.T) {
	t.Setenv("TERMUX_VERSION", "")
	t.Setenv("ANDROID_ROOT", "")
	t.Setenv("ANDROID_DATA", "")

	tests := []struct {
		input   string
		want    DeviceClass
		wantErr bool
	}{
		{"mobile", Mobile, false},
		{"MOBILE", Mobile, false},
		{"desktop", Desktop, false},
		{" desktop ", Desktop, false},
		{"auto", Desktop, false},
		{"", Desktop, false},
		{"tablet", Desktop, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDeviceClass(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDeviceClass(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDeviceClass(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetectDeviceClass(t *testing.T) {
	t.Setenv("TERMUX_VERSION", "")
	t.Setenv("ANDROID_ROOT", "")
	t.Setenv("ANDROID_DATA", "")

	if got := DetectDeviceClass(); got != Desktop {
		t.Errorf("DetectDeviceClass() = %v, want desktop", got)
	}

	t.Setenv("TERMUX_VERSION", "0.118.0")
	if got := DetectDeviceClass(); got != Mobile {
		t.Errorf("DetectDeviceClass() with TERMUX_VERSION = %v, want mobile", got)
	}
}

func TestDeviceClassString(t *testing.T) {
	tests := []struct {
		class    DeviceClass
		expected string
	}{
		{Desktop, "desktop"},
		{Mobile, "mobile"},
		{DeviceClass(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.class.String(); got != tt.expected {
			t.Errorf("DeviceClass(%d).String() = %q, want %q", tt.class, got, tt.expected)
		}
	}
}

func TestNewProfile(t *testing.T) {
	tests := []struct {
		name  string
		class DeviceClass
		opts  Options
		want  Profile
	}{
		{
			name:  "mobile defaults",
			class: Mobile,
			want: Profile{
				Class:        Mobile,
				MaxChunkSize: DefaultMobileChunkSize,
				Pause:        PauseRestartChunk,
				UseWakeLock:  true,
			},
		},
		{
			name:  "desktop defaults",
			class: Desktop,
			want: Profile{
				Class:        Desktop,
				MaxChunkSize: DefaultDesktopChunkSize,
				Pause:        PauseNative,
				KeepAlive:    DefaultKeepAlive,
			},
		},
		{
			name:  "custom sizes",
			class: Desktop,
			opts:  Options{DesktopChunkSize: 1200, MobileChunkSize: 200, KeepAlive: 5 * time.Second},
			want: Profile{
				Class:        Desktop,
				MaxChunkSize: 1200,
				Pause:        PauseNative,
				KeepAlive:    5 * time.Second,
			},
		},
		{
			name:  "keep-alive disabled",
			class: Desktop,
			opts:  Options{DisableKeepAlive: true},
			want: Profile{
				Class:        Desktop,
				MaxChunkSize: DefaultDesktopChunkSize,
				Pause:        PauseNative,
			},
		},
		{
			name:  "mobile ignores keep-alive",
			class: Mobile,
			opts:  Options{KeepAlive: time.Second, MobileChunkSize: 300},
			want: Profile{
				Class:        Mobile,
				MaxChunkSize: 300,
				Pause:        PauseRestartChunk,
				UseWakeLock:  true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewProfile(tt.class, tt.opts); got != tt.want {
				t.Errorf("NewProfile() = %v, want %v", got, tt.want)
			}
		})
	}
}
