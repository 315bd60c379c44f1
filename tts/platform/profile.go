// Package platform holds the device-dependent playback policies: chunk size
// ceiling, pause strategy, keep-alive kicks and the screen wake lock.
package platform

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DeviceClass is the coarse device category a session runs on.
type DeviceClass int

const (
	// Desktop devices have synthesis engines that honor native pause.
	Desktop DeviceClass = iota
	// Mobile devices need shorter utterances and cannot pause reliably.
	Mobile
)

// String returns the string representation of the device class.
func (d DeviceClass) String() string {
	switch d {
	case Desktop:
		return "desktop"
	case Mobile:
		return "mobile"
	default:
		return "unknown"
	}
}

// ParseDeviceClass parses "mobile", "desktop" or "auto".
func ParseDeviceClass(s string) (DeviceClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DetectDeviceClass(), nil
	case "mobile":
		return Mobile, nil
	case "desktop":
		return Desktop, nil
	default:
		return Desktop, fmt.Errorf("invalid device class %q: must be one of auto, mobile, desktop", s)
	}
}

// DetectDeviceClass guesses the device class from the environment. Termux
// and other Android shells count as mobile.
func DetectDeviceClass() DeviceClass {
	for _, key := range []string{"TERMUX_VERSION", "ANDROID_ROOT", "ANDROID_DATA"} {
		if os.Getenv(key) != "" {
			log.Debug("Mobile device detected", "env", key)
			return Mobile
		}
	}
	return Desktop
}

// PauseStrategy selects how pause and resume are carried out.
type PauseStrategy int

const (
	// PauseNative delegates to the engine's pause and resume.
	PauseNative PauseStrategy = iota
	// PauseRestartChunk cancels the request on pause and speaks the same
	// chunk again from its beginning on resume.
	PauseRestartChunk
)

// String returns the string representation of the strategy.
func (p PauseStrategy) String() string {
	if p == PauseRestartChunk {
		return "restart-chunk"
	}
	return "native"
}

// Default ceilings, in runes.
const (
	DefaultMobileChunkSize  = 500
	DefaultDesktopChunkSize = 3000
)

// DefaultKeepAlive is the kick interval for engines that stall after
// roughly fifteen seconds of continuous speech.
const DefaultKeepAlive = 14 * time.Second

// Profile is the set of policies fixed for a device class.
type Profile struct {
	Class        DeviceClass
	MaxChunkSize int
	Pause        PauseStrategy
	KeepAlive    time.Duration // zero disables the kick
	UseWakeLock  bool
}

// Options tune the profile built by NewProfile. Zero values fall back to
// the defaults.
type Options struct {
	MobileChunkSize  int
	DesktopChunkSize int
	KeepAlive        time.Duration
	DisableKeepAlive bool
}

// NewProfile builds the policies for a device class.
func NewProfile(class DeviceClass, opts Options) Profile {
	if opts.MobileChunkSize <= 0 {
		opts.MobileChunkSize = DefaultMobileChunkSize
	}
	if opts.DesktopChunkSize <= 0 {
		opts.DesktopChunkSize = DefaultDesktopChunkSize
	}
	keepAlive := opts.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	if opts.DisableKeepAlive {
		keepAlive = 0
	}

	switch class {
	case Mobile:
		// Mobile requests are short and cancelled on pause, so there is
		// nothing for the kick to keep alive.
		return Profile{
			Class:        Mobile,
			MaxChunkSize: opts.MobileChunkSize,
			Pause:        PauseRestartChunk,
			UseWakeLock:  true,
		}
	default:
		return Profile{
			Class:        Desktop,
			MaxChunkSize: opts.DesktopChunkSize,
			Pause:        PauseNative,
			KeepAlive:    keepAlive,
		}
	}
}

// String returns a string representation of the profile.
func (p Profile) String() string {
	return fmt.Sprintf("Profile{Class: %s, MaxChunk: %d, Pause: %s, KeepAlive: %v, WakeLock: %v}",
		p.Class, p.MaxChunkSize, p.Pause, p.KeepAlive, p.UseWakeLock)
}
