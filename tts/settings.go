package tts

import "github.com/charmbracelet/log"

// Limits for speech parameters.
const (
	MinRate  = 0.1
	MaxRate  = 10.0
	MinPitch = 0.0
	MaxPitch = 2.0
)

// Settings are the speech parameters applied to each request.
type Settings struct {
	Rate       float64
	Pitch      float64
	VoiceIndex int
}

// DefaultSettings returns normal rate and pitch with the first voice.
func DefaultSettings() Settings {
	return Settings{Rate: 1.0, Pitch: 1.0}
}

// SettingsUpdate changes some speech parameters. Nil fields are left alone.
type SettingsUpdate struct {
	Rate       *float64
	Pitch      *float64
	VoiceIndex *int
}

// RateUpdate returns an update that only changes the rate.
func RateUpdate(rate float64) SettingsUpdate {
	return SettingsUpdate{Rate: &rate}
}

// PitchUpdate returns an update that only changes the pitch.
func PitchUpdate(pitch float64) SettingsUpdate {
	return SettingsUpdate{Pitch: &pitch}
}

// VoiceUpdate returns an update that only changes the voice.
func VoiceUpdate(index int) SettingsUpdate {
	return SettingsUpdate{VoiceIndex: &index}
}

// IsEmpty reports whether the update changes nothing.
func (u SettingsUpdate) IsEmpty() bool {
	return u.Rate == nil && u.Pitch == nil && u.VoiceIndex == nil
}

// apply returns s with the update merged in. Rate and pitch are clamped to
// their limits; a voice index outside [0, voices) is ignored.
func (s Settings) apply(u SettingsUpdate, voices int) Settings {
	if u.Rate != nil {
		s.Rate = clamp(*u.Rate, MinRate, MaxRate)
	}
	if u.Pitch != nil {
		s.Pitch = clamp(*u.Pitch, MinPitch, MaxPitch)
	}
	if u.VoiceIndex != nil {
		if i := *u.VoiceIndex; i >= 0 && i < voices {
			s.VoiceIndex = i
		} else {
			log.Warn("Ignoring out of range voice index", "index", i, "voices", voices)
		}
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
