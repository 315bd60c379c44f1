// Package audio plays 16-bit mono PCM produced by a synthesizer.
package audio

import (
	"errors"
	"io"
	"time"
)

// Format of every stream handed to an Output.
const (
	Channels       = 1
	BytesPerSample = 2
)

// ErrUnavailable is returned when no audio device can be opened.
var ErrUnavailable = errors.New("audio output unavailable")

// Output creates streams on an opened audio device.
type Output interface {
	NewStream(r io.Reader) Stream
	SampleRate() int
}

// Stream is a single playing reader. It matches the player returned by oto.
type Stream interface {
	Play()
	Pause()
	IsPlaying() bool
	BufferedSize() int
	Close() error
}

// Duration returns the playing time of n bytes of PCM at sampleRate.
func Duration(n int, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := n / (BytesPerSample * Channels)
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
