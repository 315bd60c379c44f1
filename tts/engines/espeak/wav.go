package espeak

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var errNotWAV = errors.New("espeak: output is not a WAV stream")

// stripWAV returns the PCM payload of a RIFF/WAVE buffer and its sample rate.
// espeak-ng writing to a pipe cannot seek back to patch sizes, so a data
// chunk claiming more bytes than remain is clipped to what is there.
func stripWAV(data []byte) ([]byte, int, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, 0, errNotWAV
	}

	sampleRate := 0
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if body+8 > len(data) {
				return nil, 0, fmt.Errorf("%w: truncated fmt chunk", errNotWAV)
			}
			channels := binary.LittleEndian.Uint16(data[body+2 : body+4])
			if channels != 1 {
				return nil, 0, fmt.Errorf("espeak: unsupported channel count %d", channels)
			}
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
		case "data":
			if sampleRate == 0 {
				return nil, 0, fmt.Errorf("%w: data before fmt chunk", errNotWAV)
			}
			end := body + size
			if size == 0 || end > len(data) || end < body {
				end = len(data)
			}
			return data[body:end], sampleRate, nil
		}

		// Chunks are padded to even sizes.
		next := body + size + size%2
		if next <= pos || next > len(data) {
			break
		}
		pos = next
	}
	return nil, 0, fmt.Errorf("%w: no data chunk", errNotWAV)
}
