//go:build !nocgo

package audio

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// otoOutput wraps the process-wide oto context. oto allows one context per
// process, so the first sample rate asked for wins.
type otoOutput struct {
	context    *oto.Context
	sampleRate int
}

var (
	otoOnce   sync.Once
	otoShared *otoOutput
	otoErr    error
)

// OpenOutput opens the default audio device at sampleRate.
func OpenOutput(sampleRate int) (Output, error) {
	otoOnce.Do(func() {
		options := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		if runtime.GOOS == "darwin" {
			options.BufferSize = 100 * time.Millisecond
		}

		context, ready, err := oto.NewContext(options)
		if err != nil {
			otoErr = fmt.Errorf("%w: %w", ErrUnavailable, err)
			return
		}
		<-ready
		log.Debug("Audio context ready", "sample_rate", sampleRate, "buffer", options.BufferSize)
		otoShared = &otoOutput{context: context, sampleRate: sampleRate}
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoShared.sampleRate != sampleRate {
		log.Warn("Audio context already open at another sample rate",
			"open", otoShared.sampleRate, "requested", sampleRate)
	}
	return otoShared, nil
}

func (o *otoOutput) NewStream(r io.Reader) Stream {
	return o.context.NewPlayer(r)
}

func (o *otoOutput) SampleRate() int {
	return o.sampleRate
}
