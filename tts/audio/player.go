package audio

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// pollInterval is how often a playback checks whether its stream drained.
var pollInterval = 20 * time.Millisecond

// positionReader wraps a reader and tracks how many bytes were consumed.
type positionReader struct {
	reader   *bytes.Reader
	position atomic.Int64
}

func (r *positionReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.position.Add(int64(n))
	return n, err
}

// Player starts playbacks on an Output.
type Player struct {
	out Output
}

// NewPlayer creates a player for out.
func NewPlayer(out Output) *Player {
	return &Player{out: out}
}

// SampleRate returns the rate of the underlying output.
func (p *Player) SampleRate() int {
	return p.out.SampleRate()
}

// Play starts playing pcm and returns its handle.
func (p *Player) Play(pcm []byte) (*Playback, error) {
	if len(pcm) == 0 {
		return nil, errors.New("empty audio data")
	}
	if len(pcm)%BytesPerSample != 0 {
		pcm = pcm[:len(pcm)-len(pcm)%BytesPerSample]
	}

	reader := &positionReader{reader: bytes.NewReader(pcm)}
	pb := &Playback{
		stream: p.out.NewStream(reader),
		reader: reader,
		total:  int64(len(pcm)),
		rate:   p.out.SampleRate(),
		done:   make(chan struct{}),
	}
	pb.stream.Play()
	go pb.monitor()
	return pb, nil
}

// Playback is one PCM buffer being played.
type Playback struct {
	stream Stream
	reader *positionReader
	total  int64
	rate   int

	mu       sync.Mutex
	paused   bool
	finished bool
	closed   bool
	done     chan struct{}
}

// Pause pauses the stream. Progress freezes until Resume.
func (pb *Playback) Pause() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.closed || pb.paused {
		return
	}
	pb.stream.Pause()
	pb.paused = true
}

// Resume continues a paused stream.
func (pb *Playback) Resume() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.closed || !pb.paused {
		return
	}
	pb.stream.Play()
	pb.paused = false
}

// Stop halts playback. Done is closed and Finished reports false.
func (pb *Playback) Stop() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.closeLocked(false)
}

// Done is closed when the playback finished or was stopped.
func (pb *Playback) Done() <-chan struct{} {
	return pb.done
}

// Finished reports whether the whole buffer was played.
func (pb *Playback) Finished() bool {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.finished
}

// Played returns the number of bytes that left the device buffer.
func (pb *Playback) Played() int64 {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.finished {
		return pb.total
	}
	played := pb.reader.position.Load()
	if !pb.closed {
		played -= int64(pb.stream.BufferedSize())
	}
	if played < 0 {
		played = 0
	}
	if played > pb.total {
		played = pb.total
	}
	return played
}

// Progress returns the played fraction in [0, 1].
func (pb *Playback) Progress() float64 {
	if pb.total == 0 {
		return 1
	}
	return float64(pb.Played()) / float64(pb.total)
}

// Position returns the played duration.
func (pb *Playback) Position() time.Duration {
	return Duration(int(pb.Played()), pb.rate)
}

// Duration returns the length of the whole buffer.
func (pb *Playback) Duration() time.Duration {
	return Duration(int(pb.total), pb.rate)
}

func (pb *Playback) monitor() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pb.done:
			return
		case <-ticker.C:
			pb.mu.Lock()
			if !pb.paused && !pb.closed &&
				pb.reader.position.Load() >= pb.total && !pb.stream.IsPlaying() {
				pb.closeLocked(true)
			}
			pb.mu.Unlock()
		}
	}
}

func (pb *Playback) closeLocked(finished bool) {
	if pb.closed {
		return
	}
	pb.closed = true
	pb.finished = finished
	if !finished {
		pb.stream.Pause()
	}
	_ = pb.stream.Close()
	close(pb.done)
}
