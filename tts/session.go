package tts

import (
	"github.com/google/uuid"

	"github.com/dgnsrekt/readaloud/tts/text"
)

// PlaybackSession is the state of one Start call. It is never modified in
// place: every change produces a new value that replaces the old one.
type PlaybackSession struct {
	ID         string // random, for correlating log lines
	Text       string
	Chunks     []text.Chunk
	ChunkIndex int
	CharIndex  int
	TotalChars int
	Rate       float64
	Pitch      float64
	VoiceIndex int
	State      StateType
}

func newSession(normalized string, chunks []text.Chunk, s Settings) PlaybackSession {
	return PlaybackSession{
		ID:         uuid.NewString(),
		Text:       normalized,
		Chunks:     chunks,
		TotalChars: text.Length(normalized),
		Rate:       s.Rate,
		Pitch:      s.Pitch,
		VoiceIndex: s.VoiceIndex,
		State:      StatePlaying,
	}
}

// Chunk returns the chunk at ChunkIndex.
func (s PlaybackSession) Chunk() text.Chunk {
	return s.Chunks[s.ChunkIndex]
}

// IsLastChunk reports whether ChunkIndex points at the final chunk.
func (s PlaybackSession) IsLastChunk() bool {
	return s.ChunkIndex >= len(s.Chunks)-1
}

func (s PlaybackSession) withChunkIndex(i int) PlaybackSession {
	s.ChunkIndex = i
	return s
}

// withCharIndex never moves the position backwards.
func (s PlaybackSession) withCharIndex(i int) PlaybackSession {
	if i > s.TotalChars {
		i = s.TotalChars
	}
	if i > s.CharIndex {
		s.CharIndex = i
	}
	return s
}

func (s PlaybackSession) withSettings(set Settings) PlaybackSession {
	s.Rate = set.Rate
	s.Pitch = set.Pitch
	s.VoiceIndex = set.VoiceIndex
	return s
}

func (s PlaybackSession) withState(state StateType) PlaybackSession {
	s.State = state
	return s
}
