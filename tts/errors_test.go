package tts

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsIgnorable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"interrupted", ErrInterrupted, true},
		{"canceled", ErrCanceled, true},
		{"wrapped interrupted", fmt.Errorf("espeak: %w", ErrInterrupted), true},
		{"synthesis failed", ErrSynthesisFailed, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsIgnorable(tt.err); got != tt.want {
				t.Errorf("IsIgnorable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestTTSError(t *testing.T) {
	cause := errors.New("device busy")
	err := NewTTSError(fmt.Errorf("%w: %w", ErrSynthesisFailed, cause), KindRecoverable, "engine", "speak chunk").
		WithContext("chunk", 3)

	if got, want := err.Error(), "speak chunk: synthesis failed: device busy"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrSynthesisFailed) || !errors.Is(err, cause) {
		t.Error("errors.Is should see through TTSError")
	}
	if err.Blocking() {
		t.Error("recoverable error should not be blocking")
	}
	if err.Context["chunk"] != 3 {
		t.Errorf("Context = %v", err.Context)
	}
	if err.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}

	var target *TTSError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &target) || target.Component != "engine" {
		t.Error("errors.As should find the TTSError")
	}

	empty := &TTSError{}
	if got := empty.Error(); got != "unknown TTS error" {
		t.Errorf("empty Error() = %q", got)
	}
}

func TestErrorKindString(t *testing.T) {
	kinds := map[ErrorKind]string{
		KindIgnorable:   "ignorable",
		KindRecoverable: "recoverable",
		KindFatal:       "fatal",
		KindAdvisory:    "advisory",
		ErrorKind(42):   "unknown",
	}
	for k, want := range kinds {
		if got := k.String(); got != want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
