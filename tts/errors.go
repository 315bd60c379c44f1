package tts

import (
	"errors"
	"fmt"
	"time"
)

// Common errors for the playback engine.
var (
	// Engine errors
	ErrInterrupted      = errors.New("synthesis interrupted")
	ErrCanceled         = errors.New("synthesis canceled")
	ErrSynthesisFailed  = errors.New("synthesis failed")
	ErrPauseUnsupported = errors.New("engine does not support pause")
	ErrEngineClosed     = errors.New("engine has been shut down")

	// Voice errors
	ErrNoVoices         = errors.New("no voices available")
	ErrNoPreferredVoice = errors.New("no voice matches the preferred language")
	ErrVoiceNotFound    = errors.New("requested voice not found")

	// Content errors
	ErrNoContent = errors.New("nothing to read")

	// Platform errors
	ErrWakeLock = errors.New("wake lock request failed")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ErrorKind classifies how an error affects the session.
type ErrorKind int

const (
	// KindIgnorable errors are caused by the controller's own cancellation
	// and are never surfaced.
	KindIgnorable ErrorKind = iota
	// KindRecoverable errors lose one chunk; playback skips ahead.
	KindRecoverable
	// KindFatal errors prevent playback from starting.
	KindFatal
	// KindAdvisory errors are reported but do not block playback.
	KindAdvisory
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindIgnorable:
		return "ignorable"
	case KindRecoverable:
		return "recoverable"
	case KindFatal:
		return "fatal"
	case KindAdvisory:
		return "advisory"
	default:
		return "unknown"
	}
}

// IsIgnorable reports whether err is an interruption caused by cancelling
// a request.
func IsIgnorable(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, ErrCanceled)
}

// TTSError provides detailed error information.
type TTSError struct {
	Err       error          // The underlying error
	Kind      ErrorKind      // How the error affects the session
	Component string         // Component that generated the error
	Action    string         // Action being performed when error occurred
	Timestamp time.Time      // When the error occurred
	Context   map[string]any // Additional context
}

// Error implements the error interface.
func (e *TTSError) Error() string {
	if e.Err == nil {
		return "unknown TTS error"
	}
	if e.Action != "" {
		return fmt.Sprintf("%s: %s", e.Action, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *TTSError) Unwrap() error {
	return e.Err
}

// Blocking reports whether playback could not proceed.
func (e *TTSError) Blocking() bool {
	return e.Kind == KindFatal
}

// NewTTSError creates a new TTS error with context.
func NewTTSError(err error, kind ErrorKind, component, action string) *TTSError {
	return &TTSError{
		Err:       err,
		Kind:      kind,
		Component: component,
		Action:    action,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
	}
}

// WithContext adds context to the error.
func (e *TTSError) WithContext(key string, value any) *TTSError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
