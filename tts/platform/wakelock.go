package platform

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrWakeLockUnavailable is returned by providers that cannot grant a lock.
var ErrWakeLockUnavailable = errors.New("wake lock not available")

// WakeLockHandle is an active screen wake lock grant.
type WakeLockHandle interface {
	// Release gives the grant back. Calling it more than once is harmless.
	Release() error

	// Released reports whether the grant is gone, either through Release
	// or because the platform revoked it (for example when the screen was
	// turned off).
	Released() bool
}

// WakeLockProvider grants screen wake locks.
type WakeLockProvider interface {
	Acquire(ctx context.Context) (WakeLockHandle, error)
}

// acquireTimeout bounds a single provider call.
const acquireTimeout = 5 * time.Second

// WakeLock owns at most one outstanding wake lock grant. Acquisition runs in
// the background so callers never block on the provider; a grant that
// arrives after the lock stopped being wanted is given back immediately.
type WakeLock struct {
	mu       sync.Mutex
	provider WakeLockProvider
	handle   WakeLockHandle
	wanted   bool
	pending  bool
	onError  func(error)
	wg       sync.WaitGroup
}

// NewWakeLock returns a wake lock backed by provider. A nil provider makes
// every operation a no-op. onError, if set, receives acquisition failures.
func NewWakeLock(provider WakeLockProvider, onError func(error)) *WakeLock {
	return &WakeLock{provider: provider, onError: onError}
}

// Acquire requests the lock unless it is already held or being requested.
func (w *WakeLock) Acquire() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.provider == nil {
		return
	}
	w.wanted = true
	w.startLocked()
}

// Reacquire requests the lock again if it is still wanted but the platform
// revoked the previous grant.
func (w *WakeLock) Reacquire() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.provider == nil || !w.wanted {
		return
	}
	if w.handle != nil && w.handle.Released() {
		log.Debug("Wake lock was revoked, requesting a new one")
		w.handle = nil
	}
	w.startLocked()
}

func (w *WakeLock) startLocked() {
	if w.pending || w.handle != nil {
		return
	}
	w.pending = true
	w.wg.Add(1)
	go w.acquire()
}

func (w *WakeLock) acquire() {
	defer w.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), acquireTimeout)
	defer cancel()
	h, err := w.provider.Acquire(ctx)

	w.mu.Lock()
	w.pending = false
	if err != nil {
		onError := w.onError
		w.mu.Unlock()
		log.Warn("Failed to acquire wake lock", "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}
	if !w.wanted || w.handle != nil {
		w.mu.Unlock()
		log.Debug("Wake lock no longer wanted, releasing")
		if err := h.Release(); err != nil {
			log.Warn("Failed to release wake lock", "error", err)
		}
		return
	}
	w.handle = h
	w.mu.Unlock()
	log.Debug("Wake lock acquired")
}

// Release gives back the current grant, if any, and cancels interest in any
// acquisition still in flight. The grant is returned in the background;
// use Wait to block until it is.
func (w *WakeLock) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.wanted = false
	h := w.handle
	w.handle = nil
	if h == nil {
		return
	}
	w.wg.Add(1)
	go w.release(h)
}

func (w *WakeLock) release(h WakeLockHandle) {
	defer w.wg.Done()

	if err := h.Release(); err != nil {
		log.Warn("Failed to release wake lock", "error", err)
		return
	}
	log.Debug("Wake lock released")
}

// Held reports whether a live grant is currently held.
func (w *WakeLock) Held() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handle != nil && !w.handle.Released()
}

// Wait blocks until background acquisitions and releases have finished.
func (w *WakeLock) Wait() {
	w.wg.Wait()
}
