package platform

import (
	"sync"
	"time"
)

// KeepAlive periodically calls a kick function while running. Some speech
// engines silently stop after a fixed stretch of continuous output; a no-op
// pause and resume resets their internal timer.
type KeepAlive struct {
	interval time.Duration
	kick     func()

	mu     sync.Mutex
	stopCh chan struct{}
}

// NewKeepAlive returns a keep-alive that calls kick every interval. A zero
// interval disables it.
func NewKeepAlive(interval time.Duration, kick func()) *KeepAlive {
	return &KeepAlive{interval: interval, kick: kick}
}

// Start begins kicking. It is a no-op if already running or disabled.
func (k *KeepAlive) Start() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.interval <= 0 || k.kick == nil || k.stopCh != nil {
		return
	}
	k.stopCh = make(chan struct{})
	go k.loop(k.stopCh)
}

// Stop halts kicking. It is safe to call when not running.
func (k *KeepAlive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.stopCh != nil {
		close(k.stopCh)
		k.stopCh = nil
	}
}

// Running reports whether the ticker is active.
func (k *KeepAlive) Running() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.stopCh != nil
}

func (k *KeepAlive) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			k.kick()
		}
	}
}
