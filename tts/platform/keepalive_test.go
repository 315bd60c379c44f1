package platform

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestKeepAliveKicks(t *testing.T) {
	var kicks atomic.Int32
	k := NewKeepAlive(5*time.Millisecond, func() { kicks.Add(1) })

	k.Start()
	k.Start()
	if !k.Running() {
		t.Fatal("expected keep-alive to be running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for kicks.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if kicks.Load() < 2 {
		t.Fatalf("kicks = %d, want at least 2", kicks.Load())
	}

	k.Stop()
	k.Stop()
	if k.Running() {
		t.Fatal("expected keep-alive to be stopped")
	}

	// A tick already in flight may still land right after Stop.
	time.Sleep(20 * time.Millisecond)
	settled := kicks.Load()
	time.Sleep(30 * time.Millisecond)
	if got := kicks.Load(); got != settled {
		t.Errorf("kicks after stop = %d, want %d", got, settled)
	}
}

func TestKeepAliveDisabled(t *testing.T) {
	k := NewKeepAlive(0, func() { t.Error("disabled keep-alive must not kick") })
	k.Start()
	if k.Running() {
		t.Error("zero interval should not start")
	}
	k.Stop()
}
