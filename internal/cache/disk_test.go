package cache

import (
	"bytes"
	"os"
	"testing"
	"time"
)

func pcm(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i%7)
	}
	return b
}

func TestDiskCacheRoundTrip(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	defer dc.Close()

	want := pcm(4096, 1)
	if err := dc.Put("k", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := dc.Get("k")
	if !ok || !bytes.Equal(got, want) {
		t.Fatal("round trip mismatch")
	}
	if dc.Size() <= 0 || dc.Size() >= int64(len(want)) {
		t.Errorf("compressed size = %d, want between 0 and %d", dc.Size(), len(want))
	}
	if _, ok := dc.Get("missing"); ok {
		t.Error("unexpected hit")
	}
}

func TestDiskCacheReopen(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	want := pcm(2048, 3)
	if err := dc.Put("k", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	size := dc.Size()
	dc.Close()

	dc, err = NewDiskCache(dir, 1<<20)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer dc.Close()

	if dc.Size() != size {
		t.Errorf("reopened size = %d, want %d", dc.Size(), size)
	}
	if got, ok := dc.Get("k"); !ok || !bytes.Equal(got, want) {
		t.Error("entry lost across reopen")
	}
}

func TestDiskCacheEviction(t *testing.T) {
	dir := t.TempDir()
	probe, err := NewDiskCache(dir, 1<<20)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	if err := probe.Put("probe", pcm(1024, 9)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entry := probe.Size()
	if err := probe.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	probe.Close()

	// Room for two entries of the probe's size.
	dc, err := NewDiskCache(dir, 2*entry+entry/2)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	defer dc.Close()

	if err := dc.Put("old", pcm(1024, 9)); err != nil {
		t.Fatalf("Put old: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(dc.path("old"), past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if err := dc.Put("mid", pcm(1024, 9)); err != nil {
		t.Fatalf("Put mid: %v", err)
	}
	if err := dc.Put("new", pcm(1024, 9)); err != nil {
		t.Fatalf("Put new: %v", err)
	}

	if _, ok := dc.Get("old"); ok {
		t.Error("expected the oldest entry to be evicted")
	}
	for _, key := range []string{"mid", "new"} {
		if _, ok := dc.Get(key); !ok {
			t.Errorf("expected %s to survive", key)
		}
	}
	if dc.Stats().Evictions != 1 {
		t.Errorf("evictions = %d, want 1", dc.Stats().Evictions)
	}
}

func TestDiskCacheTooLarge(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	defer dc.Close()

	if err := dc.Put("k", pcm(4096, 1)); err != ErrItemTooLarge {
		t.Errorf("Put error = %v, want ErrItemTooLarge", err)
	}
}

func TestDiskCacheCorrupted(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	defer dc.Close()

	if err := dc.Put("k", pcm(512, 2)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := os.WriteFile(dc.path("k"), []byte("not zstd"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, ok := dc.Get("k"); ok {
		t.Error("corrupted entry returned")
	}
	if _, err := os.Stat(dc.path("k")); !os.IsNotExist(err) {
		t.Error("corrupted entry not removed")
	}
}
