package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// ErrItemTooLarge is returned when an item exceeds the cache capacity.
var ErrItemTooLarge = errors.New("item too large for cache")

// Stats holds cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Items     int
	Bytes     int64
}

// Config configures a two-tier cache.
type Config struct {
	MemoryItems int    // zero disables L1
	Dir         string // empty disables L2
	MaxDiskSize int64  // bytes of compressed data
}

// Cache combines a memory tier and an optional disk tier.
type Cache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// New creates a cache from config.
func New(config Config) (*Cache, error) {
	c := &Cache{memory: NewMemoryCache(config.MemoryItems)}
	if config.Dir != "" && config.MaxDiskSize > 0 {
		disk, err := NewDiskCache(config.Dir, config.MaxDiskSize)
		if err != nil {
			return nil, err
		}
		c.disk = disk
	}
	return c, nil
}

// Key derives a cache key from everything that changes the synthesized audio.
func Key(text, voice string, rate, pitch float64) string {
	data := fmt.Sprintf("%s|%s|%.2f|%.2f", text, voice, rate, pitch)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// Get looks a key up in L1 and then L2, promoting L2 hits.
func (c *Cache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	if data, ok := c.memory.Get(key); ok {
		return data, true
	}
	if c.disk == nil {
		return nil, false
	}
	data, ok := c.disk.Get(key)
	if ok {
		c.memory.Put(key, data)
	}
	return data, ok
}

// Put stores data in both tiers. Disk failures are logged, not returned.
func (c *Cache) Put(key string, data []byte) {
	if c == nil {
		return
	}
	c.memory.Put(key, data)
	if c.disk == nil {
		return
	}
	if err := c.disk.Put(key, data); err != nil {
		log.Debug("Disk cache put failed", "key", key, "error", err)
	}
}

// Stats returns the counters of both tiers.
func (c *Cache) Stats() (memory, disk Stats) {
	if c == nil {
		return Stats{}, Stats{}
	}
	memory = c.memory.Stats()
	if c.disk != nil {
		disk = c.disk.Stats()
	}
	return memory, disk
}

// Close releases the disk tier.
func (c *Cache) Close() error {
	if c == nil || c.disk == nil {
		return nil
	}
	return c.disk.Close()
}
