package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
)

const fileExt = ".pcm.zst"

// DiskCache stores zstd-compressed entries as files in a directory. The
// directory is the index: sizes and access times come from the file system,
// so entries written by an earlier run are reused.
type DiskCache struct {
	dir      string
	capacity int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.Mutex
	size  int64
	stats Stats
}

// NewDiskCache opens (creating if needed) a disk cache in dir bounded to
// capacity bytes of compressed data.
func NewDiskCache(dir string, capacity int64) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	dc := &DiskCache{
		dir:      dir,
		capacity: capacity,
		encoder:  encoder,
		decoder:  decoder,
	}

	files, err := dc.files()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		dc.size += f.size
	}
	dc.stats.Items = len(files)
	dc.stats.Bytes = dc.size
	log.Debug("Disk cache opened", "dir", dir, "items", len(files), "size", humanize.IBytes(uint64(dc.size)))

	return dc, nil
}

// Get retrieves and decompresses a value.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	path := dc.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		dc.stats.Misses++
		return nil, false
	}

	value, err := dc.decoder.DecodeAll(data, nil)
	if err != nil {
		log.Warn("Dropping corrupted cache entry", "path", path, "error", err)
		dc.removeLocked(path, int64(len(data)))
		dc.stats.Misses++
		return nil, false
	}

	now := time.Now()
	_ = os.Chtimes(path, now, now)
	dc.stats.Hits++
	return value, true
}

// Put compresses and stores a value, evicting the least recently used files
// until it fits.
func (dc *DiskCache) Put(key string, value []byte) error {
	data := dc.encoder.EncodeAll(value, nil)
	size := int64(len(data))
	if size > dc.capacity {
		return ErrItemTooLarge
	}

	dc.mu.Lock()
	defer dc.mu.Unlock()

	path := dc.path(key)
	if info, err := os.Stat(path); err == nil {
		dc.removeLocked(path, info.Size())
	}

	if dc.size+size > dc.capacity {
		if err := dc.evictLocked(dc.size + size - dc.capacity); err != nil {
			return err
		}
	}

	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	dc.size += size
	dc.stats.Items++
	dc.stats.Bytes = dc.size
	return nil
}

// Clear removes every cached file.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	files, err := dc.files()
	if err != nil {
		return err
	}
	for _, f := range files {
		dc.removeLocked(f.path, f.size)
	}
	return nil
}

// Size returns the compressed size of the cache in bytes.
func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.size
}

// Stats returns the cache counters.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.stats
}

// Close releases the codecs.
func (dc *DiskCache) Close() error {
	dc.decoder.Close()
	return dc.encoder.Close()
}

func (dc *DiskCache) path(key string) string {
	return filepath.Join(dc.dir, key+fileExt)
}

type cacheFile struct {
	path    string
	size    int64
	modTime time.Time
}

func (dc *DiskCache) files() ([]cacheFile, error) {
	entries, err := os.ReadDir(dc.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}
	var files []cacheFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		info, err := e.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		files = append(files, cacheFile{
			path:    filepath.Join(dc.dir, e.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return files, nil
}

// evictLocked removes the least recently used files until at least need
// bytes were freed.
func (dc *DiskCache) evictLocked(need int64) error {
	files, err := dc.files()
	if err != nil {
		return err
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	var freed int64
	for _, f := range files {
		if freed >= need {
			break
		}
		dc.removeLocked(f.path, f.size)
		dc.stats.Evictions++
		freed += f.size
	}
	return nil
}

func (dc *DiskCache) removeLocked(path string, size int64) {
	if err := os.Remove(path); err != nil {
		return
	}
	dc.size -= size
	dc.stats.Items--
	dc.stats.Bytes = dc.size
}

// writeFile writes to a temp file first, then renames it into place.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
