// Package cache stores synthesized PCM audio so that replaying a chunk after
// a stop, a restart-style resume or a skipped error does not spawn the
// synthesizer again.
//
// The cache has two tiers:
//   - L1: an in-memory LRU bounded by item count
//   - L2: a zstd-compressed disk directory bounded by total size
//
// Hits in L2 are promoted to L1. Either tier can be disabled.
package cache
