package ui

import (
	"hash/fnv"
	"math"
	"sync"
)

// RenderCache memoizes rendered rows by a hash of everything that affects
// their output. When full it is dropped wholesale; rows are cheap to
// re-render and the visible window refills it in one frame.
type RenderCache struct {
	mu      sync.Mutex
	entries map[uint64]string
	maxSize int
	hits    int
	misses  int
}

// NewRenderCache creates a cache holding at most maxSize rows.
func NewRenderCache(maxSize int) *RenderCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &RenderCache{entries: make(map[uint64]string), maxSize: maxSize}
}

// ComputeKey hashes strings, ints, int64s, float64s and bools with FNV-1a.
// Other types are ignored.
func ComputeKey(inputs ...any) uint64 {
	h := fnv.New64a()
	var b [8]byte
	put := func(u uint64) {
		for i := range b {
			b[i] = byte(u >> (8 * i))
		}
		h.Write(b[:])
	}
	for _, input := range inputs {
		switch v := input.(type) {
		case string:
			h.Write([]byte(v))
			h.Write([]byte{0})
		case int:
			put(uint64(v))
		case int64:
			put(uint64(v))
		case float64:
			put(math.Float64bits(v))
		case bool:
			if v {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		}
	}
	return h.Sum64()
}

// GetOrCompute returns the cached row for key or renders and stores it.
func (rc *RenderCache) GetOrCompute(key uint64, compute func() string) string {
	rc.mu.Lock()
	if s, ok := rc.entries[key]; ok {
		rc.hits++
		rc.mu.Unlock()
		return s
	}
	rc.misses++
	rc.mu.Unlock()

	s := compute()

	rc.mu.Lock()
	if len(rc.entries) >= rc.maxSize {
		rc.entries = make(map[uint64]string, rc.maxSize)
	}
	rc.entries[key] = s
	rc.mu.Unlock()
	return s
}

// Len returns the number of cached rows.
func (rc *RenderCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries)
}

// Stats returns hit and miss counts.
func (rc *RenderCache) Stats() (hits, misses int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.hits, rc.misses
}

// Clear empties the cache.
func (rc *RenderCache) Clear() {
	rc.mu.Lock()
	rc.entries = make(map[uint64]string, rc.maxSize)
	rc.mu.Unlock()
}
