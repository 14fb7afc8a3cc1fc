package journal

import (
	"sort"
	"sync"
)

// SnapshotCache tracks the last-known value of every continuous signal.
// The daemon updates it on each append and plugs Produce in as the
// journal's snapshot producer, so every new journal file opens with the
// current state of the world.
type SnapshotCache struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{entries: map[string]Entry{}}
}

// Update remembers the entry when it is a continuous sample.
func (c *SnapshotCache) Update(e Entry) {
	if e.SampleType != SampleContinuous || e.Path == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.Path] = e
}

// Produce returns the cached entries ordered by path.
func (c *SnapshotCache) Produce() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	paths := make([]string, 0, len(c.entries))
	for p := range c.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]Entry, 0, len(paths))
	for _, p := range paths {
		out = append(out, c.entries[p])
	}
	return out
}
