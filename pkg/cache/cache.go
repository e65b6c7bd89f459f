// Package cache provides an LRU cache with msgpack disk persistence. The
// CLI keeps elimination reports in it, keyed by source content and options.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// Entry represents a cache entry with metadata.
type Entry[V any] struct {
	Key        string    `msgpack:"key"`
	Value      V         `msgpack:"value"`
	AccessedAt time.Time `msgpack:"accessed_at"`
	CreatedAt  time.Time `msgpack:"created_at"`
	Size       int       `msgpack:"size"` // encoded size in bytes
}

// item is an entry linked into the recency list.
type item[V any] struct {
	Entry[V]
	prev, next *item[V]
}

// Options configures an LRU.
type Options struct {
	// MaxSize is the maximum number of entries. 0 means unlimited.
	MaxSize int

	// MaxBytes is the approximate maximum encoded size. 0 means unlimited.
	MaxBytes int64

	// OnEvict is called with the key of every entry dropped to honour a limit.
	OnEvict func(key string)
}

// Stats summarises cache usage.
type Stats struct {
	Length       int   `json:"length"`
	CurrentBytes int64 `json:"current_bytes"`
	HitCount     int64 `json:"hit_count"`
	MissCount    int64 `json:"miss_count"`
}

// HitRate returns the fraction of lookups that hit.
func (s Stats) HitRate() float64 {
	total := s.HitCount + s.MissCount
	if total == 0 {
		return 0
	}
	return float64(s.HitCount) / float64(total)
}

// LRU is an in-memory least-recently-used cache. It is safe for concurrent use.
type LRU[V any] struct {
	mu           sync.Mutex
	items        map[string]*item[V]
	head, tail   *item[V] // most and least recently used
	opts         Options
	currentBytes int64
	hits, misses int64
	now          func() time.Time
}

// New creates an empty LRU.
func New[V any](opts Options) *LRU[V] {
	return &LRU[V]{
		items: make(map[string]*item[V]),
		opts:  opts,
		now:   time.Now,
	}
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	it.AccessedAt = c.now()
	c.unlink(it)
	c.pushFront(it)
	return it.Value, true
}

// Lookup is Get returning ErrKeyNotFound for a miss.
func (c *LRU[V]) Lookup(key string) (V, error) {
	v, ok := c.Get(key)
	if !ok {
		return v, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return v, nil
}

// Set stores value under key, evicting old entries as needed.
func (c *LRU[V]) Set(key string, value V) {
	size := estimateSize(value)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if it, ok := c.items[key]; ok {
		c.currentBytes += int64(size - it.Size)
		it.Value = value
		it.Size = size
		it.AccessedAt = now
		c.unlink(it)
		c.pushFront(it)
	} else {
		it := &item[V]{Entry: Entry[V]{
			Key:        key,
			Value:      value,
			AccessedAt: now,
			CreatedAt:  now,
			Size:       size,
		}}
		c.items[key] = it
		c.pushFront(it)
		c.currentBytes += int64(size)
	}
	c.evictIfNeeded()
}

// Delete removes key from the cache.
func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if it, ok := c.items[key]; ok {
		c.remove(it)
	}
}

// Clear removes all entries. Statistics are kept.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Len returns the number of entries in the cache.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns the keys from most to least recently used.
func (c *LRU[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.items))
	for it := c.head; it != nil; it = it.next {
		keys = append(keys, it.Key)
	}
	return keys
}

// Stats returns the current cache statistics.
func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Length:       len(c.items),
		CurrentBytes: c.currentBytes,
		HitCount:     c.hits,
		MissCount:    c.misses,
	}
}

func (c *LRU[V]) reset() {
	c.items = make(map[string]*item[V])
	c.head, c.tail = nil, nil
	c.currentBytes = 0
}

func (c *LRU[V]) pushFront(it *item[V]) {
	it.prev = nil
	it.next = c.head
	if c.head != nil {
		c.head.prev = it
	}
	c.head = it
	if c.tail == nil {
		c.tail = it
	}
}

func (c *LRU[V]) unlink(it *item[V]) {
	if it.prev != nil {
		it.prev.next = it.next
	} else {
		c.head = it.next
	}
	if it.next != nil {
		it.next.prev = it.prev
	} else {
		c.tail = it.prev
	}
	it.prev, it.next = nil, nil
}

func (c *LRU[V]) remove(it *item[V]) {
	c.unlink(it)
	delete(c.items, it.Key)
	c.currentBytes -= int64(it.Size)
}

// evictIfNeeded drops least recently used entries until the limits hold.
// The newest entry is always kept.
func (c *LRU[V]) evictIfNeeded() {
	for c.tail != nil && c.tail != c.head && c.overLimit() {
		victim := c.tail
		c.remove(victim)
		if c.opts.OnEvict != nil {
			c.opts.OnEvict(victim.Key)
		}
	}
}

func (c *LRU[V]) overLimit() bool {
	if c.opts.MaxSize > 0 && len(c.items) > c.opts.MaxSize {
		return true
	}
	return c.opts.MaxBytes > 0 && c.currentBytes > c.opts.MaxBytes
}

// Save writes the entries, most recently used first, as msgpack.
func (c *LRU[V]) Save(w io.Writer) error {
	c.mu.Lock()
	entries := make([]Entry[V], 0, len(c.items))
	for it := c.head; it != nil; it = it.next {
		entries = append(entries, it.Entry)
	}
	c.mu.Unlock()

	if err := msgpack.NewEncoder(w).Encode(entries); err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	return nil
}

// Load replaces the contents with entries written by Save, then applies the
// configured limits.
func (c *LRU[V]) Load(r io.Reader) error {
	var entries []Entry[V]
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if old, ok := c.items[e.Key]; ok {
			c.remove(old)
		}
		it := &item[V]{Entry: e}
		c.items[e.Key] = it
		c.pushFront(it)
		c.currentBytes += int64(e.Size)
	}
	c.evictIfNeeded()
	return nil
}

// SaveFile writes the cache to path through a temporary file so readers
// never observe a partial write.
func (c *LRU[V]) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmp := f.Name()
	if err := c.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// LoadFile restores the cache from path. A missing file is not an error.
func (c *LRU[V]) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}

// estimateSize returns the msgpack-encoded size of value.
func estimateSize(value interface{}) int {
	b, err := msgpack.Marshal(value)
	if err != nil {
		return 0
	}
	return len(b)
}
