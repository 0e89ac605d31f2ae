// Package gateway provides the request layer every workflow step goes
// through to reach a chat-completion provider: a TTL'd response cache,
// a sliding-window rate limiter, and a single-worker request queue with
// provider-failure classification.
package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/meridianlabs/meridian/llm"
	"github.com/meridianlabs/meridian/model"
)

// Key computes a deterministic cache key over the fields that determine a
// response: model, temperature, and the ordered message contents. Fields
// are length-prefixed so adjacent values cannot collide.
func Key(modelName string, temperature float32, messages []model.ChatMessage) string {
	h := sha256.New()
	writeField(h, modelName)
	writeField(h, strconv.FormatFloat(float64(temperature), 'f', -1, 32))
	for _, msg := range messages {
		writeField(h, msg.Role)
		writeField(h, msg.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w io.Writer, s string) {
	fmt.Fprintf(w, "%d:%s", len(s), s)
}

type cacheEntry struct {
	response llm.ChatResponse
	created  time.Time
	expires  time.Time
}

// Cache is a bounded response cache with per-entry expiry.
//
// Eviction is strictly insertion-order: when a new entry would exceed the
// bound, the oldest-inserted entry goes first regardless of how recently
// it was read. Expired entries are pruned lazily on access.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	order      []string // insertion order, oldest first
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// NewCache creates a cache holding at most maxEntries responses, each
// readable for ttl after insertion.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the cached response for key if one exists and has not
// expired.
func (c *Cache) Get(key string) (llm.ChatResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return llm.ChatResponse{}, false
	}
	if !c.now().Before(entry.expires) {
		c.remove(key)
		return llm.ChatResponse{}, false
	}
	return entry.response, true
}

// Put stores a response under key, evicting the oldest-inserted entry if
// the cache is full. Re-putting an existing key refreshes its value and
// expiry but keeps its insertion position.
func (c *Cache) Put(key string, response llm.ChatResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.maxEntries && len(c.order) > 0 {
			c.remove(c.order[0])
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{
		response: response,
		created:  now,
		expires:  now.Add(c.ttl),
	}
}

// Len returns the number of entries currently held, including any that
// have expired but not yet been pruned.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	c.order = c.order[:0]
}

// remove deletes key from both the map and the order slice.
// Caller must hold c.mu.
func (c *Cache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
