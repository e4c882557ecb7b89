package media

import (
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"
)

type cacheEntry struct {
	info *MediaInfo
	ts   time.Time
}

// probeCache memoizes pre-flight metadata lookups so repeated checks of the
// same URL do not hit the extractor again within the TTL.
type probeCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

func newProbeCache(ttl time.Duration) *probeCache {
	return &probeCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func cacheKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (c *probeCache) get(key string) (*MediaInfo, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(entry.ts) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.info, true
}

func (c *probeCache) set(key string, info *MediaInfo) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{info: info, ts: time.Now()}
	c.mu.Unlock()
}
