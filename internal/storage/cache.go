// cache.go - In-memory cache for repeated submissions

package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/townsquare/complaint_analyzer/internal/domain"
)

type cacheEntry struct {
	result   domain.AnalysisResult
	storedAt time.Time
}

// ResultCache remembers results of identical submissions for a short TTL,
// so a double-submitted form does not call the model twice.
type ResultCache struct {
	ttl     time.Duration
	entries map[string]cacheEntry
	mu      sync.RWMutex
	now     func() time.Time
}

// NewResultCache returns a cache with the given TTL. A non-positive TTL returns nil,
// and a nil *ResultCache is a valid cache that never hits.
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		return nil
	}
	return &ResultCache{ttl: ttl, entries: make(map[string]cacheEntry), now: time.Now}
}

// CacheKey hashes title, description and image bytes.
func CacheKey(req domain.AnalysisRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Title))
	h.Write([]byte{0})
	h.Write([]byte(req.Description))
	h.Write([]byte{0})
	if req.HasImage() {
		h.Write(req.Image.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached result for req if it has not expired.
func (c *ResultCache) Get(req domain.AnalysisRequest) (domain.AnalysisResult, bool) {
	if c == nil {
		return domain.AnalysisResult{}, false
	}
	key := CacheKey(req)

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || c.now().Sub(entry.storedAt) >= c.ttl {
		return domain.AnalysisResult{}, false
	}
	return entry.result, true
}

// Put stores result for req and evicts expired entries.
func (c *ResultCache) Put(req domain.AnalysisRequest, result domain.AnalysisResult) {
	if c == nil {
		return
	}
	key := CacheKey(req)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
	result.RecommendedActions = append([]string(nil), result.RecommendedActions...)
	c.entries[key] = cacheEntry{result: result, storedAt: now}
}

// Len returns the number of stored entries, expired or not.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all cached results.
func (c *ResultCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
