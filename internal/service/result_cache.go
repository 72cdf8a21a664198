package service

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/valuebet/internal/metrics"
)

// CacheKey identifies a cached analysis result. Results are tied to the
// rating version they were computed with.
type CacheKey struct {
	Kind           string
	Subject        string
	RatingsVersion uint64
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:v%d", k.Kind, k.Subject, k.RatingsVersion)
}

// ResultCache provides in-memory caching for analysis results
type ResultCache struct {
	cache   *cache.Cache
	ttl     time.Duration
	maxSize int

	mu     sync.Mutex
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewResultCache creates a new result cache
func NewResultCache(ttl time.Duration, maxSize int) *ResultCache {
	return &ResultCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached result
func (rc *ResultCache) Get(key CacheKey) (any, bool) {
	if result, found := rc.cache.Get(key.String()); found {
		rc.hits.Add(1)
		metrics.RecordCacheHit()
		return result, true
	}
	rc.misses.Add(1)
	metrics.RecordCacheMiss()
	return nil, false
}

// Set stores a result. When the cache is full, expired items are evicted
// first and the new item is dropped if that frees nothing.
func (rc *ResultCache) Set(key CacheKey, value any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.maxSize > 0 && rc.cache.ItemCount() >= rc.maxSize {
		rc.cache.DeleteExpired()
		if rc.cache.ItemCount() >= rc.maxSize {
			return
		}
	}
	rc.cache.Set(key.String(), value, rc.ttl)
}

// InvalidateKind removes every entry of one kind
func (rc *ResultCache) InvalidateKind(kind string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	prefix := kind + ":"
	for k := range rc.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			rc.cache.Delete(k)
		}
	}
}

// Clear flushes the entire cache
func (rc *ResultCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.cache.Flush()
}

// Stats returns cache statistics
func (rc *ResultCache) Stats() (hits, misses uint64, ratio float64) {
	hits = rc.hits.Load()
	misses = rc.misses.Load()
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (rc *ResultCache) ItemCount() int {
	return rc.cache.ItemCount()
}
