package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyString(t *testing.T) {
	key := CacheKey{Kind: cacheKindPrediction, Subject: "100", RatingsVersion: 4}
	assert.Equal(t, "prediction:100:v4", key.String())
}

func TestResultCacheGetSet(t *testing.T) {
	rc := NewResultCache(time.Minute, 10)
	key := CacheKey{Kind: cacheKindBetting, Subject: "100", RatingsVersion: 1}

	_, ok := rc.Get(key)
	assert.False(t, ok)

	rc.Set(key, "evaluation")
	value, ok := rc.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "evaluation", value)

	stale := key
	stale.RatingsVersion = 2
	_, ok = rc.Get(stale)
	assert.False(t, ok)

	hits, misses, ratio := rc.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)
	assert.InDelta(t, 1.0/3.0, ratio, 1e-9)
}

func TestResultCacheMaxSize(t *testing.T) {
	rc := NewResultCache(time.Minute, 2)

	rc.Set(CacheKey{Kind: "a", Subject: "1"}, 1)
	rc.Set(CacheKey{Kind: "a", Subject: "2"}, 2)
	rc.Set(CacheKey{Kind: "a", Subject: "3"}, 3)

	assert.Equal(t, 2, rc.ItemCount())
	_, ok := rc.Get(CacheKey{Kind: "a", Subject: "3"})
	assert.False(t, ok)
}

func TestResultCacheInvalidateKind(t *testing.T) {
	rc := NewResultCache(time.Minute, 0)
	rc.Set(CacheKey{Kind: cacheKindPrediction, Subject: "1"}, 1)
	rc.Set(CacheKey{Kind: cacheKindPrediction, Subject: "2"}, 2)
	rc.Set(CacheKey{Kind: cacheKindBetting, Subject: "1"}, 3)

	rc.InvalidateKind(cacheKindPrediction)

	assert.Equal(t, 1, rc.ItemCount())
	_, ok := rc.Get(CacheKey{Kind: cacheKindBetting, Subject: "1"})
	assert.True(t, ok)

	rc.Clear()
	assert.Equal(t, 0, rc.ItemCount())
}

func TestResultCacheExpiry(t *testing.T) {
	rc := NewResultCache(20*time.Millisecond, 0)
	key := CacheKey{Kind: "a", Subject: "1"}
	rc.Set(key, 1)

	assert.Eventually(t, func() bool {
		_, ok := rc.Get(key)
		return !ok
	}, time.Second, 10*time.Millisecond)
}
