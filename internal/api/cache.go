package api

import (
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/zeebo/xxh3"
)

// resultCache memoizes computed responses by request key. A zero size disables it.
type resultCache struct {
	mu    sync.Mutex
	cache *lru.Cache
	hash  func(string) uint64
}

// cacheEntry keeps the full key so a hash collision reads as a miss.
type cacheEntry struct {
	key   string
	value any
}

func newResultCache(size int) *resultCache {
	rc := &resultCache{hash: xxh3.HashString}
	if size > 0 {
		rc.cache = lru.New(size)
	}
	return rc
}

func (rc *resultCache) get(key string) (any, bool) {
	if rc.cache == nil {
		return nil, false
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	v, ok := rc.cache.Get(rc.hash(key))
	if !ok {
		return nil, false
	}
	entry := v.(cacheEntry)
	if entry.key != key {
		return nil, false
	}
	return entry.value, true
}

func (rc *resultCache) put(key string, v any) {
	if rc.cache == nil {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.cache.Add(rc.hash(key), cacheEntry{key: key, value: v})
}

func (rc *resultCache) clear() {
	if rc.cache == nil {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.cache.Clear()
}

func (rc *resultCache) len() int {
	if rc.cache == nil {
		return 0
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.cache.Len()
}
