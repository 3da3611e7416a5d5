package cache

import (
	"github.com/coocood/freecache"
)

var _ RenderCache = (*FreecacheRenderCache)(nil)

type FreecacheRenderCache struct {
	mainCache *freecache.Cache
}

// NewRenderCache creates a freecache backed render cache. Size is in
// bytes, freecache allocates it upfront.
func NewRenderCache(sizeBytes int) *FreecacheRenderCache {
	return &FreecacheRenderCache{
		mainCache: freecache.NewCache(sizeBytes),
	}
}

func (rc *FreecacheRenderCache) Get(key string) ([]byte, bool) {
	val, err := rc.mainCache.Get([]byte(key))
	if err != nil {
		// freecache returns ErrNotFound for missing entries
		return nil, false
	}
	return val, true
}

func (rc *FreecacheRenderCache) Set(key string, value []byte) {
	// expireSeconds 0 - never expire; content is static per process
	if err := rc.mainCache.Set([]byte(key), value, 0); err != nil {
		// entries bigger than 1/1024 of the cache size cannot be stored,
		// the render is then simply recomputed per request
		return
	}
}

func (rc *FreecacheRenderCache) Clear() {
	rc.mainCache.Clear()
}
