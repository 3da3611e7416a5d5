package cache

import "sync"

var _ RenderCache = (*TestRenderCache)(nil)

// TestRenderCache is a plain map cache for handler tests.
type TestRenderCache struct {
	mutex sync.Mutex
	cache map[string][]byte
}

func NewTestRenderCache() *TestRenderCache {
	return &TestRenderCache{
		cache: make(map[string][]byte),
	}
}

func (tc *TestRenderCache) Get(key string) ([]byte, bool) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	val, ok := tc.cache[key]
	return val, ok
}

func (tc *TestRenderCache) Set(key string, value []byte) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.cache[key] = value
}

func (tc *TestRenderCache) Clear() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.cache = make(map[string][]byte)
}
