package cache

// RenderCache holds rendered blog post payloads keyed by slug. Content
// is immutable for the process lifetime, so entries never need to be
// invalidated, only evicted under memory pressure.
type RenderCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Clear()
}
