// Package cache provides a thread-safe generic cache and the preview render caches built on it.
package cache

import "sync"

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

// GetOrSet returns the value for key, storing the result of create first if
// the key is absent. create runs under the write lock.
func (c *Cache[K, V]) GetOrSet(key K, create func() V) (V, bool) {
	c.mu.RLock()
	val, ok := c.items[key]
	c.mu.RUnlock()
	if ok {
		return val, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if val, ok := c.items[key]; ok {
		return val, true
	}
	val = create()
	c.items[key] = val
	return val, false
}

// Range calls fn for each item until fn returns false. fn must not modify the cache.
func (c *Cache[K, V]) Range(fn func(key K, value V) bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.items {
		if !fn(k, v) {
			return
		}
	}
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

func (c *Cache[K, V]) SetTo(items map[K]V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

// RenderedContent represents cached rendered markdown with HTML and extra data.
type RenderedContent struct {
	HTML  []byte
	Extra interface{}
}

var renderedMarkdownCache = NewCache[string, *RenderedContent]()

func GetRenderedMarkdown(contentHash, syntaxTheme string) (*RenderedContent, bool) {
	key := contentHash + ":" + syntaxTheme
	return renderedMarkdownCache.Get(key)
}

func SetRenderedMarkdown(contentHash, syntaxTheme string, html []byte, extra interface{}) {
	key := contentHash + ":" + syntaxTheme
	renderedMarkdownCache.Set(key, &RenderedContent{
		HTML:  html,
		Extra: extra,
	})
}

// GetOrRenderMarkdown returns the cached rendering or stores the result of
// render. Concurrent misses for the same key render once. The bool reports a hit.
func GetOrRenderMarkdown(contentHash, syntaxTheme string, render func() *RenderedContent) (*RenderedContent, bool) {
	key := contentHash + ":" + syntaxTheme
	return renderedMarkdownCache.GetOrSet(key, render)
}

func ClearRenderedMarkdownCache() {
	renderedMarkdownCache.Clear()
}
