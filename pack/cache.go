package pack

import (
	"strings"
	"sync"

	"github.com/mogaika/retro_model_browser/utils"
)

type CacheEntry struct {
	Instance interface{}
	Source   utils.ResourceSource
}

// InstanceCache keeps decoded instances by slash separated path
type InstanceCache struct {
	lock    sync.Mutex
	entries map[string]*CacheEntry
}

func NewInstanceCache() *InstanceCache {
	return &InstanceCache{entries: make(map[string]*CacheEntry)}
}

func (c *InstanceCache) Get(key string) (*CacheEntry, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *InstanceCache) Put(key string, e *CacheEntry) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.entries[key] = e
}

// Invalidate drops path and everything nested inside it
func (c *InstanceCache) Invalidate(key string) int {
	c.lock.Lock()
	defer c.lock.Unlock()
	removed := 0
	prefix := key + "/"
	for k := range c.entries {
		if k == key || strings.HasPrefix(k, prefix) || key == "" {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *InstanceCache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.entries)
}
