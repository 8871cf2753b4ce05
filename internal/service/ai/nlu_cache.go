package ai

import (
	"sync"
	"time"

	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
)

type ParseCacheEntry struct {
	Query     *domain.PreferenceQuery
	Metadata  *GenerateMetadata
	Timestamp time.Time
}

// ParseCache remembers parsed requests for ttl so repeated questions skip the model.
type ParseCache struct {
	mu      sync.RWMutex
	entries map[string]*ParseCacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewParseCache(ttl time.Duration) *ParseCache {
	return &ParseCache{
		entries: make(map[string]*ParseCacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *ParseCache) Get(key string) (*ParseCacheEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.Timestamp) >= c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry, true
}

func (c *ParseCache) Set(key string, query *domain.PreferenceQuery, metadata *GenerateMetadata) {
	c.mu.Lock()
	c.entries[key] = &ParseCacheEntry{
		Query:     query,
		Metadata:  metadata,
		Timestamp: c.now(),
	}
	c.mu.Unlock()
}
