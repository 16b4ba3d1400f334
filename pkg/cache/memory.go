// Package cache holds the in-process session cache used when no shared
// cache is configured.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lborres/walletbind/core"
)

// InMemoryCache is a size-bounded LRU of sessions keyed by token hash. It
// also indexes entries by identity so one identity's sessions can be
// dropped without flushing everyone else.
type InMemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	recency    *list.List // front is most recently used
	byIdentity map[string]map[string]struct{}
	ttl        time.Duration
	maxSize    int

	// counters
	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	evictions int64
}

var (
	_ core.CacheWithStats = (*InMemoryCache)(nil)
	_ core.IdentityCache  = (*InMemoryCache)(nil)
)

type entry struct {
	tokenHash string
	session   *core.Session
	cachedAt  time.Time
}

func NewInMemoryCache(c core.CacheConfig) *InMemoryCache {
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
	if c.MaxSize == 0 {
		c.MaxSize = 500
	}

	return &InMemoryCache{
		entries:    make(map[string]*list.Element),
		recency:    list.New(),
		byIdentity: make(map[string]map[string]struct{}),
		ttl:        c.TTL,
		maxSize:    c.MaxSize,
	}
}

// Get returns the cached session. Entries older than the TTL, or whose
// session has expired, are dropped and reported as a miss.
func (c *InMemoryCache) Get(tokenHash string) (*core.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[tokenHash]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, core.ErrCacheNotFound
	}

	e := el.Value.(*entry)
	now := time.Now()
	if now.Sub(e.cachedAt) > c.ttl || now.After(e.session.ExpiresAt) {
		c.removeLocked(el)
		atomic.AddInt64(&c.misses, 1)
		atomic.AddInt64(&c.evictions, 1)
		return nil, core.ErrCacheNotFound
	}

	c.recency.MoveToFront(el)
	atomic.AddInt64(&c.hits, 1)
	return e.session, nil
}

// Set stores session under tokenHash, evicting the least recently used entry
// when a new key would exceed the size bound.
func (c *InMemoryCache) Set(tokenHash string, session *core.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[tokenHash]; ok {
		c.removeLocked(el)
	} else if len(c.entries) >= c.maxSize {
		if oldest := c.recency.Back(); oldest != nil {
			c.removeLocked(oldest)
			atomic.AddInt64(&c.evictions, 1)
		}
	}

	c.entries[tokenHash] = c.recency.PushFront(&entry{
		tokenHash: tokenHash,
		session:   session,
		cachedAt:  time.Now(),
	})
	ids := c.byIdentity[session.IdentityID]
	if ids == nil {
		ids = make(map[string]struct{})
		c.byIdentity[session.IdentityID] = ids
	}
	ids[tokenHash] = struct{}{}

	atomic.AddInt64(&c.sets, 1)
	return nil
}

func (c *InMemoryCache) Delete(tokenHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[tokenHash]; ok {
		c.removeLocked(el)
		atomic.AddInt64(&c.deletes, 1)
	}
	return nil
}

// DeleteIdentity drops every cached session of identityID and returns how
// many there were.
func (c *InMemoryCache) DeleteIdentity(identityID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	hashes := c.byIdentity[identityID]
	n := 0
	for hash := range hashes {
		if el, ok := c.entries[hash]; ok {
			c.removeLocked(el)
			n++
		}
	}
	atomic.AddInt64(&c.deletes, int64(n))
	return n
}

func (c *InMemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.recency.Init()
	c.byIdentity = make(map[string]map[string]struct{})
	return nil
}

func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *InMemoryCache) Stats() core.CacheStats {
	return core.CacheStats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Sets:      atomic.LoadInt64(&c.sets),
		Deletes:   atomic.LoadInt64(&c.deletes),
		Evictions: atomic.LoadInt64(&c.evictions),
		Size:      c.Len(),
		TTL:       c.ttl,
	}
}

// removeLocked unlinks el from every index. c.mu must be held.
func (c *InMemoryCache) removeLocked(el *list.Element) {
	e := c.recency.Remove(el).(*entry)
	delete(c.entries, e.tokenHash)
	if ids := c.byIdentity[e.session.IdentityID]; ids != nil {
		delete(ids, e.tokenHash)
		if len(ids) == 0 {
			delete(c.byIdentity, e.session.IdentityID)
		}
	}
}
