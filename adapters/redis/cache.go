// Package redis implements the session cache on Redis so that several
// service instances share one view of live sessions.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lborres/walletbind/core"
)

const (
	DefaultPrefix    = "walletbind:session:"
	DefaultOpTimeout = 500 * time.Millisecond

	scanBatch = 500
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Connect creates a client and pings the server.
func Connect(ctx context.Context, cfg Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	return client, nil
}

// Cache stores sessions as JSON under prefix+tokenHash. Entries expire after
// the cache TTL or at session expiry, whichever is sooner.
type Cache struct {
	client  *goredis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration

	hits    int64
	misses  int64
	sets    int64
	deletes int64
}

var _ core.CacheWithStats = (*Cache)(nil)

func NewCache(client *goredis.Client, c core.CacheConfig) *Cache {
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
	return &Cache{
		client:  client,
		prefix:  DefaultPrefix,
		ttl:     c.TTL,
		timeout: DefaultOpTimeout,
	}
}

// WithPrefix namespaces keys, for deployments sharing one Redis database.
func (c *Cache) WithPrefix(prefix string) *Cache {
	if prefix != "" {
		c.prefix = prefix
	}
	return c
}

func (c *Cache) key(tokenHash string) string {
	return c.prefix + tokenHash
}

func (c *Cache) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *Cache) Get(tokenHash string) (*core.Session, error) {
	ctx, cancel := c.opContext()
	defer cancel()

	val, err := c.client.Get(ctx, c.key(tokenHash)).Bytes()
	if errors.Is(err, goredis.Nil) {
		atomic.AddInt64(&c.misses, 1)
		return nil, core.ErrCacheNotFound
	}
	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, err
	}

	return c.decode(tokenHash, val)
}

// decode turns a stored value into a session. An unreadable value counts as
// a miss.
func (c *Cache) decode(tokenHash string, val []byte) (*core.Session, error) {
	var session core.Session
	if err := json.Unmarshal(val, &session); err != nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	// TokenHash is not serialized; the key carries it.
	session.TokenHash = tokenHash

	atomic.AddInt64(&c.hits, 1)
	return &session, nil
}

func (c *Cache) Set(tokenHash string, session *core.Session) error {
	ttl := entryTTL(c.ttl, session.ExpiresAt, time.Now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	ctx, cancel := c.opContext()
	defer cancel()
	if err := c.client.Set(ctx, c.key(tokenHash), data, ttl).Err(); err != nil {
		return err
	}

	atomic.AddInt64(&c.sets, 1)
	return nil
}

func (c *Cache) Delete(tokenHash string) error {
	ctx, cancel := c.opContext()
	defer cancel()

	n, err := c.client.Del(ctx, c.key(tokenHash)).Result()
	if err != nil {
		return err
	}
	atomic.AddInt64(&c.deletes, n)
	return nil
}

// Clear removes every key under the prefix.
func (c *Cache) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*c.timeout)
	defer cancel()

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Stats reports counters for this process only.
func (c *Cache) Stats() core.CacheStats {
	return core.CacheStats{
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
		Sets:    atomic.LoadInt64(&c.sets),
		Deletes: atomic.LoadInt64(&c.deletes),
		TTL:     c.ttl,
	}
}

// entryTTL caps the cache TTL at the time left on the session.
func entryTTL(cacheTTL time.Duration, expiresAt, now time.Time) time.Duration {
	left := expiresAt.Sub(now)
	if left < cacheTTL {
		return left
	}
	return cacheTTL
}
