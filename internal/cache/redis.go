package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the production Cache backed by a Redis server.
type Redis struct {
	client *redis.Client
}

// NewRedis connects a cache to the Redis server at addr.
func NewRedis(addr string) *Redis {
	return &Redis{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// NewRedisWithClient wraps an existing client. Used by tests.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns the cached XML for a token. Backend errors are logged and
// reported as misses.
func (c *Redis) Get(ctx context.Context, token string) (string, bool) {
	val, err := c.client.Get(ctx, Key(token)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: get %s: %v", token, err)
		}
		return "", false
	}
	return val, true
}

// Put stores rendered XML under the token for ttl.
func (c *Redis) Put(ctx context.Context, token, xml string, ttl time.Duration) {
	if err := c.client.Set(ctx, Key(token), xml, ttl).Err(); err != nil {
		log.Printf("cache: put %s: %v", token, err)
	}
}

// Invalidate removes the entry for a token and verifies it is gone. The
// verification guards against a backing store with eventual-consistency
// semantics leaving stale XML in place.
func (c *Redis) Invalidate(ctx context.Context, token string) {
	key := Key(token)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Printf("cache: invalidate %s: %v", token, err)
		return
	}
	if n, err := c.client.Exists(ctx, key).Result(); err == nil && n > 0 {
		log.Printf("cache: entry %s still present after invalidation", key)
	}
}
