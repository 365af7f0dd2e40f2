package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Redis, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	return NewRedis(s.Addr()), s
}

func TestKey(t *testing.T) {
	assert.Equal(t, "feed_xml_abc123", Key("abc123"))
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, s := newTestCache(t)

	_, ok := c.Get(ctx, "tok")
	assert.False(t, ok, "empty cache must miss")

	c.Put(ctx, "tok", "<rss/>", time.Hour)
	val, ok := c.Get(ctx, "tok")
	assert.True(t, ok)
	assert.Equal(t, "<rss/>", val)

	// The entry lives under the namespaced key, not the bare token.
	require.True(t, s.Exists("feed_xml_tok"))
	require.False(t, s.Exists("tok"))
}

func TestRedisTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c, s := newTestCache(t)

	c.Put(ctx, "tok", "<rss/>", time.Hour)
	s.FastForward(time.Hour + time.Second)

	_, ok := c.Get(ctx, "tok")
	assert.False(t, ok)
}

func TestRedisInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	c.Put(ctx, "tok", "<rss/>", time.Hour)
	c.Put(ctx, "other", "<rss2/>", time.Hour)
	c.Invalidate(ctx, "tok")

	_, ok := c.Get(ctx, "tok")
	assert.False(t, ok)
	val, ok := c.Get(ctx, "other")
	assert.True(t, ok, "invalidation must not touch other tokens")
	assert.Equal(t, "<rss2/>", val)

	// Invalidating an absent token is a no-op, not an error.
	c.Invalidate(ctx, "missing")
}

func TestRedisDownDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	c, s := newTestCache(t)
	c.Put(ctx, "tok", "<rss/>", time.Hour)
	s.Close()

	_, ok := c.Get(ctx, "tok")
	assert.False(t, ok)
	c.Put(ctx, "tok", "<rss/>", time.Hour)
	c.Invalidate(ctx, "tok")
}
