// Package cache holds rendered feed XML keyed by feed token. There is no
// dependency tracking: every feed-mutation path must call Invalidate for the
// mutated token or stale XML serves until the TTL runs out.
package cache

import (
	"context"
	"time"
)

// keyPrefix namespaces feed entries in the shared backing store.
const keyPrefix = "feed_xml_"

// Key returns the deterministic cache key for a feed token.
func Key(token string) string {
	return keyPrefix + token
}

// Cache is the rendered-feed cache. Implementations treat backend errors as
// misses: a broken cache degrades to full renders, never to request
// failures.
type Cache interface {
	Get(ctx context.Context, token string) (string, bool)
	Put(ctx context.Context, token, xml string, ttl time.Duration)
	Invalidate(ctx context.Context, token string)
}
