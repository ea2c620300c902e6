// Package cache implements the per-entity-kind read cache for remote
// list views. Writers never update entries in place: any mutation of an
// entity kind invalidates that kind's entry and the next read refills
// it from the remote store.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitrine/dmconsole/internal/domain"
	"github.com/vitrine/dmconsole/internal/pkg/logger"
)

const (
	keyPrefix  = "dmconsole:list:"
	defaultTTL = 5 * time.Minute
)

// ListCache caches the full record list per entity kind as a JSON blob.
// All operations are best-effort: a cache failure degrades to a remote
// read, never to an error surfaced to the caller.
type ListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a ListCache backed by the given redis client.
func New(rdb *redis.Client) *ListCache {
	return &ListCache{rdb: rdb, ttl: defaultTTL}
}

// Get returns the cached list for kind, or ok=false on a miss.
func (c *ListCache) Get(ctx context.Context, kind domain.EntityKind) ([]map[string]any, bool) {
	data, err := c.rdb.Get(ctx, keyPrefix+string(kind)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Debug("cache: get failed", "kind", kind, "error", err)
		}
		return nil, false
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn("cache: corrupt entry, dropping", "kind", kind, "error", err)
		c.Invalidate(ctx, kind)
		return nil, false
	}
	return records, true
}

// Set stores the list for kind.
func (c *ListCache) Set(ctx context.Context, kind domain.EntityKind, records []map[string]any) {
	data, err := json.Marshal(records)
	if err != nil {
		logger.Warn("cache: marshal failed", "kind", kind, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+string(kind), data, c.ttl).Err(); err != nil {
		logger.Debug("cache: set failed", "kind", kind, "error", err)
	}
}

// Invalidate clears the entry for kind.
func (c *ListCache) Invalidate(ctx context.Context, kind domain.EntityKind) {
	if err := c.rdb.Del(ctx, keyPrefix+string(kind)).Err(); err != nil {
		logger.Debug("cache: invalidate failed", "kind", kind, "error", err)
	}
}
