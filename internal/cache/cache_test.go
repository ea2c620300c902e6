package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine/dmconsole/internal/domain"
)

func setupCache(t *testing.T) (*ListCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return New(rdb), mr
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, domain.KindAccounts)
	assert.False(t, ok)

	records := []map[string]any{{"instagram_username": "alice", "id": float64(1)}}
	c.Set(ctx, domain.KindAccounts, records)

	got, ok := c.Get(ctx, domain.KindAccounts)
	require.True(t, ok)
	assert.Equal(t, records, got)
}

func TestCacheKindsAreIsolated(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	c.Set(ctx, domain.KindAccounts, []map[string]any{{"instagram_username": "alice"}})

	_, ok := c.Get(ctx, domain.KindSenders)
	assert.False(t, ok)
}

func TestCacheInvalidate(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	c.Set(ctx, domain.KindTemplates, []map[string]any{{"text": "hi"}})
	c.Invalidate(ctx, domain.KindTemplates)

	_, ok := c.Get(ctx, domain.KindTemplates)
	assert.False(t, ok)
}

func TestCacheCorruptEntryDropped(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("dmconsole:list:accounts", "{not json"))

	_, ok := c.Get(ctx, domain.KindAccounts)
	assert.False(t, ok)
	assert.False(t, mr.Exists("dmconsole:list:accounts"))
}

func TestCacheEntryExpires(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	c.Set(ctx, domain.KindAccounts, []map[string]any{{"instagram_username": "alice"}})
	mr.FastForward(defaultTTL * 2)

	_, ok := c.Get(ctx, domain.KindAccounts)
	assert.False(t, ok)
}
