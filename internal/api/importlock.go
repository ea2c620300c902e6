package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitrine/dmconsole/internal/domain"
)

// lockTTL bounds how long an abandoned import can block the next one.
const lockTTL = 10 * time.Minute

// kindLock serializes imports per entity kind across console instances,
// via SET NX with a TTL. The random ownership value and the Lua release
// keep one instance from releasing a lock another one holds.
type kindLock struct {
	rdb   *redis.Client
	key   string
	value string
}

func newKindLock(rdb *redis.Client, kind domain.EntityKind) *kindLock {
	b := make([]byte, 16)
	rand.Read(b)
	return &kindLock{
		rdb:   rdb,
		key:   "dmconsole:import:lock:" + string(kind),
		value: hex.EncodeToString(b),
	}
}

// acquire returns true when this instance now holds the kind's lock.
// A redis failure is reported as an error so the caller can decide to
// proceed unguarded.
func (l *kindLock) acquire(ctx context.Context) (bool, error) {
	return l.rdb.SetNX(ctx, l.key, l.value, lockTTL).Result()
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// release drops the lock if this instance still owns it.
func (l *kindLock) release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.rdb, []string{l.key}, l.value).Err()
}
