package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"credit-ledger/pkg/id"
)

var ErrLockHeld = errors.New("lock held by another run")

// release only deletes the key when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RunLock is a single-holder lease on a redis key, used to keep scheduled jobs from overlapping.
type RunLock struct {
	rdb   *redis.Client
	key   string
	token string
}

// AcquireLock takes key for ttl or returns ErrLockHeld.
func AcquireLock(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (*RunLock, error) {
	token := id.NewID32()
	ok, err := rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &RunLock{rdb: rdb, key: key, token: token}, nil
}

func (l *RunLock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err()
}

// Guard binds key and ttl into a reusable acquire function for jobs that run from several entrypoints.
func Guard(rdb *redis.Client, key string, ttl time.Duration) func(ctx context.Context) (func(context.Context) error, error) {
	return func(ctx context.Context) (func(context.Context) error, error) {
		l, err := AcquireLock(ctx, rdb, key, ttl)
		if err != nil {
			return nil, err
		}
		return l.Release, nil
	}
}
