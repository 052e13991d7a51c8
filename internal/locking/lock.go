// Package locking guards batch submissions against being run twice at the
// same time, e.g. a double-clicked deduction. It is a no-op without Redis.
package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catering-backend/internal/apperr"
	"catering-backend/internal/logging"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrBusy = apperr.New(apperr.Conflict, "the same operation is already running, try again shortly")

const keyPrefix = "catering:lock:"

var (
	rdb    *redis.Client
	locker *redislock.Client
)

// Init connects to Redis at addr. An empty addr leaves locking disabled.
func Init(ctx context.Context, addr string) error {
	if addr == "" {
		logging.GetLogger().Info("REDIS_ADDRESS not set, submission locks disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", addr, err)
	}
	rdb = client
	locker = redislock.New(client)
	logging.GetLogger().WithField("addr", addr).Info("connected to redis")
	return nil
}

func Close() error {
	if rdb == nil {
		return nil
	}
	return rdb.Close()
}

// Obtain takes the named lock for at most ttl. The returned release func is
// always non-nil and safe to defer.
func Obtain(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	lock, err := locker.Obtain(ctx, keyPrefix+name, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return func() {}, fmt.Errorf("%w (%s)", ErrBusy, name)
	}
	if err != nil {
		logging.LogError("locking", "Obtain", "redis lock failed", name, err)
		return func() {}, err
	}
	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logging.LogError("locking", "Obtain", "redis lock release failed", name, err)
		}
	}, nil
}
