package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tickLock coordinates a single tick across multiple janitor processes
// sharing one database, using a Redis SET NX with an expiry of one tick
// interval as a mutual-exclusion lock. A nil client means single-process
// deployment: every tick is allowed.
type tickLock struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

func newTickLock(client *redis.Client, componentName string, tickInterval time.Duration) *tickLock {
	return &tickLock{
		redis: client,
		key:   fmt.Sprintf("statestore:janitor:tick-lock:%s", componentName),
		ttl:   tickInterval,
	}
}

// acquire reports whether this process won the right to run the current
// tick. With no Redis client configured it always returns true.
func (l *tickLock) acquire(ctx context.Context) (bool, error) {
	if l.redis == nil {
		return true, nil
	}
	ok, err := l.redis.SetNX(ctx, l.key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring janitor tick lock: %w", err)
	}
	return ok, nil
}
