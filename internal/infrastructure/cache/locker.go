package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lending-ledger/pkg/id"

	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("loan lock not acquired")

// releaseScript deletes the key only while it still holds our token, so a
// holder whose TTL lapsed cannot free someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LoanLocker is a per-loan mutex shared by every API instance. The database
// row lock stays authoritative; this only keeps contending writers from
// piling up on it.
type LoanLocker struct {
	rdb   *redis.Client
	ttl   time.Duration
	retry time.Duration
	log   *slog.Logger
}

func NewLoanLocker(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *LoanLocker {
	return &LoanLocker{rdb: rdb, ttl: ttl, retry: 20 * time.Millisecond, log: log}
}

func lockKey(loanID string) string { return "lock:loan:" + loanID }

// Lock spins until the lock is taken or ctx ends.
func (l *LoanLocker) Lock(ctx context.Context, loanID string) (func(), error) {
	key, token := lockKey(loanID), id.NewID32()
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
			}
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
		case <-t.C:
		}
	}
}

func (l *LoanLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
		l.log.Warn("loan lock release failed", "key", key, "err", err)
	}
}
