package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var errCorruptEntry = errors.New("idempotency: unreadable entry")

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

// canonicalRequestID folds an Ax-Request-Id to lowercase so that ids differing
// only in case share one ledger entry. Anything that is not a uuid or a
// 32-char hex id is rejected.
func canonicalRequestID(raw string) (string, bool) {
	id := strings.ToLower(strings.TrimSpace(raw))
	if !reUUID.MatchString(id) && !reHex32.MatchString(id) {
		return "", false
	}
	return id, true
}

// requestKey scopes an entry to one caller on one route; requestID must
// already be canonical.
func requestKey(method, route, userID, requestID string) string {
	return "idemp:" + strings.ToLower(method) + ":" + route + ":" + userID + ":" + requestID
}

// parseRequestAt reads Ax-Request-At as epoch seconds, epoch milliseconds or
// RFC3339 with an explicit zone. Zoneless timestamps are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing Ax-Request-At")
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	// RFC3339Nano also accepts whole seconds.
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New("Ax-Request-At must be epoch (s/ms) or RFC3339 with timezone")
}

// replayStore keeps the first outcome of each mutating request in Redis.
// A reserved key holds an in-progress entry until finish or release.
type replayStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func (s replayStore) reserve(ctx context.Context, key string, e idempEntry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("encode idempotency entry: %w", err)
	}
	return s.rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

// load returns redis.Nil when the key is gone and errCorruptEntry when the
// stored value cannot be decoded.
func (s replayStore) load(ctx context.Context, key string) (idempEntry, error) {
	var e idempEntry
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(v, &e); err != nil {
		return idempEntry{}, fmt.Errorf("%w: %v", errCorruptEntry, err)
	}
	return e, nil
}

func (s replayStore) finish(ctx context.Context, key string, e idempEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode idempotency entry: %w", err)
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

func (s replayStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
