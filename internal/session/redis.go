package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "wall:session:last_active:"

// touchScript makes the refresh-or-evict decision atomic on the server:
// a stale entry is deleted and reported expired, anything else gets its
// timestamp refreshed in the same call.
var touchScript = redis.NewScript(`
local last = redis.call('GET', KEYS[1])
if last and (tonumber(ARGV[1]) - tonumber(last)) > tonumber(ARGV[2]) then
	redis.call('DEL', KEYS[1])
	return 'expired'
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
if last then
	return 'refreshed'
end
return 'new'
`)

// RedisStore is the clustered ActivityStore. Entries carry a TTL of twice
// the timeout so Redis garbage-collects whatever the sweep misses.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}

// Touch refreshes the session or evicts it when idle past timeout.
func (s *RedisStore) Touch(ctx context.Context, sessionID string, now time.Time, timeout time.Duration) (TouchResult, error) {
	res, err := touchScript.Run(ctx, s.client,
		[]string{redisKey(sessionID)},
		now.UnixMilli(),
		timeout.Milliseconds(),
		2*timeout.Milliseconds(),
	).Text()
	if err != nil {
		return TouchNew, fmt.Errorf("session: touch %s: %w", sessionID, err)
	}
	switch res {
	case "expired":
		return TouchExpired, nil
	case "refreshed":
		return TouchRefreshed, nil
	default:
		return TouchNew, nil
	}
}

// Delete removes a session record.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, redisKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("session: delete %s: %w", sessionID, err)
	}
	return nil
}

// Sweep scans for idle entries and purges them. The per-key TTL already
// bounds growth; this keeps the sweep job meaningful for metrics.
func (s *RedisStore) Sweep(ctx context.Context, now time.Time, timeout time.Duration) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("session: sweep read %s: %w", key, err)
		}
		lastMilli, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// Unparseable entries are garbage; drop them.
			_ = s.client.Del(ctx, key).Err()
			removed++
			continue
		}
		if now.Sub(time.UnixMilli(lastMilli)) > timeout {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return removed, fmt.Errorf("session: sweep delete %s: %w", key, err)
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("session: sweep scan: %w", err)
	}
	return removed, nil
}
