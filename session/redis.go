package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// compareAndSwapScript overwrites KEYS[1] with ARGV[2] only when it holds
// ARGV[1]. An empty ARGV[2] deletes the key. A missing key compares as "".
// ARGV[3] is the TTL in milliseconds; zero writes without expiry.
const compareAndSwapScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  current = ""
end
if current ~= ARGV[1] then
  return 0
end
if ARGV[2] == "" then
  redis.call("DEL", KEYS[1])
elseif tonumber(ARGV[3]) > 0 then
  redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
  redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`

var compareAndSwapLua = redis.NewScript(compareAndSwapScript)

// RedisStore keeps one key per principal, expiring with the refresh TTL.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a [RedisStore]. Keys are "<prefix>:rt:<principal>";
// ttl is applied on every write and should equal the refresh-token TTL.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "gs"
	}
	return &RedisStore{redis: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(principalID string) string {
	return s.prefix + ":rt:" + principalID
}

// Get returns the stored value for principalID.
func (s *RedisStore) Get(ctx context.Context, principalID string) (string, bool, error) {
	v, err := s.redis.Get(ctx, s.key(principalID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, v != "", nil
}

// Set writes value, or deletes the key when value is empty. Deleting a missing
// key is not an error.
func (s *RedisStore) Set(ctx context.Context, principalID, value string) error {
	var err error
	if value == "" {
		err = s.redis.Del(ctx, s.key(principalID)).Err()
	} else {
		err = s.redis.Set(ctx, s.key(principalID), value, s.ttl).Err()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// CompareAndSwap runs one Lua script so the read and the write are atomic.
func (s *RedisStore) CompareAndSwap(ctx context.Context, principalID, expected, next string) (bool, error) {
	res, err := compareAndSwapLua.Run(
		ctx,
		s.redis,
		[]string{s.key(principalID)},
		expected,
		next,
		s.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res == 1, nil
}

// Ping reports Redis availability and round-trip latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
