package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const challengeKeyPrefix = "otp:challenge:v1:"

// Challenges linger in Redis past their validity window so that a late
// verification attempt can be answered with "expired" rather than "no
// challenge". The elapsed-time check in the service is authoritative.
const redisRetention = time.Hour

// compare-and-delete: remove the key only if it still holds the exact
// payload the caller read, making consumption atomic per identity.
var removeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore persists OTP challenges in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a challenge store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, identity string, ch Challenge) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	if err := s.client.Set(ctx, challengeKeyPrefix+identity, payload, redisRetention).Err(); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, identity string) (Challenge, bool, error) {
	payload, err := s.client.Get(ctx, challengeKeyPrefix+identity).Result()
	if err == redis.Nil {
		return Challenge{}, false, nil
	}
	if err != nil {
		return Challenge{}, false, fmt.Errorf("load challenge: %w", err)
	}
	var ch Challenge
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		return Challenge{}, false, fmt.Errorf("decode challenge: %w", err)
	}
	return ch, true, nil
}

func (s *RedisStore) Remove(ctx context.Context, identity string, ch Challenge) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	if err := removeScript.Run(ctx, s.client, []string{challengeKeyPrefix + identity}, string(payload)).Err(); err != nil {
		return fmt.Errorf("remove challenge: %w", err)
	}
	return nil
}
