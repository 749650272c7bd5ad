package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/table-reservations/utils"
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock taken over by another replica is left alone.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisSlotLocker guards slots across every API replica sharing one Redis.
type RedisSlotLocker struct {
	client   redis.Cmdable
	prefix   string
	ttl      time.Duration
	retry    time.Duration
	newToken func() string
}

func NewRedisSlotLocker(client redis.Cmdable, ttl time.Duration) *RedisSlotLocker {
	return &RedisSlotLocker{
		client:   client,
		prefix:   "reservations:slot:",
		ttl:      ttl,
		retry:    50 * time.Millisecond,
		newToken: uuid.NewString,
	}
}

func (l *RedisSlotLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := l.newToken()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire slot lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(lockKey, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *RedisSlotLocker) release(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.client.Eval(ctx, releaseScript, []string{lockKey}, token).Err(); err != nil {
		utils.ErrorLogger.Errorf("[redis] Error releasing %s: %v", lockKey, err)
	}
}
