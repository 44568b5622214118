package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps bindings in Redis so they survive restarts.
type RedisStore struct {
	Redis *redis.Client
	// TTL of each binding; zero means no expiry.
	TTL time.Duration
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Redis: rdb, TTL: ttl}
}

func pendingKey(chatID int64) string {
	return "pending:" + strconv.FormatInt(chatID, 10)
}

func (r *RedisStore) Set(ctx context.Context, chatID int64, a Action) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return r.Redis.Set(ctx, pendingKey(chatID), data, r.TTL).Err()
}

func (r *RedisStore) Get(ctx context.Context, chatID int64) (Action, bool, error) {
	data, err := r.Redis.Get(ctx, pendingKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Action{}, false, nil
	}
	if err != nil {
		return Action{}, false, err
	}

	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return Action{}, false, fmt.Errorf("decode pending action for %d: %w", chatID, err)
	}
	return a, true, nil
}

func (r *RedisStore) Clear(ctx context.Context, chatID int64) error {
	return r.Redis.Del(ctx, pendingKey(chatID)).Err()
}
