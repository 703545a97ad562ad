package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/wisekey/langcenter/internal/config"
)

// RedisStorage keeps the two keys in Redis. Save and Remove run inside
// MULTI/EXEC so both keys change together.
type RedisStorage struct {
	rdb      *redis.Client
	tokenKey string
	userKey  string
}

func NewRedisStorage(rdb *redis.Client) *RedisStorage {
	return &RedisStorage{
		rdb:      rdb,
		tokenKey: config.StorageKey.Redis(config.StorageKey.AccessToken),
		userKey:  config.StorageKey.Redis(config.StorageKey.User),
	}
}

func (r *RedisStorage) Save(ctx context.Context, rec Record) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.tokenKey, rec.AccessToken, 0)
		pipe.Set(ctx, r.userKey, rec.User, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (r *RedisStorage) Load(ctx context.Context) (Record, error) {
	vals, err := r.rdb.MGet(ctx, r.tokenKey, r.userKey).Result()
	if err != nil {
		return Record{}, fmt.Errorf("redis load session: %w", err)
	}

	var rec Record
	if s, ok := vals[0].(string); ok {
		rec.AccessToken = s
	}
	if s, ok := vals[1].(string); ok {
		rec.User = []byte(s)
	}
	return rec, nil
}

func (r *RedisStorage) Remove(ctx context.Context) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.tokenKey, r.userKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis remove session: %w", err)
	}
	return nil
}
