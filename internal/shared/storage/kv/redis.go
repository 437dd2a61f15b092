package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisRetries = 5

// RedisOptions configures the redis connection used for collections.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient returns a configured Redis client after verifying connectivity.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// Redis is a Backend over a Redis server. It also implements Transactor with WATCH/MULTI.
type Redis struct {
	client     redis.UniversalClient
	prefix     string
	maxRetries int
}

// NewRedis wraps client. prefix is prepended to every collection key.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix, maxRetries: defaultRedisRetries}
}

func (r *Redis) redisKey(key string) string {
	return r.prefix + key
}

// Get returns the raw value under key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", r.redisKey(key), err)
	}
	return raw, nil
}

// Set overwrites the value under key without expiry.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.redisKey(key), err)
	}
	return nil
}

// Update performs an optimistic check-and-set: the write is discarded and fn re-run
// when another client modifies the key between read and write.
func (r *Redis) Update(ctx context.Context, key string, fn UpdateFunc) error {
	rk := r.redisKey(key)
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, rk).Bytes()
			found := true
			if errors.Is(err, redis.Nil) {
				found, err = false, nil
			}
			if err != nil {
				return fmt.Errorf("redis get %s: %w", rk, err)
			}
			next, write, err := fn(current, found)
			if err != nil || !write {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, rk, next, 0)
				return nil
			})
			return err
		}, rk)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis update %s: %w", rk, ErrConflict)
}
