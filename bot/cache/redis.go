package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tribalbot:autocomplete:"

// RedisStore shares entries between bot instances. Redis expires the keys itself,
// so sweeping is a no-op.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Connect parses a redis:// url and checks the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

func redisKey(bucket, key string) string {
	return keyPrefix + bucket + ":" + key
}

func (r *RedisStore) Get(ctx context.Context, bucket, key string) ([]string, bool, error) {
	raw, err := r.client.Get(ctx, redisKey(bucket, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var result []string
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, err
	}

	return result, true, nil
}

func (r *RedisStore) Set(ctx context.Context, bucket, key string, result []string) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKey(bucket, key), raw, r.ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, bucket, key string) error {
	return r.client.Del(ctx, redisKey(bucket, key)).Err()
}

func (r *RedisStore) Sweep(context.Context) (int, error) {
	return 0, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
