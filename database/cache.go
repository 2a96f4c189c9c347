package database

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"codewhisperer/metrics"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON cache over redis; a nil client disables it
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// InitRedis connects to redis, returning a disabled cache when no host is configured
func InitRedis(ctx context.Context, host, port, password string, db int, ttl time.Duration) (*Cache, error) {
	if host == "" {
		return &Cache{ttl: ttl}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return NewCache(client, ttl), nil
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetFromCache decodes the cached value into dest and reports whether it was found
func (c *Cache) GetFromCache(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.Inc()
		return false, nil
	}
	if err != nil {
		metrics.CacheMisses.Inc()
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.CacheMisses.Inc()
		return false, err
	}
	metrics.CacheHits.Inc()
	return true, nil
}

func (c *Cache) SetToCache(ctx context.Context, key string, value interface{}) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// setIfGeneration writes KEYS[1] only while the generation counter KEYS[2] still equals ARGV[1]
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if not gen then gen = '0' end
if gen ~= ARGV[1] then return 0 end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

func generationKey(key string) string {
	return key + ":gen"
}

// Generation returns the invalidation counter of key; read it before loading the value to cache
func (c *Cache) Generation(ctx context.Context, key string) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	gen, err := c.client.Get(ctx, generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetIfGeneration caches value unless key was invalidated since gen was read.
// It reports whether the value was stored.
func (c *Cache) SetIfGeneration(ctx context.Context, key string, gen int64, value interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{key, generationKey(key)},
		strconv.FormatInt(gen, 10), raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate drops the keys and bumps their generation so in-flight loads do not write them back
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
		}
		return nil
	})
	return err
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
