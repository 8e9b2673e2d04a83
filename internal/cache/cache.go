// Package cache stores finished prediction vectors keyed by a digest of the
// job that produced them.
package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/go-sod/wknn/internal/codec"
	"github.com/go-sod/wknn/internal/logging"
)

const keyPrefix = "wknn:predictions:"

type Config struct {
	Addr     string        `envconfig:"WKNN_REDIS_ADDR" toml:"redis_addr"`
	Password string        `envconfig:"WKNN_REDIS_PASSWORD" toml:"redis_password"`
	DB       int           `envconfig:"WKNN_REDIS_DB" toml:"redis_db"`
	TTL      time.Duration `envconfig:"WKNN_CACHE_TTL" default:"10m" toml:"ttl"`
}

type Cache interface {
	Get(ctx context.Context, digest [32]byte) ([]float32, bool, error)
	Set(ctx context.Context, digest [32]byte, predictions []float32) error
	Close() error
}

var (
	_ Cache = (*redisCache)(nil)
	_ Cache = (*memoryCache)(nil)
	_ Cache = nop{}
)

// New returns a redis backed cache, or a no-op cache when no address is set.
func New(ctx context.Context, cfg *Config) (Cache, error) {
	logger := logging.FromContext(ctx)
	if cfg.Addr == "" {
		logger.Debugf("prediction cache disabled")
		return nop{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	logger.Infof("prediction cache on redis %s", cfg.Addr)

	return &redisCache{client: client, ttl: cfg.TTL}, nil
}

func Key(digest [32]byte) string {
	return keyPrefix + hex.EncodeToString(digest[:])
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisCache) Get(ctx context.Context, digest [32]byte) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, Key(digest)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	values, err := codec.UnmarshalSeries(data)
	if err != nil {
		return nil, false, err
	}
	return values, true, nil
}

func (c *redisCache) Set(ctx context.Context, digest [32]byte, predictions []float32) error {
	data, err := codec.MarshalSeries(predictions)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, Key(digest), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

// NewMemory returns a process local cache holding XDR encoded entries.
func NewMemory() Cache {
	return &memoryCache{items: map[[32]byte][]byte{}}
}

type memoryCache struct {
	mtx   sync.RWMutex
	items map[[32]byte][]byte
}

func (c *memoryCache) Get(_ context.Context, digest [32]byte) ([]float32, bool, error) {
	c.mtx.RLock()
	data, ok := c.items[digest]
	c.mtx.RUnlock()
	if !ok {
		return nil, false, nil
	}
	values, err := codec.UnmarshalSeries(data)
	if err != nil {
		return nil, false, err
	}
	return values, true, nil
}

func (c *memoryCache) Set(_ context.Context, digest [32]byte, predictions []float32) error {
	data, err := codec.MarshalSeries(predictions)
	if err != nil {
		return err
	}
	c.mtx.Lock()
	c.items[digest] = data
	c.mtx.Unlock()
	return nil
}

func (c *memoryCache) Close() error { return nil }

// NewNop returns a cache that never hits.
func NewNop() Cache {
	return nop{}
}

type nop struct{}

func (nop) Get(context.Context, [32]byte) ([]float32, bool, error) { return nil, false, nil }

func (nop) Set(context.Context, [32]byte, []float32) error { return nil }

func (nop) Close() error { return nil }
