package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tripglot:translation:"

// Cache stores finished translations keyed by text and language pair.
type Cache interface {
	Get(ctx context.Context, text, sourceLang, targetLang string) (string, bool, error)
	Set(ctx context.Context, text, sourceLang, targetLang, translated string) error
	Close() error
}

// Key returns the storage key for a translation.
func Key(text, sourceLang, targetLang string) string {
	sum := sha256.Sum256([]byte(sourceLang + "\x00" + targetLang + "\x00" + text))
	return keyPrefix + sourceLang + ":" + targetLang + ":" + hex.EncodeToString(sum[:])
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache is a Cache backed by Redis with a fixed TTL per entry.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

func (c *RedisCache) Get(ctx context.Context, text, sourceLang, targetLang string) (string, bool, error) {
	val, err := c.client.Get(ctx, Key(text, sourceLang, targetLang)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, text, sourceLang, targetLang, translated string) error {
	if err := c.client.Set(ctx, Key(text, sourceLang, targetLang), translated, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop is a Cache that stores nothing.
type Nop struct{}

func (Nop) Get(context.Context, string, string, string) (string, bool, error) { return "", false, nil }
func (Nop) Set(context.Context, string, string, string, string) error         { return nil }
func (Nop) Close() error                                                      { return nil }
