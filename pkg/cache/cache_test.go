package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), RedisConfig{Addr: m.Addr(), TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, m
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "Hello", "en", "vi")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "Hello", "en", "vi", "Xin chào"))

	got, ok, err := c.Get(ctx, "Hello", "en", "vi")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Xin chào", got)

	_, ok, err = c.Get(ctx, "Hello", "en", "th")
	require.NoError(t, err)
	assert.False(t, ok, "language pair is part of the key")
}

func TestRedisCacheExpires(t *testing.T) {
	c, m := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "Hello", "en", "vi", "Xin chào"))
	assert.Equal(t, time.Minute, m.TTL(Key("Hello", "en", "vi")))

	m.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "Hello", "en", "vi")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	m := miniredis.RunT(t)
	addr := m.Addr()
	m.Close()

	_, err := NewRedisCache(context.Background(), RedisConfig{Addr: addr, TTL: time.Minute})
	assert.Error(t, err)
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key("a", "en", "vi"), Key("a", "en", "vi"))
	assert.NotEqual(t, Key("a", "en", "vi"), Key("a", "vi", "en"))
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set(context.Background(), "a", "en", "vi", "b"))
	_, ok, err := c.Get(context.Background(), "a", "en", "vi")
	require.NoError(t, err)
	assert.False(t, ok)
}
