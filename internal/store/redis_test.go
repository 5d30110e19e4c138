package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore instance
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	st := NewRedisStore(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return st, mr, cleanup
}

func TestRedisStore_ReadMiss(t *testing.T) {
	st, _, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := st.Read(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_WriteThenRead(t *testing.T) {
	st, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	payload := []byte(`{"lines":[{"product_id":"p1","quantity":2}]}`)

	require.NoError(t, st.Write(ctx, "cart-123", payload))

	// Verify data landed under the prefixed key
	stored, err := mr.Get("cartsync:cart-123")
	require.NoError(t, err)
	assert.Equal(t, string(payload), stored)

	got, err := st.Read(ctx, "cart-123")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestRedisStore_WriteOverwrites(t *testing.T) {
	st, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, st.Write(ctx, "cart-123", []byte("old")))
	require.NoError(t, st.Write(ctx, "cart-123", []byte("new")))

	got, err := st.Read(ctx, "cart-123")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestRedisStore_WithTTL(t *testing.T) {
	st, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	expiring := st.WithTTL(10 * time.Minute)
	require.NoError(t, expiring.Write(context.Background(), "cart-123", []byte("x")))

	ttl := mr.TTL("cartsync:cart-123")
	assert.Equal(t, 10*time.Minute, ttl)
}

func TestRedisStore_ReadAfterServerGone(t *testing.T) {
	st, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Close()

	_, err := st.Read(context.Background(), "cart-123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound, "transport failure is not the same as absent")
}

func TestRedisKey_Format(t *testing.T) {
	assert.Equal(t, "cartsync:abc", redisKey("abc"))
}
