package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 30 * time.Minute

func TestMemoryStoreTouchLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Now()

	result, err := store.Touch(ctx, "s1", base, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, TouchNew, result)

	// Just inside the window: refreshed, not evicted.
	result, err = store.Touch(ctx, "s1", base.Add(testTimeout-time.Second), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, TouchRefreshed, result)

	// The refresh slid the window forward.
	result, err = store.Touch(ctx, "s1", base.Add(2*testTimeout-2*time.Second), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, TouchRefreshed, result)

	// Past the window: evicted and reported expired.
	result, err = store.Touch(ctx, "s1", base.Add(4*testTimeout), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, TouchExpired, result)
	assert.Zero(t, store.Len())

	// The next sighting starts a fresh record.
	result, err = store.Touch(ctx, "s1", base.Add(4*testTimeout), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, TouchNew, result)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	_, err := store.Touch(ctx, "s1", now, testTimeout)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "s1"))
	assert.Zero(t, store.Len())

	result, err := store.Touch(ctx, "s1", now, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, TouchNew, result)
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Now()

	_, err := store.Touch(ctx, "stale-1", base, testTimeout)
	require.NoError(t, err)
	_, err = store.Touch(ctx, "stale-2", base.Add(time.Minute), testTimeout)
	require.NoError(t, err)
	_, err = store.Touch(ctx, "live", base.Add(testTimeout), testTimeout)
	require.NoError(t, err)

	removed, err := store.Sweep(ctx, base.Add(2*testTimeout-time.Second), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, store.Len())
}

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func TestRedisStoreTouchLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t)
	base := time.Now()

	result, err := store.Touch(ctx, "s1", base, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, TouchNew, result)

	result, err = store.Touch(ctx, "s1", base.Add(testTimeout-time.Second), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, TouchRefreshed, result)

	result, err = store.Touch(ctx, "s1", base.Add(3*testTimeout), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, TouchExpired, result)

	// Evicted record means the next sighting is new again.
	result, err = store.Touch(ctx, "s1", base.Add(3*testTimeout), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, TouchNew, result)
}

func TestRedisStoreDeleteAndSweep(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t)
	base := time.Now()

	_, err := store.Touch(ctx, "gone", base, testTimeout)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "gone"))

	_, err = store.Touch(ctx, "stale", base, testTimeout)
	require.NoError(t, err)
	_, err = store.Touch(ctx, "live", base.Add(testTimeout), testTimeout)
	require.NoError(t, err)

	removed, err := store.Sweep(ctx, base.Add(2*testTimeout-time.Second), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	result, err := store.Touch(ctx, "live", base.Add(2*testTimeout-time.Second), testTimeout)
	require.NoError(t, err)
	assert.Equal(t, TouchRefreshed, result)
}
