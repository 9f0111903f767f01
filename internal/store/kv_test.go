package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedisKV(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisKV(client)
}

func TestRedisKV_GetSetDelete(t *testing.T) {
	_, kv := setupTestRedisKV(t)
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "hms.listview.bed.preferences", `{"page_size":25}`, 0))
	v, err := kv.Get(ctx, "hms.listview.bed.preferences")
	require.NoError(t, err)
	assert.Equal(t, `{"page_size":25}`, v)

	require.NoError(t, kv.Delete(ctx, "hms.listview.bed.preferences"))
	_, err = kv.Get(ctx, "hms.listview.bed.preferences")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_TTLExpires(t *testing.T) {
	mr, kv := setupTestRedisKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "snap", "x", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := kv.Get(ctx, "snap")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_ScanKeys(t *testing.T) {
	_, kv := setupTestRedisKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "hms.listview.bed.preferences", "1", 0))
	require.NoError(t, kv.Set(ctx, "hms.listview.ward.preferences", "1", 0))
	require.NoError(t, kv.Set(ctx, "hms.listview.ward.list.cache", "1", 0))

	keys, err := kv.ScanKeys(ctx, "hms.listview.*.preferences")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"hms.listview.bed.preferences", "hms.listview.ward.preferences"}, keys)
}

func TestMemoryKV_TTLAndScan(t *testing.T) {
	kv := NewMemoryKV()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "a.preferences", "1", 0))
	require.NoError(t, kv.Set(ctx, "b.preferences", "2", time.Second))
	require.NoError(t, kv.Set(ctx, "b.list.cache", "3", 0))

	keys, err := kv.ScanKeys(ctx, "*.preferences")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.preferences", "b.preferences"}, keys)

	now = now.Add(2 * time.Second)
	_, err = kv.Get(ctx, "b.preferences")
	assert.ErrorIs(t, err, ErrMiss)

	keys, err = kv.ScanKeys(ctx, "*.preferences")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.preferences"}, keys)
}
