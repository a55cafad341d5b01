package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, "test", time.Hour), mr
}

func TestRedisStoreGetSetClear(t *testing.T) {
	store, _ := newRedisStoreTest(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "p-1", Digest("r1")))
	v, ok, err := store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Digest("r1"), v)

	require.NoError(t, store.Set(ctx, "p-1", ""))
	require.NoError(t, store.Set(ctx, "p-1", ""), "clearing twice must be idempotent")
	_, ok, err = store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreSetAppliesTTL(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "p-1", "v"))
	assert.Equal(t, time.Hour, mr.TTL("test:rt:p-1"))

	ok, err := store.CompareAndSwap(ctx, "p-1", "v", "w")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Hour, mr.TTL("test:rt:p-1"))

	mr.FastForward(2 * time.Hour)
	_, ok, err = store.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreCompareAndSwap(t *testing.T) {
	store, _ := newRedisStoreTest(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "p-1", "a"))

	ok, err := store.CompareAndSwap(ctx, "p-1", "stale", "b")
	require.NoError(t, err)
	assert.False(t, ok)
	v, _, _ := store.Get(ctx, "p-1")
	assert.Equal(t, "a", v, "a lost comparison must not mutate")

	ok, err = store.CompareAndSwap(ctx, "p-1", "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	v, _, _ = store.Get(ctx, "p-1")
	assert.Equal(t, "b", v)

	ok, err = store.CompareAndSwap(ctx, "p-1", "a", "c")
	require.NoError(t, err)
	assert.False(t, ok, "the replaced value must not swap again")
}

func TestRedisStoreCompareAndSwapOnAbsent(t *testing.T) {
	store, _ := newRedisStoreTest(t)
	ctx := context.Background()

	ok, err := store.CompareAndSwap(ctx, "p-1", "anything", "b")
	require.NoError(t, err)
	assert.False(t, ok)
	_, present, _ := store.Get(ctx, "p-1")
	assert.False(t, present)
}

func TestRedisStoreCompareAndSwapSingleWinner(t *testing.T) {
	store, _ := newRedisStoreTest(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "p-1", "r1"))

	const workers = 16
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ok, err := store.CompareAndSwap(ctx, "p-1", "r1", "next-"+string(rune('a'+i)))
			if err == nil && ok {
				wins.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	ctx := context.Background()
	mr.Close()

	_, _, err := store.Get(ctx, "p-1")
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.ErrorIs(t, store.Set(ctx, "p-1", "v"), ErrUnavailable)
	_, err = store.CompareAndSwap(ctx, "p-1", "a", "b")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = store.Ping(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDigestAndEqual(t *testing.T) {
	d := Digest("token")
	assert.Len(t, d, 64)
	assert.Equal(t, d, Digest("token"))
	assert.NotEqual(t, d, Digest("token2"))
	assert.True(t, Equal(d, Digest("token")))
	assert.False(t, Equal(d, ""))
}
