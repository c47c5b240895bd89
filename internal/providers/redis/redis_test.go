package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProvider(t *testing.T) (*RedisProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	ctx, cancel := context.WithCancel(context.Background())
	provider := NewRedisProvider(ctx, "redis://"+mr.Addr(), zap.NewNop(), time.Minute)
	t.Cleanup(func() {
		cancel()
		_ = provider.Close()
	})
	return provider, mr
}

type cachedThread struct {
	ID    uint64   `json:"id"`
	Texts []string `json:"texts"`
}

func TestJSONRoundTripAndMiss(t *testing.T) {
	ctx := context.Background()
	provider, mr := newTestProvider(t)

	var got cachedThread
	assert.ErrorIs(t, provider.GetJSON(ctx, "thread:1", &got), ErrCacheMiss)

	require.NoError(t, provider.SetJSON(ctx, "thread:1", cachedThread{ID: 1, Texts: []string{"hi"}}, 0))
	require.NoError(t, provider.GetJSON(ctx, "thread:1", &got))
	assert.Equal(t, cachedThread{ID: 1, Texts: []string{"hi"}}, got)
	assert.Equal(t, time.Minute, mr.TTL("thread:1"), "non-positive ttl uses the provider default")

	require.NoError(t, provider.SetJSON(ctx, "thread:2", got, 5*time.Second))
	assert.Equal(t, 5*time.Second, mr.TTL("thread:2"))
}

func TestSetNXAndSet(t *testing.T) {
	ctx := context.Background()
	provider, mr := newTestProvider(t)

	ok, err := provider.SetNX(ctx, "presence:touch:3", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = provider.SetNX(ctx, "presence:touch:3", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(time.Minute + time.Second)
	ok, err = provider.SetNX(ctx, "presence:touch:3", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, provider.Set(ctx, "presence:touch:3", 1, 2*time.Minute))
	assert.Equal(t, 2*time.Minute, mr.TTL("presence:touch:3"))
}

func TestCounters(t *testing.T) {
	ctx := context.Background()
	provider, _ := newTestProvider(t)

	n, err := provider.GetInt(ctx, "gen")
	require.NoError(t, err)
	assert.Zero(t, n)

	for want := int64(1); want <= 3; want++ {
		n, err = provider.Incr(ctx, "gen")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err = provider.GetInt(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestDelPattern(t *testing.T) {
	ctx := context.Background()
	provider, mr := newTestProvider(t)

	for i := 0; i < 250; i++ {
		require.NoError(t, mr.Set("chat:conversation:"+strconv.Itoa(i), "[]"))
	}
	require.NoError(t, mr.Set("presence:touch:1", "1"))

	deleted, err := provider.DelPattern(ctx, "chat:conversation:*")
	require.NoError(t, err)
	assert.Equal(t, int64(250), deleted)
	assert.Equal(t, []string{"presence:touch:1"}, mr.Keys())

	deleted, err = provider.DelPattern(ctx, "chat:conversation:*")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestCommandErrorsSurface(t *testing.T) {
	ctx := context.Background()
	provider, mr := newTestProvider(t)

	mr.SetError("ERR redis unavailable")
	var got cachedThread
	err := provider.GetJSON(ctx, "thread:1", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	_, err = provider.GetInt(ctx, "gen")
	assert.Error(t, err)
}
