package user

import (
	"context"
	"testing"
	"time"

	"storefront/internal/presence"
	"storefront/internal/providers/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func withRedis(t *testing.T, svc *service) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)

	ctx, cancel := context.WithCancel(context.Background())
	provider := redis.NewRedisProvider(ctx, "redis://"+mr.Addr(), zap.NewNop(), time.Minute)
	t.Cleanup(func() {
		cancel()
		_ = provider.Close()
	})

	svc.redisP = provider
	svc.opts.TouchInterval = time.Minute
	return mr
}

func TestTouchActivityIsThrottled(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc, _ := newTestService(repo)
	mr := withRedis(t, svc)

	repo.On("UpdateLastActive", ctx, uint64(3), fixedNow).Return(nil)

	require.NoError(t, svc.TouchActivity(ctx, 3))
	require.NoError(t, svc.TouchActivity(ctx, 3))
	repo.AssertNumberOfCalls(t, "UpdateLastActive", 1)
	require.Equal(t, time.Minute, mr.TTL(touchKey(3)))

	mr.FastForward(time.Minute + time.Second)
	require.NoError(t, svc.TouchActivity(ctx, 3))
	repo.AssertNumberOfCalls(t, "UpdateLastActive", 2)
}

func TestTouchActivityWritesThroughWhenRedisFails(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc, _ := newTestService(repo)
	mr := withRedis(t, svc)
	mr.SetError("ERR redis unavailable")

	repo.On("UpdateLastActive", ctx, uint64(3), fixedNow).Return(nil)

	require.NoError(t, svc.TouchActivity(ctx, 3))
	require.NoError(t, svc.TouchActivity(ctx, 3))
	repo.AssertNumberOfCalls(t, "UpdateLastActive", 2)
}

func TestLogoutHoldsTouchThrottle(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc, _ := newTestService(repo)
	mr := withRedis(t, svc)

	offline := presence.OfflineAt(fixedNow)
	repo.On("UpdateLastActive", ctx, uint64(3), offline).Return(nil).Once()

	require.NoError(t, svc.Logout(ctx, 3))
	require.Equal(t, time.Minute, mr.TTL(touchKey(3)))

	// A request that was still in flight at logout must not bring the user back.
	require.NoError(t, svc.TouchActivity(ctx, 3))
	repo.AssertNumberOfCalls(t, "UpdateLastActive", 1)
	repo.AssertNotCalled(t, "UpdateLastActive", mock.Anything, uint64(3), fixedNow)
}
