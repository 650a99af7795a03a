package service

import (
	"sync"
	"testing"
	"time"

	"gena-go/internal/entitlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(repo *fakeUsageRepo, now *time.Time) *limiterService {
	return &limiterService{
		usageRepo: repo,
		now:       func() time.Time { return *now },
		locks:     make(map[int64]*sync.Mutex),
	}
}

func TestAllowMessageUpToLimit(t *testing.T) {
	repo := newFakeUsageRepo()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	limiter := newTestLimiter(repo, &now)

	// Free 档位每分钟 5 条
	for i := 0; i < 5; i++ {
		assert.NoError(t, limiter.AllowMessage(1, entitlement.TierFree))
	}

	err := limiter.AllowMessage(1, entitlement.TierFree)
	rl, ok := AsRateLimited(err)
	require.True(t, ok)
	assert.Equal(t, "message", rl.Scope)
	assert.Equal(t, time.Minute, rl.RetryAfter)

	// 被拒绝的请求不消耗计数，也不落库
	assert.Equal(t, 5, repo.usage[1].MinuteCount)
	assert.Equal(t, 5, repo.saves)
}

func TestRetryAfterReflectsElapsedTime(t *testing.T) {
	repo := newFakeUsageRepo()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	limiter := newTestLimiter(repo, &now)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.AllowMessage(1, entitlement.TierFree))
	}

	// 窗口开启 50 秒后再次请求，应提示还剩 10 秒
	now = now.Add(50 * time.Second)
	err := limiter.AllowMessage(1, entitlement.TierFree)
	rl, ok := AsRateLimited(err)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, rl.RetryAfter)
}

func TestWindowRolloverResetsCount(t *testing.T) {
	repo := newFakeUsageRepo()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	limiter := newTestLimiter(repo, &now)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.AllowMessage(1, entitlement.TierFree))
	}

	// 越过窗口边界后第一条消息放行，且成为新窗口的第 1 条
	now = now.Add(61 * time.Second)
	require.NoError(t, limiter.AllowMessage(1, entitlement.TierFree))
	assert.Equal(t, 1, repo.usage[1].MinuteCount)
	assert.Equal(t, now, repo.usage[1].MinuteWindowStart)
}

func TestBoundaryRequestBelongsToNewWindow(t *testing.T) {
	repo := newFakeUsageRepo()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	limiter := newTestLimiter(repo, &now)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.AllowMessage(1, entitlement.TierFree))
	}

	// 恰好落在窗口边界上的请求属于新窗口
	now = now.Add(entitlement.MinuteWindow)
	require.NoError(t, limiter.AllowMessage(1, entitlement.TierFree))
	assert.Equal(t, 1, repo.usage[1].MinuteCount)
}

func TestImageWindowIsIndependent(t *testing.T) {
	repo := newFakeUsageRepo()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	limiter := newTestLimiter(repo, &now)

	// 打满消息窗口不影响图片窗口
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.AllowMessage(1, entitlement.TierFree))
	}
	require.Error(t, limiter.AllowMessage(1, entitlement.TierFree))

	for i := 0; i < 3; i++ {
		assert.NoError(t, limiter.AllowImage(1, entitlement.TierFree))
	}
	err := limiter.AllowImage(1, entitlement.TierFree)
	rl, ok := AsRateLimited(err)
	require.True(t, ok)
	assert.Equal(t, "image", rl.Scope)
	assert.Equal(t, entitlement.DayWindow, rl.RetryAfter)
}

func TestPlanChangeKeepsWindowCounters(t *testing.T) {
	repo := newFakeUsageRepo()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	limiter := newTestLimiter(repo, &now)

	// Free 档位打满 5 条
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.AllowMessage(1, entitlement.TierFree))
	}
	require.Error(t, limiter.AllowMessage(1, entitlement.TierFree))

	// 升级到 Basic 后，同一窗口内的计数保留，只是上限变大
	for i := 0; i < 5; i++ {
		assert.NoError(t, limiter.AllowMessage(1, entitlement.TierBasic))
	}
	require.Error(t, limiter.AllowMessage(1, entitlement.TierBasic))
	assert.Equal(t, 10, repo.usage[1].MinuteCount)
}

func TestStorageFailureAborts(t *testing.T) {
	repo := newFakeUsageRepo()
	repo.failGet = true
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	limiter := newTestLimiter(repo, &now)

	err := limiter.AllowMessage(1, entitlement.TierFree)
	assert.Error(t, err)
	_, ok := AsRateLimited(err)
	assert.False(t, ok)
}

func TestUsersAreIsolated(t *testing.T) {
	repo := newFakeUsageRepo()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	limiter := newTestLimiter(repo, &now)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.AllowMessage(1, entitlement.TierFree))
	}
	require.Error(t, limiter.AllowMessage(1, entitlement.TierFree))

	// 其他用户不受影响
	assert.NoError(t, limiter.AllowMessage(2, entitlement.TierFree))
}
