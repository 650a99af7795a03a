package service

import (
	"sync"
	"time"

	"gena-go/internal/entitlement"
	"gena-go/internal/model"
	"gena-go/internal/repository"
)

// LimiterService 执行按计划分档的窗口限流。
// 分钟窗口计消息，天窗口计图片，两个窗口互不影响。
type LimiterService interface {
	// AllowMessage 在分钟窗口内登记一条消息。
	// 超出配额时返回 *RateLimitedError，计数不变。
	AllowMessage(userID int64, tier string) error
	// AllowImage 在天窗口内登记一张图片。
	AllowImage(userID int64, tier string) error
}

type limiterService struct {
	usageRepo repository.UsageRepository
	now       func() time.Time

	// mu 保护 locks；每个用户一把锁，串行化同一用户的读-改-写。
	// 跨进程的串行化由上层的 Redis 锁保证。
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewLimiterService 创建一个新的 LimiterService 实例。
func NewLimiterService(usageRepo repository.UsageRepository) LimiterService {
	return &limiterService{
		usageRepo: usageRepo,
		now:       time.Now,
		locks:     make(map[int64]*sync.Mutex),
	}
}

func (s *limiterService) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// AllowMessage 对分钟窗口做先重置后检查的登记。
func (s *limiterService) AllowMessage(userID int64, tier string) error {
	limit := entitlement.LimitsFor(tier).MessagesPerMinute
	return s.allow(userID, entitlement.MinuteWindow, limit, "message",
		func(u *model.Usage) (*time.Time, *int) { return &u.MinuteWindowStart, &u.MinuteCount })
}

// AllowImage 对天窗口做先重置后检查的登记。
func (s *limiterService) AllowImage(userID int64, tier string) error {
	limit := entitlement.LimitsFor(tier).ImagesPerDay
	return s.allow(userID, entitlement.DayWindow, limit, "image",
		func(u *model.Usage) (*time.Time, *int) { return &u.DayWindowStart, &u.ImageCount })
}

// allow 实现两个窗口共用的登记逻辑。
// 窗口检查顺序固定：先判断是否越过边界并重置，再与配额比较。
// 恰好落在边界上的请求属于新窗口。
func (s *limiterService) allow(userID int64, window time.Duration, limit int, scope string,
	fields func(*model.Usage) (*time.Time, *int)) error {

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	usage, err := s.usageRepo.Get(userID)
	if err != nil {
		return err
	}

	windowStart, count := fields(usage)
	now := s.now()

	if windowStart.IsZero() || now.Sub(*windowStart) >= window {
		*windowStart = now
		*count = 0
	}

	if *count >= limit {
		return &RateLimitedError{
			Scope:      scope,
			RetryAfter: windowStart.Add(window).Sub(now),
		}
	}

	*count++
	return s.usageRepo.Save(usage)
}
