package service

import (
	"time"

	"gena-go/internal/entitlement"
	"gena-go/internal/model"
	"gena-go/internal/repository"
	"gena-go/pkg/log"
)

// 付费计划的有效期。
const planDuration = 30 * 24 * time.Hour

// UserService 定义了用户与订阅计划相关的业务操作。
type UserService interface {
	// GetOrCreateUser 返回用户档案，首次联系时创建默认行集。幂等。
	GetOrCreateUser(userID int64) (*model.User, error)
	// EffectiveTier 返回用户当前生效的计划档位。
	// 已过期的付费计划在读取时折叠回 Free 并落库。
	EffectiveTier(userID int64) (string, error)
	// PlanInfo 返回折叠过期之后的计划行。
	PlanInfo(userID int64) (*model.Plan, error)
	// UpgradePlan 将用户切换到指定档位。付费档位自当前时刻起 30 天有效；
	// 切回 Free 清除过期时间。窗口计数不受计划变更影响。
	UpgradePlan(userID int64, tier string) error
	// DeleteUser 删除用户的全部数据（数据清除请求）。
	DeleteUser(userID int64) error
}

type userService struct {
	userRepo repository.UserRepository
	planRepo repository.PlanRepository
	now      func() time.Time
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, planRepo repository.PlanRepository) UserService {
	return &userService{
		userRepo: userRepo,
		planRepo: planRepo,
		now:      time.Now,
	}
}

// GetOrCreateUser 把建档委托给仓库层的事务实现。
func (s *userService) GetOrCreateUser(userID int64) (*model.User, error) {
	return s.userRepo.GetOrCreate(userID)
}

// EffectiveTier 读取计划并在此处折叠过期。
func (s *userService) EffectiveTier(userID int64) (string, error) {
	plan, err := s.PlanInfo(userID)
	if err != nil {
		return "", err
	}
	return plan.Tier, nil
}

// PlanInfo 返回计划行；过期的付费计划降级为 Free 后返回。
func (s *userService) PlanInfo(userID int64) (*model.Plan, error) {
	plan, err := s.planRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	if plan.Expiration != nil && !plan.Expiration.After(s.now()) {
		log.Infof("用户 %d 的 %s 计划已过期，降级为 Free", userID, plan.Tier)
		if err := s.planRepo.Set(userID, entitlement.TierFree, nil); err != nil {
			return nil, err
		}
		plan.Tier = entitlement.TierFree
		plan.Expiration = nil
	}
	return plan, nil
}

// UpgradePlan 切换档位。只改变配额上限，已累计的窗口计数保持不变。
func (s *userService) UpgradePlan(userID int64, tier string) error {
	if !entitlement.ValidTier(tier) {
		return ErrUnknownTier
	}
	if tier == entitlement.TierFree {
		return s.planRepo.Set(userID, tier, nil)
	}
	expiration := s.now().Add(planDuration)
	return s.planRepo.Set(userID, tier, &expiration)
}

// DeleteUser 删除用户的全部行集。
func (s *userService) DeleteUser(userID int64) error {
	return s.userRepo.Delete(userID)
}
