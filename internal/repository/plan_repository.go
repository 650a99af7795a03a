package repository

import (
	"time"

	"gena-go/internal/model"

	"gorm.io/gorm"
)

// PlanRepository 接口定义了订阅计划数据的持久化操作。
type PlanRepository interface {
	Get(userID int64) (*model.Plan, error)
	Set(userID int64, tier string, expiration *time.Time) error
	// Distribution 返回各档位的用户数，供管理端统计使用。
	Distribution() (map[string]int64, error)
}

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository 创建一个新的 PlanRepository 实例。
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Get 返回用户的计划行。
func (r *planRepository) Get(userID int64) (*model.Plan, error) {
	var plan model.Plan
	if err := r.db.Where("user_id = ?", userID).First(&plan).Error; err != nil {
		return nil, storageErr("find plan", err)
	}
	return &plan, nil
}

// Set 更新用户的档位与过期时间。
func (r *planRepository) Set(userID int64, tier string, expiration *time.Time) error {
	err := r.db.Model(&model.Plan{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"tier": tier, "expiration": expiration}).Error
	return storageErr("set plan", err)
}

// Distribution 按档位聚合用户数。
func (r *planRepository) Distribution() (map[string]int64, error) {
	type row struct {
		Tier  string
		Count int64
	}
	var rows []row
	err := r.db.Model(&model.Plan{}).
		Select("tier, COUNT(*) as count").
		Group("tier").
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr("plan distribution", err)
	}
	dist := make(map[string]int64, len(rows))
	for _, rw := range rows {
		dist[rw.Tier] = rw.Count
	}
	return dist, nil
}
