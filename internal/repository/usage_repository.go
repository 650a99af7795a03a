package repository

import (
	"gena-go/internal/model"

	"gorm.io/gorm"
)

// UsageRepository 接口定义了限流计数数据的持久化操作。
type UsageRepository interface {
	Get(userID int64) (*model.Usage, error)
	Save(usage *model.Usage) error
}

type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository 创建一个新的 UsageRepository 实例。
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

// Get 返回用户的计数行。
func (r *usageRepository) Get(userID int64) (*model.Usage, error) {
	var usage model.Usage
	if err := r.db.Where("user_id = ?", userID).First(&usage).Error; err != nil {
		return nil, storageErr("find usage", err)
	}
	return &usage, nil
}

// Save 回写整行计数。
// 同一用户的读-改-写由上层按用户串行化，这里不做乐观锁。
func (r *usageRepository) Save(usage *model.Usage) error {
	return storageErr("save usage", r.db.Save(usage).Error)
}
