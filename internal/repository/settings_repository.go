package repository

import (
	"gena-go/internal/model"

	"gorm.io/gorm"
)

// SettingsRepository 接口定义了用户设置数据的持久化操作。
type SettingsRepository interface {
	Get(userID int64) (*model.Settings, error)
	// Update 按给定字段做部分更新，未出现的字段保持不变。
	Update(userID int64, fields map[string]interface{}) error
	// PersonaCounts 返回各人设的使用人数，供管理端统计使用。
	PersonaCounts() (map[string]int64, error)
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository 创建一个新的 SettingsRepository 实例。
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get 返回用户的设置行。
func (r *settingsRepository) Get(userID int64) (*model.Settings, error) {
	var settings model.Settings
	if err := r.db.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return nil, storageErr("find settings", err)
	}
	return &settings, nil
}

// Update 对设置行做部分更新。
func (r *settingsRepository) Update(userID int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.Model(&model.Settings{}).
		Where("user_id = ?", userID).
		Updates(fields).Error
	return storageErr("update settings", err)
}

// PersonaCounts 按人设聚合用户数。
func (r *settingsRepository) PersonaCounts() (map[string]int64, error) {
	type row struct {
		Persona string
		Count   int64
	}
	var rows []row
	err := r.db.Model(&model.Settings{}).
		Select("persona, COUNT(*) as count").
		Group("persona").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr("persona counts", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Persona] = rw.Count
	}
	return counts, nil
}
