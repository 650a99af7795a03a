package repository

import (
	"time"

	"gena-go/internal/model"

	"gorm.io/gorm"
)

// UserMessageCount 是单个用户的消息总数，供排行统计使用。
type UserMessageCount struct {
	UserID   int64 `json:"userId"`
	Messages int64 `json:"messages"`
}

// HistoryRepository 接口定义了消息历史数据的持久化操作。
type HistoryRepository interface {
	Append(userID int64, userMessage, botResponse string) error
	// Recent 返回最近的 limit 轮问答，按时间正序（最新的在最后）。
	Recent(userID int64, limit int) ([]model.MessageHistory, error)
	Clear(userID int64) error
	Count() (int64, error)
	// TopUsers 返回消息数最多的前 limit 个用户。
	TopUsers(limit int) ([]UserMessageCount, error)
	// DailyCounts 返回自 since 起每天的消息数，键为 "2006-01-02"。
	DailyCounts(since time.Time) (map[string]int64, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository 创建一个新的 HistoryRepository 实例。
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// Append 追加一轮问答。
func (r *historyRepository) Append(userID int64, userMessage, botResponse string) error {
	entry := model.MessageHistory{
		UserID:      userID,
		UserMessage: userMessage,
		BotResponse: botResponse,
	}
	return storageErr("append history", r.db.Create(&entry).Error)
}

// Recent 先按时间倒序取 limit 条，再反转为正序返回。
func (r *historyRepository) Recent(userID int64, limit int) ([]model.MessageHistory, error) {
	if limit <= 0 {
		return []model.MessageHistory{}, nil
	}
	var entries []model.MessageHistory
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, storageErr("load history", err)
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Clear 删除用户的全部历史。不存在任何行时同样视为成功。
func (r *historyRepository) Clear(userID int64) error {
	err := r.db.Where("user_id = ?", userID).Delete(&model.MessageHistory{}).Error
	return storageErr("clear history", err)
}

// Count 返回全部消息轮数。
func (r *historyRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&model.MessageHistory{}).Count(&total).Error; err != nil {
		return 0, storageErr("count history", err)
	}
	return total, nil
}

// TopUsers 按消息数倒序聚合用户。
func (r *historyRepository) TopUsers(limit int) ([]UserMessageCount, error) {
	var rows []UserMessageCount
	err := r.db.Model(&model.MessageHistory{}).
		Select("user_id, COUNT(*) as messages").
		Group("user_id").
		Order("messages DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr("top users", err)
	}
	return rows, nil
}

// DailyCounts 按天聚合消息数。
func (r *historyRepository) DailyCounts(since time.Time) (map[string]int64, error) {
	type row struct {
		Day   string
		Count int64
	}
	var rows []row
	err := r.db.Model(&model.MessageHistory{}).
		Select("DATE(created_at) as day, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("day").
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr("daily counts", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Day] = rw.Count
	}
	return counts, nil
}
