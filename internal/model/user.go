// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// User 对应于数据库中的 'users' 表。
// 主键直接使用 Telegram 的数字用户 ID，用户在首次联系时被创建。
type User struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}

// Plan 对应于数据库中的 'plans' 表，与 User 一对一。
// Expiration 为空表示永不过期（Free 计划）。
type Plan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     int64      `gorm:"uniqueIndex;not null" json:"userId"`
	Tier       string     `gorm:"type:varchar(20);not null;default:'Free'" json:"tier"`
	Expiration *time.Time `json:"expiration"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (Plan) TableName() string {
	return "plans"
}

// Settings 对应于数据库中的 'settings' 表，与 User 一对一。
type Settings struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	UserID int64 `gorm:"uniqueIndex;not null" json:"userId"`
	// Model 是用户当前选择的生成模型标识。
	Model string `gorm:"type:varchar(64);not null" json:"model"`
	// Persona 是当前人设的键名，人设模板见 entitlement 包。
	Persona string `gorm:"type:varchar(32);not null" json:"persona"`
	// SystemInstruction 为用户自定义的系统指令覆盖，为空时使用人设模板。
	SystemInstruction string    `gorm:"type:text" json:"systemInstruction"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Settings) TableName() string {
	return "settings"
}

// Usage 对应于数据库中的 'usage' 表，与 User 一对一。
// 两个窗口互相独立：分钟窗口计消息数，天窗口计图片数。
// 计数永不为负，只在跨越窗口边界时归零。
type Usage struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	UserID int64 `gorm:"uniqueIndex;not null" json:"userId"`
	// MinuteWindowStart 是当前分钟窗口的起点，零值表示窗口尚未开启。
	MinuteWindowStart time.Time `json:"minuteWindowStart"`
	MinuteCount       int       `gorm:"not null;default:0" json:"minuteCount"`
	DayWindowStart    time.Time `json:"dayWindowStart"`
	ImageCount        int       `gorm:"not null;default:0" json:"imageCount"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Usage) TableName() string {
	return "usage"
}

// MessageHistory 对应于数据库中的 'message_history' 表，与 User 一对多。
// 每条记录保存一轮完整的问答。
type MessageHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"index;not null" json:"userId"`
	UserMessage string    `gorm:"type:text;not null" json:"userMessage"`
	BotResponse string    `gorm:"type:text;not null" json:"botResponse"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (MessageHistory) TableName() string {
	return "message_history"
}
