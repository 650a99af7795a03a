package model

import "time"

// ChatTurnDocument 是写入 Elasticsearch 的单轮问答文档，
// 供管理端对全量历史做全文检索。
type ChatTurnDocument struct {
	UserID      int64     `json:"user_id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Persona     string    `json:"persona"`
	Model       string    `json:"model"`
	CreatedAt   time.Time `json:"created_at"`
}
