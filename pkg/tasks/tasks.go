// Package tasks defines the structure for events that are sent to Kafka.
package tasks

import "time"

// ChatTurnEvent represents one completed chat turn, published for
// asynchronous analytics aggregation.
type ChatTurnEvent struct {
	UserID    int64     `json:"user_id"`
	Persona   string    `json:"persona"`
	Model     string    `json:"model"`
	HasImage  bool      `json:"has_image"`
	Timestamp time.Time `json:"timestamp"`
	Day       string    `json:"day"` // 格式 2006-01-02，消费端按天聚合
}
