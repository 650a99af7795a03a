package service

import (
	"context"
	"fmt"
	"time"

	"gena-go/internal/model"
	"gena-go/pkg/es"
	"gena-go/pkg/kafka"
	"gena-go/pkg/log"
	"gena-go/pkg/storage"
	"gena-go/pkg/tasks"
)

// TurnRecord 是一轮已完成问答的旁路记录。
type TurnRecord struct {
	UserID      int64
	UserMessage string
	BotResponse string
	Persona     string
	Model       string
	HasImage    bool
	Timestamp   time.Time
}

// TurnRecorder 将完成的问答写入旁路系统（Kafka 事件与 ES 索引）。
// 旁路写入失败只记录日志，从不影响聊天主流程。
type TurnRecorder interface {
	RecordTurn(ctx context.Context, record TurnRecord)
}

// ImageStore 留存用户上传图片的审计副本。
type ImageStore interface {
	SaveAuditCopy(ctx context.Context, userID int64, mimeType string, data []byte) error
}

type turnRecorder struct {
	indexName string
}

// NewTurnRecorder 创建一个新的 TurnRecorder 实例。
func NewTurnRecorder(indexName string) TurnRecorder {
	return &turnRecorder{indexName: indexName}
}

// RecordTurn 发布 Kafka 事件并写入 ES 索引，两者都尽力而为。
func (r *turnRecorder) RecordTurn(ctx context.Context, record TurnRecord) {
	event := tasks.ChatTurnEvent{
		UserID:    record.UserID,
		Persona:   record.Persona,
		Model:     record.Model,
		HasImage:  record.HasImage,
		Timestamp: record.Timestamp,
		Day:       record.Timestamp.Format("2006-01-02"),
	}
	if err := kafka.ProduceChatTurn(event); err != nil {
		log.Errorf("发布问答事件失败: %v", err)
	}

	doc := model.ChatTurnDocument{
		UserID:      record.UserID,
		UserMessage: record.UserMessage,
		BotResponse: record.BotResponse,
		Persona:     record.Persona,
		Model:       record.Model,
		CreatedAt:   record.Timestamp,
	}
	if err := es.IndexChatTurn(ctx, r.indexName, doc); err != nil {
		log.Errorf("写入问答索引失败: %v", err)
	}
}

type minioImageStore struct {
	bucketName string
}

// NewImageStore 创建一个基于 MinIO 的 ImageStore 实例。
func NewImageStore(bucketName string) ImageStore {
	return &minioImageStore{bucketName: bucketName}
}

// SaveAuditCopy 以 "images/<用户>/<时间戳>" 为对象名写入存储桶。
func (s *minioImageStore) SaveAuditCopy(ctx context.Context, userID int64, mimeType string, data []byte) error {
	objectName := fmt.Sprintf("images/%d/%d", userID, time.Now().UnixNano())
	return storage.PutObject(ctx, s.bucketName, objectName, data, mimeType)
}
