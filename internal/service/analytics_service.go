package service

import (
	"context"

	"gena-go/internal/repository"
	"gena-go/pkg/tasks"
)

// AnalyticsService 消费问答事件并维护 Redis 中的实时活跃计数。
// 它实现了 kafka.EventProcessor 接口。
type AnalyticsService struct {
	activityRepo repository.ActivityRepository
}

// NewAnalyticsService 创建一个新的 AnalyticsService 实例。
func NewAnalyticsService(activityRepo repository.ActivityRepository) *AnalyticsService {
	return &AnalyticsService{activityRepo: activityRepo}
}

// Process 将事件按天累加到活跃计数。
func (s *AnalyticsService) Process(ctx context.Context, event tasks.ChatTurnEvent) error {
	return s.activityRepo.IncrDaily(ctx, event.Day)
}
