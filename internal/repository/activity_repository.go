package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ActivityRepository 维护 Redis 中的每日活跃计数。
// 计数由 Kafka 消费端写入，管理端读取，作为 SQL 聚合之外的实时视图。
type ActivityRepository interface {
	IncrDaily(ctx context.Context, day string) error
	// RangeDaily 返回截止 end（含）共 days 天的计数，键为 "2006-01-02"。
	RangeDaily(ctx context.Context, end time.Time, days int) (map[string]int64, error)
}

type redisActivityRepository struct {
	redisClient *redis.Client
}

// NewActivityRepository 创建一个新的 ActivityRepository 实例。
func NewActivityRepository(redisClient *redis.Client) ActivityRepository {
	return &redisActivityRepository{redisClient: redisClient}
}

const dayFormat = "2006-01-02"

func activityKey(day string) string {
	return fmt.Sprintf("activity:daily:%s", day)
}

// IncrDaily 将指定日期的计数加一，并保持 35 天的过期时间。
func (r *redisActivityRepository) IncrDaily(ctx context.Context, day string) error {
	key := activityKey(day)
	if err := r.redisClient.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to incr daily activity: %w", err)
	}
	// 每次写入都顺延过期时间，避免活跃键被清除
	if err := r.redisClient.Expire(ctx, key, 35*24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set activity ttl: %w", err)
	}
	return nil
}

// RangeDaily 逐天读取计数，缺失的键视为 0。
func (r *redisActivityRepository) RangeDaily(ctx context.Context, end time.Time, days int) (map[string]int64, error) {
	counts := make(map[string]int64, days)
	for i := days - 1; i >= 0; i-- {
		day := end.AddDate(0, 0, -i).Format(dayFormat)
		val, err := r.redisClient.Get(ctx, activityKey(day)).Int64()
		if err == redis.Nil {
			counts[day] = 0
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get daily activity: %w", err)
		}
		counts[day] = val
	}
	return counts, nil
}
