package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrTurnBusy 表示同一用户已有一轮消息在处理中。
var ErrTurnBusy = errors.New("another turn is in progress for this user")

// TurnLock 以用户为粒度串行化消息处理。
// Usage 与 Settings 行不支持并发读-改-写，跨副本时由 SET NX 锁兜底。
type TurnLock interface {
	// Acquire 尝试获取用户锁，成功时返回释放函数。
	// 在 ttl 内最多等待 wait 时长，超时返回 ErrTurnBusy。
	Acquire(ctx context.Context, userID int64) (release func(), err error)
}

type redisTurnLock struct {
	redisClient *redis.Client
}

// NewTurnLock 创建一个新的 TurnLock 实例。
func NewTurnLock(redisClient *redis.Client) TurnLock {
	return &redisTurnLock{redisClient: redisClient}
}

const (
	lockTTL      = 30 * time.Second
	lockWait     = 3 * time.Second
	lockInterval = 100 * time.Millisecond
)

func lockKey(userID int64) string {
	return fmt.Sprintf("user:%d:turn_lock", userID)
}

// Acquire 以轮询 SET NX 的方式获取锁。
func (l *redisTurnLock) Acquire(ctx context.Context, userID int64) (func(), error) {
	key := lockKey(userID)
	deadline := time.Now().Add(lockWait)

	for {
		ok, err := l.redisClient.SetNX(ctx, key, 1, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire turn lock: %w", err)
		}
		if ok {
			return func() {
				_ = l.redisClient.Del(context.Background(), key).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrTurnBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockInterval):
		}
	}
}
