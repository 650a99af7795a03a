// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitedError 表示请求超出当前窗口的配额。
// RetryAfter 是距离窗口重置的剩余时长，向用户提示时向上取整到秒。
type RateLimitedError struct {
	// Scope 是被限流的资源："message" 或 "image"。
	Scope      string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited (%s): retry after %s", e.Scope, e.RetryAfter)
}

// AsRateLimited 判断 err 是否是限流错误，并返回具体信息。
func AsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

// ErrModelUnavailable 表示上游模型在重试之后仍然失败。
// 本轮消息不计入历史，用户可直接重发。
var ErrModelUnavailable = errors.New("model temporarily unavailable")

// ErrUnknownTier 表示请求了一个不存在的计划档位。
var ErrUnknownTier = errors.New("unknown plan tier")
