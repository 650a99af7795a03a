// Package entitlement 定义了订阅计划与功能权限的静态映射。
// 所有表均为进程启动时确定的只读数据，不在请求路径上重新构建。
package entitlement

import "time"

// 订阅计划的四个档位。
const (
	TierFree    = "Free"
	TierBasic   = "Basic"
	TierPremium = "Premium"
	TierVIP     = "VIP"
)

// 两个限流窗口的长度。
const (
	MinuteWindow = time.Minute
	DayWindow    = 24 * time.Hour
)

// Limits 描述了一个计划档位的配额与上下文深度。
type Limits struct {
	// MessagesPerMinute 是分钟窗口内允许的聊天消息数。
	MessagesPerMinute int
	// ImagesPerDay 是天窗口内允许的图片数。
	ImagesPerDay int
	// ContextTurns 是组装上下文时回看的历史轮数，0 表示无上下文。
	ContextTurns int
}

// tierLimits 是各档位的配额表。
var tierLimits = map[string]Limits{
	TierFree:    {MessagesPerMinute: 5, ImagesPerDay: 3, ContextTurns: 0},
	TierBasic:   {MessagesPerMinute: 10, ImagesPerDay: 5, ContextTurns: 3},
	TierPremium: {MessagesPerMinute: 20, ImagesPerDay: 10, ContextTurns: 5},
	TierVIP:     {MessagesPerMinute: 30, ImagesPerDay: 50, ContextTurns: 8},
}

// tierModels 是各档位可用的模型列表，首个元素为该档位的默认模型。
var tierModels = map[string][]string{
	TierFree:    {"gemini-2.5-flash"},
	TierBasic:   {"gemini-2.5-flash", "gemini-2.0-flash"},
	TierPremium: {"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-pro"},
	TierVIP:     {"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-pro", "gemini-1.5-pro-exp"},
}

// ModelDescriptions 为模型提供面向用户的简短描述。
var ModelDescriptions = map[string]string{
	"gemini-2.5-flash":   "Fast",
	"gemini-2.0-flash":   "Enhanced",
	"gemini-1.5-pro":     "Professional",
	"gemini-1.5-pro-exp": "Premium",
}

// tierPersonas 是各档位可用的人设列表，首个元素为该档位的默认人设。
var tierPersonas = map[string][]string{
	TierFree:    {"friend"},
	TierBasic:   {"friend", "advisor", "artist"},
	TierPremium: {"friend", "advisor", "artist", "scholar", "coach"},
	TierVIP:     {"friend", "advisor", "artist", "scholar", "coach", "mystic"},
}

// ValidTier 报告给定的字符串是否是已知的计划档位。
func ValidTier(tier string) bool {
	_, ok := tierLimits[tier]
	return ok
}

// LimitsFor 返回指定档位的配额，未知档位按 Free 处理。
func LimitsFor(tier string) Limits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[TierFree]
}

// ModelsFor 返回指定档位可用的模型列表。
func ModelsFor(tier string) []string {
	if m, ok := tierModels[tier]; ok {
		return m
	}
	return tierModels[TierFree]
}

// PersonasFor 返回指定档位可用的人设键名列表。
func PersonasFor(tier string) []string {
	if p, ok := tierPersonas[tier]; ok {
		return p
	}
	return tierPersonas[TierFree]
}

// DefaultModel 返回指定档位的默认模型。
func DefaultModel(tier string) string {
	return ModelsFor(tier)[0]
}

// DefaultPersona 返回指定档位的默认人设。
func DefaultPersona(tier string) string {
	return PersonasFor(tier)[0]
}

// ResolveModel 校验 requested 是否在档位权限内。
// 不在权限内时回落到该档位的默认模型，第二个返回值指示是否发生了回落。
func ResolveModel(tier, requested string) (string, bool) {
	for _, m := range ModelsFor(tier) {
		if m == requested {
			return requested, false
		}
	}
	return DefaultModel(tier), true
}

// ResolvePersona 校验 requested 是否在档位权限内。
// 不在权限内时回落到该档位的默认人设，第二个返回值指示是否发生了回落。
func ResolvePersona(tier, requested string) (string, bool) {
	for _, p := range PersonasFor(tier) {
		if p == requested {
			return requested, false
		}
	}
	return DefaultPersona(tier), true
}
