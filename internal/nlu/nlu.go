// Package nlu 实现了一个基于规则的意图识别器。
// 规则按固定优先级线性扫描，首条命中即返回；这里刻意不做打分或歧义消解。
package nlu

import (
	"regexp"
	"strings"
)

// Intent 是从自由文本中识别出的用户意图。
type Intent string

const (
	IntentClearHistory  Intent = "clear_history"
	IntentShowSettings  Intent = "show_settings"
	IntentShowHelp      Intent = "show_help"
	IntentShowPlan      Intent = "show_plan"
	IntentChangePersona Intent = "change_persona"
	IntentChangeModel   Intent = "change_model"
	// IntentNone 表示未命中任何规则，消息按普通聊天处理。
	// 未命中是一种合法的分类结果，不是错误。
	IntentNone Intent = "none"
)

// rule 将一个意图与它的触发模式绑定在一起。
type rule struct {
	intent   Intent
	patterns []*regexp.Regexp
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// rules 按优先级从高到低排列，顺序即语义。
var rules = []rule{
	{IntentClearHistory, compile(
		`clear.*context`,
		`forget.*context`,
		`reset.*context`,
		`clear.*history`,
		`forget.*history`,
		`start.*fresh`,
		`new.*conversation`,
	)},
	{IntentShowSettings, compile(
		`show.*settings`,
		`open.*settings`,
		`^settings$`,
		`my.*settings`,
		`preferences`,
	)},
	{IntentShowHelp, compile(
		`^help$`,
		`commands`,
		`what.*can.*do`,
		`how.*use`,
	)},
	{IntentShowPlan, compile(
		`what.*plan`,
		`my.*plan`,
		`show.*plan`,
		`upgrade.*plan`,
	)},
	{IntentChangePersona, compile(
		`change.*persona`,
		`switch.*persona`,
		`different.*persona`,
		`change.*personality`,
	)},
	{IntentChangeModel, compile(
		`change.*model`,
		`switch.*model`,
		`use.*model`,
	)},
}

// personaKeys/modelKeys 用于从命中的文本中提取参数。
var personaKeys = []string{"friend", "advisor", "artist", "scholar", "coach", "mystic"}
var modelKeys = []string{"flash", "pro"}

// Detect 对输入文本做意图识别。
// 返回命中的意图和可选的附加参数（如目标人设名）；未命中返回 IntentNone。
// 匹配不区分大小写，识别器本身不产生任何副作用。
func Detect(text string) (Intent, string) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return IntentNone, ""
	}

	for _, r := range rules {
		for _, p := range r.patterns {
			if p.MatchString(text) {
				return r.intent, extractArgument(text, r.intent)
			}
		}
	}
	return IntentNone, ""
}

// extractArgument 按意图类型从文本中提取附加参数。
func extractArgument(text string, intent Intent) string {
	switch intent {
	case IntentChangePersona:
		for _, key := range personaKeys {
			if strings.Contains(text, key) {
				return key
			}
		}
	case IntentChangeModel:
		for _, key := range modelKeys {
			if strings.Contains(text, key) {
				return key
			}
		}
	}
	return ""
}
