package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitsFor(t *testing.T) {
	assert.Equal(t, Limits{MessagesPerMinute: 5, ImagesPerDay: 3, ContextTurns: 0}, LimitsFor(TierFree))
	assert.Equal(t, Limits{MessagesPerMinute: 10, ImagesPerDay: 5, ContextTurns: 3}, LimitsFor(TierBasic))
	assert.Equal(t, Limits{MessagesPerMinute: 20, ImagesPerDay: 10, ContextTurns: 5}, LimitsFor(TierPremium))
	assert.Equal(t, Limits{MessagesPerMinute: 30, ImagesPerDay: 50, ContextTurns: 8}, LimitsFor(TierVIP))

	// 未知档位按 Free 处理
	assert.Equal(t, LimitsFor(TierFree), LimitsFor("Gold"))
}

func TestValidTier(t *testing.T) {
	for _, tier := range []string{TierFree, TierBasic, TierPremium, TierVIP} {
		assert.True(t, ValidTier(tier))
	}
	assert.False(t, ValidTier("free")) // 大小写敏感
	assert.False(t, ValidTier("Gold"))
}

func TestTierAccessIsCumulative(t *testing.T) {
	// 高档位的模型与人设集合包含低档位的全部条目
	tiers := []string{TierFree, TierBasic, TierPremium, TierVIP}
	for i := 1; i < len(tiers); i++ {
		lowerModels := ModelsFor(tiers[i-1])
		higherModels := ModelsFor(tiers[i])
		for _, m := range lowerModels {
			assert.Contains(t, higherModels, m)
		}
		lowerPersonas := PersonasFor(tiers[i-1])
		higherPersonas := PersonasFor(tiers[i])
		for _, p := range lowerPersonas {
			assert.Contains(t, higherPersonas, p)
		}
	}
}

func TestResolveModel(t *testing.T) {
	// 权限内的选择原样通过
	m, fell := ResolveModel(TierVIP, "gemini-1.5-pro-exp")
	assert.Equal(t, "gemini-1.5-pro-exp", m)
	assert.False(t, fell)

	// 权限外的选择回落到档位默认模型
	m, fell = ResolveModel(TierFree, "gemini-1.5-pro-exp")
	assert.Equal(t, "gemini-2.5-flash", m)
	assert.True(t, fell)

	// 未知模型同样回落
	m, fell = ResolveModel(TierBasic, "gpt-4")
	assert.Equal(t, "gemini-2.5-flash", m)
	assert.True(t, fell)
}

func TestResolvePersona(t *testing.T) {
	p, fell := ResolvePersona(TierPremium, "coach")
	assert.Equal(t, "coach", p)
	assert.False(t, fell)

	// mystic 只对 VIP 开放
	p, fell = ResolvePersona(TierPremium, "mystic")
	assert.Equal(t, "friend", p)
	assert.True(t, fell)
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", DefaultModel(TierFree))
	assert.Equal(t, "friend", DefaultPersona(TierVIP))
}

func TestPersonaInstruction(t *testing.T) {
	for _, key := range []string{"friend", "advisor", "artist", "scholar", "coach", "mystic"} {
		assert.NotEmpty(t, PersonaInstruction(key), "persona: %s", key)
		assert.NotEmpty(t, PersonaName(key), "persona: %s", key)
	}
	// 未知人设回落到 friend
	assert.Equal(t, PersonaInstruction("friend"), PersonaInstruction("unknown"))
}
