package service

import (
	"testing"

	"gena-go/internal/entitlement"
	"gena-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectivePassesValidSettings(t *testing.T) {
	repo := newFakeSettingsRepo()
	repo.settings[1] = &model.Settings{UserID: 1, Model: "gemini-1.5-pro", Persona: "coach"}
	svc := NewSettingsService(repo)

	settings, err := svc.Effective(1, entitlement.TierPremium)
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", settings.Model)
	assert.Equal(t, "coach", settings.Persona)
	// 权限内的设置不触发任何回写
	assert.Empty(t, repo.updates)
}

func TestEffectiveFallsBackSilentlyAfterDowngrade(t *testing.T) {
	// 降级后遗留了 VIP 专属的模型与人设
	repo := newFakeSettingsRepo()
	repo.settings[1] = &model.Settings{UserID: 1, Model: "gemini-1.5-pro-exp", Persona: "mystic"}
	svc := NewSettingsService(repo)

	settings, err := svc.Effective(1, entitlement.TierFree)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", settings.Model)
	assert.Equal(t, "friend", settings.Persona)

	// 回落结果一次性落库
	require.Len(t, repo.updates, 1)
	assert.Equal(t, "gemini-2.5-flash", repo.updates[0]["model"])
	assert.Equal(t, "friend", repo.updates[0]["persona"])

	// 第二次读取不再触发回写
	_, err = svc.Effective(1, entitlement.TierFree)
	require.NoError(t, err)
	assert.Len(t, repo.updates, 1)
}

func TestSetPersonaGatesByTier(t *testing.T) {
	repo := newFakeSettingsRepo()
	svc := NewSettingsService(repo)

	// 权限内直接生效
	applied, err := svc.SetPersona(1, entitlement.TierVIP, "mystic")
	require.NoError(t, err)
	assert.Equal(t, "mystic", applied)

	// 权限外回落到默认人设
	applied, err = svc.SetPersona(1, entitlement.TierBasic, "mystic")
	require.NoError(t, err)
	assert.Equal(t, "friend", applied)
}

func TestSetModelGatesByTier(t *testing.T) {
	repo := newFakeSettingsRepo()
	svc := NewSettingsService(repo)

	applied, err := svc.SetModel(1, entitlement.TierFree, "gemini-1.5-pro")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", applied)
}
