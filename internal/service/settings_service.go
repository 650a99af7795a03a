package service

import (
	"gena-go/internal/entitlement"
	"gena-go/internal/model"
	"gena-go/internal/repository"
	"gena-go/pkg/log"
)

// SettingsService 管理用户设置，并执行计划权限门控。
// 设置中出现了权限之外的值时静默回落到档位默认值，回落结果落库，
// 不向用户发出任何提示。
type SettingsService interface {
	// Effective 返回经过门控的设置。降级后遗留的高档位选择在这里被修正。
	Effective(userID int64, tier string) (*model.Settings, error)
	// SetPersona 切换人设。权限外的请求回落到默认人设，返回实际生效的键名。
	SetPersona(userID int64, tier, persona string) (string, error)
	// SetModel 切换模型。权限外的请求回落到默认模型，返回实际生效的标识。
	SetModel(userID int64, tier, requested string) (string, error)
	// SetSystemInstruction 设置自定义系统指令，空串表示恢复人设模板。
	SetSystemInstruction(userID int64, instruction string) error
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
}

// NewSettingsService 创建一个新的 SettingsService 实例。
func NewSettingsService(settingsRepo repository.SettingsRepository) SettingsService {
	return &settingsService{settingsRepo: settingsRepo}
}

// Effective 读取设置并逐项做权限校验，回落的字段一次性回写。
func (s *settingsService) Effective(userID int64, tier string) (*model.Settings, error) {
	settings, err := s.settingsRepo.Get(userID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if m, fell := entitlement.ResolveModel(tier, settings.Model); fell {
		log.Infof("用户 %d 的模型 %s 超出 %s 档位权限，回落为 %s", userID, settings.Model, tier, m)
		settings.Model = m
		fields["model"] = m
	}
	if p, fell := entitlement.ResolvePersona(tier, settings.Persona); fell {
		log.Infof("用户 %d 的人设 %s 超出 %s 档位权限，回落为 %s", userID, settings.Persona, tier, p)
		settings.Persona = p
		fields["persona"] = p
	}

	if len(fields) > 0 {
		if err := s.settingsRepo.Update(userID, fields); err != nil {
			return nil, err
		}
	}
	return settings, nil
}

// SetPersona 落库前先按档位门控。
func (s *settingsService) SetPersona(userID int64, tier, persona string) (string, error) {
	applied, _ := entitlement.ResolvePersona(tier, persona)
	if err := s.settingsRepo.Update(userID, map[string]interface{}{"persona": applied}); err != nil {
		return "", err
	}
	return applied, nil
}

// SetModel 落库前先按档位门控。
func (s *settingsService) SetModel(userID int64, tier, requested string) (string, error) {
	applied, _ := entitlement.ResolveModel(tier, requested)
	if err := s.settingsRepo.Update(userID, map[string]interface{}{"model": applied}); err != nil {
		return "", err
	}
	return applied, nil
}

// SetSystemInstruction 直接落库，不做门控。
func (s *settingsService) SetSystemInstruction(userID int64, instruction string) error {
	return s.settingsRepo.Update(userID, map[string]interface{}{"system_instruction": instruction})
}
