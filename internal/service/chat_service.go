package service

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"gena-go/internal/entitlement"
	"gena-go/internal/model"
	"gena-go/internal/repository"
	"gena-go/pkg/llm"
	"gena-go/pkg/log"
)

// ChatService 实现一轮完整的问答流程：
// 限流、权限门控、上下文组装、模型调用与历史落库。
type ChatService interface {
	// HandleText 处理一条文本消息，返回模型回复。
	HandleText(ctx context.Context, userID int64, text string) (string, error)
	// HandleImage 处理一条带图片的消息。图片额外占用天窗口配额。
	HandleImage(ctx context.Context, userID int64, caption string, data []byte, mimeType string) (string, error)
	// ClearHistory 删除用户的全部对话历史。没有历史时同样视为成功。
	ClearHistory(userID int64) error
}

type chatService struct {
	turnLock    repository.TurnLock
	userService UserService
	limiter     LimiterService
	settings    SettingsService
	historyRepo repository.HistoryRepository
	llmClient   llm.Client
	recorder    TurnRecorder
	imageStore  ImageStore
}

// NewChatService 创建一个新的 ChatService 实例。
// recorder 与 imageStore 允许为 nil，此时跳过对应的旁路写入。
func NewChatService(
	turnLock repository.TurnLock,
	userService UserService,
	limiter LimiterService,
	settings SettingsService,
	historyRepo repository.HistoryRepository,
	llmClient llm.Client,
	recorder TurnRecorder,
	imageStore ImageStore,
) ChatService {
	return &chatService{
		turnLock:    turnLock,
		userService: userService,
		limiter:     limiter,
		settings:    settings,
		historyRepo: historyRepo,
		llmClient:   llmClient,
		recorder:    recorder,
		imageStore:  imageStore,
	}
}

// HandleText 处理纯文本消息。
func (s *chatService) HandleText(ctx context.Context, userID int64, text string) (string, error) {
	return s.handleTurn(ctx, userID, text, nil, "")
}

// HandleImage 处理图片消息。caption 为空时用占位文本提示模型描述图片。
func (s *chatService) HandleImage(ctx context.Context, userID int64, caption string, data []byte, mimeType string) (string, error) {
	if caption == "" {
		caption = "Describe this image."
	}
	return s.handleTurn(ctx, userID, caption, data, mimeType)
}

// handleTurn 是文本与图片消息共用的处理管线。
func (s *chatService) handleTurn(ctx context.Context, userID int64, text string, image []byte, mimeType string) (string, error) {
	release, err := s.turnLock.Acquire(ctx, userID)
	if err != nil {
		return "", err
	}
	defer release()

	// 建档在分发层完成，这里只读取生效档位
	tier, err := s.userService.EffectiveTier(userID)
	if err != nil {
		return "", err
	}

	// 每条消息占用分钟窗口配额，图片在此之外再占用天窗口配额。
	if err := s.limiter.AllowMessage(userID, tier); err != nil {
		return "", err
	}
	if image != nil {
		if err := s.limiter.AllowImage(userID, tier); err != nil {
			return "", err
		}
	}

	settings, err := s.settings.Effective(userID, tier)
	if err != nil {
		return "", err
	}

	contents, err := s.composeContents(userID, tier, text, image, mimeType)
	if err != nil {
		return "", err
	}
	instruction := settings.SystemInstruction
	if instruction == "" {
		instruction = entitlement.PersonaInstruction(settings.Persona)
	}

	answer, err := s.generateWithRetry(ctx, settings.Model, contents, instruction)
	if err != nil {
		return "", err
	}

	if err := s.historyRepo.Append(userID, text, answer); err != nil {
		return "", err
	}

	if image != nil && s.imageStore != nil {
		if err := s.imageStore.SaveAuditCopy(ctx, userID, mimeType, image); err != nil {
			log.Errorf("保存图片审计副本失败: %v", err)
		}
	}
	if s.recorder != nil {
		s.recorder.RecordTurn(ctx, TurnRecord{
			UserID:      userID,
			UserMessage: text,
			BotResponse: answer,
			Persona:     settings.Persona,
			Model:       settings.Model,
			HasImage:    image != nil,
			Timestamp:   time.Now(),
		})
	}
	return answer, nil
}

// composeContents 按档位的上下文深度组装多轮 contents。
// Free 档位 ContextTurns 为 0，此时完全不读历史。
func (s *chatService) composeContents(userID int64, tier, text string, image []byte, mimeType string) ([]llm.Content, error) {
	turns := entitlement.LimitsFor(tier).ContextTurns

	var history []model.MessageHistory
	if turns > 0 {
		var err error
		history, err = s.historyRepo.Recent(userID, turns)
		if err != nil {
			return nil, err
		}
	}

	contents := make([]llm.Content, 0, len(history)*2+1)
	for _, entry := range history {
		contents = append(contents, llm.TextContent("user", entry.UserMessage))
		contents = append(contents, llm.TextContent("model", entry.BotResponse))
	}

	current := llm.Content{Role: "user", Parts: []llm.Part{{Text: text}}}
	if image != nil {
		current.Parts = append(current.Parts, llm.Part{InlineData: &llm.InlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image),
		}})
	}
	return append(contents, current), nil
}

// generateWithRetry 调用模型，远端失败时用同样的请求重试一次。
// 重试仍失败返回 ErrModelUnavailable，本轮不写入历史。
func (s *chatService) generateWithRetry(ctx context.Context, modelName string, contents []llm.Content, instruction string) (string, error) {
	answer, err := s.llmClient.GenerateContent(ctx, modelName, contents, instruction)
	if err == nil {
		return answer, nil
	}
	if !errors.Is(err, llm.ErrRemoteAPI) {
		return "", err
	}
	log.Warnf("模型调用失败，重试一次: %v", err)

	answer, err = s.llmClient.GenerateContent(ctx, modelName, contents, instruction)
	if err == nil {
		return answer, nil
	}
	log.Errorf("模型重试仍然失败: %v", err)
	return "", ErrModelUnavailable
}

// ClearHistory 删除用户历史。
func (s *chatService) ClearHistory(userID int64) error {
	return s.historyRepo.Clear(userID)
}
