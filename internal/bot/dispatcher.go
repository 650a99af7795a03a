package bot

import (
	"context"
	"errors"
	"strings"

	"gena-go/internal/entitlement"
	"gena-go/internal/nlu"
	"gena-go/internal/repository"
	"gena-go/internal/service"
	"gena-go/pkg/log"
	"gena-go/pkg/telegram"
)

// Dispatcher 将入站更新路由到命令、意图或聊天处理。
type Dispatcher struct {
	tg          *telegram.Client
	chatService service.ChatService
	userService service.UserService
	settings    service.SettingsService
	admin       service.AdminService
	// mention 是群聊命令后缀，如 "@gena_bot"，来自配置的 bot 用户名
	mention string
}

// NewDispatcher 创建一个新的 Dispatcher 实例。
func NewDispatcher(
	tg *telegram.Client,
	chatService service.ChatService,
	userService service.UserService,
	settings service.SettingsService,
	admin service.AdminService,
	botUsername string,
) *Dispatcher {
	var mention string
	if botUsername != "" {
		mention = "@" + strings.ToLower(strings.TrimPrefix(botUsername, "@"))
	}
	return &Dispatcher{
		tg:          tg,
		chatService: chatService,
		userService: userService,
		settings:    settings,
		admin:       admin,
		mention:     mention,
	}
}

// HandleUpdate 处理一条 webhook 更新。
// 所有错误在这里转换为面向用户的回复，不向上传播。
func (d *Dispatcher) HandleUpdate(ctx context.Context, update *telegram.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if _, err := d.userService.GetOrCreateUser(userID); err != nil {
		log.Errorf("用户建档失败: userID=%d, %v", userID, err)
		d.reply(ctx, chatID, storageErrorText)
		return
	}

	switch {
	case strings.HasPrefix(msg.Text, "/"):
		d.handleCommand(ctx, userID, chatID, msg.Text)
	case len(msg.Photo) > 0:
		d.handlePhoto(ctx, userID, chatID, msg)
	case msg.Text != "":
		d.handleText(ctx, userID, chatID, msg.Text)
	default:
		d.reply(ctx, chatID, emptyMessageText)
	}
}

// handleCommand 解析并执行斜杠命令。
func (d *Dispatcher) handleCommand(ctx context.Context, userID, chatID int64, text string) {
	command, arg := parseCommand(text, d.mention)

	switch command {
	case "/start":
		tier, err := d.userService.EffectiveTier(userID)
		if err != nil {
			d.replyError(ctx, chatID, err)
			return
		}
		d.reply(ctx, chatID, welcomeText(tier))
	case "/help":
		d.reply(ctx, chatID, helpText)
	case "/settings":
		d.showSettings(ctx, userID, chatID)
	case "/persona":
		d.changePersona(ctx, userID, chatID, arg)
	case "/model":
		d.changeModel(ctx, userID, chatID, arg)
	case "/plan":
		d.handlePlan(ctx, userID, chatID, arg)
	case "/clear":
		if err := d.chatService.ClearHistory(userID); err != nil {
			d.replyError(ctx, chatID, err)
			return
		}
		d.reply(ctx, chatID, clearedText)
	case "/admin":
		d.handleAdmin(ctx, userID, chatID)
	default:
		d.reply(ctx, chatID, "Unknown command. Use /help to see all commands.")
	}
}

// handleText 先走意图识别，未命中再按普通聊天处理。
func (d *Dispatcher) handleText(ctx context.Context, userID, chatID int64, text string) {
	intent, arg := nlu.Detect(text)
	switch intent {
	case nlu.IntentClearHistory:
		if err := d.chatService.ClearHistory(userID); err != nil {
			d.replyError(ctx, chatID, err)
			return
		}
		d.reply(ctx, chatID, clearedText)
	case nlu.IntentShowSettings:
		d.showSettings(ctx, userID, chatID)
	case nlu.IntentShowHelp:
		d.reply(ctx, chatID, helpText)
	case nlu.IntentShowPlan:
		d.handlePlan(ctx, userID, chatID, "")
	case nlu.IntentChangePersona:
		d.changePersona(ctx, userID, chatID, arg)
	case nlu.IntentChangeModel:
		d.changeModel(ctx, userID, chatID, arg)
	default:
		answer, err := d.chatService.HandleText(ctx, userID, text)
		if err != nil {
			d.replyError(ctx, chatID, err)
			return
		}
		for _, chunk := range SplitMessage(answer) {
			d.reply(ctx, chatID, chunk)
		}
	}
}

// handlePhoto 下载最大尺寸的图片后交给聊天流程。
func (d *Dispatcher) handlePhoto(ctx context.Context, userID, chatID int64, msg *telegram.Message) {
	// Telegram 的尺寸列表按从小到大排列，取最后一个
	photo := msg.Photo[len(msg.Photo)-1]
	filePath, err := d.tg.GetFilePath(ctx, photo.FileID)
	if err != nil {
		log.Errorf("获取图片路径失败: %v", err)
		d.reply(ctx, chatID, storageErrorText)
		return
	}
	data, err := d.tg.DownloadFile(ctx, filePath)
	if err != nil {
		log.Errorf("下载图片失败: %v", err)
		d.reply(ctx, chatID, storageErrorText)
		return
	}

	answer, err := d.chatService.HandleImage(ctx, userID, msg.Caption, data, "image/jpeg")
	if err != nil {
		d.replyError(ctx, chatID, err)
		return
	}
	for _, chunk := range SplitMessage(answer) {
		d.reply(ctx, chatID, chunk)
	}
}

func (d *Dispatcher) showSettings(ctx context.Context, userID, chatID int64) {
	tier, err := d.userService.EffectiveTier(userID)
	if err != nil {
		d.replyError(ctx, chatID, err)
		return
	}
	settings, err := d.settings.Effective(userID, tier)
	if err != nil {
		d.replyError(ctx, chatID, err)
		return
	}
	d.reply(ctx, chatID, settingsText(settings, tier))
}

func (d *Dispatcher) changePersona(ctx context.Context, userID, chatID int64, persona string) {
	tier, err := d.userService.EffectiveTier(userID)
	if err != nil {
		d.replyError(ctx, chatID, err)
		return
	}
	if persona == "" {
		d.reply(ctx, chatID, "Available personas: "+strings.Join(entitlement.PersonasFor(tier), ", "))
		return
	}
	applied, err := d.settings.SetPersona(userID, tier, persona)
	if err != nil {
		d.replyError(ctx, chatID, err)
		return
	}
	d.reply(ctx, chatID, personaChangedText(applied))
}

func (d *Dispatcher) changeModel(ctx context.Context, userID, chatID int64, requested string) {
	tier, err := d.userService.EffectiveTier(userID)
	if err != nil {
		d.replyError(ctx, chatID, err)
		return
	}
	if requested == "" {
		d.reply(ctx, chatID, "Available models: "+strings.Join(entitlement.ModelsFor(tier), ", "))
		return
	}
	// 允许用简称选择模型，如 "pro" 或 "flash"
	for _, m := range entitlement.ModelsFor(tier) {
		if strings.Contains(m, requested) {
			requested = m
			break
		}
	}
	applied, err := d.settings.SetModel(userID, tier, requested)
	if err != nil {
		d.replyError(ctx, chatID, err)
		return
	}
	d.reply(ctx, chatID, modelChangedText(applied))
}

// handlePlan 无参数时展示计划，带档位参数时切换。
func (d *Dispatcher) handlePlan(ctx context.Context, userID, chatID int64, arg string) {
	if arg != "" {
		tier := normalizeTier(arg)
		if arg == "cancel" {
			tier = entitlement.TierFree
		}
		if err := d.userService.UpgradePlan(userID, tier); err != nil {
			d.replyError(ctx, chatID, err)
			return
		}
		d.reply(ctx, chatID, planChangedText(tier))
		return
	}

	plan, err := d.userService.PlanInfo(userID)
	if err != nil {
		d.replyError(ctx, chatID, err)
		return
	}
	d.reply(ctx, chatID, planText(plan))
}

func (d *Dispatcher) handleAdmin(ctx context.Context, userID, chatID int64) {
	if !d.admin.IsAdmin(userID) {
		d.reply(ctx, chatID, notAuthorizedText)
		return
	}
	report, err := d.admin.Report(ctx)
	if err != nil {
		d.replyError(ctx, chatID, err)
		return
	}
	for _, chunk := range SplitMessage(report) {
		d.reply(ctx, chatID, chunk)
	}
}

// replyError 将业务错误翻译为面向用户的提示。
func (d *Dispatcher) replyError(ctx context.Context, chatID int64, err error) {
	if rl, ok := service.AsRateLimited(err); ok {
		if rl.Scope == "image" {
			d.reply(ctx, chatID, imageLimitText)
		} else {
			d.reply(ctx, chatID, rateLimitText(rl.RetryAfter))
		}
		return
	}
	switch {
	case errors.Is(err, repository.ErrTurnBusy):
		d.reply(ctx, chatID, busyText)
	case errors.Is(err, service.ErrModelUnavailable):
		d.reply(ctx, chatID, unavailableText)
	case errors.Is(err, service.ErrUnknownTier):
		d.reply(ctx, chatID, "Unknown plan. Choose Basic, Premium or VIP.")
	default:
		log.Errorf("处理消息失败: %v", err)
		d.reply(ctx, chatID, storageErrorText)
	}
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) {
	if err := d.tg.SendMessage(ctx, chatID, text); err != nil {
		log.Errorf("发送回复失败: chatID=%d, %v", chatID, err)
	}
}

// parseCommand 拆出命令与第一个参数，并剥掉群聊里的 @botname 后缀。
func parseCommand(text, mention string) (command, arg string) {
	fields := strings.Fields(text)
	command = strings.ToLower(fields[0])
	if mention != "" {
		command = strings.TrimSuffix(command, mention)
	}
	if len(fields) > 1 {
		arg = strings.ToLower(fields[1])
	}
	return command, arg
}

// normalizeTier 把用户输入的档位名规范为标准形式。
func normalizeTier(s string) string {
	switch strings.ToLower(s) {
	case "free":
		return entitlement.TierFree
	case "basic":
		return entitlement.TierBasic
	case "premium":
		return entitlement.TierPremium
	case "vip":
		return entitlement.TierVIP
	}
	return s
}
