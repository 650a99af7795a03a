// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"gena-go/internal/bot"
	"gena-go/internal/config"
	"gena-go/pkg/log"
	"gena-go/pkg/telegram"

	"github.com/gin-gonic/gin"
)

// WebhookHandler 负责接收 Telegram 的 webhook 回调。
type WebhookHandler struct {
	dispatcher *bot.Dispatcher
}

// NewWebhookHandler 创建一个新的 WebhookHandler 实例。
func NewWebhookHandler(dispatcher *bot.Dispatcher) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher}
}

// Handle 校验来源后把更新交给分发器。
// 无论处理结果如何都返回 200，避免 Telegram 反复重投同一条更新。
func (h *WebhookHandler) Handle(c *gin.Context) {
	secret := config.Conf.Telegram.WebhookSecret
	if secret != "" && c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != secret {
		c.JSON(http.StatusForbidden, gin.H{"error": "无效的回调来源"})
		return
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Warnf("Webhook: 无法解析更新, error: %v", err)
		c.Status(http.StatusOK)
		return
	}

	h.dispatcher.HandleUpdate(c.Request.Context(), &update)
	c.Status(http.StatusOK)
}
