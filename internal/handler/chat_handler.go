package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"gena-go/internal/entitlement"
	"gena-go/pkg/llm"
	"gena-go/pkg/log"
	"gena-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 是管理后台的模型测试控制台。
// 管理员可以在这里直接试聊任意模型与人设，流式返回，不产生任何落库副作用。
type ChatHandler struct {
	llmClient  llm.Client
	jwtManager *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(llmClient llm.Client, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{llmClient: llmClient, jwtManager: jwtManager}
}

// consoleRequest 是测试控制台的单条消息。
type consoleRequest struct {
	Text    string `json:"text"`
	Model   string `json:"model"`
	Persona string `json:"persona"`
}

// Handle 处理一个传入的 WebSocket 连接。
// token 走 URL 参数，浏览器的 WebSocket API 无法自定义请求头。
func (h *ChatHandler) Handle(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil || claims.Role != "ADMIN" {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("测试控制台已连接，管理员: %s", claims.Username)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		var req consoleRequest
		if err := json.Unmarshal(message, &req); err != nil || req.Text == "" {
			h.writeError(conn, "无效的消息格式")
			continue
		}
		if req.Model == "" {
			req.Model = entitlement.DefaultModel(entitlement.TierVIP)
		}
		instruction := entitlement.PersonaInstruction(req.Persona)

		contents := []llm.Content{llm.TextContent("user", req.Text)}
		err = h.llmClient.StreamGenerateContent(c.Request.Context(), req.Model, contents, instruction, conn)
		if err != nil {
			log.Errorf("处理流式响应失败: %v", err)
			h.writeError(conn, "AI服务暂时不可用，请稍后重试")
		}
		sendCompletion(conn)
	}
}

func (h *ChatHandler) writeError(conn *websocket.Conn, msg string) {
	b, _ := json.Marshal(map[string]string{"error": msg})
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

// sendCompletion 发送完成通知 JSON
func sendCompletion(conn *websocket.Conn) {
	notif := map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"timestamp": time.Now().UnixMilli(),
		"date":      time.Now().Format("2006-01-02T15:04:05"),
	}
	b, _ := json.Marshal(notif)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}
