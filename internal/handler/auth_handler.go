package handler

import (
	"net/http"

	"gena-go/internal/config"
	"gena-go/pkg/hash"
	"gena-go/pkg/log"
	"gena-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责管理后台的登录认证。
// 管理员账号在配置文件中静态定义，不走用户表。
type AuthHandler struct {
	jwtManager *token.JWTManager
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(jwtManager *token.JWTManager) *AuthHandler {
	return &AuthHandler{jwtManager: jwtManager}
}

// LoginRequest 定义了管理员登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 处理管理员登录请求。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：用户名和密码不能为空",
		})
		return
	}

	admin := config.Conf.Admin
	if req.Username != admin.Username || !hash.CheckPassword(req.Password, admin.PasswordHash) {
		log.Warnf("Login: Admin authentication failed for '%s'", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "无效的凭证",
		})
		return
	}

	accessToken, err := h.jwtManager.GenerateToken(req.Username, "ADMIN")
	if err != nil {
		log.Error("Login: Failed to generate token", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "令牌签发失败",
		})
		return
	}

	log.Infof("Admin '%s' logged in successfully", req.Username)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Login successful",
		"data": gin.H{
			"token": accessToken,
		},
	})
}
