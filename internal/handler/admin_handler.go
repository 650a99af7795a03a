package handler

import (
	"net/http"
	"strconv"

	"gena-go/internal/service"
	"gena-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AdminHandler 负责管理后台的统计与检索 API。
type AdminHandler struct {
	adminService service.AdminService
	userService  service.UserService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService, userService service.UserService) *AdminHandler {
	return &AdminHandler{adminService: adminService, userService: userService}
}

// GetStats 返回聚合统计。
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		log.Errorf("GetStats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "统计查询失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": stats, "message": "success"})
}

// GetReport 返回文本形式的完整报告。
func (h *AdminHandler) GetReport(c *gin.Context) {
	report, err := h.adminService.Report(c.Request.Context())
	if err != nil {
		log.Errorf("GetReport: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "报告生成失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": report, "message": "success"})
}

// GetActivity 返回 Redis 中的实时活跃计数。
func (h *AdminHandler) GetActivity(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	activity, err := h.adminService.RealtimeActivity(c.Request.Context(), days)
	if err != nil {
		log.Errorf("GetActivity: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "活跃度查询失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": activity, "message": "success"})
}

// SearchHistory 在 ES 索引上做全文检索。
// 查询参数: q（必填）、userId（可选）、size（可选）。
func (h *AdminHandler) SearchHistory(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "查询关键词不能为空",
		})
		return
	}

	var userID *int64
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "无效的用户 ID",
			})
			return
		}
		userID = &id
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	docs, err := h.adminService.SearchHistory(c.Request.Context(), query, userID, size)
	if err != nil {
		log.Errorf("SearchHistory: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "检索失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": docs, "message": "success"})
}

// SetPlanRequest 定义了手工调整计划 API 的请求体结构。
type SetPlanRequest struct {
	UserID int64  `json:"userId" binding:"required"`
	Tier   string `json:"tier" binding:"required"`
}

// SetPlan 手工调整某个用户的计划档位（客服场景）。
func (h *AdminHandler) SetPlan(c *gin.Context) {
	var req SetPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}

	if err := h.userService.UpgradePlan(req.UserID, req.Tier); err != nil {
		log.Warnf("SetPlan: Failed for user %d, error: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": err.Error(),
		})
		return
	}
	log.Infof("Admin set plan of user %d to %s", req.UserID, req.Tier)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "计划更新成功"})
}

// DeleteUser 删除用户的全部数据（数据清除请求）。
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的用户 ID",
		})
		return
	}

	if err := h.userService.DeleteUser(userID); err != nil {
		log.Errorf("DeleteUser: Failed for user %d, error: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "删除失败",
		})
		return
	}
	log.Infof("Admin deleted all data of user %d", userID)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "用户数据已删除"})
}
