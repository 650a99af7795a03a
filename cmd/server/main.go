// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gena-go/internal/bot"
	"gena-go/internal/config"
	"gena-go/internal/handler"
	"gena-go/internal/middleware"
	"gena-go/internal/repository"
	"gena-go/internal/service"
	"gena-go/pkg/database"
	"gena-go/pkg/es"
	"gena-go/pkg/kafka"
	"gena-go/pkg/llm"
	"gena-go/pkg/log"
	"gena-go/pkg/storage"
	"gena-go/pkg/telegram"
	"gena-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和外部依赖
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	planRepo := repository.NewPlanRepository(database.DB)
	settingsRepo := repository.NewSettingsRepository(database.DB)
	usageRepo := repository.NewUsageRepository(database.DB)
	historyRepo := repository.NewHistoryRepository(database.DB)
	activityRepo := repository.NewActivityRepository(database.RDB)
	turnLock := repository.NewTurnLock(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	llmClient := llm.NewClient(cfg.Gemini)
	tgClient := telegram.NewClient(cfg.Telegram)

	userService := service.NewUserService(userRepo, planRepo)
	limiterService := service.NewLimiterService(usageRepo)
	settingsService := service.NewSettingsService(settingsRepo)
	adminService := service.NewAdminService(userRepo, planRepo, settingsRepo, historyRepo, activityRepo)
	recorder := service.NewTurnRecorder(cfg.Elasticsearch.IndexName)
	imageStore := service.NewImageStore(cfg.MinIO.BucketName)
	chatService := service.NewChatService(
		turnLock, userService, limiterService, settingsService,
		historyRepo, llmClient, recorder, imageStore,
	)

	dispatcher := bot.NewDispatcher(tgClient, chatService, userService, settingsService, adminService, cfg.Telegram.BotUsername)

	// 6. 启动后台 Kafka 消费者，聚合问答事件
	analytics := service.NewAnalyticsService(activityRepo)
	go kafka.StartConsumer(cfg.Kafka, analytics)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	// Telegram webhook 不在 /api/v1 下，来源由 secret token 头校验
	r.POST("/webhook", handler.NewWebhookHandler(dispatcher).Handle)

	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", handler.NewAuthHandler(jwtManager).Login)
		}

		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin := apiV1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtManager), middleware.AdminAuthMiddleware())
		{
			adminHandler := handler.NewAdminHandler(adminService, userService)
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/report", adminHandler.GetReport)
			admin.GET("/activity", adminHandler.GetActivity)
			admin.GET("/history/search", adminHandler.SearchHistory)
			admin.PUT("/plans", adminHandler.SetPlan)
			admin.DELETE("/users/:userId", adminHandler.DeleteUser)
		}
	}

	// 测试控制台 WebSocket，token 走 URL 参数
	r.GET("/console/:token", handler.NewChatHandler(llmClient, jwtManager).Handle)

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
