package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/config"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/handler"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/middleware"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/repository"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting xfluence service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, zapLogger, cfg)
	handlers := handler.NewHandlers(services, cfg)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 当前用户
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 活动管理
			campaigns := authorized.Group("/campaigns")
			{
				campaigns.GET("", h.Campaign.List)
				campaigns.POST("", middleware.RequireUserType(entity.UserTypeBrand), h.Campaign.Create)
				campaigns.GET("/:id", h.Campaign.Get)
				campaigns.PUT("/:id", middleware.RequireUserType(entity.UserTypeBrand), h.Campaign.Update)
				campaigns.DELETE("/:id", middleware.RequireUserType(entity.UserTypeBrand), h.Campaign.Delete)
				campaigns.POST("/:id/influencers", middleware.RequireUserType(entity.UserTypeBrand), h.Campaign.AssignInfluencer)
				campaigns.GET("/:id/tasks", h.Campaign.ListTasks)
				campaigns.GET("/:id/stats", h.Campaign.Stats)
				campaigns.GET("/:id/activity", h.Campaign.ListActivity)
				campaigns.GET("/:id/report", middleware.RequireUserType(entity.UserTypeBrand), h.Campaign.ExportReport)
			}

			// 任务与工作流
			tasks := authorized.Group("/tasks")
			{
				tasks.GET("/:id", h.Task.Get)
				tasks.GET("/:id/workflow", h.Task.GetWorkflow)
				tasks.POST("/:id/workflow/initialize", middleware.RequireUserType(entity.UserTypeBrand), h.Task.InitializeWorkflow)
				tasks.POST("/:id/workflow/:phase/start", h.Task.StartPhase)
				tasks.POST("/:id/workflow/:phase/transition", h.Task.TransitionPhase)
				tasks.GET("/:id/workflow/transitions", middleware.RequireUserType(entity.UserTypeBrand), h.Task.ListTransitions)
				tasks.GET("/:id/workflow/visible", h.Task.VisiblePhases)
				tasks.GET("/:id/activity", h.Task.ListActivity)

				// 需求草稿
				tasks.POST("/:id/drafts", middleware.RequireUserType(entity.UserTypeBrand), h.Content.CreateDraft)
				tasks.GET("/:id/drafts", h.Content.ListDrafts)
				tasks.GET("/:id/drafts/current", h.Content.GetCurrentDraft)

				// 审核记录
				tasks.POST("/:id/reviews", middleware.RequireUserType(entity.UserTypeBrand), h.Content.CreateReview)
				tasks.GET("/:id/reviews", h.Content.ListReviews)

				// 发布内容
				tasks.PUT("/:id/published", middleware.RequireUserType(entity.UserTypeInfluencer), h.Content.SubmitPublished)
				tasks.GET("/:id/published", h.Content.GetPublished)

				// 内容文件
				tasks.POST("/:id/uploads", h.Upload.Upload)
				tasks.GET("/:id/uploads", h.Upload.ListByTask)
			}

			// 草稿共享
			authorized.POST("/drafts/:id/share", middleware.RequireUserType(entity.UserTypeBrand), h.Content.ShareDraft)

			// 我的任务
			authorized.GET("/my/tasks", h.Task.ListMine)

			// 文件下载
			authorized.GET("/uploads/:id/download", h.Upload.Download)
		}
	}
}
