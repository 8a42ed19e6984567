package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/torquelab/garage-erp/internal/config"
	"github.com/torquelab/garage-erp/internal/middleware"
	"github.com/torquelab/garage-erp/internal/shop/entity"
	shopHandler "github.com/torquelab/garage-erp/internal/shop/handler"
	shopRepo "github.com/torquelab/garage-erp/internal/shop/repository"
	shopService "github.com/torquelab/garage-erp/internal/shop/service"
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
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting garage-erp service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate shop tables", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// Redis 可选：未配置时跳过缓存
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLogger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
			rdb = nil
		}
	}

	repos := shopRepo.NewRepositories(db)
	services := shopService.NewServices(repos, db, rdb)
	handlers := shopHandler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	// 健康检查
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "garage-erp"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "service": "garage-erp"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "garage-erp"})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "garage-erp",
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// Shop API v1
	v1 := router.Group("/api/v1/shop")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 客户管理
		customers := v1.Group("/customers")
		{
			customers.GET("", handlers.Customer.List)
			customers.POST("", handlers.Customer.Create)
			customers.GET("/:id", handlers.Customer.Get)
			customers.PUT("/:id", handlers.Customer.Update)
			customers.DELETE("/:id", handlers.Customer.Delete)
		}

		// 技师管理
		mechanics := v1.Group("/mechanics")
		{
			mechanics.GET("", handlers.Mechanic.List)
			mechanics.POST("", handlers.Mechanic.Create)
			mechanics.PUT("/:id", handlers.Mechanic.Update)
		}

		// 配件目录与库存
		parts := v1.Group("/parts")
		{
			parts.GET("", handlers.Part.List)
			parts.POST("", handlers.Part.Create)
			parts.GET("/alerts", handlers.Part.Alerts)
			parts.GET("/movements", handlers.Part.Movements)
			parts.GET("/:id", handlers.Part.Get)
			parts.PUT("/:id", handlers.Part.Update)
			parts.POST("/:id/adjust", handlers.Part.Adjust)
		}

		// 维修工单
		jobCards := v1.Group("/job-cards")
		{
			jobCards.GET("", handlers.JobCard.List)
			jobCards.POST("", handlers.JobCard.Create)
			jobCards.GET("/:id", handlers.JobCard.Get)
			jobCards.PUT("/:id", handlers.JobCard.Update)
			jobCards.PUT("/:id/parts", handlers.JobCard.UpdateParts)
			jobCards.DELETE("/:id", handlers.JobCard.Delete)
			jobCards.GET("/:id/invoice", handlers.JobCard.Invoice)
		}
	}

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", port))
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
