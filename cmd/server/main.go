package main

import (
	"flag"
	"os"
	"strings"
	"syscall"

	"github.com/ecommapi/internal/app"
	"github.com/ecommapi/internal/config"
	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/models"

	"github.com/gin-gonic/gin"
)

func main() {
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if !app.ValidMode(mode) {
		stdLog.Fatalf("未知启动模式: %s", mode)
	}
	if isWeakSecret(cfg.JWT.SecretKey) {
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
		stdLog.Printf("警告: JWT secret 过弱或仍为默认值，建议在生产环境中更换")
	}
	if cfg.Server.Mode == "release" && strings.TrimSpace(cfg.Stripe.WebhookSecret) == "" {
		stdLog.Printf("警告: 未配置 stripe.webhook_secret，所有 webhook 都会被拒绝")
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Server.Mode == "debug"); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 默认超级用户，仅在库内没有超级用户时创建
	superPass := os.Getenv("EC_DEFAULT_SUPERUSER_PASSWORD")
	if cfg.Server.Mode == "release" && superPass == "" {
		stdLog.Printf("警告: 未设置 EC_DEFAULT_SUPERUSER_PASSWORD，已跳过默认超级用户初始化")
	} else if err := models.InitDefaultSuperuser(
		os.Getenv("EC_DEFAULT_SUPERUSER_USERNAME"),
		os.Getenv("EC_DEFAULT_SUPERUSER_EMAIL"),
		superPass,
	); err != nil {
		stdLog.Printf("警告: 初始化默认超级用户失败: %v", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key")
}
