package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/pulsefeed/internal/config"
	"github.com/pulsefeed/internal/db"
	"github.com/pulsefeed/internal/handler"
	"github.com/pulsefeed/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 首次部署时按配置引导管理员账号
	if err := db.EnsureAdmin(cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to ensure admin user: %v", err)
	}

	// 设置并运行 Gin 服务器
	api := handler.NewAPI(db.DB, cfg)
	r := router.Setup(api)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
