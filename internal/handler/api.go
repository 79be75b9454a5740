package handler

import (
	"github.com/pulsefeed/internal/auth"
	"github.com/pulsefeed/internal/config"
	"github.com/pulsefeed/internal/service"
	"github.com/pulsefeed/internal/storage"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	tokens       *auth.TokenManager
	images       *storage.ImageStore
	users        *service.UserService
	posts        *service.PostService
	comments     *service.CommentService
	interactions *service.InteractionService
	activity     *service.ActivityService
	stats        *service.StatsService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, cfg config.AppConfig) *API {
	images := storage.NewImageStore(cfg.UploadDir, cfg.UploadURLPath)
	activity := service.NewActivityService(gdb)
	posts := service.NewPostService(gdb, activity, images)

	return &API{
		db:           gdb,
		tokens:       auth.NewTokenManager(gdb, cfg.JWTSecret, cfg.TokenTTL),
		images:       images,
		users:        service.NewUserService(gdb, activity, images),
		posts:        posts,
		comments:     service.NewCommentService(gdb, activity),
		interactions: service.NewInteractionService(gdb, posts, activity),
		activity:     activity,
		stats:        service.NewStatsService(gdb).WithWindowDays(cfg.ChartWindowDays),
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Images 返回图片存储，供路由挂载静态目录。
func (a *API) Images() *storage.ImageStore {
	return a.images
}
