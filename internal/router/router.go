package router

import (
	"github.com/gin-gonic/gin"
	"github.com/pulsefeed/internal/handler"
)

// Setup 配置 Gin 引擎和路由
func Setup(api *handler.API) *gin.Engine {
	r := gin.Default()

	// 上传图片的静态访问
	r.Static("/static/uploads", api.Images().Dir())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// 公开路由；携带令牌时可见自己的草稿
	r.POST("/register", api.Register)
	r.POST("/login", api.Login)

	public := r.Group("", api.OptionalAuth())
	{
		public.GET("/posts", api.ListPosts)
		public.GET("/posts/:id", api.GetPost)
		public.GET("/posts/:id/comments", api.ListComments)
	}

	// 需要认证的路由
	auth := r.Group("", api.RequireAuth())
	{
		auth.POST("/logout", api.Logout)
		auth.GET("/user", api.CurrentUser)

		auth.GET("/my-posts", api.MyPosts)
		auth.POST("/posts", api.CreatePost)
		auth.PUT("/posts/:id", api.UpdatePost)
		auth.DELETE("/posts/:id", api.DeletePost)

		auth.POST("/posts/:id/comments", api.CreateComment)
		auth.PUT("/comments/:id", api.UpdateComment)
		auth.DELETE("/comments/:id", api.DeleteComment)

		auth.POST("/posts/:id/like", api.ToggleLike)
		auth.POST("/posts/:id/save", api.ToggleSave)
		auth.POST("/posts/:id/repost", api.ToggleRepost)

		auth.GET("/saved-posts", api.SavedPosts)
		auth.GET("/liked-posts", api.LikedPosts)
		auth.GET("/reposted-posts", api.RepostedPosts)

		// 管理端路由，要求管理员角色
		admin := auth.Group("/admin", api.RequireAdmin())
		{
			admin.GET("/dashboard", api.Dashboard)
			admin.GET("/analytics/posts", api.AnalyticsPosts)
			admin.GET("/recent-posts", api.RecentPosts)
			admin.GET("/export", api.AdminExport)

			admin.GET("/posts", api.AdminListPosts)
			admin.DELETE("/posts/:id/force", api.AdminForceDeletePost)

			admin.GET("/comments", api.AdminListComments)
			admin.DELETE("/comments/:id/force", api.AdminForceDeleteComment)

			admin.GET("/users", api.AdminListUsers)
			admin.PUT("/users/:id/role", api.AdminUpdateUserRole)
			admin.DELETE("/users/:id", api.AdminDeleteUser)

			admin.GET("/activity-logs", api.AdminActivityLogs)
		}
	}

	return r
}
