package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pulsefeed/internal/db"
)

const (
	contextUserKey  = "current_user"
	contextTokenKey = "current_token_id"
)

// RequireAuth 校验 Authorization 头中的 Bearer 令牌并注入当前用户。
// 角色从数据库实时读取，令牌签发后的角色变更立即生效。
func (a *API) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid authorization header"})
			return
		}

		claims, err := a.tokens.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			return
		}

		user, err := a.users.Get(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			return
		}

		c.Set(contextUserKey, user)
		c.Set(contextTokenKey, claims.ID)
		c.Next()
	}
}

// RequireAdmin 在 RequireAuth 之后使用，拒绝非管理员请求。
func (a *API) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		if user.Role != db.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "admin access required"})
			return
		}
		c.Next()
	}
}

// OptionalAuth 在携带有效令牌时注入当前用户，匿名请求照常放行。
// 用于公开端点上区分文章属主（草稿仅属主可见）。
func (a *API) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}

		claims, err := a.tokens.Verify(parts[1])
		if err != nil {
			c.Next()
			return
		}

		if user, err := a.users.Get(claims.UserID); err == nil {
			c.Set(contextUserKey, user)
			c.Set(contextTokenKey, claims.ID)
		}
		c.Next()
	}
}
