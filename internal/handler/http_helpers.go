package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pulsefeed/internal/db"
	"github.com/pulsefeed/internal/service"
	"github.com/pulsefeed/internal/storage"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// respondServiceError 将服务层的哨兵错误映射到 HTTP 状态码。
// 未识别的错误一律返回 500，不向调用方泄露内部细节。
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrTitleTooLong),
		errors.Is(err, service.ErrContentRequired),
		errors.Is(err, service.ErrInvalidPostStatus),
		errors.Is(err, service.ErrCommentContentRequired),
		errors.Is(err, service.ErrCommentContentTooLong),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrEmailInvalid),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrLastAdmin),
		errors.Is(err, service.ErrUnknownInteraction),
		errors.Is(err, storage.ErrImageTooLarge),
		errors.Is(err, storage.ErrImageUnsupported):
		respondError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusUnprocessableEntity, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// pageParams 解析分页查询参数，缺省为第 1 页每页 perPage 条。
func pageParams(c *gin.Context, perPage int) (int, int) {
	page := parsePositiveInt(c.DefaultQuery("page", "1"), 1)
	size := parsePositiveInt(c.DefaultQuery("per_page", strconv.Itoa(perPage)), perPage)
	return page, size
}

// paginatedJSON 输出统一的分页响应信封。
func paginatedJSON(c *gin.Context, data any, page, lastPage, perPage int, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"data":         data,
		"current_page": page,
		"last_page":    lastPage,
		"per_page":     perPage,
		"total":        total,
	})
}

// actor 根据认证中间件注入的用户构造服务层操作者。
func actor(c *gin.Context) service.Actor {
	user := currentUser(c)
	result := service.Actor{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if user != nil {
		result.ID = user.ID
		result.Role = user.Role
	}
	return result
}

func currentUser(c *gin.Context) *db.User {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*db.User)
	if !ok {
		return nil
	}
	return user
}
