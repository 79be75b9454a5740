package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pulsefeed/internal/service"
)

// Dashboard 返回仪表盘的总量统计。
func (a *API) Dashboard(c *gin.Context) {
	stats, err := a.stats.Dashboard(time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AnalyticsPosts 返回逐日时间序列图表数据。
func (a *API) AnalyticsPosts(c *gin.Context) {
	data, err := a.stats.Chart(time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// RecentPosts 返回最近创建的文章。
func (a *API) RecentPosts(c *gin.Context) {
	limit := parsePositiveInt(c.DefaultQuery("limit", "10"), 10)
	posts, err := a.posts.Recent(limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	for i := range posts {
		a.decoratePost(&posts[i])
	}
	c.JSON(http.StatusOK, gin.H{"data": posts})
}

// AdminListPosts 返回管理端文章列表。
func (a *API) AdminListPosts(c *gin.Context) {
	page, perPage := pageParams(c, 15)
	filter := service.PostFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Status:    strings.TrimSpace(c.Query("status")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Page:      page,
		PerPage:   perPage,
	}

	result, err := a.posts.AdminList(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	for i := range result.Posts {
		a.decoratePost(&result.Posts[i])
	}
	paginatedJSON(c, result.Posts, result.Page, result.TotalPages, result.PerPage, result.Total)
}

// AdminListComments 返回管理端评论列表。
func (a *API) AdminListComments(c *gin.Context) {
	page, perPage := pageParams(c, 15)
	filter := service.CommentFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Page:      page,
		PerPage:   perPage,
	}

	result, err := a.comments.AdminList(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	paginatedJSON(c, result.Comments, result.Page, result.TotalPages, result.PerPage, result.Total)
}

// AdminListUsers 返回管理端用户列表。
func (a *API) AdminListUsers(c *gin.Context) {
	page, perPage := pageParams(c, 15)
	filter := service.UserFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Role:      strings.TrimSpace(c.Query("role")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Page:      page,
		PerPage:   perPage,
	}

	result, err := a.users.AdminList(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	paginatedJSON(c, result.Users, result.Page, result.TotalPages, result.PerPage, result.Total)
}

// AdminForceDeletePost 绕过属主检查删除文章。
func (a *API) AdminForceDeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	if err := a.posts.ForceDelete(actor(c), id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// AdminForceDeleteComment 绕过属主检查删除评论。
func (a *API) AdminForceDeleteComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "comment not found")
		return
	}

	if err := a.comments.ForceDelete(actor(c), id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// AdminUpdateUserRole 修改用户角色。
func (a *API) AdminUpdateUserRole(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}

	var req updateRoleRequest
	if !bindJSON(c, &req, "invalid role payload") {
		return
	}

	user, err := a.users.UpdateRole(actor(c), id, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "role updated", "user": user})
}

// AdminDeleteUser 删除用户及其全部内容。
func (a *API) AdminDeleteUser(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}

	if err := a.users.Delete(actor(c), id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// AdminActivityLogs 返回审计日志列表。
func (a *API) AdminActivityLogs(c *gin.Context) {
	page, perPage := pageParams(c, 20)
	filter := service.ActivityLogFilter{
		Action:    strings.TrimSpace(c.Query("action")),
		FromDate:  strings.TrimSpace(c.Query("from_date")),
		ToDate:    strings.TrimSpace(c.Query("to_date")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Page:      page,
		PerPage:   perPage,
	}
	if userID := parsePositiveInt(c.Query("user_id"), 0); userID > 0 {
		filter.UserID = uint(userID)
	}

	result, err := a.activity.List(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	paginatedJSON(c, result.Logs, result.Page, result.TotalPages, result.PerPage, result.Total)
}

// AdminExport 以 CSV 导出文章、用户与评论。
func (a *API) AdminExport(c *gin.Context) {
	filename := fmt.Sprintf("dashboard-data-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := a.stats.ExportCSV(c.Writer); err != nil {
		// 响应头已写出，只能中断
		c.Abort()
	}
}
