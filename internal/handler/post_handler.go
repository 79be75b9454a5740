package handler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pulsefeed/internal/db"
	"github.com/pulsefeed/internal/service"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// renderContentHTML 将 Markdown 正文渲染为净化后的 HTML。
func renderContentHTML(content string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return ""
	}
	return sanitizer.Sanitize(buf.String())
}

// decoratePost 补全响应中的图片访问路径。
func (a *API) decoratePost(post *db.Post) {
	if post.Image != "" {
		post.Image = a.images.URL(post.Image)
	}
}

// ListPosts 返回公开的已发布文章列表，支持搜索与作者过滤。
func (a *API) ListPosts(c *gin.Context) {
	page, perPage := pageParams(c, 10)
	filter := service.PostFilter{
		Search:  strings.TrimSpace(c.Query("search")),
		Page:    page,
		PerPage: perPage,
	}
	if userID := parsePositiveInt(c.Query("user_id"), 0); userID > 0 {
		filter.UserID = uint(userID)
	}

	result, err := a.posts.List(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	for i := range result.Posts {
		a.decoratePost(&result.Posts[i])
	}
	paginatedJSON(c, result.Posts, result.Page, result.TotalPages, result.PerPage, result.Total)
}

// GetPost 返回单篇文章详情，正文附带渲染后的 HTML。
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	var viewer *service.Actor
	if currentUser(c) != nil {
		act := actor(c)
		viewer = &act
	}

	post, err := a.posts.Get(id, viewer)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	post.ContentHTML = renderContentHTML(post.Content)
	a.decoratePost(post)
	c.JSON(http.StatusOK, post)
}

func postInputFromForm(c *gin.Context) service.PostInput {
	input := service.PostInput{
		Title:   c.PostForm("title"),
		Content: c.PostForm("content"),
		Status:  c.PostForm("status"),
	}
	if file, err := c.FormFile("image"); err == nil {
		input.Image = file
	}
	return input
}

// CreatePost 以 multipart 表单创建文章，可附带配图。
func (a *API) CreatePost(c *gin.Context) {
	post, err := a.posts.Create(actor(c), postInputFromForm(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	a.decoratePost(post)
	c.JSON(http.StatusCreated, gin.H{"message": "post created", "post": post})
}

// UpdatePost 更新文章，未提交的字段保持原值。
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	var update service.PostUpdate
	if value, ok := c.GetPostForm("title"); ok {
		update.Title = &value
	}
	if value, ok := c.GetPostForm("content"); ok {
		update.Content = &value
	}
	if value, ok := c.GetPostForm("status"); ok {
		update.Status = &value
	}
	if file, err := c.FormFile("image"); err == nil {
		update.Image = file
	}

	post, err := a.posts.Update(actor(c), id, update)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	a.decoratePost(post)
	c.JSON(http.StatusOK, gin.H{"message": "post updated", "post": post})
}

// DeletePost 删除文章。
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	if err := a.posts.Delete(actor(c), id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// MyPosts 返回当前用户的全部文章，包含草稿。
func (a *API) MyPosts(c *gin.Context) {
	page, perPage := pageParams(c, 10)

	result, err := a.posts.ListMine(currentUser(c).ID, page, perPage)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	for i := range result.Posts {
		a.decoratePost(&result.Posts[i])
	}
	paginatedJSON(c, result.Posts, result.Page, result.TotalPages, result.PerPage, result.Total)
}
