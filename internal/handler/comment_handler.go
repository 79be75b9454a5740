package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type commentRequest struct {
	Content string `json:"content"`
}

// ListComments 返回指定文章下的评论。
func (a *API) ListComments(c *gin.Context) {
	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	page, perPage := pageParams(c, 20)
	result, err := a.comments.ListForPost(postID, page, perPage)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	paginatedJSON(c, result.Comments, result.Page, result.TotalPages, result.PerPage, result.Total)
}

// CreateComment 在指定文章下新建评论。
func (a *API) CreateComment(c *gin.Context) {
	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	var req commentRequest
	if !bindJSON(c, &req, "invalid comment payload") {
		return
	}

	comment, err := a.comments.Create(actor(c), postID, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "comment added", "comment": comment})
}

// UpdateComment 修改评论内容。
func (a *API) UpdateComment(c *gin.Context) {
	commentID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "comment not found")
		return
	}

	var req commentRequest
	if !bindJSON(c, &req, "invalid comment payload") {
		return
	}

	comment, err := a.comments.Update(actor(c), commentID, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment updated", "comment": comment})
}

// DeleteComment 删除评论。
func (a *API) DeleteComment(c *gin.Context) {
	commentID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "comment not found")
		return
	}

	if err := a.comments.Delete(actor(c), commentID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
