package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pulsefeed/internal/service"
)

func (a *API) toggleInteraction(c *gin.Context, kind service.InteractionKind) {
	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	result, err := a.interactions.Toggle(actor(c), kind, postID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"active": result.Active, "count": result.Count})
}

// ToggleLike 翻转当前用户对文章的点赞状态。
func (a *API) ToggleLike(c *gin.Context) {
	a.toggleInteraction(c, service.KindLike)
}

// ToggleSave 翻转当前用户对文章的收藏状态。
func (a *API) ToggleSave(c *gin.Context) {
	a.toggleInteraction(c, service.KindSave)
}

// ToggleRepost 翻转当前用户对文章的转发状态。
func (a *API) ToggleRepost(c *gin.Context) {
	a.toggleInteraction(c, service.KindRepost)
}

func (a *API) listInteracted(c *gin.Context, kind service.InteractionKind) {
	page, perPage := pageParams(c, 10)

	result, err := a.interactions.ListInteracted(currentUser(c).ID, kind, page, perPage)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	for i := range result.Posts {
		a.decoratePost(&result.Posts[i])
	}
	paginatedJSON(c, result.Posts, result.Page, result.TotalPages, result.PerPage, result.Total)
}

// LikedPosts 返回当前用户点赞过的文章。
func (a *API) LikedPosts(c *gin.Context) {
	a.listInteracted(c, service.KindLike)
}

// SavedPosts 返回当前用户收藏的文章。
func (a *API) SavedPosts(c *gin.Context) {
	a.listInteracted(c, service.KindSave)
}

// RepostedPosts 返回当前用户转发过的文章。
func (a *API) RepostedPosts(c *gin.Context) {
	a.listInteracted(c, service.KindRepost)
}
