package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register 处理用户注册并直接签发访问令牌。
func (a *API) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}

	user, err := a.users.Register(req.Name, req.Email, req.Password, actor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// Login 校验凭据并签发访问令牌。
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	user, err := a.users.Authenticate(req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Logout 吊销当前请求携带的令牌。
func (a *API) Logout(c *gin.Context) {
	jti := c.GetString(contextTokenKey)
	if jti != "" {
		if err := a.tokens.Revoke(jti); err != nil {
			respondServiceError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// CurrentUser 返回当前认证用户。
func (a *API) CurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}
