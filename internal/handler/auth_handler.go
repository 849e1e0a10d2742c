package handler

import (
	"net/http"

	"github.com/asadsehto/CareToShare/internal/middleware"
	"github.com/asadsehto/CareToShare/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{svc: service.NewAuthService()}
}

// GoogleLoginReq 移动端在本地完成 OAuth 后上交 Google token
type GoogleLoginReq struct {
	AccessToken  string `json:"accessToken" binding:"required"`
	RefreshToken string `json:"refreshToken"`
}

// GoogleLogin Google token 换本站会话，首次登录自动建号
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req GoogleLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Google access token is required"})
		return
	}

	result, err := h.svc.LoginWithGoogle(c.Request.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Refresh token is required"})
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondMsg(c, http.StatusOK, "Logged out")
}

// Me 当前登录用户
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}
