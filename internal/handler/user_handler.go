package handler

import (
	"net/http"
	"strconv"

	"github.com/asadsehto/CareToShare/internal/apperr"
	"github.com/asadsehto/CareToShare/internal/middleware"
	"github.com/asadsehto/CareToShare/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler() *UserHandler {
	return &UserHandler{svc: service.NewUserService()}
}

// Profile 他人主页：公开文件 + 上传统计
func (h *UserHandler) Profile(c *gin.Context) {
	userID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	profile, err := h.svc.Profile(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, profile)
}

// MyFiles 自己的全部上传 + 聚合统计
func (h *UserHandler) MyFiles(c *gin.Context) {
	result, err := h.svc.MyFiles(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

type UpdateProfileReq struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), middleware.UserID(c), service.UpdateProfileInput{
		Name:     req.Name,
		Username: req.Username,
		Avatar:   req.Avatar,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// parseID 路径参数里的数字 ID
func parseID(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid(name, "Invalid "+name)
	}
	return id, nil
}
