package handler

import (
	"net/http"
	"strconv"

	"github.com/asadsehto/CareToShare/internal/middleware"
	"github.com/asadsehto/CareToShare/internal/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	svc *service.CommentService
}

func NewCommentHandler() *CommentHandler {
	return &CommentHandler{svc: service.NewCommentService()}
}

type AddCommentReq struct {
	Text            string  `json:"text" binding:"required"`
	ParentCommentID *uint64 `json:"parentCommentId"`
}

func (h *CommentHandler) Add(c *gin.Context) {
	fileID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	var req AddCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Comment text is required"})
		return
	}

	comment, err := h.svc.AddComment(c.Request.Context(), middleware.UserID(c), fileID, req.Text, req.ParentCommentID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, comment)
}

// List ?page=1&limit=20，倒序
func (h *CommentHandler) List(c *gin.Context) {
	fileID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	comments, total, err := h.svc.ListComments(c.Request.Context(), fileID, page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"comments": comments, "total": total, "page": page})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), middleware.UserID(c), commentID); err != nil {
		respondErr(c, err)
		return
	}
	respondMsg(c, http.StatusOK, "Comment deleted")
}
