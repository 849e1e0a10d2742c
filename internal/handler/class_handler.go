package handler

import (
	"net/http"
	"strconv"

	"github.com/asadsehto/CareToShare/internal/middleware"
	"github.com/asadsehto/CareToShare/internal/service"

	"github.com/gin-gonic/gin"
)

type ClassHandler struct {
	svc *service.ClassService
}

func NewClassHandler(svc *service.ClassService) *ClassHandler {
	return &ClassHandler{svc: svc}
}

type CreateClassReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
	Thumbnail   string `json:"thumbnail"`
	Password    string `json:"password"`
}

func (h *ClassHandler) Create(c *gin.Context) {
	var req CreateClassReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Class name is required"})
		return
	}

	class, err := h.svc.CreateClass(c.Request.Context(), middleware.UserID(c), service.CreateClassInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		Thumbnail:   req.Thumbnail,
		Password:    req.Password,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, class)
}

// Discover 班级广场，支持搜索和分页
func (h *ClassHandler) Discover(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	classes, total, err := h.svc.Discover(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"classes": classes, "total": total, "page": page})
}

// MyClasses 我创建的和我加入的
func (h *ClassHandler) MyClasses(c *gin.Context) {
	created, joined, err := h.svc.MyClasses(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"created": created, "joined": joined})
}

func (h *ClassHandler) Get(c *gin.Context) {
	classID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	detail, err := h.svc.GetClass(c.Request.Context(), middleware.UserID(c), classID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, detail)
}

// GetByCode 扫码/输码预览班级
func (h *ClassHandler) GetByCode(c *gin.Context) {
	class, err := h.svc.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, class)
}

type JoinReq struct {
	Password string `json:"password"`
}

func (h *ClassHandler) Join(c *gin.Context) {
	classID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	var req JoinReq
	_ = c.ShouldBindJSON(&req)

	if err := h.svc.Join(c.Request.Context(), middleware.UserID(c), classID, req.Password); err != nil {
		respondErr(c, err)
		return
	}
	respondMsg(c, http.StatusOK, "Joined class")
}

type JoinByCodeReq struct {
	Code     string `json:"code" binding:"required"`
	Password string `json:"password"`
}

func (h *ClassHandler) JoinByCode(c *gin.Context) {
	var req JoinByCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Class code is required"})
		return
	}

	class, err := h.svc.JoinByCode(c.Request.Context(), middleware.UserID(c), req.Code, req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, class)
}

type JoinRequestReq struct {
	Message string `json:"message"`
}

// RequestJoin 申请入班，进待审批队列
func (h *ClassHandler) RequestJoin(c *gin.Context) {
	classID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	var req JoinRequestReq
	_ = c.ShouldBindJSON(&req)

	if err := h.svc.RequestToJoin(c.Request.Context(), middleware.UserID(c), classID, req.Message); err != nil {
		respondErr(c, err)
		return
	}
	respondMsg(c, http.StatusOK, "Join request sent")
}

func (h *ClassHandler) Approve(c *gin.Context) {
	classID, targetID, err := parseClassTarget(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := h.svc.Approve(c.Request.Context(), middleware.UserID(c), classID, targetID); err != nil {
		respondErr(c, err)
		return
	}
	respondMsg(c, http.StatusOK, "Request approved")
}

func (h *ClassHandler) Reject(c *gin.Context) {
	classID, targetID, err := parseClassTarget(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := h.svc.Reject(c.Request.Context(), middleware.UserID(c), classID, targetID); err != nil {
		respondErr(c, err)
		return
	}
	respondMsg(c, http.StatusOK, "Request rejected")
}

func (h *ClassHandler) AddCR(c *gin.Context) {
	classID, targetID, err := parseClassTarget(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := h.svc.AddCR(c.Request.Context(), middleware.UserID(c), classID, targetID); err != nil {
		respondErr(c, err)
		return
	}
	respondMsg(c, http.StatusOK, "CR added")
}

func (h *ClassHandler) RemoveCR(c *gin.Context) {
	classID, targetID, err := parseClassTarget(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := h.svc.RemoveCR(c.Request.Context(), middleware.UserID(c), classID, targetID); err != nil {
		respondErr(c, err)
		return
	}
	respondMsg(c, http.StatusOK, "CR removed")
}

func (h *ClassHandler) RemoveMember(c *gin.Context) {
	classID, targetID, err := parseClassTarget(c)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := h.svc.RemoveMember(c.Request.Context(), middleware.UserID(c), classID, targetID); err != nil {
		respondErr(c, err)
		return
	}
	respondMsg(c, http.StatusOK, "Member removed")
}

func (h *ClassHandler) Leave(c *gin.Context) {
	classID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := h.svc.Leave(c.Request.Context(), middleware.UserID(c), classID); err != nil {
		respondErr(c, err)
		return
	}
	respondMsg(c, http.StatusOK, "Left class")
}

type UpdateClassReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
	Thumbnail   *string `json:"thumbnail"`
}

func (h *ClassHandler) Update(c *gin.Context) {
	classID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	var req UpdateClassReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	class, err := h.svc.UpdateClass(c.Request.Context(), middleware.UserID(c), classID, service.UpdateClassInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, class)
}

func (h *ClassHandler) Delete(c *gin.Context) {
	classID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := h.svc.DeleteClass(c.Request.Context(), middleware.UserID(c), classID); err != nil {
		respondErr(c, err)
		return
	}
	respondMsg(c, http.StatusOK, "Class deleted")
}

// Files 班级文件列表，仅成员可见
func (h *ClassHandler) Files(c *gin.Context) {
	classID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	files, err := h.svc.ClassFiles(c.Request.Context(), middleware.UserID(c), classID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, files)
}

func parseClassTarget(c *gin.Context) (classID, targetID uint64, err error) {
	classID, err = parseID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	targetID, err = parseID(c, "userId")
	if err != nil {
		return 0, 0, err
	}
	return classID, targetID, nil
}
