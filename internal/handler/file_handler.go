package handler

import (
	"net/http"
	"strconv"

	"github.com/asadsehto/CareToShare/internal/middleware"
	"github.com/asadsehto/CareToShare/internal/service"

	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	svc   *service.FileService
	likes *service.FileLikeService
}

func NewFileHandler() *FileHandler {
	return &FileHandler{
		svc:   service.NewFileService(),
		likes: service.NewFileLikeService(),
	}
}

// Upload multipart 表单：file + title/description/visibility/classId
func (h *FileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File is required"})
		return
	}
	if fileHeader.Size > service.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File exceeds the 100MB limit"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		respondErr(c, err)
		return
	}
	defer src.Close()

	var classID *uint64
	if v := c.PostForm("classId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid classId"})
			return
		}
		classID = &id
	}

	file, err := h.svc.Upload(c.Request.Context(), middleware.UserID(c), service.UploadInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		FileName:    fileHeader.Filename,
		MimeType:    fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Visibility:  c.PostForm("visibility"),
		ClassID:     classID,
		Content:     src,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, file)
}

type SharePhotoReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Filename    string  `json:"filename" binding:"required"`
	MimeType    string  `json:"mimeType"`
	BaseURL     string  `json:"baseUrl" binding:"required"`
	Visibility  string  `json:"visibility"`
	ClassID     *uint64 `json:"classId"`
}

// SharePhoto 把 Google Photos 的照片转存成共享文件
func (h *FileHandler) SharePhoto(c *gin.Context) {
	var req SharePhotoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "filename and baseUrl are required"})
		return
	}

	file, err := h.svc.SharePhoto(c.Request.Context(), middleware.UserID(c), service.SharePhotoInput{
		Title:       req.Title,
		Description: req.Description,
		Filename:    req.Filename,
		MimeType:    req.MimeType,
		BaseURL:     req.BaseURL,
		Visibility:  req.Visibility,
		ClassID:     req.ClassID,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, file)
}

// GooglePhotos 翻自己的 Google 相册
func (h *FileHandler) GooglePhotos(c *gin.Context) {
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))
	page, err := h.svc.GooglePhotos(c.Request.Context(), middleware.UserID(c), pageSize, c.Query("pageToken"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, page)
}

func (h *FileHandler) Recent(c *gin.Context) {
	files, err := h.svc.Recent(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, files)
}

func (h *FileHandler) Popular(c *gin.Context) {
	files, err := h.svc.Popular(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, files)
}

// ByCategory ?category=documents&sort=downloads
func (h *FileHandler) ByCategory(c *gin.Context) {
	files, err := h.svc.ByCategory(c.Request.Context(), c.Query("category"), c.Query("sort"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, files)
}

func (h *FileHandler) Get(c *gin.Context) {
	fileID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	file, err := h.svc.GetFile(c.Request.Context(), middleware.UserID(c), fileID)
	if err != nil {
		respondErr(c, err)
		return
	}

	liked := false
	if uid := middleware.UserID(c); uid != 0 {
		liked, _ = h.likes.IsLiked(c.Request.Context(), uid, fileID)
	}
	respondOK(c, http.StatusOK, gin.H{"file": file, "isLiked": liked})
}

// Download 记数后把客户端重定向到 Drive 下载地址
func (h *FileHandler) Download(c *gin.Context) {
	fileID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	url, downloads, err := h.svc.Download(c.Request.Context(), middleware.UserID(c), fileID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"downloadUrl": url, "downloads": downloads})
}

type UpdateFileReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
}

func (h *FileHandler) Update(c *gin.Context) {
	fileID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	var req UpdateFileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	file, err := h.svc.UpdateFile(c.Request.Context(), middleware.UserID(c), fileID, service.UpdateFileInput{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, file)
}

func (h *FileHandler) Delete(c *gin.Context) {
	fileID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := h.svc.DeleteFile(c.Request.Context(), middleware.UserID(c), fileID); err != nil {
		respondErr(c, err)
		return
	}
	respondMsg(c, http.StatusOK, "File deleted")
}

// ToggleLike 点赞开关，返回最新计数
func (h *FileHandler) ToggleLike(c *gin.Context) {
	fileID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	result, err := h.likes.Toggle(c.Request.Context(), middleware.UserID(c), fileID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// LikeStatus 是否点过赞 + 缓存优先的计数
func (h *FileHandler) LikeStatus(c *gin.Context) {
	fileID, err := parseID(c, "id")
	if err != nil {
		respondErr(c, err)
		return
	}
	count, err := h.likes.LikeCount(c.Request.Context(), fileID)
	if err != nil {
		respondErr(c, err)
		return
	}
	liked := false
	if uid := middleware.UserID(c); uid != 0 {
		liked, _ = h.likes.IsLiked(c.Request.Context(), uid, fileID)
	}
	respondOK(c, http.StatusOK, gin.H{"isLiked": liked, "likeCount": count})
}
