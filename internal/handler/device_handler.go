package handler

import (
	"net/http"
	"strconv"

	"github.com/asadsehto/CareToShare/internal/service"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	svc *service.DeviceService
}

func NewDeviceHandler() *DeviceHandler {
	return &DeviceHandler{svc: service.NewDeviceService()}
}

type RegisterDeviceReq struct {
	DeviceID    string `json:"deviceId" binding:"required"`
	DeviceName  string `json:"deviceName"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	OSVersion   string `json:"osVersion"`
	Platform    string `json:"platform"`
	SyncedCount int64  `json:"syncedCount"`
}

// Register 设备上线登记
func (h *DeviceHandler) Register(c *gin.Context) {
	var req RegisterDeviceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Device ID is required"})
		return
	}

	device, err := h.svc.Register(c.Request.Context(), service.RegisterDeviceInput{
		DeviceID:    req.DeviceID,
		DeviceName:  req.DeviceName,
		Brand:       req.Brand,
		Model:       req.Model,
		OSVersion:   req.OSVersion,
		Platform:    req.Platform,
		SyncedCount: req.SyncedCount,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, device)
}

type SyncPhotosReq struct {
	DeviceID string                   `json:"deviceId" binding:"required"`
	Photos   []service.SyncPhotoInput `json:"photos" binding:"required"`
}

// SyncPhotos 接收一批相册缩略图
func (h *DeviceHandler) SyncPhotos(c *gin.Context) {
	var req SyncPhotosReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "deviceId and photos are required"})
		return
	}

	result, err := h.svc.SyncPhotos(c.Request.Context(), req.DeviceID, req.Photos)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

func (h *DeviceHandler) List(c *gin.Context) {
	devices, err := h.svc.ListDevices(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, devices)
}

func (h *DeviceHandler) Get(c *gin.Context) {
	device, err := h.svc.GetDevice(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, device)
}

// Photos 按拍摄时间倒序分页
func (h *DeviceHandler) Photos(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	photos, total, err := h.svc.ListPhotos(c.Request.Context(), c.Param("deviceId"), page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"photos": photos, "total": total, "page": page})
}

func (h *DeviceHandler) Photo(c *gin.Context) {
	id, err := parseID(c, "photoId")
	if err != nil {
		respondErr(c, err)
		return
	}
	photo, err := h.svc.GetPhoto(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, photo)
}

// Stats 设备面板统计
func (h *DeviceHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}
