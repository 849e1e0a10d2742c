package service

import (
	"context"
	"errors"
	"time"

	"github.com/asadsehto/CareToShare/internal/apperr"
	"github.com/asadsehto/CareToShare/internal/model"
	"github.com/asadsehto/CareToShare/internal/repository/mysql"

	"gorm.io/gorm"
)

// SyncBatchMax 单次同步批量上限，客户端分批推
const SyncBatchMax = 500

type DeviceService struct {
	devices *mysql.DeviceRepository
}

func NewDeviceService() *DeviceService {
	return &DeviceService{devices: mysql.NewDeviceRepository()}
}

type RegisterDeviceInput struct {
	DeviceID    string
	DeviceName  string
	Brand       string
	Model       string
	OSVersion   string
	Platform    string
	SyncedCount int64
}

// Register 设备上线登记，重复注册按 device_id 覆盖
func (s *DeviceService) Register(ctx context.Context, in RegisterDeviceInput) (*model.Device, error) {
	if in.DeviceID == "" {
		return nil, apperr.Invalid("deviceId", "Device ID is required")
	}
	name := in.DeviceName
	if name == "" {
		name = "Unknown Device"
	}
	device := &model.Device{
		DeviceID:    in.DeviceID,
		DeviceName:  name,
		Brand:       in.Brand,
		Model:       in.Model,
		OSVersion:   in.OSVersion,
		Platform:    in.Platform,
		SyncedCount: in.SyncedCount,
	}
	if err := s.devices.UpsertDevice(ctx, device); err != nil {
		return nil, err
	}
	return s.devices.FindDevice(ctx, in.DeviceID)
}

type SyncPhotoInput struct {
	PhotoID          string  `json:"photoId"`
	Filename         string  `json:"filename"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	CreationTime     string  `json:"creationTime"`
	ModificationTime string  `json:"modificationTime"`
	MediaType        string  `json:"mediaType"`
	Duration         float64 `json:"duration"`
	FileSize         int64   `json:"fileSize"`
	Thumbnail        string  `json:"thumbnail"`
}

type SyncResult struct {
	Received   int   `json:"received"`
	PhotoCount int64 `json:"photoCount"`
}

// SyncPhotos 接收一批缩略图，幂等落库后刷新设备照片总数
func (s *DeviceService) SyncPhotos(ctx context.Context, deviceID string, photos []SyncPhotoInput) (*SyncResult, error) {
	if deviceID == "" {
		return nil, apperr.Invalid("deviceId", "Device ID is required")
	}
	if len(photos) == 0 {
		return nil, apperr.Invalid("photos", "Photos are required")
	}
	if len(photos) > SyncBatchMax {
		return nil, apperr.Invalid("photos", "Too many photos in one batch")
	}
	if _, err := s.devices.FindDevice(ctx, deviceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Device")
		}
		return nil, err
	}

	rows := make([]model.DevicePhoto, 0, len(photos))
	for _, p := range photos {
		if p.PhotoID == "" || p.Thumbnail == "" {
			continue
		}
		rows = append(rows, model.DevicePhoto{
			DeviceID:         deviceID,
			PhotoID:          p.PhotoID,
			Filename:         p.Filename,
			Width:            p.Width,
			Height:           p.Height,
			CreationTime:     parseTimePtr(p.CreationTime),
			ModificationTime: parseTimePtr(p.ModificationTime),
			MediaType:        p.MediaType,
			Duration:         p.Duration,
			FileSize:         p.FileSize,
			Thumbnail:        p.Thumbnail,
		})
	}
	if len(rows) == 0 {
		return nil, apperr.Invalid("photos", "No valid photos in batch")
	}

	if err := s.devices.UpsertPhotos(ctx, rows); err != nil {
		return nil, err
	}
	count, err := s.devices.CountPhotos(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if err := s.devices.RefreshPhotoCount(ctx, deviceID, count); err != nil {
		return nil, err
	}
	return &SyncResult{Received: len(rows), PhotoCount: count}, nil
}

func (s *DeviceService) ListDevices(ctx context.Context) ([]model.Device, error) {
	return s.devices.ListDevices(ctx)
}

func (s *DeviceService) GetDevice(ctx context.Context, deviceID string) (*model.Device, error) {
	device, err := s.devices.FindDevice(ctx, deviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Device")
		}
		return nil, err
	}
	return device, nil
}

// ListPhotos 按拍摄时间倒序分页
func (s *DeviceService) ListPhotos(ctx context.Context, deviceID string, page, limit int) ([]model.DevicePhoto, int64, error) {
	if _, err := s.GetDevice(ctx, deviceID); err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.devices.ListPhotos(ctx, deviceID, (page-1)*limit, limit)
}

func (s *DeviceService) GetPhoto(ctx context.Context, id uint64) (*model.DevicePhoto, error) {
	photo, err := s.devices.FindPhoto(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Photo")
		}
		return nil, err
	}
	return photo, nil
}

// DeviceStats 设备面板统计
type DeviceStats struct {
	TotalDevices  int64 `json:"totalDevices"`
	OnlineDevices int64 `json:"onlineDevices"`
	TotalPhotos   int64 `json:"totalPhotos"`
}

// parseTimePtr 容忍 RFC3339 和普通 datetime 两种客户端格式
func parseTimePtr(v string) *time.Time {
	if v == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
		return &t
	}
	return nil
}

func (s *DeviceService) Stats(ctx context.Context) (*DeviceStats, error) {
	devices, online, photos, err := s.devices.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &DeviceStats{TotalDevices: devices, OnlineDevices: online, TotalPhotos: photos}, nil
}
