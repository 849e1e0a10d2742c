package mysql

import (
	"context"
	"time"

	"github.com/asadsehto/CareToShare/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceRepository struct {
	DB *gorm.DB
}

func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{DB: DB}
}

// UpsertDevice 按 device_id 注册或刷新设备
func (r *DeviceRepository) UpsertDevice(ctx context.Context, d *model.Device) error {
	d.LastSeen = time.Now()
	d.IsOnline = true
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"device_name", "brand", "model", "os_version", "platform",
			"synced_count", "last_seen", "is_online",
		}),
	}).Create(d).Error
}

func (r *DeviceRepository) FindDevice(ctx context.Context, deviceID string) (*model.Device, error) {
	var d model.Device
	err := r.DB.WithContext(ctx).Where("device_id = ?", deviceID).First(&d).Error
	return &d, err
}

// UpsertPhotos 批量落缩略图，(device_id, photo_id) 冲突时整行更新
func (r *DeviceRepository) UpsertPhotos(ctx context.Context, photos []model.DevicePhoto) error {
	if len(photos) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "device_id"}, {Name: "photo_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"filename", "width", "height", "creation_time", "modification_time",
			"media_type", "duration", "file_size", "thumbnail",
		}),
	}).Create(&photos).Error
}

func (r *DeviceRepository) CountPhotos(ctx context.Context, deviceID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.DevicePhoto{}).
		Where("device_id = ?", deviceID).
		Count(&n).Error
	return n, err
}

func (r *DeviceRepository) RefreshPhotoCount(ctx context.Context, deviceID string, count int64) error {
	return r.DB.WithContext(ctx).Model(&model.Device{}).
		Where("device_id = ?", deviceID).
		Updates(map[string]any{"photo_count": count, "last_seen": time.Now()}).Error
}

func (r *DeviceRepository) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	err := r.DB.WithContext(ctx).Order("last_seen DESC").Find(&devices).Error
	return devices, err
}

func (r *DeviceRepository) ListPhotos(ctx context.Context, deviceID string, offset, limit int) ([]model.DevicePhoto, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&model.DevicePhoto{}).
		Where("device_id = ?", deviceID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var photos []model.DevicePhoto
	err := r.DB.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("creation_time DESC").
		Offset(offset).
		Limit(limit).
		Find(&photos).Error
	return photos, total, err
}

func (r *DeviceRepository) FindPhoto(ctx context.Context, id uint64) (*model.DevicePhoto, error) {
	var p model.DevicePhoto
	err := r.DB.WithContext(ctx).First(&p, id).Error
	return &p, err
}

// Stats 设备面板统计
func (r *DeviceRepository) Stats(ctx context.Context) (totalDevices, onlineDevices, totalPhotos int64, err error) {
	if err = r.DB.WithContext(ctx).Model(&model.Device{}).Count(&totalDevices).Error; err != nil {
		return
	}
	if err = r.DB.WithContext(ctx).Model(&model.Device{}).Where("is_online = ?", true).Count(&onlineDevices).Error; err != nil {
		return
	}
	err = r.DB.WithContext(ctx).Model(&model.DevicePhoto{}).Count(&totalPhotos).Error
	return
}
