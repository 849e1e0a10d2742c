package model

import "time"

// Device 移动端设备注册表
type Device struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	DeviceID    string    `gorm:"uniqueIndex;size:128;not null" json:"deviceId"`
	DeviceName  string    `gorm:"size:128;default:'Unknown Device'" json:"deviceName"`
	Brand       string    `gorm:"size:64" json:"brand"`
	Model       string    `gorm:"size:64" json:"model"`
	OSVersion   string    `gorm:"size:32" json:"osVersion"`
	Platform    string    `gorm:"size:32" json:"platform"`
	LastSeen    time.Time `json:"lastSeen"`
	IsOnline    bool      `gorm:"default:false" json:"isOnline"`
	PhotoCount  int64     `gorm:"default:0" json:"photoCount"`
	SyncedCount int64     `gorm:"default:0" json:"syncedCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DevicePhoto 设备相册缩略图，thumbnail 为 base64
type DevicePhoto struct {
	ID               uint64     `gorm:"primaryKey" json:"id"`
	DeviceID         string     `gorm:"size:128;not null;index;uniqueIndex:uk_device_photo" json:"deviceId"`
	PhotoID          string     `gorm:"size:128;not null;uniqueIndex:uk_device_photo" json:"photoId"`
	Filename         string     `gorm:"size:255;not null" json:"filename"`
	Width            int        `json:"width"`
	Height           int        `json:"height"`
	CreationTime     *time.Time `gorm:"index" json:"creationTime"`
	ModificationTime *time.Time `json:"modificationTime"`
	MediaType        string     `gorm:"size:32" json:"mediaType"`
	Duration         float64    `json:"duration"`
	FileSize         int64      `json:"fileSize"`
	Thumbnail        string     `gorm:"type:mediumtext;not null" json:"thumbnail"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
