package model

import (
	"strings"
	"time"
)

const (
	VisibilityPublic  = "public"
	VisibilityClass   = "class"
	VisibilityPrivate = "private"
)

const (
	CategoryDocuments     = "documents"
	CategoryPresentations = "presentations"
	CategoryImages        = "images"
	CategoryVideos        = "videos"
	CategoryArchives      = "archives"
	CategoryOther         = "other"
)

type File struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"size:1000" json:"description"`
	FileName    string `gorm:"size:255;not null" json:"fileName"`
	FileSize    int64  `gorm:"not null" json:"fileSize"`
	MimeType    string `gorm:"size:128;not null" json:"mimeType"`
	Category    string `gorm:"size:16;not null;default:'other';index" json:"category"`
	Visibility  string `gorm:"size:8;not null;default:'public';index" json:"visibility"`
	// visibility=class 时指向所属班级
	ClassID *uint64 `gorm:"index" json:"classId"`
	// 旧客户端字段，保留兼容
	ClassCode     string    `gorm:"size:6" json:"classCode"`
	GoogleDriveID string    `gorm:"size:128;not null" json:"googleDriveId"`
	DownloadURL   string    `gorm:"size:1024;not null" json:"downloadUrl"`
	WebViewLink   string    `gorm:"size:1024" json:"webViewLink"`
	ThumbnailURL  string    `gorm:"size:1024" json:"thumbnailUrl"`
	UploadedByID  uint64    `gorm:"not null;index" json:"uploadedById"`
	Downloads     int64     `gorm:"not null;default:0" json:"downloads"`
	Views         int64     `gorm:"not null;default:0" json:"views"`
	LikeCount     int64     `gorm:"not null;default:0" json:"likeCount"`
	CommentCount  int64     `gorm:"not null;default:0" json:"commentCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	UploadedBy *UserBrief `gorm:"-" json:"uploadedBy,omitempty"`
}

type FileLike struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    uint64 `gorm:"not null;index;uniqueIndex:uk_file_user"`
	FileID    uint64 `gorm:"not null;index;uniqueIndex:uk_file_user"`
	CreatedAt time.Time
}

func (FileLike) TableName() string {
	return "file_likes"
}

var categoryByExt = map[string]string{
	"pdf": CategoryDocuments, "doc": CategoryDocuments, "docx": CategoryDocuments, "txt": CategoryDocuments,
	"ppt": CategoryPresentations, "pptx": CategoryPresentations,
	"jpg": CategoryImages, "jpeg": CategoryImages, "png": CategoryImages, "gif": CategoryImages,
	"webp": CategoryImages, "bmp": CategoryImages, "svg": CategoryImages,
	"mp4": CategoryVideos, "mov": CategoryVideos, "avi": CategoryVideos, "mkv": CategoryVideos,
	"wmv": CategoryVideos, "flv": CategoryVideos,
	"zip": CategoryArchives, "rar": CategoryArchives, "7z": CategoryArchives, "tar": CategoryArchives,
	"gz": CategoryArchives,
}

// CategoryFromFilename 按扩展名推断分类，上传打标和分类浏览共用同一张表
func CategoryFromFilename(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return CategoryOther
	}
	ext := strings.ToLower(filename[idx+1:])
	if cat, ok := categoryByExt[ext]; ok {
		return cat
	}
	return CategoryOther
}
