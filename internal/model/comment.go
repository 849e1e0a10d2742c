package model

import "time"

const CommentMaxLen = 500

type Comment struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	FileID uint64 `gorm:"not null;index:idx_file_created,priority:1" json:"fileId"`
	UserID uint64 `gorm:"not null;index" json:"userId"`
	Text   string `gorm:"size:500;not null" json:"text"`
	// 预留回复功能
	ParentCommentID *uint64   `json:"parentCommentId"`
	CreatedAt       time.Time `gorm:"index:idx_file_created,priority:2,sort:desc" json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	User *UserBrief `gorm:"-" json:"user,omitempty"`
}
