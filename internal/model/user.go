package model

import "time"

type User struct {
	ID                 uint64    `gorm:"primaryKey" json:"id"`
	GoogleID           string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Email              string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Name               string    `gorm:"size:128;not null" json:"name"`
	Username           string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	Avatar             string    `gorm:"size:512" json:"avatar"`
	GoogleAccessToken  string    `gorm:"size:2048" json:"-"`
	GoogleRefreshToken string    `gorm:"size:2048" json:"-"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// UserBrief 嵌入文件/班级响应的作者信息
type UserBrief struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func (u *User) Brief() UserBrief {
	return UserBrief{ID: u.ID, Name: u.Name, Username: u.Username, Avatar: u.Avatar}
}
