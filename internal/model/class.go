package model

import "time"

const (
	ClassPublic  = "public"
	ClassPrivate = "private"
)

// 成员角色，creator 永远保留自己的成员行
const (
	RoleMember  = 0
	RoleCR      = 1
	RoleCreator = 2
)

type Class struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	Thumbnail   string    `gorm:"size:512" json:"thumbnail"`
	ClassCode   string    `gorm:"uniqueIndex;size:6;not null" json:"classCode"`
	Visibility  string    `gorm:"size:8;not null;default:'public';index" json:"visibility"`
	// 私有班级密码，bcrypt 哈希存储
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatorID    uint64    `gorm:"not null;index" json:"creatorId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Creator *UserBrief `gorm:"-" json:"creator,omitempty"`
}

type ClassMember struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	ClassID   uint64    `gorm:"not null;index;uniqueIndex:uk_class_user" json:"classId"`
	UserID    uint64    `gorm:"not null;index;uniqueIndex:uk_class_user" json:"userId"`
	Role      int       `gorm:"not null;default:0" json:"role"`
	CreatedAt time.Time `json:"joinedAt"`
	UpdatedAt time.Time `json:"-"`

	User *UserBrief `gorm:"-" json:"user,omitempty"`
}

type ClassJoinRequest struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	ClassID   uint64    `gorm:"not null;index;uniqueIndex:uk_request_class_user" json:"classId"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_request_class_user" json:"userId"`
	Message   string    `gorm:"size:500" json:"message"`
	CreatedAt time.Time `json:"requestedAt"`

	User *UserBrief `gorm:"-" json:"user,omitempty"`
}

// MembershipOutbox 成员变更事件表，由后台 relayer 投递到 kafka
type MembershipOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"` // join / leave / approve / remove
	ClassID   uint64 `gorm:"not null"`
	UserID    uint64 `gorm:"not null"`
	Payload   string `gorm:"type:json;not null"`
	Status    int8   `gorm:"not null;default:0"` // 0=pending,1=sent,2=failed
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MembershipOutbox) TableName() string { return "membership_outbox" }
