package entity

import (
	"time"
)

// User 用户实体（品牌方成员或达人）
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	Email        string     `json:"email" gorm:"size:128;not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"size:128;not null"`
	Name         string     `json:"name" gorm:"size:64;not null"`
	UserType     string     `json:"user_type" gorm:"size:16;not null;default:brand"`
	AvatarURL    string     `json:"avatar_url" gorm:"size:512"`
	Bio          string     `json:"bio" gorm:"type:text"`
	Status       string     `json:"status" gorm:"size:16;not null;default:active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// 用户类型
const (
	UserTypeBrand      = "brand"
	UserTypeInfluencer = "influencer"
	UserTypeAdmin      = "admin"
)

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)
