package entity

import (
	"time"
)

// Campaign 营销活动实体
type Campaign struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	Code        string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	BrandID     string     `json:"brand_id" gorm:"size:32;not null"`
	Name        string     `json:"name" gorm:"size:128;not null"`
	Brief       string     `json:"brief" gorm:"type:text"`
	Budget      float64    `json:"budget" gorm:"type:decimal(15,2)"`
	Status      string     `json:"status" gorm:"size:16;not null;default:draft"`
	PlannedStart *time.Time `json:"planned_start" gorm:"type:date"`
	PlannedEnd   *time.Time `json:"planned_end" gorm:"type:date"`
	CreatedBy   string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	Brand   *User  `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
	Creator *User  `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	Tasks   []Task `json:"tasks,omitempty" gorm:"foreignKey:CampaignID"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// 活动状态
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusArchived  = "archived"
)
