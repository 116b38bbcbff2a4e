package entity

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONB 用于PostgreSQL JSONB类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// ActivityLog 操作审计日志（只追加，不修改不删除）
type ActivityLog struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	TaskID      string    `json:"task_id" gorm:"size:32;not null;index"`
	CampaignID  string    `json:"campaign_id" gorm:"size:32;index"`
	ActorID     string    `json:"actor_id" gorm:"size:32"`
	ActorType   string    `json:"actor_type" gorm:"size:16;not null"`
	Action      string    `json:"action" gorm:"size:32;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Metadata    JSONB     `json:"metadata" gorm:"type:jsonb"`
	CreatedAt   time.Time `json:"created_at"`

	// 关联
	Actor *User `json:"actor,omitempty" gorm:"foreignKey:ActorID"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// 操作者类型
const (
	ActorTypeBrand      = "brand"
	ActorTypeInfluencer = "influencer"
	ActorTypeSystem     = "system"
)

// 审计动作标签
const (
	ActionWorkflowInitialized = "workflow_initialized"
	ActionPhaseStarted        = "phase_started"
	ActionPhaseCompleted      = "phase_completed"
	ActionPhaseRejected       = "phase_rejected"
	ActionDraftCreated        = "draft_created"
	ActionDraftShared         = "draft_shared"
	ActionReviewApproved      = "review_approved"
	ActionReviewRejected      = "review_rejected"
	ActionContentPublished    = "content_published"
)
