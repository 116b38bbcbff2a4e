package entity

import (
	"time"
)

// Task 合作任务实体（一个活动下分配给一位达人的交付任务）
type Task struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	CampaignID   string     `json:"campaign_id" gorm:"size:32;not null;uniqueIndex:uk_tasks_campaign_influencer"`
	InfluencerID string     `json:"influencer_id" gorm:"size:32;not null;uniqueIndex:uk_tasks_campaign_influencer"`
	Title        string     `json:"title" gorm:"size:256;not null"`
	Description  string     `json:"description" gorm:"type:text"`
	Status       string     `json:"status" gorm:"size:16;not null;default:active"`
	Progress     int        `json:"progress" gorm:"not null;default:0"`
	CreatedBy    string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	Campaign   *Campaign       `json:"campaign,omitempty" gorm:"foreignKey:CampaignID"`
	Influencer *User           `json:"influencer,omitempty" gorm:"foreignKey:InfluencerID"`
	States     []WorkflowState `json:"states,omitempty" gorm:"foreignKey:TaskID"`
}

func (Task) TableName() string {
	return "tasks"
}

// WorkflowState 任务工作流状态（每个任务每个阶段一行）
type WorkflowState struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	TaskID      string     `json:"task_id" gorm:"size:32;not null;uniqueIndex:uk_workflow_states_task_phase"`
	Phase       string     `json:"phase" gorm:"size:32;not null;uniqueIndex:uk_workflow_states_task_phase"`
	Status      string     `json:"status" gorm:"size:16;not null;default:not_started"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 关联
	Task *Task `json:"task,omitempty" gorm:"foreignKey:TaskID"`
}

func (WorkflowState) TableName() string {
	return "workflow_states"
}

// WorkflowTransition 工作流状态变更日志（只追加，不修改）
type WorkflowTransition struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	TaskID     string    `json:"task_id" gorm:"size:32;not null;index"`
	Phase      string    `json:"phase" gorm:"size:32;not null"`
	FromStatus string    `json:"from_status" gorm:"size:16;not null"`
	ToStatus   string    `json:"to_status" gorm:"size:16;not null"`
	ActorID    string    `json:"actor_id" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
}

func (WorkflowTransition) TableName() string {
	return "workflow_transitions"
}

// 任务状态
const (
	TaskStatusActive    = "active"
	TaskStatusCompleted = "completed"
	TaskStatusCancelled = "cancelled"
)

// 工作流阶段（按顺序推进，不可跳跃）
const (
	PhaseContentRequirement = "content_requirement"
	PhaseContentReview      = "content_review"
	PhasePublishAnalytics   = "publish_analytics"
)

// 工作流阶段状态
const (
	WorkflowStatusNotStarted = "not_started"
	WorkflowStatusInProgress = "in_progress"
	WorkflowStatusCompleted  = "completed"
	WorkflowStatusRejected   = "rejected"
)

// PhaseOrder 阶段顺序表
var PhaseOrder = []string{
	PhaseContentRequirement,
	PhaseContentReview,
	PhasePublishAnalytics,
}

// PhaseIndex 返回阶段在顺序表中的位置，未知阶段返回-1
func PhaseIndex(phase string) int {
	for i, p := range PhaseOrder {
		if p == phase {
			return i
		}
	}
	return -1
}

// NextPhase 返回后继阶段，最后一个阶段没有后继
func NextPhase(phase string) (string, bool) {
	idx := PhaseIndex(phase)
	if idx < 0 || idx+1 >= len(PhaseOrder) {
		return "", false
	}
	return PhaseOrder[idx+1], true
}

// PrevPhase 返回前驱阶段，第一个阶段没有前驱
func PrevPhase(phase string) (string, bool) {
	idx := PhaseIndex(phase)
	if idx <= 0 {
		return "", false
	}
	return PhaseOrder[idx-1], true
}
