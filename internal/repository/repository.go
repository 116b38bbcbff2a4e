package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")

	// ErrStaleStatus 条件更新未命中任何行，说明当前状态与期望状态不符
	ErrStaleStatus = errors.New("workflow state changed concurrently")
)

// Repositories 仓库集合
type Repositories struct {
	User      *UserRepository
	Campaign  *CampaignRepository
	Task      *TaskRepository
	Workflow  *WorkflowRepository
	Draft     *DraftRepository
	Review    *ReviewRepository
	Published *PublishedRepository
	Upload    *UploadRepository
	Activity  *ActivityRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db),
		Campaign:  NewCampaignRepository(db),
		Task:      NewTaskRepository(db),
		Workflow:  NewWorkflowRepository(db),
		Draft:     NewDraftRepository(db),
		Review:    NewReviewRepository(db),
		Published: NewPublishedRepository(db),
		Upload:    NewUploadRepository(db),
		Activity:  NewActivityRepository(db),
	}
}
