package repository

import (
	"context"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"gorm.io/gorm"
)

// ReviewRepository 内容审核记录仓库
type ReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建审核记录仓库
func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create 创建审核记录
func (r *ReviewRepository) Create(ctx context.Context, review *entity.ContentReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// ListByTask 获取任务的审核记录，最新在前
func (r *ReviewRepository) ListByTask(ctx context.Context, taskID string) ([]entity.ContentReview, error) {
	var reviews []entity.ContentReview
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Preload("Upload").
		Preload("Reviewer").
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
