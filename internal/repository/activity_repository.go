package repository

import (
	"context"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"gorm.io/gorm"
)

// ActivityRepository 审计日志仓库（只追加）
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository 创建审计日志仓库
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append 追加一条审计日志
func (r *ActivityRepository) Append(ctx context.Context, log *entity.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListByTask 获取任务的审计日志，时间正序
func (r *ActivityRepository) ListByTask(ctx context.Context, taskID string) ([]entity.ActivityLog, error) {
	var logs []entity.ActivityLog
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Preload("Actor").
		Order("created_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// ListByCampaign 获取活动的审计日志，分页，最新在前
func (r *ActivityRepository) ListByCampaign(ctx context.Context, campaignID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	var logs []entity.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).
		Model(&entity.ActivityLog{}).
		Where("campaign_id = ?", campaignID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Actor").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
