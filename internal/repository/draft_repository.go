package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"gorm.io/gorm"
)

// DraftRepository 内容需求草稿仓库
type DraftRepository struct {
	db *gorm.DB
}

// NewDraftRepository 创建草稿仓库
func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// FindByID 根据ID查找草稿
func (r *DraftRepository) FindByID(ctx context.Context, id string) (*entity.ContentDraft, error) {
	var draft entity.ContentDraft
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &draft, nil
}

// Create 创建草稿
func (r *DraftRepository) Create(ctx context.Context, draft *entity.ContentDraft) error {
	return r.db.WithContext(ctx).Create(draft).Error
}

// MarkShared 将草稿标记为已分享
func (r *DraftRepository) MarkShared(ctx context.Context, id string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&entity.ContentDraft{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"shared":    true,
			"shared_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByTask 获取任务的草稿历史，最新在前
func (r *DraftRepository) ListByTask(ctx context.Context, taskID string) ([]entity.ContentDraft, error) {
	var drafts []entity.ContentDraft
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Preload("Creator").
		Order("created_at DESC").
		Find(&drafts).Error
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

// FindCurrentByTask 查找任务的当前草稿（最新一条）
func (r *DraftRepository) FindCurrentByTask(ctx context.Context, taskID string) (*entity.ContentDraft, error) {
	var draft entity.ContentDraft
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &draft, nil
}
