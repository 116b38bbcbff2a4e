package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublishedRepository 已发布内容仓库
type PublishedRepository struct {
	db *gorm.DB
}

// NewPublishedRepository 创建已发布内容仓库
func NewPublishedRepository(db *gorm.DB) *PublishedRepository {
	return &PublishedRepository{db: db}
}

// Upsert 以(task_id, influencer_id)为键插入或覆盖发布记录。
// 重复提交覆盖URL和平台，不产生新行。
func (r *PublishedRepository) Upsert(ctx context.Context, content *entity.PublishedContent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "task_id"}, {Name: "influencer_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"url":        content.URL,
				"platform":   content.Platform,
				"status":     content.Status,
				"updated_at": time.Now(),
			}),
		}).
		Create(content).Error
}

// FindByTaskInfluencer 查找任务与达人的发布记录
func (r *PublishedRepository) FindByTaskInfluencer(ctx context.Context, taskID, influencerID string) (*entity.PublishedContent, error) {
	var content entity.PublishedContent
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND influencer_id = ?", taskID, influencerID).
		First(&content).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &content, nil
}

// ListByCampaign 获取活动下的发布记录
func (r *PublishedRepository) ListByCampaign(ctx context.Context, campaignID string) ([]entity.PublishedContent, error) {
	var contents []entity.PublishedContent
	err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = published_contents.task_id").
		Where("tasks.campaign_id = ?", campaignID).
		Preload("Influencer").
		Find(&contents).Error
	if err != nil {
		return nil, err
	}
	return contents, nil
}
