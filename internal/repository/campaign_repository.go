package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"gorm.io/gorm"
)

// CampaignRepository 活动仓库
type CampaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository 创建活动仓库
func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// FindByID 根据ID查找活动
func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*entity.Campaign, error) {
	var campaign entity.Campaign
	err := r.db.WithContext(ctx).
		Preload("Brand").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// Create 创建活动
func (r *CampaignRepository) Create(ctx context.Context, campaign *entity.Campaign) error {
	return r.db.WithContext(ctx).Create(campaign).Error
}

// Update 更新活动
func (r *CampaignRepository) Update(ctx context.Context, campaign *entity.Campaign) error {
	return r.db.WithContext(ctx).Save(campaign).Error
}

// Delete 删除活动（软删除）
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Campaign{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

// List 获取活动列表
func (r *CampaignRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Campaign, int64, error) {
	var campaigns []entity.Campaign
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Campaign{}).Where("deleted_at IS NULL")

	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if brandID, ok := filters["brand_id"].(string); ok && brandID != "" {
		query = query.Where("brand_id = ?", brandID)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Brand").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&campaigns).Error
	if err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// GenerateCode 生成活动编码
func (r *CampaignRepository) GenerateCode(ctx context.Context) (string, error) {
	var seq int
	err := r.db.WithContext(ctx).Raw("SELECT nextval('campaign_code_seq')").Scan(&seq).Error
	if err != nil {
		return "", err
	}
	year := time.Now().Year()
	return fmt.Sprintf("CMP-%d-%04d", year, seq), nil
}
