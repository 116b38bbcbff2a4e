package repository

import (
	"context"
	"errors"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"gorm.io/gorm"
)

// UploadRepository 上传文件仓库
type UploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository 创建上传文件仓库
func NewUploadRepository(db *gorm.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// FindByID 根据ID查找上传记录
func (r *UploadRepository) FindByID(ctx context.Context, id string) (*entity.Upload, error) {
	var upload entity.Upload
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&upload).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &upload, nil
}

// Create 创建上传记录
func (r *UploadRepository) Create(ctx context.Context, upload *entity.Upload) error {
	return r.db.WithContext(ctx).Create(upload).Error
}

// ListByTask 获取任务的上传记录
func (r *UploadRepository) ListByTask(ctx context.Context, taskID string) ([]entity.Upload, error) {
	var uploads []entity.Upload
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&uploads).Error
	if err != nil {
		return nil, err
	}
	return uploads, nil
}
