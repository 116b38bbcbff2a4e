package service

import (
	"context"
	"time"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityStore 审计日志存储契约
type ActivityStore interface {
	Append(ctx context.Context, log *entity.ActivityLog) error
	ListByTask(ctx context.Context, taskID string) ([]entity.ActivityLog, error)
	ListByCampaign(ctx context.Context, campaignID string, page, pageSize int) ([]entity.ActivityLog, int64, error)
}

// ActivityService 审计日志服务。写入是尽力而为的：失败只记录到运行日志，
// 永远不会使触发它的状态变更失败。
type ActivityService struct {
	store  ActivityStore
	logger *zap.Logger
}

// NewActivityService 创建审计日志服务
func NewActivityService(store ActivityStore, logger *zap.Logger) *ActivityService {
	return &ActivityService{store: store, logger: logger}
}

// Record 追加一条审计日志，失败不向调用方传播
func (s *ActivityService) Record(ctx context.Context, log *entity.ActivityLog) {
	if log.ID == "" {
		log.ID = uuid.New().String()[:32]
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	if err := s.store.Append(ctx, log); err != nil {
		s.logger.Error("append activity log",
			zap.String("task_id", log.TaskID),
			zap.String("action", log.Action),
			zap.Error(err),
		)
	}
}

// ListByTask 获取任务的审计日志
func (s *ActivityService) ListByTask(ctx context.Context, taskID string) ([]entity.ActivityLog, error) {
	return s.store.ListByTask(ctx, taskID)
}

// ActivityListResult 审计日志列表结果
type ActivityListResult struct {
	Items      []entity.ActivityLog `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// ListByCampaign 获取活动的审计日志
func (s *ActivityService) ListByCampaign(ctx context.Context, campaignID string, page, pageSize int) (*ActivityListResult, error) {
	logs, total, err := s.store.ListByCampaign(ctx, campaignID, page, pageSize)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &ActivityListResult{
		Items:      logs,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
