package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkflowRepository 工作流状态仓库
type WorkflowRepository struct {
	db *gorm.DB
}

// NewWorkflowRepository 创建工作流状态仓库
func NewWorkflowRepository(db *gorm.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// ListByTask 获取任务的全部阶段状态，按阶段顺序返回
func (r *WorkflowRepository) ListByTask(ctx context.Context, taskID string) ([]entity.WorkflowState, error) {
	var states []entity.WorkflowState
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Find(&states).Error
	if err != nil {
		return nil, err
	}

	// 数据库中没有阶段顺序列，按固定顺序表排序
	ordered := make([]entity.WorkflowState, 0, len(states))
	for _, phase := range entity.PhaseOrder {
		for _, s := range states {
			if s.Phase == phase {
				ordered = append(ordered, s)
				break
			}
		}
	}
	return ordered, nil
}

// FindByTaskPhase 查找任务指定阶段的状态
func (r *WorkflowRepository) FindByTaskPhase(ctx context.Context, taskID, phase string) (*entity.WorkflowState, error) {
	var state entity.WorkflowState
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND phase = ?", taskID, phase).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &state, nil
}

// CreateIfAbsent 幂等创建阶段状态行，已存在时不报错也不覆盖
func (r *WorkflowRepository) CreateIfAbsent(ctx context.Context, state *entity.WorkflowState) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "phase"}},
			DoNothing: true,
		}).
		Create(state).Error
}

// UpdateStatusIf 条件更新阶段状态。以期望的当前状态为条件做单条UPDATE，
// 避免读取后写入的丢失更新竞态；未命中任何行返回ErrStaleStatus。
// 状态变更同时追加一条workflow_transitions日志，二者在同一事务内。
func (r *WorkflowRepository) UpdateStatusIf(ctx context.Context, taskID, phase, expectedStatus, newStatus, actorID string) (*entity.WorkflowState, error) {
	now := time.Now()

	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_at": now,
	}
	if newStatus == entity.WorkflowStatusInProgress && expectedStatus != entity.WorkflowStatusInProgress {
		updates["started_at"] = now
	}
	if newStatus == entity.WorkflowStatusCompleted {
		updates["completed_at"] = now
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.WorkflowState{}).
			Where("task_id = ? AND phase = ? AND status = ?", taskID, phase, expectedStatus).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleStatus
		}

		transition := &entity.WorkflowTransition{
			ID:         uuid.New().String()[:32],
			TaskID:     taskID,
			Phase:      phase,
			FromStatus: expectedStatus,
			ToStatus:   newStatus,
			ActorID:    actorID,
			CreatedAt:  now,
		}
		return tx.Create(transition).Error
	})
	if err != nil {
		return nil, err
	}

	return r.FindByTaskPhase(ctx, taskID, phase)
}

// ListTransitions 获取任务的状态变更日志
func (r *WorkflowRepository) ListTransitions(ctx context.Context, taskID string) ([]entity.WorkflowTransition, error) {
	var transitions []entity.WorkflowTransition
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&transitions).Error
	if err != nil {
		return nil, err
	}
	return transitions, nil
}

// CountCompleted 统计任务已完成的阶段数
func (r *WorkflowRepository) CountCompleted(ctx context.Context, taskID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.WorkflowState{}).
		Where("task_id = ? AND status = ?", taskID, entity.WorkflowStatusCompleted).
		Count(&count).Error
	return count, err
}
