package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 工作流错误定义
var (
	// ErrInvalidTransition 变更违反阶段顺序或当前状态前置条件
	ErrInvalidTransition = errors.New("invalid workflow transition")

	// ErrUnknownPhase 阶段不在固定的三个阶段之内，属于集成错误
	ErrUnknownPhase = errors.New("unknown workflow phase")

	// ErrOutOfOrder 阶段当前不处于in_progress，无法完成或驳回
	ErrOutOfOrder = errors.New("phase is not in progress")
)

// Actor 当前操作者，由调用方显式传入
type Actor struct {
	ID   string
	Type string
}

// WorkflowStore 工作流状态存储契约
type WorkflowStore interface {
	ListByTask(ctx context.Context, taskID string) ([]entity.WorkflowState, error)
	FindByTaskPhase(ctx context.Context, taskID, phase string) (*entity.WorkflowState, error)
	CreateIfAbsent(ctx context.Context, state *entity.WorkflowState) error
	UpdateStatusIf(ctx context.Context, taskID, phase, expectedStatus, newStatus, actorID string) (*entity.WorkflowState, error)
	ListTransitions(ctx context.Context, taskID string) ([]entity.WorkflowTransition, error)
	CountCompleted(ctx context.Context, taskID string) (int64, error)
}

// TaskStore 任务存储契约（工作流引擎回写任务进度）
type TaskStore interface {
	FindByID(ctx context.Context, id string) (*entity.Task, error)
	UpdateProgress(ctx context.Context, id string, progress int) error
	Update(ctx context.Context, task *entity.Task) error
}

// WorkflowService 工作流引擎，任务阶段状态变更的唯一入口
type WorkflowService struct {
	states       WorkflowStore
	tasks        TaskStore
	activity     *ActivityService
	logger       *zap.Logger
	storeTimeout time.Duration
}

// NewWorkflowService 创建工作流引擎
func NewWorkflowService(states WorkflowStore, tasks TaskStore, activity *ActivityService, logger *zap.Logger, storeTimeout time.Duration) *WorkflowService {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &WorkflowService{
		states:       states,
		tasks:        tasks,
		activity:     activity,
		logger:       logger,
		storeTimeout: storeTimeout,
	}
}

// 阶段变更动作
const (
	TransitionComplete = "complete"
	TransitionReject   = "reject"
)

// InitializeWorkflow 初始化任务工作流。为content_requirement创建not_started状态行，
// 幂等：重复调用不报错也不重置已推进的状态。
func (s *WorkflowService) InitializeWorkflow(ctx context.Context, taskID string, actor Actor) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	existing, err := s.states.FindByTaskPhase(ctx, taskID, entity.PhaseContentRequirement)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("find workflow state: %w", err)
	}
	if existing != nil {
		return nil
	}

	now := time.Now()
	state := &entity.WorkflowState{
		ID:        uuid.New().String()[:32],
		TaskID:    taskID,
		Phase:     entity.PhaseContentRequirement,
		Status:    entity.WorkflowStatusNotStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.states.CreateIfAbsent(ctx, state); err != nil {
		return fmt.Errorf("create workflow state: %w", err)
	}

	s.recordActivity(ctx, taskID, actor, entity.ActionWorkflowInitialized,
		"工作流已初始化", entity.JSONB{"phase": entity.PhaseContentRequirement})
	return nil
}

// StartPhase 启动阶段。前驱阶段必须已完成；阶段当前必须是not_started，
// 或content_review被驳回后重新进入（rejected→in_progress）。
func (s *WorkflowService) StartPhase(ctx context.Context, taskID, phase string, actor Actor) (*entity.WorkflowState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if entity.PhaseIndex(phase) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPhase, phase)
	}

	if prev, ok := entity.PrevPhase(phase); ok {
		prevState, err := s.states.FindByTaskPhase(ctx, taskID, prev)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: predecessor phase %s not completed", ErrInvalidTransition, prev)
			}
			return nil, fmt.Errorf("find predecessor state: %w", err)
		}
		if prevState.Status != entity.WorkflowStatusCompleted {
			return nil, fmt.Errorf("%w: predecessor phase %s not completed", ErrInvalidTransition, prev)
		}
	}

	state, err := s.states.FindByTaskPhase(ctx, taskID, phase)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: phase %s not yet unlocked", ErrInvalidTransition, phase)
		}
		return nil, fmt.Errorf("find workflow state: %w", err)
	}

	expected := entity.WorkflowStatusNotStarted
	if state.Status == entity.WorkflowStatusRejected && phase == entity.PhaseContentReview {
		expected = entity.WorkflowStatusRejected
	}

	updated, err := s.states.UpdateStatusIf(ctx, taskID, phase, expected, entity.WorkflowStatusInProgress, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: phase %s is %s", ErrInvalidTransition, phase, state.Status)
		}
		return nil, fmt.Errorf("start phase: %w", err)
	}

	s.recordActivity(ctx, taskID, actor, entity.ActionPhaseStarted,
		fmt.Sprintf("阶段 %s 已开始", phase), entity.JSONB{"phase": phase})
	return updated, nil
}

// TransitionPhase 完成或驳回阶段。complete将阶段置为completed并解锁后继阶段；
// reject将阶段保持in_progress（提交物被丢弃，需重新提交）。
func (s *WorkflowService) TransitionPhase(ctx context.Context, taskID, phase, action string, actor Actor) (*entity.WorkflowState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if entity.PhaseIndex(phase) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPhase, phase)
	}

	switch action {
	case TransitionComplete:
		return s.completePhase(ctx, taskID, phase, actor)
	case TransitionReject:
		return s.rejectPhase(ctx, taskID, phase, actor)
	default:
		return nil, fmt.Errorf("unknown transition action: %s", action)
	}
}

func (s *WorkflowService) completePhase(ctx context.Context, taskID, phase string, actor Actor) (*entity.WorkflowState, error) {
	updated, err := s.states.UpdateStatusIf(ctx, taskID, phase,
		entity.WorkflowStatusInProgress, entity.WorkflowStatusCompleted, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: %s", ErrOutOfOrder, phase)
		}
		return nil, fmt.Errorf("complete phase: %w", err)
	}

	// 解锁后继阶段
	if next, ok := entity.NextPhase(phase); ok {
		now := time.Now()
		nextState := &entity.WorkflowState{
			ID:        uuid.New().String()[:32],
			TaskID:    taskID,
			Phase:     next,
			Status:    entity.WorkflowStatusNotStarted,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.states.CreateIfAbsent(ctx, nextState); err != nil {
			return nil, fmt.Errorf("unlock next phase: %w", err)
		}
	}

	s.recordActivity(ctx, taskID, actor, entity.ActionPhaseCompleted,
		fmt.Sprintf("阶段 %s 已完成", phase), entity.JSONB{"phase": phase})

	s.refreshProgress(ctx, taskID)
	return updated, nil
}

func (s *WorkflowService) rejectPhase(ctx context.Context, taskID, phase string, actor Actor) (*entity.WorkflowState, error) {
	// 驳回不回退状态：阶段保持in_progress，等待重新提交
	updated, err := s.states.UpdateStatusIf(ctx, taskID, phase,
		entity.WorkflowStatusInProgress, entity.WorkflowStatusInProgress, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: %s", ErrOutOfOrder, phase)
		}
		return nil, fmt.Errorf("reject phase: %w", err)
	}

	s.recordActivity(ctx, taskID, actor, entity.ActionPhaseRejected,
		fmt.Sprintf("阶段 %s 已驳回", phase), entity.JSONB{"phase": phase})
	return updated, nil
}

// GetStates 获取任务的全部阶段状态，按阶段顺序
func (s *WorkflowService) GetStates(ctx context.Context, taskID string) ([]entity.WorkflowState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.states.ListByTask(ctx, taskID)
}

// GetTransitions 获取任务的状态变更日志
func (s *WorkflowService) GetTransitions(ctx context.Context, taskID string) ([]entity.WorkflowTransition, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.states.ListTransitions(ctx, taskID)
}

// refreshProgress 按已完成阶段数回写任务进度，全部完成时任务置为completed
func (s *WorkflowService) refreshProgress(ctx context.Context, taskID string) {
	completed, err := s.states.CountCompleted(ctx, taskID)
	if err != nil {
		s.logger.Error("count completed phases", zap.String("task_id", taskID), zap.Error(err))
		return
	}

	progress := int(completed) * 100 / len(entity.PhaseOrder)
	if err := s.tasks.UpdateProgress(ctx, taskID, progress); err != nil {
		s.logger.Error("update task progress", zap.String("task_id", taskID), zap.Error(err))
		return
	}

	if progress >= 100 {
		task, err := s.tasks.FindByID(ctx, taskID)
		if err != nil {
			s.logger.Error("find task", zap.String("task_id", taskID), zap.Error(err))
			return
		}
		if task.Status != entity.TaskStatusCompleted {
			task.Status = entity.TaskStatusCompleted
			task.UpdatedAt = time.Now()
			if err := s.tasks.Update(ctx, task); err != nil {
				s.logger.Error("mark task completed", zap.String("task_id", taskID), zap.Error(err))
			}
		}
	}
}

// recordActivity 追加审计日志。审计是尽力而为：写入失败只记录错误，
// 不影响已生效的状态变更。
func (s *WorkflowService) recordActivity(ctx context.Context, taskID string, actor Actor, action, description string, metadata entity.JSONB) {
	campaignID := ""
	if task, err := s.tasks.FindByID(ctx, taskID); err == nil {
		campaignID = task.CampaignID
	}

	s.activity.Record(ctx, &entity.ActivityLog{
		TaskID:      taskID,
		CampaignID:  campaignID,
		ActorID:     actor.ID,
		ActorType:   actor.Type,
		Action:      action,
		Description: description,
		Metadata:    metadata,
	})
}
