package service

import (
	"context"
	"fmt"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/repository"
)

// TaskService 任务查询服务
type TaskService struct {
	taskRepo   *repository.TaskRepository
	workflow   *WorkflowService
	visibility *VisibilityService
}

// NewTaskService 创建任务查询服务
func NewTaskService(taskRepo *repository.TaskRepository, workflow *WorkflowService, visibility *VisibilityService) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		workflow:   workflow,
		visibility: visibility,
	}
}

// TaskDetail 任务详情，含工作流状态
type TaskDetail struct {
	Task          *entity.Task                `json:"task"`
	States        []entity.WorkflowState      `json:"states"`
	VisiblePhases []string                    `json:"visible_phases"`
	Transitions   []entity.WorkflowTransition `json:"transitions,omitempty"`
}

// Get 获取任务详情。返回的阶段列表按操作者类型做了可见性过滤；
// 状态变更日志仅品牌方可见。
func (s *TaskService) Get(ctx context.Context, taskID string, actor Actor) (*TaskDetail, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}

	states, err := s.workflow.GetStates(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list workflow states: %w", err)
	}

	visible, err := s.visibility.VisiblePhases(ctx, taskID, actor.Type)
	if err != nil {
		return nil, fmt.Errorf("resolve visible phases: %w", err)
	}

	detail := &TaskDetail{
		Task:          task,
		States:        states,
		VisiblePhases: visible,
	}

	if actor.Type == entity.ActorTypeBrand {
		transitions, err := s.workflow.GetTransitions(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("list transitions: %w", err)
		}
		detail.Transitions = transitions
	}

	return detail, nil
}

// ListByCampaign 获取活动下的任务列表
func (s *TaskService) ListByCampaign(ctx context.Context, campaignID string) ([]entity.Task, error) {
	return s.taskRepo.ListByCampaign(ctx, campaignID)
}

// ListMine 获取达人自己的任务列表
func (s *TaskService) ListMine(ctx context.Context, influencerID string) ([]entity.Task, error) {
	return s.taskRepo.ListByInfluencer(ctx, influencerID)
}
