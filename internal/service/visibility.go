package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/repository"
)

// VisibilityService 可见性解析。纯读取，不缓存，每次调用都基于
// 当前的工作流状态和草稿行计算结果。
type VisibilityService struct {
	states WorkflowStore
	drafts DraftStore
}

// NewVisibilityService 创建可见性解析服务
func NewVisibilityService(states WorkflowStore, drafts DraftStore) *VisibilityService {
	return &VisibilityService{states: states, drafts: drafts}
}

// VisiblePhases 计算指定操作者类型当前可见的阶段。
// 品牌方可见所有已初始化的阶段；达人只有在品牌方分享了当前草稿
// 或前驱阶段完成后才能看到对应阶段。
func (s *VisibilityService) VisiblePhases(ctx context.Context, taskID, actorType string) ([]string, error) {
	states, err := s.states.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list workflow states: %w", err)
	}

	if actorType == entity.ActorTypeBrand || actorType == entity.ActorTypeSystem {
		phases := make([]string, 0, len(states))
		for _, st := range states {
			phases = append(phases, st.Phase)
		}
		return phases, nil
	}

	byPhase := make(map[string]entity.WorkflowState, len(states))
	for _, st := range states {
		byPhase[st.Phase] = st
	}

	var phases []string
	for _, phase := range entity.PhaseOrder {
		st, ok := byPhase[phase]
		if !ok {
			continue
		}

		switch phase {
		case entity.PhaseContentRequirement:
			// 需求阶段对达人可见的条件：草稿已分享，或阶段已完成
			if st.Status == entity.WorkflowStatusCompleted {
				phases = append(phases, phase)
				continue
			}
			shared, err := s.currentDraftShared(ctx, taskID)
			if err != nil {
				return nil, err
			}
			if shared {
				phases = append(phases, phase)
			}
		default:
			prev, _ := entity.PrevPhase(phase)
			if prevState, ok := byPhase[prev]; ok && prevState.Status == entity.WorkflowStatusCompleted {
				phases = append(phases, phase)
			}
		}
	}
	return phases, nil
}

// VisibleDraft 返回操作者可读的当前草稿。达人在草稿分享前读到空结果。
func (s *VisibilityService) VisibleDraft(ctx context.Context, taskID, actorType string) (*entity.ContentDraft, error) {
	draft, err := s.drafts.FindCurrentByTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find current draft: %w", err)
	}

	if actorType == entity.ActorTypeInfluencer && !draft.Shared {
		return nil, nil
	}
	return draft, nil
}

func (s *VisibilityService) currentDraftShared(ctx context.Context, taskID string) (bool, error) {
	draft, err := s.drafts.FindCurrentByTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("find current draft: %w", err)
	}
	return draft.Shared, nil
}
