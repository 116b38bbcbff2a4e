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

// DraftStore 草稿存储契约
type DraftStore interface {
	FindByID(ctx context.Context, id string) (*entity.ContentDraft, error)
	Create(ctx context.Context, draft *entity.ContentDraft) error
	MarkShared(ctx context.Context, id string) error
	ListByTask(ctx context.Context, taskID string) ([]entity.ContentDraft, error)
	FindCurrentByTask(ctx context.Context, taskID string) (*entity.ContentDraft, error)
}

// ReviewStore 审核记录存储契约
type ReviewStore interface {
	Create(ctx context.Context, review *entity.ContentReview) error
	ListByTask(ctx context.Context, taskID string) ([]entity.ContentReview, error)
}

// PublishedStore 发布记录存储契约
type PublishedStore interface {
	Upsert(ctx context.Context, content *entity.PublishedContent) error
	FindByTaskInfluencer(ctx context.Context, taskID, influencerID string) (*entity.PublishedContent, error)
}

// ContentService 内容协作服务：需求草稿、内容审核与发布记录。
// 所有触发阶段变更的动作都委托给工作流引擎。
type ContentService struct {
	drafts     DraftStore
	reviews    ReviewStore
	published  PublishedStore
	tasks      TaskStore
	workflow   *WorkflowService
	visibility *VisibilityService
	activity   *ActivityService
	logger     *zap.Logger
}

// NewContentService 创建内容协作服务
func NewContentService(
	drafts DraftStore,
	reviews ReviewStore,
	published PublishedStore,
	tasks TaskStore,
	workflow *WorkflowService,
	visibility *VisibilityService,
	activity *ActivityService,
	logger *zap.Logger,
) *ContentService {
	return &ContentService{
		drafts:     drafts,
		reviews:    reviews,
		published:  published,
		tasks:      tasks,
		workflow:   workflow,
		visibility: visibility,
		activity:   activity,
		logger:     logger,
	}
}

// CreateDraftRequest 创建草稿请求
type CreateDraftRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateReviewRequest 创建审核记录请求
type CreateReviewRequest struct {
	UploadID string `json:"upload_id" binding:"required"`
	Status   string `json:"status" binding:"required"`
	Feedback string `json:"feedback"`
}

// SubmitPublishedRequest 提交发布内容请求
type SubmitPublishedRequest struct {
	URL      string `json:"url" binding:"required"`
	Platform string `json:"platform" binding:"required"`
}

// CreateDraft 创建需求草稿。草稿默认不对达人可见；品牌方开始撰写即视为
// 需求阶段进行中，工作流未初始化时先初始化并启动需求阶段。
func (s *ContentService) CreateDraft(ctx context.Context, taskID string, req *CreateDraftRequest, actor Actor) (*entity.ContentDraft, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}

	if err := s.workflow.InitializeWorkflow(ctx, taskID, actor); err != nil {
		return nil, fmt.Errorf("initialize workflow: %w", err)
	}
	if _, err := s.workflow.StartPhase(ctx, taskID, entity.PhaseContentRequirement, actor); err != nil {
		// 阶段已在进行中不是错误
		if !errors.Is(err, ErrInvalidTransition) {
			return nil, fmt.Errorf("start requirement phase: %w", err)
		}
	}

	draft := &entity.ContentDraft{
		ID:        uuid.New().String()[:32],
		TaskID:    taskID,
		Content:   req.Content,
		CreatedBy: actor.ID,
		Shared:    false,
		CreatedAt: time.Now(),
	}
	if err := s.drafts.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}

	s.activity.Record(ctx, &entity.ActivityLog{
		TaskID:      taskID,
		CampaignID:  task.CampaignID,
		ActorID:     actor.ID,
		ActorType:   actor.Type,
		Action:      entity.ActionDraftCreated,
		Description: "需求草稿已创建",
		Metadata:    entity.JSONB{"draft_id": draft.ID},
	})
	return draft, nil
}

// ShareDraft 分享草稿给达人。分享是完成需求阶段的显式信号：
// 草稿置为已分享后，需求阶段由工作流引擎置为completed并解锁审核阶段。
func (s *ContentService) ShareDraft(ctx context.Context, draftID string, actor Actor) (*entity.ContentDraft, error) {
	draft, err := s.drafts.FindByID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("find draft: %w", err)
	}

	if !draft.Shared {
		if err := s.drafts.MarkShared(ctx, draftID); err != nil {
			return nil, fmt.Errorf("mark draft shared: %w", err)
		}

		task, err := s.tasks.FindByID(ctx, draft.TaskID)
		if err != nil {
			return nil, fmt.Errorf("find task: %w", err)
		}
		s.activity.Record(ctx, &entity.ActivityLog{
			TaskID:      draft.TaskID,
			CampaignID:  task.CampaignID,
			ActorID:     actor.ID,
			ActorType:   actor.Type,
			Action:      entity.ActionDraftShared,
			Description: "需求草稿已分享给达人",
			Metadata:    entity.JSONB{"draft_id": draftID},
		})
	}

	if _, err := s.workflow.TransitionPhase(ctx, draft.TaskID, entity.PhaseContentRequirement, TransitionComplete, actor); err != nil {
		// 需求阶段已完成时重复分享不报错
		if !errors.Is(err, ErrOutOfOrder) {
			return nil, fmt.Errorf("complete requirement phase: %w", err)
		}
	}

	return s.drafts.FindByID(ctx, draftID)
}

// CreateReview 创建审核记录。approved是唯一允许将审核阶段置为completed的事件；
// rejected将阶段保持in_progress，等待达人重新提交。
func (s *ContentService) CreateReview(ctx context.Context, taskID string, req *CreateReviewRequest, actor Actor) (*entity.ContentReview, error) {
	if req.Status != entity.ReviewStatusApproved && req.Status != entity.ReviewStatusRejected {
		return nil, fmt.Errorf("invalid review status: %s", req.Status)
	}

	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}

	if req.Status == entity.ReviewStatusRejected && req.Feedback == "" {
		// 数据模型允许空反馈，但达人无从改进，仅告警不拒绝
		s.logger.Warn("review rejected without feedback",
			zap.String("task_id", taskID),
			zap.String("reviewer", actor.ID),
		)
	}

	// 先做CAS状态变更：阶段不处于in_progress时审核无效，不落库
	action := TransitionComplete
	logAction := entity.ActionReviewApproved
	description := "内容审核通过"
	if req.Status == entity.ReviewStatusRejected {
		action = TransitionReject
		logAction = entity.ActionReviewRejected
		description = "内容审核驳回"
	}
	if _, err := s.workflow.TransitionPhase(ctx, taskID, entity.PhaseContentReview, action, actor); err != nil {
		return nil, err
	}

	review := &entity.ContentReview{
		ID:         uuid.New().String()[:32],
		TaskID:     taskID,
		UploadID:   req.UploadID,
		Status:     req.Status,
		Feedback:   req.Feedback,
		ReviewedBy: actor.ID,
		CreatedAt:  time.Now(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.activity.Record(ctx, &entity.ActivityLog{
		TaskID:      taskID,
		CampaignID:  task.CampaignID,
		ActorID:     actor.ID,
		ActorType:   actor.Type,
		Action:      logAction,
		Description: description,
		Metadata: entity.JSONB{
			"review_id": review.ID,
			"upload_id": req.UploadID,
			"feedback":  req.Feedback,
		},
	})
	return review, nil
}

// ListReviews 获取任务的审核记录
func (s *ContentService) ListReviews(ctx context.Context, taskID string) ([]entity.ContentReview, error) {
	return s.reviews.ListByTask(ctx, taskID)
}

// ListDrafts 获取任务的草稿历史。达人只能看到已分享的草稿。
func (s *ContentService) ListDrafts(ctx context.Context, taskID string, actor Actor) ([]entity.ContentDraft, error) {
	drafts, err := s.drafts.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	if actor.Type != entity.ActorTypeInfluencer {
		return drafts, nil
	}

	visible := make([]entity.ContentDraft, 0, len(drafts))
	for _, d := range drafts {
		if d.Shared {
			visible = append(visible, d)
		}
	}
	return visible, nil
}

// GetCurrentDraft 获取当前草稿，受可见性规则约束
func (s *ContentService) GetCurrentDraft(ctx context.Context, taskID string, actor Actor) (*entity.ContentDraft, error) {
	return s.visibility.VisibleDraft(ctx, taskID, actor.Type)
}

// SubmitPublished 提交发布内容。以(task, influencer)为键覆盖写入：
// 重复提交更新URL和平台，不会产生重复行。要求发布阶段处于in_progress。
func (s *ContentService) SubmitPublished(ctx context.Context, taskID string, req *SubmitPublishedRequest, actor Actor) (*entity.PublishedContent, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	if task.InfluencerID != actor.ID {
		return nil, fmt.Errorf("task is not assigned to actor %s", actor.ID)
	}

	states, err := s.workflow.GetStates(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list workflow states: %w", err)
	}
	inProgress := false
	for _, st := range states {
		if st.Phase == entity.PhasePublishAnalytics && st.Status == entity.WorkflowStatusInProgress {
			inProgress = true
			break
		}
	}
	if !inProgress {
		return nil, fmt.Errorf("%w: %s", ErrOutOfOrder, entity.PhasePublishAnalytics)
	}

	now := time.Now()
	content := &entity.PublishedContent{
		ID:           uuid.New().String()[:32],
		TaskID:       taskID,
		InfluencerID: actor.ID,
		URL:          req.URL,
		Platform:     req.Platform,
		Status:       entity.PublishedStatusPublished,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.published.Upsert(ctx, content); err != nil {
		return nil, fmt.Errorf("upsert published content: %w", err)
	}

	s.activity.Record(ctx, &entity.ActivityLog{
		TaskID:      taskID,
		CampaignID:  task.CampaignID,
		ActorID:     actor.ID,
		ActorType:   actor.Type,
		Action:      entity.ActionContentPublished,
		Description: "发布链接已提交",
		Metadata:    entity.JSONB{"url": req.URL, "platform": req.Platform},
	})

	return s.published.FindByTaskInfluencer(ctx, taskID, actor.ID)
}

// GetPublished 获取任务的发布记录
func (s *ContentService) GetPublished(ctx context.Context, taskID, influencerID string) (*entity.PublishedContent, error) {
	content, err := s.published.FindByTaskInfluencer(ctx, taskID, influencerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return content, nil
}
