package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"go.uber.org/zap"
)

func newTestContent(m *memStore) *ContentService {
	logger := zap.NewNop()
	activity := NewActivityService(activityStore{m}, logger)
	workflow := NewWorkflowService(m, m, activity, logger, 0)
	visibility := NewVisibilityService(m, draftStore{m})
	return NewContentService(draftStore{m}, reviewStore{m}, publishedStore{m}, m, workflow, visibility, activity, logger)
}

func TestDraftHiddenUntilShared(t *testing.T) {
	m := newMemStore()
	m.seedTask("task-1", "camp-1", "inf-001")
	svc := newTestContent(m)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, "task-1", &CreateDraftRequest{Content: "拍摄三条短视频"}, brandActor)
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if draft.Shared {
		t.Error("new draft must not be shared")
	}

	// 分享前达人读不到草稿
	visible, err := svc.GetCurrentDraft(ctx, "task-1", influencerActor)
	if err != nil {
		t.Fatalf("GetCurrentDraft: %v", err)
	}
	if visible != nil {
		t.Error("influencer must not see unshared draft")
	}

	drafts, err := svc.ListDrafts(ctx, "task-1", influencerActor)
	if err != nil {
		t.Fatalf("ListDrafts: %v", err)
	}
	if len(drafts) != 0 {
		t.Errorf("influencer draft list should be empty, got %d", len(drafts))
	}

	// 品牌方始终可见
	if visible, _ = svc.GetCurrentDraft(ctx, "task-1", brandActor); visible == nil {
		t.Fatal("brand must see own draft")
	}

	// 分享后达人可见，需求阶段完成并解锁审核阶段
	shared, err := svc.ShareDraft(ctx, draft.ID, brandActor)
	if err != nil {
		t.Fatalf("ShareDraft: %v", err)
	}
	if !shared.Shared || shared.SharedAt == nil {
		t.Error("draft should be marked shared with timestamp")
	}

	if visible, _ = svc.GetCurrentDraft(ctx, "task-1", influencerActor); visible == nil {
		t.Fatal("influencer must see shared draft")
	}

	reqState, err := m.FindByTaskPhase(ctx, "task-1", entity.PhaseContentRequirement)
	if err != nil {
		t.Fatalf("FindByTaskPhase: %v", err)
	}
	if reqState.Status != entity.WorkflowStatusCompleted {
		t.Errorf("requirement phase should be completed after share, got %s", reqState.Status)
	}
	if _, err := m.FindByTaskPhase(ctx, "task-1", entity.PhaseContentReview); err != nil {
		t.Errorf("review phase should be unlocked after share: %v", err)
	}
}

func TestShareDraftIdempotent(t *testing.T) {
	m := newMemStore()
	m.seedTask("task-1", "camp-1", "inf-001")
	svc := newTestContent(m)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, "task-1", &CreateDraftRequest{Content: "brief"}, brandActor)
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := svc.ShareDraft(ctx, draft.ID, brandActor); err != nil {
		t.Fatalf("ShareDraft: %v", err)
	}
	// 重复分享不报错也不产生第二条审计记录
	if _, err := svc.ShareDraft(ctx, draft.ID, brandActor); err != nil {
		t.Fatalf("ShareDraft (repeat): %v", err)
	}

	logs, _ := activityStore{m}.ListByTask(ctx, "task-1")
	var shares int
	for _, l := range logs {
		if l.Action == entity.ActionDraftShared {
			shares++
		}
	}
	if shares != 1 {
		t.Errorf("expected 1 draft_shared entry, got %d", shares)
	}
}

func TestCreateReviewGatedByPhase(t *testing.T) {
	m := newMemStore()
	m.seedTask("task-1", "camp-1", "inf-001")
	svc := newTestContent(m)
	ctx := context.Background()

	// 审核阶段尚未进行中，审核记录不落库
	_, err := svc.CreateReview(ctx, "task-1", &CreateReviewRequest{
		UploadID: "up-1",
		Status:   entity.ReviewStatusApproved,
	}, brandActor)
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}

	reviews, _ := svc.ListReviews(ctx, "task-1")
	if len(reviews) != 0 {
		t.Errorf("rejected transition must not persist a review, got %d rows", len(reviews))
	}
}

func TestCreateReviewApprovedCompletesPhase(t *testing.T) {
	m := newMemStore()
	m.seedTask("task-1", "camp-1", "inf-001")
	svc := newTestContent(m)
	ctx := context.Background()

	advanceReviewInProgress(t, svc, ctx, "task-1")

	review, err := svc.CreateReview(ctx, "task-1", &CreateReviewRequest{
		UploadID: "up-1",
		Status:   entity.ReviewStatusApproved,
	}, brandActor)
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	if review.Status != entity.ReviewStatusApproved {
		t.Errorf("expected approved, got %s", review.Status)
	}

	state, _ := m.FindByTaskPhase(ctx, "task-1", entity.PhaseContentReview)
	if state.Status != entity.WorkflowStatusCompleted {
		t.Errorf("review phase should be completed, got %s", state.Status)
	}
	if _, err := m.FindByTaskPhase(ctx, "task-1", entity.PhasePublishAnalytics); err != nil {
		t.Errorf("publish phase should be unlocked: %v", err)
	}
}

func TestCreateReviewRejectedKeepsPhaseOpen(t *testing.T) {
	m := newMemStore()
	m.seedTask("task-1", "camp-1", "inf-001")
	svc := newTestContent(m)
	ctx := context.Background()

	advanceReviewInProgress(t, svc, ctx, "task-1")

	// 空反馈允许，但阶段保持in_progress等待重新提交
	if _, err := svc.CreateReview(ctx, "task-1", &CreateReviewRequest{
		UploadID: "up-1",
		Status:   entity.ReviewStatusRejected,
	}, brandActor); err != nil {
		t.Fatalf("CreateReview rejected: %v", err)
	}

	state, _ := m.FindByTaskPhase(ctx, "task-1", entity.PhaseContentReview)
	if state.Status != entity.WorkflowStatusInProgress {
		t.Errorf("review phase should stay in_progress after rejection, got %s", state.Status)
	}

	// 重新提交后审核通过
	review, err := svc.CreateReview(ctx, "task-1", &CreateReviewRequest{
		UploadID: "up-2",
		Status:   entity.ReviewStatusApproved,
		Feedback: "第二版可以",
	}, brandActor)
	if err != nil {
		t.Fatalf("CreateReview approved: %v", err)
	}
	if review.UploadID != "up-2" {
		t.Errorf("expected review for up-2, got %s", review.UploadID)
	}

	reviews, _ := svc.ListReviews(ctx, "task-1")
	if len(reviews) != 2 {
		t.Errorf("expected 2 review rows, got %d", len(reviews))
	}
}

func TestCreateReviewInvalidStatus(t *testing.T) {
	m := newMemStore()
	m.seedTask("task-1", "camp-1", "inf-001")
	svc := newTestContent(m)

	if _, err := svc.CreateReview(context.Background(), "task-1", &CreateReviewRequest{
		UploadID: "up-1",
		Status:   "maybe",
	}, brandActor); err == nil {
		t.Fatal("expected error for invalid review status")
	}
}

func TestSubmitPublishedUpsert(t *testing.T) {
	m := newMemStore()
	m.seedTask("task-1", "camp-1", "inf-001")
	svc := newTestContent(m)
	ctx := context.Background()

	// 发布阶段未进行中时不可提交
	_, err := svc.SubmitPublished(ctx, "task-1", &SubmitPublishedRequest{
		URL:      "https://example.com/v/1",
		Platform: entity.PlatformTikTok,
	}, influencerActor)
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}

	advanceReviewInProgress(t, svc, ctx, "task-1")
	if _, err := svc.CreateReview(ctx, "task-1", &CreateReviewRequest{
		UploadID: "up-1",
		Status:   entity.ReviewStatusApproved,
	}, brandActor); err != nil {
		t.Fatalf("approve review: %v", err)
	}
	if _, err := svc.workflow.StartPhase(ctx, "task-1", entity.PhasePublishAnalytics, influencerActor); err != nil {
		t.Fatalf("start publish phase: %v", err)
	}

	// 非任务达人不可提交
	if _, err := svc.SubmitPublished(ctx, "task-1", &SubmitPublishedRequest{
		URL:      "https://example.com/v/1",
		Platform: entity.PlatformTikTok,
	}, Actor{ID: "inf-999", Type: entity.ActorTypeInfluencer}); err == nil {
		t.Fatal("expected error for wrong influencer")
	}

	first, err := svc.SubmitPublished(ctx, "task-1", &SubmitPublishedRequest{
		URL:      "https://example.com/v/1",
		Platform: entity.PlatformTikTok,
	}, influencerActor)
	if err != nil {
		t.Fatalf("SubmitPublished: %v", err)
	}

	// 重复提交覆盖而不是新增
	second, err := svc.SubmitPublished(ctx, "task-1", &SubmitPublishedRequest{
		URL:      "https://example.com/v/2",
		Platform: entity.PlatformXiaohongshu,
	}, influencerActor)
	if err != nil {
		t.Fatalf("SubmitPublished (repeat): %v", err)
	}
	if second.URL != "https://example.com/v/2" {
		t.Errorf("expected updated URL, got %s", second.URL)
	}
	if second.ID != first.ID {
		t.Errorf("expected upsert to keep row identity, got %s vs %s", second.ID, first.ID)
	}
	if len(m.published) != 1 {
		t.Errorf("expected single published row, got %d", len(m.published))
	}
}

// advanceReviewInProgress 通过内容动作将任务推进到审核阶段in_progress
func advanceReviewInProgress(t *testing.T, svc *ContentService, ctx context.Context, taskID string) {
	t.Helper()

	draft, err := svc.CreateDraft(ctx, taskID, &CreateDraftRequest{Content: "brief"}, brandActor)
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := svc.ShareDraft(ctx, draft.ID, brandActor); err != nil {
		t.Fatalf("ShareDraft: %v", err)
	}
	if _, err := svc.workflow.StartPhase(ctx, taskID, entity.PhaseContentReview, influencerActor); err != nil {
		t.Fatalf("StartPhase review: %v", err)
	}
}

func TestVisiblePhasesPerActor(t *testing.T) {
	m := newMemStore()
	m.seedTask("task-1", "camp-1", "inf-001")
	svc := newTestContent(m)
	vis := NewVisibilityService(m, draftStore{m})
	ctx := context.Background()

	assertPhases := func(actorType string, want ...string) {
		t.Helper()
		phases, err := vis.VisiblePhases(ctx, "task-1", actorType)
		if err != nil {
			t.Fatalf("VisiblePhases(%s): %v", actorType, err)
		}
		if len(phases) != len(want) {
			t.Fatalf("VisiblePhases(%s) = %v, want %v", actorType, phases, want)
		}
		for i := range want {
			if phases[i] != want[i] {
				t.Fatalf("VisiblePhases(%s) = %v, want %v", actorType, phases, want)
			}
		}
	}

	// 未初始化时双方都看不到任何阶段
	assertPhases(entity.ActorTypeBrand)
	assertPhases(entity.ActorTypeInfluencer)

	draft, err := svc.CreateDraft(ctx, "task-1", &CreateDraftRequest{Content: "需求说明"}, brandActor)
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	// 草稿未分享：品牌方可见需求阶段，达人一无所见
	assertPhases(entity.ActorTypeBrand, entity.PhaseContentRequirement)
	assertPhases(entity.ActorTypeInfluencer)

	if _, err := svc.ShareDraft(ctx, draft.ID, brandActor); err != nil {
		t.Fatalf("ShareDraft: %v", err)
	}

	// 分享即完成需求阶段并解锁审核，达人同时看到两个阶段
	assertPhases(entity.ActorTypeInfluencer, entity.PhaseContentRequirement, entity.PhaseContentReview)
	assertPhases(entity.ActorTypeBrand, entity.PhaseContentRequirement, entity.PhaseContentReview)

	// 新的未分享草稿不会重新隐藏已完成的需求阶段
	if _, err := svc.CreateDraft(ctx, "task-1", &CreateDraftRequest{Content: "补充需求"}, brandActor); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	assertPhases(entity.ActorTypeInfluencer, entity.PhaseContentRequirement, entity.PhaseContentReview)

	if _, err := svc.workflow.StartPhase(ctx, "task-1", entity.PhaseContentReview, influencerActor); err != nil {
		t.Fatalf("StartPhase review: %v", err)
	}
	// 审核进行中不解锁发布阶段
	assertPhases(entity.ActorTypeInfluencer, entity.PhaseContentRequirement, entity.PhaseContentReview)

	if _, err := svc.CreateReview(ctx, "task-1", &CreateReviewRequest{UploadID: "up-1", Status: entity.ReviewStatusApproved}, brandActor); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	// 审核通过后三个阶段全部可见
	assertPhases(entity.ActorTypeInfluencer, entity.PhaseContentRequirement, entity.PhaseContentReview, entity.PhasePublishAnalytics)
	assertPhases(entity.ActorTypeSystem, entity.PhaseContentRequirement, entity.PhaseContentReview, entity.PhasePublishAnalytics)
}
