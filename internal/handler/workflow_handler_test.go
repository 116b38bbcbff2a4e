package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/repository"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/service"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupWorkflowRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	logger := zap.NewNop()

	activity := service.NewActivityService(repos.Activity, logger)
	workflow := service.NewWorkflowService(repos.Workflow, repos.Task, activity, logger, 0)
	visibility := service.NewVisibilityService(repos.Workflow, repos.Draft)
	content := service.NewContentService(repos.Draft, repos.Review, repos.Published, repos.Task, workflow, visibility, activity, logger)
	taskSvc := service.NewTaskService(repos.Task, workflow, visibility)

	taskHandler := NewTaskHandler(taskSvc, workflow, visibility, activity)
	contentHandler := NewContentHandler(content)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	api.GET("/tasks/:id", taskHandler.Get)
	api.GET("/tasks/:id/workflow", taskHandler.GetWorkflow)
	api.POST("/tasks/:id/workflow/initialize", taskHandler.InitializeWorkflow)
	api.POST("/tasks/:id/workflow/:phase/start", taskHandler.StartPhase)
	api.POST("/tasks/:id/workflow/:phase/transition", taskHandler.TransitionPhase)
	api.GET("/tasks/:id/activity", taskHandler.ListActivity)
	api.POST("/tasks/:id/drafts", contentHandler.CreateDraft)
	api.POST("/drafts/:id/share", contentHandler.ShareDraft)
	api.POST("/tasks/:id/reviews", contentHandler.CreateReview)
	api.PUT("/tasks/:id/published", contentHandler.SubmitPublished)

	return r, db
}

func TestWorkflowLifecycleHTTP(t *testing.T) {
	r, db := setupWorkflowRouter(t)

	brand := testutil.SeedTestUser(t, db, "brand-001", "Brand", "brand@test.com", entity.UserTypeBrand)
	influencer := testutil.SeedTestUser(t, db, "inf-001", "Influencer", "inf@test.com", entity.UserTypeInfluencer)
	campaign := testutil.SeedTestCampaign(t, db, "camp-001", brand.ID, "Spring Launch")
	task := testutil.SeedTestTask(t, db, campaign.ID, influencer.ID)

	brandToken := testutil.BrandToken(brand.ID)
	infToken := testutil.InfluencerToken(influencer.ID)
	taskPath := "/api/v1/tasks/" + task.ID

	// 初始化工作流
	w := testutil.DoRequest(r, http.MethodPost, taskPath+"/workflow/initialize", nil, brandToken)
	if w.Code != http.StatusOK {
		t.Fatalf("initialize: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 需求阶段未完成时不能启动审核阶段
	w = testutil.DoRequest(r, http.MethodPost, taskPath+"/workflow/content_review/start", nil, infToken)
	if w.Code != http.StatusConflict {
		t.Fatalf("premature start: expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if code, _ := resp["code"].(float64); int(code) != 40900 {
		t.Errorf("expected business code 40900, got %v", resp["code"])
	}

	// 未知阶段返回400
	w = testutil.DoRequest(r, http.MethodPost, taskPath+"/workflow/shipping/start", nil, brandToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown phase: expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// 品牌方撰写并分享草稿，完成需求阶段
	w = testutil.DoRequest(r, http.MethodPost, taskPath+"/drafts", map[string]string{"content": "三条短视频"}, brandToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create draft: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	draftData, _ := resp["data"].(map[string]interface{})
	draftID, _ := draftData["id"].(string)
	if draftID == "" {
		t.Fatal("draft id missing in response")
	}

	w = testutil.DoRequest(r, http.MethodPost, "/api/v1/drafts/"+draftID+"/share", nil, brandToken)
	if w.Code != http.StatusOK {
		t.Fatalf("share draft: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 达人启动审核阶段并由品牌方驳回、再通过
	w = testutil.DoRequest(r, http.MethodPost, taskPath+"/workflow/content_review/start", nil, infToken)
	if w.Code != http.StatusOK {
		t.Fatalf("start review: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, http.MethodPost, taskPath+"/reviews", map[string]string{
		"upload_id": "up-1",
		"status":    entity.ReviewStatusRejected,
		"feedback":  "调整开头",
	}, brandToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("reject review: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, http.MethodPost, taskPath+"/reviews", map[string]string{
		"upload_id": "up-2",
		"status":    entity.ReviewStatusApproved,
	}, brandToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("approve review: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// 达人启动发布阶段并提交链接
	w = testutil.DoRequest(r, http.MethodPost, taskPath+"/workflow/publish_analytics/start", nil, infToken)
	if w.Code != http.StatusOK {
		t.Fatalf("start publish: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, http.MethodPut, taskPath+"/published", map[string]string{
		"url":      "https://example.com/v/1",
		"platform": entity.PlatformTikTok,
	}, infToken)
	if w.Code != http.StatusOK {
		t.Fatalf("submit published: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 品牌方完成发布阶段，任务进度100
	w = testutil.DoRequest(r, http.MethodPost, taskPath+"/workflow/publish_analytics/transition",
		map[string]string{"action": "complete"}, brandToken)
	if w.Code != http.StatusOK {
		t.Fatalf("complete publish: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var reloaded entity.Task
	if err := db.First(&reloaded, "id = ?", task.ID).Error; err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if reloaded.Progress != 100 {
		t.Errorf("expected progress 100, got %d", reloaded.Progress)
	}
	if reloaded.Status != entity.TaskStatusCompleted {
		t.Errorf("expected task completed, got %s", reloaded.Status)
	}

	// 审计日志覆盖完整轨迹
	w = testutil.DoRequest(r, http.MethodGet, taskPath+"/activity", nil, brandToken)
	if w.Code != http.StatusOK {
		t.Fatalf("list activity: expected 200, got %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	entries, _ := resp["data"].([]interface{})
	if len(entries) == 0 {
		t.Error("expected activity entries")
	}
	actions := make(map[string]bool)
	for _, e := range entries {
		if m, ok := e.(map[string]interface{}); ok {
			if a, ok := m["action"].(string); ok {
				actions[a] = true
			}
		}
	}
	for _, want := range []string{
		entity.ActionWorkflowInitialized,
		entity.ActionDraftShared,
		entity.ActionReviewRejected,
		entity.ActionReviewApproved,
		entity.ActionContentPublished,
	} {
		if !actions[want] {
			t.Errorf("missing %s in activity journal", want)
		}
	}
}

func TestWorkflowCompleteWithoutStartHTTP(t *testing.T) {
	r, db := setupWorkflowRouter(t)

	brand := testutil.SeedTestUser(t, db, "brand-002", "Brand", "brand2@test.com", entity.UserTypeBrand)
	influencer := testutil.SeedTestUser(t, db, "inf-002", "Influencer", "inf2@test.com", entity.UserTypeInfluencer)
	campaign := testutil.SeedTestCampaign(t, db, "camp-002", brand.ID, "Summer Launch")
	task := testutil.SeedTestTask(t, db, campaign.ID, influencer.ID)

	token := testutil.BrandToken(brand.ID)
	base := fmt.Sprintf("/api/v1/tasks/%s", task.ID)

	w := testutil.DoRequest(r, http.MethodPost, base+"/workflow/initialize", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("initialize: expected 200, got %d", w.Code)
	}

	// not_started阶段直接complete返回409/40901
	w = testutil.DoRequest(r, http.MethodPost, base+"/workflow/content_requirement/transition",
		map[string]string{"action": "complete"}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if code, _ := resp["code"].(float64); int(code) != 40901 {
		t.Errorf("expected business code 40901, got %v", resp["code"])
	}
}
