package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CampaignService 活动服务
type CampaignService struct {
	campaignRepo *repository.CampaignRepository
	taskRepo     *repository.TaskRepository
	userRepo     *repository.UserRepository
	workflow     *WorkflowService
	activity     *ActivityService
	rdb          *redis.Client
}

// NewCampaignService 创建活动服务
func NewCampaignService(
	campaignRepo *repository.CampaignRepository,
	taskRepo *repository.TaskRepository,
	userRepo *repository.UserRepository,
	workflow *WorkflowService,
	activity *ActivityService,
	rdb *redis.Client,
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		taskRepo:     taskRepo,
		userRepo:     userRepo,
		workflow:     workflow,
		activity:     activity,
		rdb:          rdb,
	}
}

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	Name         string  `json:"name" binding:"required"`
	Brief        string  `json:"brief"`
	Budget       float64 `json:"budget"`
	PlannedStart string  `json:"planned_start"`
	PlannedEnd   string  `json:"planned_end"`
}

// UpdateCampaignRequest 更新活动请求
type UpdateCampaignRequest struct {
	Name   string  `json:"name"`
	Brief  string  `json:"brief"`
	Budget float64 `json:"budget"`
	Status string  `json:"status"`
}

// AssignInfluencerRequest 分配达人请求
type AssignInfluencerRequest struct {
	InfluencerID string `json:"influencer_id" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
}

// CampaignListResult 活动列表结果
type CampaignListResult struct {
	Items      []entity.Campaign `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// List 获取活动列表
func (s *CampaignService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) (*CampaignListResult, error) {
	campaigns, total, err := s.campaignRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &CampaignListResult{
		Items:      campaigns,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Get 获取活动详情
func (s *CampaignService) Get(ctx context.Context, id string) (*entity.Campaign, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return campaign, nil
}

// Create 创建活动
func (s *CampaignService) Create(ctx context.Context, brandID string, req *CreateCampaignRequest) (*entity.Campaign, error) {
	code, err := s.campaignRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	now := time.Now()
	campaign := &entity.Campaign{
		ID:        uuid.New().String()[:32],
		Code:      code,
		BrandID:   brandID,
		Name:      req.Name,
		Brief:     req.Brief,
		Budget:    req.Budget,
		Status:    entity.CampaignStatusDraft,
		CreatedBy: brandID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if start, err := time.Parse("2006-01-02", req.PlannedStart); err == nil {
		campaign.PlannedStart = &start
	}
	if end, err := time.Parse("2006-01-02", req.PlannedEnd); err == nil {
		campaign.PlannedEnd = &end
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	return campaign, nil
}

// Update 更新活动
func (s *CampaignService) Update(ctx context.Context, id string, req *UpdateCampaignRequest) (*entity.Campaign, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find campaign: %w", err)
	}

	if campaign.Status == entity.CampaignStatusArchived {
		return nil, fmt.Errorf("archived campaign cannot be updated")
	}

	if req.Name != "" {
		campaign.Name = req.Name
	}
	if req.Brief != "" {
		campaign.Brief = req.Brief
	}
	if req.Budget > 0 {
		campaign.Budget = req.Budget
	}
	if req.Status != "" {
		campaign.Status = req.Status
	}

	campaign.UpdatedAt = time.Now()

	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}

	s.invalidateStats(ctx, id)
	return campaign, nil
}

// Delete 归档删除活动
func (s *CampaignService) Delete(ctx context.Context, id string) error {
	if _, err := s.campaignRepo.FindByID(ctx, id); err != nil {
		return fmt.Errorf("find campaign: %w", err)
	}
	if err := s.campaignRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	s.invalidateStats(ctx, id)
	return nil
}

// AssignInfluencer 将达人分配到活动，创建任务并初始化其工作流
func (s *CampaignService) AssignInfluencer(ctx context.Context, campaignID string, req *AssignInfluencerRequest, actor Actor) (*entity.Task, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("find campaign: %w", err)
	}

	influencer, err := s.userRepo.FindByID(ctx, req.InfluencerID)
	if err != nil {
		return nil, fmt.Errorf("find influencer: %w", err)
	}
	if influencer.UserType != entity.UserTypeInfluencer {
		return nil, fmt.Errorf("user %s is not an influencer", req.InfluencerID)
	}

	// 同一活动同一达人只能有一个任务
	if existing, err := s.taskRepo.FindByCampaignInfluencer(ctx, campaignID, req.InfluencerID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find existing task: %w", err)
	}

	now := time.Now()
	task := &entity.Task{
		ID:           uuid.New().String()[:32],
		CampaignID:   campaignID,
		InfluencerID: req.InfluencerID,
		Title:        req.Title,
		Description:  req.Description,
		Status:       entity.TaskStatusActive,
		Progress:     0,
		CreatedBy:    actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	if err := s.workflow.InitializeWorkflow(ctx, task.ID, actor); err != nil {
		return nil, fmt.Errorf("initialize workflow: %w", err)
	}

	s.invalidateStats(ctx, campaign.ID)
	return s.taskRepo.FindByID(ctx, task.ID)
}

// CampaignStats 活动统计
type CampaignStats struct {
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	AvgProgress    int `json:"avg_progress"`
}

// statsCacheTTL 统计缓存过期时间，兜底任务进度变化后的缓存漂移
const statsCacheTTL = 5 * time.Minute

func statsCacheKey(campaignID string) string {
	return "campaigns:stats:" + campaignID
}

// GetStats 获取活动统计，redis读穿透缓存，未命中时从任务表聚合
func (s *CampaignService) GetStats(ctx context.Context, campaignID string) (*CampaignStats, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, statsCacheKey(campaignID)).Result(); err == nil {
			var stats CampaignStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	tasks, err := s.taskRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	stats := &CampaignStats{TotalTasks: len(tasks)}
	sum := 0
	for _, t := range tasks {
		sum += t.Progress
		if t.Status == entity.TaskStatusCompleted {
			stats.CompletedTasks++
		}
	}
	if len(tasks) > 0 {
		stats.AvgProgress = sum / len(tasks)
	}

	if s.rdb != nil {
		if data, err := json.Marshal(stats); err == nil {
			s.rdb.Set(ctx, statsCacheKey(campaignID), data, statsCacheTTL)
		}
	}
	return stats, nil
}

func (s *CampaignService) invalidateStats(ctx context.Context, campaignID string) {
	if s.rdb != nil {
		s.rdb.Del(ctx, statsCacheKey(campaignID))
	}
}
