package handler

import (
	"fmt"
	"net/url"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/service"
	"github.com/gin-gonic/gin"
)

// CampaignHandler 活动处理器
type CampaignHandler struct {
	campaignService *service.CampaignService
	taskService     *service.TaskService
	activityService *service.ActivityService
	reportService   *service.ReportService
}

// NewCampaignHandler 创建活动处理器
func NewCampaignHandler(campaignService *service.CampaignService, taskService *service.TaskService, activityService *service.ActivityService, reportService *service.ReportService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		taskService:     taskService,
		activityService: activityService,
		reportService:   reportService,
	}
}

// List 活动列表
func (h *CampaignHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if brandID := c.Query("brand_id"); brandID != "" {
		filters["brand_id"] = brandID
	}
	if keyword := c.Query("keyword"); keyword != "" {
		filters["keyword"] = keyword
	}

	result, err := h.campaignService.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, result)
}

// Create 创建活动
func (h *CampaignHandler) Create(c *gin.Context) {
	var req service.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	campaign, err := h.campaignService.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Created(c, campaign)
}

// Get 活动详情
func (h *CampaignHandler) Get(c *gin.Context) {
	campaign, err := h.campaignService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, campaign)
}

// Update 更新活动
func (h *CampaignHandler) Update(c *gin.Context) {
	var req service.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	campaign, err := h.campaignService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, campaign)
}

// Delete 删除活动
func (h *CampaignHandler) Delete(c *gin.Context) {
	if err := h.campaignService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, nil)
}

// AssignInfluencer 分配达人并生成任务
func (h *CampaignHandler) AssignInfluencer(c *gin.Context) {
	var req service.AssignInfluencerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	task, err := h.campaignService.AssignInfluencer(c.Request.Context(), c.Param("id"), &req, GetActor(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Created(c, task)
}

// ListTasks 活动任务列表
func (h *CampaignHandler) ListTasks(c *gin.Context) {
	tasks, err := h.taskService.ListByCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, tasks)
}

// Stats 活动统计
func (h *CampaignHandler) Stats(c *gin.Context) {
	stats, err := h.campaignService.GetStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, stats)
}

// ListActivity 活动审计日志
func (h *CampaignHandler) ListActivity(c *gin.Context) {
	page, pageSize := GetPagination(c)

	result, err := h.activityService.ListByCampaign(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, result)
}

// ExportReport 导出活动报表
func (h *CampaignHandler) ExportReport(c *gin.Context) {
	f, fileName, err := h.reportService.ExportCampaignReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.QueryEscape(fileName)))

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, err.Error())
		return
	}
}
