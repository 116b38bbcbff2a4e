package handler

import (
	"github.com/Xfluence-org/xfluence-app-sub002/internal/service"
	"github.com/gin-gonic/gin"
)

// TaskHandler 任务与工作流处理器
type TaskHandler struct {
	taskService       *service.TaskService
	workflowService   *service.WorkflowService
	visibilityService *service.VisibilityService
	activityService   *service.ActivityService
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(taskService *service.TaskService, workflowService *service.WorkflowService, visibilityService *service.VisibilityService, activityService *service.ActivityService) *TaskHandler {
	return &TaskHandler{
		taskService:       taskService,
		workflowService:   workflowService,
		visibilityService: visibilityService,
		activityService:   activityService,
	}
}

// Get 任务详情，包含三阶段状态
func (h *TaskHandler) Get(c *gin.Context) {
	detail, err := h.taskService.Get(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, detail)
}

// ListMine 我的任务列表（达人视角）
func (h *TaskHandler) ListMine(c *gin.Context) {
	tasks, err := h.taskService.ListMine(c.Request.Context(), GetUserID(c))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, tasks)
}

// GetWorkflow 获取任务工作流状态
func (h *TaskHandler) GetWorkflow(c *gin.Context) {
	states, err := h.workflowService.GetStates(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, states)
}

// InitializeWorkflow 初始化工作流
func (h *TaskHandler) InitializeWorkflow(c *gin.Context) {
	if err := h.workflowService.InitializeWorkflow(c.Request.Context(), c.Param("id"), GetActor(c)); err != nil {
		HandleServiceError(c, err)
		return
	}

	states, err := h.workflowService.GetStates(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, states)
}

// StartPhase 启动阶段
func (h *TaskHandler) StartPhase(c *gin.Context) {
	state, err := h.workflowService.StartPhase(c.Request.Context(), c.Param("id"), c.Param("phase"), GetActor(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, state)
}

// TransitionRequest 阶段流转请求
type TransitionRequest struct {
	Action string `json:"action" binding:"required"`
}

// TransitionPhase 阶段流转（完成或驳回）
func (h *TaskHandler) TransitionPhase(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	state, err := h.workflowService.TransitionPhase(c.Request.Context(), c.Param("id"), c.Param("phase"), req.Action, GetActor(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, state)
}

// ListTransitions 阶段流转历史
func (h *TaskHandler) ListTransitions(c *gin.Context) {
	transitions, err := h.workflowService.GetTransitions(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, transitions)
}

// VisiblePhases 当前角色可见的阶段
func (h *TaskHandler) VisiblePhases(c *gin.Context) {
	phases, err := h.visibilityService.VisiblePhases(c.Request.Context(), c.Param("id"), GetUserType(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, gin.H{"phases": phases})
}

// ListActivity 任务审计日志
func (h *TaskHandler) ListActivity(c *gin.Context) {
	logs, err := h.activityService.ListByTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, logs)
}
