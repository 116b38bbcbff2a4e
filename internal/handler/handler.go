package handler

import (
	"errors"
	"strconv"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/config"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/repository"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/service"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Auth     *AuthHandler
	Campaign *CampaignHandler
	Task     *TaskHandler
	Content  *ContentHandler
	Upload   *UploadHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:     NewAuthHandler(svc.Auth, cfg),
		Campaign: NewCampaignHandler(svc.Campaign, svc.Task, svc.Activity, svc.Report),
		Task:     NewTaskHandler(svc.Task, svc.Workflow, svc.Visibility, svc.Activity),
		Content:  NewContentHandler(svc.Content),
		Upload:   NewUploadHandler(svc.Upload),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleServiceError 按错误分类返回响应
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownPhase):
		Error(c, 40001, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		Error(c, 40900, err.Error())
	case errors.Is(err, service.ErrOutOfOrder):
		Error(c, 40901, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetUserType 从上下文获取用户类型
func GetUserType(c *gin.Context) string {
	userType, _ := c.Get("user_type")
	if t, ok := userType.(string); ok {
		return t
	}
	return ""
}

// GetActor 从上下文构造当前操作者
func GetActor(c *gin.Context) service.Actor {
	actorType := GetUserType(c)
	// 审计日志的操作者类型只有brand/influencer/system三种
	if actorType == entity.UserTypeAdmin {
		actorType = entity.ActorTypeSystem
	}
	return service.Actor{
		ID:   GetUserID(c),
		Type: actorType,
	}
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
