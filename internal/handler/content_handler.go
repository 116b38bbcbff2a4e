package handler

import (
	"github.com/Xfluence-org/xfluence-app-sub002/internal/service"
	"github.com/gin-gonic/gin"
)

// ContentHandler 内容处理器，覆盖需求草稿、审核记录和发布内容
type ContentHandler struct {
	contentService *service.ContentService
}

// NewContentHandler 创建内容处理器
func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// CreateDraft 创建需求草稿
func (h *ContentHandler) CreateDraft(c *gin.Context) {
	var req service.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	draft, err := h.contentService.CreateDraft(c.Request.Context(), c.Param("id"), &req, GetActor(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Created(c, draft)
}

// ListDrafts 草稿列表，达人只能看到已共享的草稿
func (h *ContentHandler) ListDrafts(c *gin.Context) {
	drafts, err := h.contentService.ListDrafts(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, drafts)
}

// GetCurrentDraft 当前草稿
func (h *ContentHandler) GetCurrentDraft(c *gin.Context) {
	draft, err := h.contentService.GetCurrentDraft(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if draft == nil {
		NotFound(c, "no visible draft")
		return
	}

	Success(c, draft)
}

// ShareDraft 共享草稿给达人，并完成需求阶段
func (h *ContentHandler) ShareDraft(c *gin.Context) {
	draft, err := h.contentService.ShareDraft(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, draft)
}

// CreateReview 创建审核记录
func (h *ContentHandler) CreateReview(c *gin.Context) {
	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	review, err := h.contentService.CreateReview(c.Request.Context(), c.Param("id"), &req, GetActor(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Created(c, review)
}

// ListReviews 审核记录列表
func (h *ContentHandler) ListReviews(c *gin.Context) {
	reviews, err := h.contentService.ListReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, reviews)
}

// SubmitPublished 提交发布链接，重复提交覆盖旧记录
func (h *ContentHandler) SubmitPublished(c *gin.Context) {
	var req service.SubmitPublishedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	published, err := h.contentService.SubmitPublished(c.Request.Context(), c.Param("id"), &req, GetActor(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, published)
}

// GetPublished 获取发布内容
func (h *ContentHandler) GetPublished(c *gin.Context) {
	influencerID := c.Query("influencer_id")
	if influencerID == "" {
		influencerID = GetUserID(c)
	}

	published, err := h.contentService.GetPublished(c.Request.Context(), c.Param("id"), influencerID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if published == nil {
		NotFound(c, "published content not found")
		return
	}

	Success(c, published)
}
