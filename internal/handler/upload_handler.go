package handler

import (
	"fmt"
	"io"
	"net/url"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/service"
	"github.com/gin-gonic/gin"
)

// UploadHandler 文件上传处理器
type UploadHandler struct {
	uploadService *service.UploadService
}

// NewUploadHandler 创建文件上传处理器
func NewUploadHandler(uploadService *service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload 上传内容文件
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	upload, err := h.uploadService.Upload(c.Request.Context(), c.Param("id"), GetActor(c), fileHeader.Filename, file, fileHeader.Size, mimeType)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Created(c, upload)
}

// ListByTask 任务文件列表
func (h *UploadHandler) ListByTask(c *gin.Context) {
	uploads, err := h.uploadService.ListByTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, uploads)
}

// Download 下载文件
func (h *UploadHandler) Download(c *gin.Context) {
	reader, upload, err := h.uploadService.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Type", upload.MimeType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.QueryEscape(upload.FileName)))
	if upload.FileSize > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", upload.FileSize))
	}

	if _, err := io.Copy(c.Writer, reader); err != nil {
		return
	}
}
