package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// UploadService 内容文件上传服务，文件存储在MinIO
type UploadService struct {
	uploadRepo  *repository.UploadRepository
	taskRepo    *repository.TaskRepository
	minioClient *minio.Client
	bucketName  string
}

// NewUploadService 创建上传服务
func NewUploadService(
	uploadRepo *repository.UploadRepository,
	taskRepo *repository.TaskRepository,
	minioClient *minio.Client,
	bucketName string,
) *UploadService {
	return &UploadService{
		uploadRepo:  uploadRepo,
		taskRepo:    taskRepo,
		minioClient: minioClient,
		bucketName:  bucketName,
	}
}

// Upload 上传内容文件并登记记录
func (s *UploadService) Upload(ctx context.Context, taskID string, actor Actor, fileName string, reader io.Reader, fileSize int64, mimeType string) (*entity.Upload, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	if task.InfluencerID != actor.ID {
		return nil, fmt.Errorf("task is not assigned to actor %s", actor.ID)
	}

	id := uuid.New().String()[:32]
	objectName := fmt.Sprintf("uploads/%s/%s%s", taskID, id, filepath.Ext(fileName))

	if s.minioClient != nil {
		_, err = s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, fileSize, minio.PutObjectOptions{
			ContentType: mimeType,
		})
		if err != nil {
			return nil, fmt.Errorf("upload to storage: %w", err)
		}
	}

	upload := &entity.Upload{
		ID:         id,
		TaskID:     taskID,
		UploadedBy: actor.ID,
		FileName:   fileName,
		FilePath:   objectName,
		FileSize:   fileSize,
		MimeType:   mimeType,
		CreatedAt:  time.Now(),
	}
	if err := s.uploadRepo.Create(ctx, upload); err != nil {
		return nil, fmt.Errorf("create upload record: %w", err)
	}

	return upload, nil
}

// Download 获取上传文件的读取流
func (s *UploadService) Download(ctx context.Context, uploadID string) (io.ReadCloser, *entity.Upload, error) {
	upload, err := s.uploadRepo.FindByID(ctx, uploadID)
	if err != nil {
		return nil, nil, fmt.Errorf("find upload: %w", err)
	}

	if s.minioClient == nil {
		return nil, nil, fmt.Errorf("object storage not configured")
	}

	obj, err := s.minioClient.GetObject(ctx, s.bucketName, upload.FilePath, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}

	return obj, upload, nil
}

// ListByTask 获取任务的上传记录
func (s *UploadService) ListByTask(ctx context.Context, taskID string) ([]entity.Upload, error) {
	return s.uploadRepo.ListByTask(ctx, taskID)
}
