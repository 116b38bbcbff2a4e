package service

import (
	"github.com/Xfluence-org/xfluence-app-sub002/internal/config"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Auth       *AuthService
	Campaign   *CampaignService
	Task       *TaskService
	Workflow   *WorkflowService
	Visibility *VisibilityService
	Content    *ContentService
	Activity   *ActivityService
	Upload     *UploadService
	Report     *ReportService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, logger *zap.Logger, cfg *config.Config) *Services {
	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio unavailable, uploads disabled", zap.Error(err))
			minioClient = nil
		}
	}

	activity := NewActivityService(repos.Activity, logger)
	workflow := NewWorkflowService(repos.Workflow, repos.Task, activity, logger, cfg.Workflow.StoreTimeout)
	visibility := NewVisibilityService(repos.Workflow, repos.Draft)
	content := NewContentService(repos.Draft, repos.Review, repos.Published, repos.Task, workflow, visibility, activity, logger)

	return &Services{
		Auth:       NewAuthService(repos.User, rdb, cfg),
		Campaign:   NewCampaignService(repos.Campaign, repos.Task, repos.User, workflow, activity, rdb),
		Task:       NewTaskService(repos.Task, workflow, visibility),
		Workflow:   workflow,
		Visibility: visibility,
		Content:    content,
		Activity:   activity,
		Upload:     NewUploadService(repos.Upload, repos.Task, minioClient, cfg.MinIO.Bucket),
		Report:     NewReportService(repos.Campaign, repos.Task, repos.Workflow, repos.Activity),
	}
}
