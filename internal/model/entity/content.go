package entity

import (
	"time"
)

// ContentDraft 内容需求草稿（品牌方撰写，只追加，最新一条为当前版本）
type ContentDraft struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	TaskID    string     `json:"task_id" gorm:"size:32;not null;index"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	CreatedBy string     `json:"created_by" gorm:"size:32;not null"`
	Shared    bool       `json:"shared" gorm:"not null;default:false"`
	SharedAt  *time.Time `json:"shared_at"`
	CreatedAt time.Time  `json:"created_at"`

	// 关联
	Task    *Task `json:"task,omitempty" gorm:"foreignKey:TaskID"`
	Creator *User `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}

func (ContentDraft) TableName() string {
	return "content_drafts"
}

// ContentReview 内容审核记录（达人提交物料，品牌方审核决定，只追加）
type ContentReview struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	TaskID     string    `json:"task_id" gorm:"size:32;not null;index"`
	UploadID   string    `json:"upload_id" gorm:"size:32;not null"`
	Status     string    `json:"status" gorm:"size:16;not null"`
	Feedback   string    `json:"feedback" gorm:"type:text"`
	ReviewedBy string    `json:"reviewed_by" gorm:"size:32;not null"`
	CreatedAt  time.Time `json:"created_at"`

	// 关联
	Task     *Task   `json:"task,omitempty" gorm:"foreignKey:TaskID"`
	Upload   *Upload `json:"upload,omitempty" gorm:"foreignKey:UploadID"`
	Reviewer *User   `json:"reviewer,omitempty" gorm:"foreignKey:ReviewedBy"`
}

func (ContentReview) TableName() string {
	return "content_reviews"
}

// PublishedContent 已发布内容（每个任务每位达人一条，重复提交覆盖）
type PublishedContent struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	TaskID       string    `json:"task_id" gorm:"size:32;not null;uniqueIndex:uk_published_task_influencer"`
	InfluencerID string    `json:"influencer_id" gorm:"size:32;not null;uniqueIndex:uk_published_task_influencer"`
	URL          string    `json:"url" gorm:"size:512;not null"`
	Platform     string    `json:"platform" gorm:"size:32;not null"`
	Status       string    `json:"status" gorm:"size:16;not null;default:published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// 关联
	Task       *Task `json:"task,omitempty" gorm:"foreignKey:TaskID"`
	Influencer *User `json:"influencer,omitempty" gorm:"foreignKey:InfluencerID"`
}

func (PublishedContent) TableName() string {
	return "published_contents"
}

// Upload 达人上传的内容文件（对象存储引用）
type Upload struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	TaskID     string    `json:"task_id" gorm:"size:32;not null;index"`
	UploadedBy string    `json:"uploaded_by" gorm:"size:32;not null"`
	FileName   string    `json:"file_name" gorm:"size:256;not null"`
	FilePath   string    `json:"file_path" gorm:"size:512;not null"`
	FileSize   int64     `json:"file_size" gorm:"not null"`
	MimeType   string    `json:"mime_type" gorm:"size:128"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Upload) TableName() string {
	return "uploads"
}

// 内容审核决定
const (
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// 发布平台
const (
	PlatformInstagram   = "instagram"
	PlatformTikTok      = "tiktok"
	PlatformYouTube     = "youtube"
	PlatformWeibo       = "weibo"
	PlatformXiaohongshu = "xiaohongshu"
)

// 发布内容状态
const (
	PublishedStatusPublished = "published"
	PublishedStatusVerified  = "verified"
)
