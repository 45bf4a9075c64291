package model

import (
	"time"
)

// JobStatus 播放列表任务状态
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// AllJobStatuses 按生命周期顺序列出全部状态
var AllJobStatuses = []JobStatus{JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed}

// InFlightStatuses 未结束的状态，同一播放列表同时最多一个
var InFlightStatuses = []JobStatus{JobStatusPending, JobStatusProcessing}

// IsTerminal 是否为终止状态
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// PlaylistSearchJob 播放列表抓取任务
type PlaylistSearchJob struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	PlaylistID    string     `gorm:"size:100;not null;uniqueIndex" json:"playlist_id"`
	PlaylistTitle *string    `gorm:"size:255" json:"playlist_title"`
	VideoCount    int        `gorm:"not null;default:0" json:"video_count"`
	Status        JobStatus  `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ErrorMessage  string     `gorm:"type:text" json:"error_message"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at"`

	// 关联关系
	Videos []VideoRecord `gorm:"foreignKey:PlaylistJobID;constraint:OnDelete:CASCADE" json:"videos,omitempty"`
}

// TableName 指定表名
func (PlaylistSearchJob) TableName() string {
	return "playlist_search_jobs"
}

// DisplayName 有标题时显示标题，否则显示播放列表ID
func (j *PlaylistSearchJob) DisplayName() string {
	if j.PlaylistTitle != nil && *j.PlaylistTitle != "" {
		return *j.PlaylistTitle
	}
	return j.PlaylistID
}
