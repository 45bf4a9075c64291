// Package repository 是任务与视频的持久化层。工作流只依赖 Repository 接口，
// 与具体数据库无关；GormRepository 同时支持 postgres 和 sqlite。
package repository

import (
	"context"
	"errors"
	"time"

	"yt-transcripts/app/model"

	"gorm.io/gorm"
)

// Page 分页参数，Number 从 1 开始
type Page struct {
	Number int
	Size   int
}

func (p Page) offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// VideoFilter 视频列表过滤条件，零值表示不过滤
type VideoFilter struct {
	JobID             uint
	TranscriptFetched *bool
}

// Repository 持久化网关
type Repository interface {
	// UpsertJob 为播放列表创建 processing 状态的任务。已有未完成任务时返回
	// model.ErrDuplicateInFlight；已有结束的任务时先删除它及其视频和字幕，再创建新任务。
	UpsertJob(ctx context.Context, playlistID string) (*model.PlaylistSearchJob, error)
	GetJob(ctx context.Context, id uint) (*model.PlaylistSearchJob, error)
	GetJobWithVideos(ctx context.Context, id uint) (*model.PlaylistSearchJob, error)
	FindJobByPlaylistID(ctx context.Context, playlistID string) (*model.PlaylistSearchJob, error)
	ListJobs(ctx context.Context, page Page) ([]model.PlaylistSearchJob, int64, error)
	RecentJobs(ctx context.Context, limit int) ([]model.PlaylistSearchJob, error)
	CountJobsByStatus(ctx context.Context) (map[model.JobStatus]int64, error)
	SetJobTitle(ctx context.Context, id uint, title string) error
	CompleteJob(ctx context.Context, id uint, videoCount int, at time.Time) error
	FailJob(ctx context.Context, id uint, message string) error
	FailStaleJobs(ctx context.Context, before time.Time, message string) (int64, error)
	DeleteJob(ctx context.Context, id uint) error

	// AddVideos 在一个事务内写入某任务的一页视频，video_id 已存在的跳过，返回新写入的条数
	AddVideos(ctx context.Context, jobID uint, videos []model.VideoRecord) (int, error)
	GetVideo(ctx context.Context, id uint) (*model.VideoRecord, error)
	FindVideoByVideoID(ctx context.Context, videoID string) (*model.VideoRecord, error)
	ListVideos(ctx context.Context, filter VideoFilter, page Page) ([]model.VideoRecord, int64, error)
	JobVideos(ctx context.Context, jobID uint) ([]model.VideoRecord, error)
	CountJobVideos(ctx context.Context, jobID uint) (int64, error)
	MarkTranscriptFetched(ctx context.Context, id uint) error
	ReplaceTranscript(ctx context.Context, videoID string, lines []model.TranscriptLine) error
	TranscriptLines(ctx context.Context, videoID string) ([]model.TranscriptLine, error)
}

// GormRepository 基于 gorm 的 Repository 实现
type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

// New 创建 gorm 仓储
func New(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// translate 把 gorm 的记录不存在错误转换为 model.ErrNotFound
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrNotFound
	}
	return err
}
