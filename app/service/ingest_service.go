package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yt-transcripts/app/logger"
	"yt-transcripts/app/model"
	"yt-transcripts/app/repository"
	"yt-transcripts/app/youtube"

	"go.uber.org/zap"
)

// PlaylistNotFoundMessage 播放列表不存在时写入任务的错误信息
const PlaylistNotFoundMessage = "Playlist not found"

// PlaylistSource 播放列表元数据来源
type PlaylistSource interface {
	PlaylistTitle(ctx context.Context, playlistID string) (string, error)
	PlaylistPage(ctx context.Context, playlistID, pageToken string) ([]youtube.PlaylistItem, string, error)
}

// IngestService 播放列表抓取工作流
type IngestService struct {
	repo   repository.Repository
	source PlaylistSource
	log    *logger.Logger
	now    func() time.Time
}

// NewIngestService 创建抓取服务
func NewIngestService(repo repository.Repository, source PlaylistSource, log *logger.Logger) *IngestService {
	return &IngestService{
		repo:   repo,
		source: source,
		log:    log.Named("ingest"),
		now:    time.Now,
	}
}

// Search 为播放列表创建任务并同步抓取全部视频。
//
// 已有未完成任务时返回 model.ErrDuplicateInFlight 且不创建新任务。
// 任务一旦创建，返回值总是带着任务：播放列表不存在时任务为 failed 且错误
// 包装 youtube.ErrPlaylistNotFound；其他失败时任务为 failed，错误原样返回。
// 失败前已写入的视频保留。
func (s *IngestService) Search(ctx context.Context, playlistID string) (*model.PlaylistSearchJob, error) {
	job, err := s.repo.UpsertJob(ctx, playlistID)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateInFlight) {
			s.log.Info("播放列表已在处理中", zap.String("playlist_id", playlistID))
		}
		return nil, err
	}
	s.log.Info("任务已创建", zap.Uint("job_id", job.ID), zap.String("playlist_id", playlistID))

	if err := s.run(ctx, job); err != nil {
		message := err.Error()
		if errors.Is(err, youtube.ErrPlaylistNotFound) {
			message = PlaylistNotFoundMessage
		}
		s.log.Warn("任务失败", zap.Uint("job_id", job.ID), zap.Error(err))
		if ferr := s.repo.FailJob(context.WithoutCancel(ctx), job.ID, message); ferr != nil {
			s.log.Error("标记任务失败时出错", zap.Uint("job_id", job.ID), zap.Error(ferr))
		}
		return s.reload(ctx, job), err
	}

	return s.reload(ctx, job), nil
}

func (s *IngestService) run(ctx context.Context, job *model.PlaylistSearchJob) error {
	title, err := s.source.PlaylistTitle(ctx, job.PlaylistID)
	if err != nil {
		return err
	}
	if err := s.repo.SetJobTitle(ctx, job.ID, title); err != nil {
		return fmt.Errorf("保存播放列表标题失败: %w", err)
	}
	s.log.Info("播放列表标题", zap.Uint("job_id", job.ID), zap.String("title", title))

	token := ""
	for page := 1; ; page++ {
		items, next, err := s.source.PlaylistPage(ctx, job.PlaylistID, token)
		if err != nil {
			return err
		}

		videos := make([]model.VideoRecord, 0, len(items))
		for _, item := range items {
			if item.VideoID == "" {
				continue
			}
			videos = append(videos, model.VideoRecord{
				VideoID:     item.VideoID,
				Title:       item.Title,
				ChannelName: item.ChannelName,
			})
		}
		inserted, err := s.repo.AddVideos(ctx, job.ID, videos)
		if err != nil {
			return fmt.Errorf("保存视频失败: %w", err)
		}
		s.log.Info("已读取一页视频",
			zap.Uint("job_id", job.ID),
			zap.Int("page", page),
			zap.Int("items", len(items)),
			zap.Int("inserted", inserted),
			zap.Bool("has_next", next != ""),
		)

		if next == "" {
			break
		}
		token = next
	}

	count, err := s.repo.CountJobVideos(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("统计视频数量失败: %w", err)
	}
	if err := s.repo.CompleteJob(ctx, job.ID, int(count), s.now()); err != nil {
		return fmt.Errorf("完成任务失败: %w", err)
	}
	s.log.Info("任务完成", zap.Uint("job_id", job.ID), zap.Int64("video_count", count))
	return nil
}

// reload 读取任务最新状态，读取失败时退回内存中的副本
func (s *IngestService) reload(ctx context.Context, job *model.PlaylistSearchJob) *model.PlaylistSearchJob {
	fresh, err := s.repo.GetJob(context.WithoutCancel(ctx), job.ID)
	if err != nil {
		return job
	}
	return fresh
}
