package service

import (
	"context"
	"fmt"

	"yt-transcripts/app/config"
	"yt-transcripts/app/logger"
	"yt-transcripts/app/model"
	"yt-transcripts/app/repository"
	"yt-transcripts/app/utils/retry"
	"yt-transcripts/app/youtube"

	"go.uber.org/zap"
)

// TranscriptSource 字幕来源
type TranscriptSource interface {
	FetchTranscript(ctx context.Context, videoID string) ([]youtube.Segment, error)
}

// FetchResult 批量抓取的统计
type FetchResult struct {
	Fetched int `json:"fetched"`
	Failed  int `json:"failed"`
}

// FetchOptions 批量抓取选项
type FetchOptions struct {
	StoreLines bool // 同时保存字幕文本
}

// TranscriptService 字幕抓取工作流
type TranscriptService struct {
	repo   repository.Repository
	source TranscriptSource
	log    *logger.Logger
	batch  retry.Policy
	single retry.Policy
	sleep  retry.Sleeper
}

// NewTranscriptService 按配置的重试次数和间隔创建服务，sleep 为 nil 时真实等待
func NewTranscriptService(repo repository.Repository, source TranscriptSource, cfg config.FetchConfig, sleep retry.Sleeper, log *logger.Logger) *TranscriptService {
	if sleep == nil {
		sleep = retry.Sleep
	}
	return &TranscriptService{
		repo:   repo,
		source: source,
		log:    log.Named("transcript"),
		batch: retry.Policy{
			MaxAttempts: cfg.BatchAttempts,
			Delay:       cfg.RetryDelay,
			Retryable:   youtube.IsRetryable,
		},
		single: retry.Policy{
			MaxAttempts: cfg.SingleAttempts,
			Delay:       cfg.RetryDelay,
			Retryable:   youtube.IsRetryable,
		},
		sleep: sleep,
	}
}

// FetchJob 依次抓取任务下每个视频的字幕。单个视频的失败只计数，不会中断批次；
// 只有任务不存在或读取视频列表失败时返回错误。
func (s *TranscriptService) FetchJob(ctx context.Context, jobID uint, opts FetchOptions) (FetchResult, error) {
	var result FetchResult

	if _, err := s.repo.GetJob(ctx, jobID); err != nil {
		return result, err
	}
	videos, err := s.repo.JobVideos(ctx, jobID)
	if err != nil {
		return result, fmt.Errorf("读取任务视频失败: %w", err)
	}
	s.log.Info("开始批量抓取字幕", zap.Uint("job_id", jobID), zap.Int("videos", len(videos)))

	for i := range videos {
		video := &videos[i]
		if err := s.fetchOne(ctx, video, s.batch, opts.StoreLines); err != nil {
			result.Failed++
			s.log.Warn("字幕抓取失败",
				zap.Uint("job_id", jobID),
				zap.String("video_id", video.VideoID),
				zap.Error(err),
			)
			continue
		}
		result.Fetched++
	}

	s.log.Info("批量抓取完成",
		zap.Uint("job_id", jobID),
		zap.Int("fetched", result.Fetched),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// FetchVideo 抓取单个视频的字幕并返回该视频。视频不存在时返回 model.ErrNotFound，
// 字幕永久不可用时错误满足 youtube.IsPermanent。
func (s *TranscriptService) FetchVideo(ctx context.Context, id uint) (*model.VideoRecord, error) {
	video, err := s.repo.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.fetchOne(ctx, video, s.single, false); err != nil {
		s.log.Warn("字幕抓取失败", zap.String("video_id", video.VideoID), zap.Error(err))
		return video, err
	}
	return video, nil
}

func (s *TranscriptService) fetchOne(ctx context.Context, video *model.VideoRecord, policy retry.Policy, storeLines bool) error {
	segments, attempts, err := retry.Do(ctx, policy, s.sleep, func(attempt int) ([]youtube.Segment, error) {
		segments, err := s.source.FetchTranscript(ctx, video.VideoID)
		if err != nil && attempt < policy.MaxAttempts && youtube.IsRetryable(err) {
			s.log.Debug("字幕抓取重试",
				zap.String("video_id", video.VideoID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return segments, err
	})
	if err != nil {
		return fmt.Errorf("%d 次尝试后放弃: %w", attempts, err)
	}

	if storeLines {
		lines := make([]model.TranscriptLine, 0, len(segments))
		for _, seg := range segments {
			lines = append(lines, model.TranscriptLine{
				VideoID:   video.VideoID,
				Text:      seg.Text,
				StartTime: seg.Start,
				Duration:  seg.Duration,
			})
		}
		if err := s.repo.ReplaceTranscript(ctx, video.VideoID, lines); err != nil {
			return fmt.Errorf("保存字幕失败: %w", err)
		}
	}

	if err := s.repo.MarkTranscriptFetched(ctx, video.ID); err != nil {
		return fmt.Errorf("更新视频状态失败: %w", err)
	}
	video.TranscriptFetched = true
	return nil
}
