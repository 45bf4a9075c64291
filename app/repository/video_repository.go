package repository

import (
	"context"
	"time"

	"yt-transcripts/app/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GormRepository) AddVideos(ctx context.Context, jobID uint, videos []model.VideoRecord) (int, error) {
	inserted := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job model.PlaylistSearchJob
		if err := tx.Select("id").First(&job, jobID).Error; err != nil {
			return translate(err)
		}
		// 刷新 updated_at，分页中的任务不会被当作中断任务清理
		if err := tx.Model(&job).UpdateColumn("updated_at", time.Now()).Error; err != nil {
			return err
		}
		if len(videos) == 0 {
			return nil
		}

		for i := range videos {
			videos[i].ID = 0
			videos[i].PlaylistJobID = jobID
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "video_id"}},
			DoNothing: true,
		}).Create(&videos)
		if result.Error != nil {
			return result.Error
		}
		inserted = int(result.RowsAffected)
		return nil
	})
	return inserted, err
}

func (r *GormRepository) GetVideo(ctx context.Context, id uint) (*model.VideoRecord, error) {
	var video model.VideoRecord
	if err := r.db.WithContext(ctx).First(&video, id).Error; err != nil {
		return nil, translate(err)
	}
	return &video, nil
}

func (r *GormRepository) FindVideoByVideoID(ctx context.Context, videoID string) (*model.VideoRecord, error) {
	var video model.VideoRecord
	if err := r.db.WithContext(ctx).Where("video_id = ?", videoID).First(&video).Error; err != nil {
		return nil, translate(err)
	}
	return &video, nil
}

func (r *GormRepository) ListVideos(ctx context.Context, filter VideoFilter, page Page) ([]model.VideoRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.VideoRecord{})
	if filter.JobID != 0 {
		query = query.Where("playlist_job_id = ?", filter.JobID)
	}
	if filter.TranscriptFetched != nil {
		query = query.Where("transcript_fetched = ?", *filter.TranscriptFetched)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var videos []model.VideoRecord
	if err := query.Order("id ASC").Offset(page.offset()).Limit(page.Size).Find(&videos).Error; err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// JobVideos 按写入顺序（即播放列表顺序）返回任务的全部视频
func (r *GormRepository) JobVideos(ctx context.Context, jobID uint) ([]model.VideoRecord, error) {
	var videos []model.VideoRecord
	err := r.db.WithContext(ctx).Where("playlist_job_id = ?", jobID).Order("id ASC").Find(&videos).Error
	return videos, err
}

func (r *GormRepository) CountJobVideos(ctx context.Context, jobID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.VideoRecord{}).Where("playlist_job_id = ?", jobID).Count(&count).Error
	return count, err
}

// MarkTranscriptFetched 只会把标记置为 true
func (r *GormRepository) MarkTranscriptFetched(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&model.VideoRecord{}).
		Where("id = ?", id).
		Update("transcript_fetched", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ReplaceTranscript 用新抓取的字幕替换视频已保存的字幕
func (r *GormRepository) ReplaceTranscript(ctx context.Context, videoID string, lines []model.TranscriptLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var video model.VideoRecord
		if err := tx.Select("id").Where("video_id = ?", videoID).First(&video).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("video_id = ?", videoID).Delete(&model.TranscriptLine{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		for i := range lines {
			lines[i].ID = 0
			lines[i].VideoID = videoID
		}
		return tx.CreateInBatches(&lines, 200).Error
	})
}

func (r *GormRepository) TranscriptLines(ctx context.Context, videoID string) ([]model.TranscriptLine, error) {
	var lines []model.TranscriptLine
	err := r.db.WithContext(ctx).Where("video_id = ?", videoID).Order("start_time ASC, id ASC").Find(&lines).Error
	return lines, err
}
