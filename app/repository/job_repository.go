package repository

import (
	"context"
	"errors"
	"time"

	"yt-transcripts/app/model"

	"gorm.io/gorm"
)

func (r *GormRepository) UpsertJob(ctx context.Context, playlistID string) (*model.PlaylistSearchJob, error) {
	var job model.PlaylistSearchJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("playlist_id = ?", playlistID).First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			job = model.PlaylistSearchJob{
				PlaylistID: playlistID,
				Status:     model.JobStatusProcessing,
			}
			return tx.Create(&job).Error
		}
		if err != nil {
			return err
		}
		if !job.Status.IsTerminal() {
			return model.ErrDuplicateInFlight
		}

		// 结束的任务连同视频和字幕一起删除，重新搜索从空任务开始
		if err := deleteJobTx(tx, &job); err != nil {
			return err
		}
		job = model.PlaylistSearchJob{
			PlaylistID: playlistID,
			Status:     model.JobStatusProcessing,
		}
		return tx.Create(&job).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 并发请求抢先创建了同一播放列表的任务
		return nil, model.ErrDuplicateInFlight
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *GormRepository) GetJob(ctx context.Context, id uint) (*model.PlaylistSearchJob, error) {
	var job model.PlaylistSearchJob
	if err := r.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (r *GormRepository) GetJobWithVideos(ctx context.Context, id uint) (*model.PlaylistSearchJob, error) {
	var job model.PlaylistSearchJob
	err := r.db.WithContext(ctx).
		Preload("Videos", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&job, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (r *GormRepository) FindJobByPlaylistID(ctx context.Context, playlistID string) (*model.PlaylistSearchJob, error) {
	var job model.PlaylistSearchJob
	if err := r.db.WithContext(ctx).Where("playlist_id = ?", playlistID).First(&job).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (r *GormRepository) ListJobs(ctx context.Context, page Page) ([]model.PlaylistSearchJob, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.PlaylistSearchJob{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []model.PlaylistSearchJob
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(page.offset()).
		Limit(page.Size).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (r *GormRepository) RecentJobs(ctx context.Context, limit int) ([]model.PlaylistSearchJob, error) {
	var jobs []model.PlaylistSearchJob
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}

func (r *GormRepository) CountJobsByStatus(ctx context.Context) (map[model.JobStatus]int64, error) {
	counts := make(map[model.JobStatus]int64, len(model.AllJobStatuses))
	for _, s := range model.AllJobStatuses {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.PlaylistSearchJob{}).Where("status = ?", s).Count(&count).Error; err != nil {
			return nil, err
		}
		counts[s] = count
	}
	return counts, nil
}

func (r *GormRepository) SetJobTitle(ctx context.Context, id uint, title string) error {
	return r.updateInFlight(ctx, id, map[string]any{"playlist_title": title})
}

func (r *GormRepository) CompleteJob(ctx context.Context, id uint, videoCount int, at time.Time) error {
	return r.updateInFlight(ctx, id, map[string]any{
		"status":       model.JobStatusCompleted,
		"video_count":  videoCount,
		"completed_at": at,
	})
}

func (r *GormRepository) FailJob(ctx context.Context, id uint, message string) error {
	return r.updateInFlight(ctx, id, map[string]any{
		"status":        model.JobStatusFailed,
		"error_message": message,
	})
}

// updateInFlight 只修改未结束的任务。没有命中时区分任务不存在和任务已结束
func (r *GormRepository) updateInFlight(ctx context.Context, id uint, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&model.PlaylistSearchJob{}).
		Where("id = ? AND status IN ?", id, model.InFlightStatuses).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if _, err := r.GetJob(ctx, id); err != nil {
		return err
	}
	return model.ErrJobFinished
}

func (r *GormRepository) FailStaleJobs(ctx context.Context, before time.Time, message string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.PlaylistSearchJob{}).
		Where("status IN ? AND updated_at < ?", model.InFlightStatuses, before).
		Updates(map[string]any{
			"status":        model.JobStatusFailed,
			"error_message": message,
		})
	return result.RowsAffected, result.Error
}

// DeleteJob 删除任务及其视频和字幕
func (r *GormRepository) DeleteJob(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job model.PlaylistSearchJob
		if err := tx.First(&job, id).Error; err != nil {
			return translate(err)
		}
		return deleteJobTx(tx, &job)
	})
}

func deleteJobTx(tx *gorm.DB, job *model.PlaylistSearchJob) error {
	videoIDs := tx.Model(&model.VideoRecord{}).Select("video_id").Where("playlist_job_id = ?", job.ID)
	if err := tx.Where("video_id IN (?)", videoIDs).Delete(&model.TranscriptLine{}).Error; err != nil {
		return err
	}
	if err := tx.Where("video_id IN (?)", videoIDs).Delete(&model.TranscriptEnrichment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("playlist_job_id = ?", job.ID).Delete(&model.VideoRecord{}).Error; err != nil {
		return err
	}
	return tx.Delete(job).Error
}
