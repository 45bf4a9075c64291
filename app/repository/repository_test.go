package repository

import (
	"context"
	"testing"
	"time"

	"yt-transcripts/app/database"
	"yt-transcripts/app/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *GormRepository {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return New(db)
}

func videos(ids ...string) []model.VideoRecord {
	out := make([]model.VideoRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.VideoRecord{VideoID: id, Title: "title " + id, ChannelName: "channel"})
	}
	return out
}

func TestUpsertJobRejectsInFlightDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.UpsertJob(ctx, "PL1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusProcessing, job.Status)

	_, err = repo.UpsertJob(ctx, "PL1")
	require.ErrorIs(t, err, model.ErrDuplicateInFlight)

	jobs, total, err := repo.ListJobs(ctx, Page{Number: 1, Size: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, jobs, 1)
}

func TestUpsertJobReplacesTerminalJob(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.UpsertJob(ctx, "PL1")
	require.NoError(t, err)
	_, err = repo.AddVideos(ctx, job.ID, videos("a", "b"))
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceTranscript(ctx, "a", []model.TranscriptLine{{Text: "hi"}}))
	require.NoError(t, repo.CompleteJob(ctx, job.ID, 2, time.Now()))

	other, err := repo.UpsertJob(ctx, "PL2")
	require.NoError(t, err)

	again, err := repo.UpsertJob(ctx, "PL1")
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, again.ID)
	assert.Greater(t, again.ID, other.ID)
	assert.Equal(t, model.JobStatusProcessing, again.Status)
	assert.Empty(t, again.ErrorMessage)
	assert.Nil(t, again.CompletedAt)
	assert.Zero(t, again.VideoCount)

	// 旧任务连同视频和字幕已删除，新任务不拥有任何视频
	_, err = repo.GetJob(ctx, job.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = repo.FindVideoByVideoID(ctx, "a")
	require.ErrorIs(t, err, model.ErrNotFound)
	lines, err := repo.TranscriptLines(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, lines)

	count, err := repo.CountJobVideos(ctx, again.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// 新任务失败后仍然没有视频
	require.NoError(t, repo.FailJob(ctx, again.ID, "Playlist not found"))
	count, err = repo.CountJobVideos(ctx, again.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTerminalJobCannotChangeState(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.UpsertJob(ctx, "PL1")
	require.NoError(t, err)
	require.NoError(t, repo.CompleteJob(ctx, job.ID, 0, time.Now()))

	require.ErrorIs(t, repo.FailJob(ctx, job.ID, "late"), model.ErrJobFinished)
	require.ErrorIs(t, repo.SetJobTitle(ctx, job.ID, "late"), model.ErrJobFinished)

	got, err := repo.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestMutationsOnMissingEntities(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.ErrorIs(t, repo.FailJob(ctx, 42, "x"), model.ErrNotFound)
	require.ErrorIs(t, repo.CompleteJob(ctx, 42, 0, time.Now()), model.ErrNotFound)
	require.ErrorIs(t, repo.MarkTranscriptFetched(ctx, 42), model.ErrNotFound)
	require.ErrorIs(t, repo.DeleteJob(ctx, 42), model.ErrNotFound)

	_, err := repo.AddVideos(ctx, 42, videos("a"))
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = repo.GetVideo(ctx, 42)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestAddVideosIgnoresExistingVideoIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.UpsertJob(ctx, "PL1")
	require.NoError(t, err)
	second, err := repo.UpsertJob(ctx, "PL2")
	require.NoError(t, err)

	n, err := repo.AddVideos(ctx, first.ID, videos("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.AddVideos(ctx, second.ID, videos("b", "c"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	owned, err := repo.JobVideos(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "c", owned[0].VideoID)

	b, err := repo.FindVideoByVideoID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, first.ID, b.PlaylistJobID)
}

func TestMarkTranscriptFetchedIsMonotonic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.UpsertJob(ctx, "PL1")
	require.NoError(t, err)
	_, err = repo.AddVideos(ctx, job.ID, videos("a"))
	require.NoError(t, err)
	v, err := repo.FindVideoByVideoID(ctx, "a")
	require.NoError(t, err)
	assert.False(t, v.TranscriptFetched)

	require.NoError(t, repo.MarkTranscriptFetched(ctx, v.ID))
	require.NoError(t, repo.MarkTranscriptFetched(ctx, v.ID))

	v, err = repo.GetVideo(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, v.TranscriptFetched)
}

func TestReplaceTranscriptAndOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.UpsertJob(ctx, "PL1")
	require.NoError(t, err)
	_, err = repo.AddVideos(ctx, job.ID, videos("a"))
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceTranscript(ctx, "a", []model.TranscriptLine{
		{Text: "second", StartTime: 2},
		{Text: "first", StartTime: 0},
	}))
	require.NoError(t, repo.ReplaceTranscript(ctx, "a", []model.TranscriptLine{
		{Text: "late", StartTime: 5},
		{Text: "early", StartTime: 1},
	}))

	lines, err := repo.TranscriptLines(ctx, "a")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "early", lines[0].Text)
	assert.Equal(t, "late", lines[1].Text)

	require.ErrorIs(t, repo.ReplaceTranscript(ctx, "missing", nil), model.ErrNotFound)
}

func TestDeleteJobCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.UpsertJob(ctx, "PL1")
	require.NoError(t, err)
	other, err := repo.UpsertJob(ctx, "PL2")
	require.NoError(t, err)
	_, err = repo.AddVideos(ctx, job.ID, videos("a", "b"))
	require.NoError(t, err)
	_, err = repo.AddVideos(ctx, other.ID, videos("c"))
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceTranscript(ctx, "a", []model.TranscriptLine{{Text: "hi"}}))
	require.NoError(t, repo.ReplaceTranscript(ctx, "c", []model.TranscriptLine{{Text: "keep"}}))

	require.NoError(t, repo.DeleteJob(ctx, job.ID))

	_, err = repo.GetJob(ctx, job.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = repo.FindVideoByVideoID(ctx, "a")
	require.ErrorIs(t, err, model.ErrNotFound)

	lines, err := repo.TranscriptLines(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = repo.TranscriptLines(ctx, "c")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestListVideosPagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job, err := repo.UpsertJob(ctx, "PL1")
	require.NoError(t, err)
	ids := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		ids = append(ids, string(rune('a'+i)))
	}
	_, err = repo.AddVideos(ctx, job.ID, videos(ids...))
	require.NoError(t, err)

	page2, total, err := repo.ListVideos(ctx, VideoFilter{JobID: job.ID}, Page{Number: 2, Size: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	require.Len(t, page2, 5)
	assert.Equal(t, "u", page2[0].VideoID)

	fetched := true
	none, total, err := repo.ListVideos(ctx, VideoFilter{TranscriptFetched: &fetched}, Page{Number: 1, Size: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

func TestFailStaleJobs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stale, err := repo.UpsertJob(ctx, "PL1")
	require.NoError(t, err)
	done, err := repo.UpsertJob(ctx, "PL2")
	require.NoError(t, err)
	require.NoError(t, repo.CompleteJob(ctx, done.ID, 0, time.Now()))

	n, err := repo.FailStaleJobs(ctx, time.Now().Add(time.Minute), "interrupted")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := repo.GetJob(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Equal(t, "interrupted", got.ErrorMessage)

	got, err = repo.GetJob(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)

	counts, err := repo.CountJobsByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[model.JobStatusFailed])
	assert.EqualValues(t, 1, counts[model.JobStatusCompleted])
	assert.EqualValues(t, 0, counts[model.JobStatusProcessing])
}

func TestAddVideosKeepsJobFresh(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	paging, err := repo.UpsertJob(ctx, "PL1")
	require.NoError(t, err)
	idle, err := repo.UpsertJob(ctx, "PL2")
	require.NoError(t, err)

	hourAgo := time.Now().Add(-time.Hour)
	require.NoError(t, repo.db.Model(&model.PlaylistSearchJob{}).
		Where("id IN ?", []uint{paging.ID, idle.ID}).
		UpdateColumn("updated_at", hourAgo).Error)

	// 写入一页视频即视为任务仍在进行
	_, err = repo.AddVideos(ctx, paging.ID, videos("a"))
	require.NoError(t, err)

	n, err := repo.FailStaleJobs(ctx, time.Now().Add(-30*time.Minute), "interrupted")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := repo.GetJob(ctx, paging.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusProcessing, got.Status)
	require.NoError(t, repo.CompleteJob(ctx, paging.ID, 1, time.Now()))

	got, err = repo.GetJob(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, got.Status)
}
