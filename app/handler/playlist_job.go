package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"yt-transcripts/app/model"
	"yt-transcripts/app/repository"
	"yt-transcripts/app/service"
	"yt-transcripts/app/youtube"

	"github.com/gin-gonic/gin"
)

// PlaylistJobHandler 播放列表任务接口
type PlaylistJobHandler struct {
	repo        repository.Repository
	ingest      *service.IngestService
	transcripts *service.TranscriptService
}

// NewPlaylistJobHandler 创建任务处理器
func NewPlaylistJobHandler(repo repository.Repository, ingest *service.IngestService, transcripts *service.TranscriptService) *PlaylistJobHandler {
	return &PlaylistJobHandler{repo: repo, ingest: ingest, transcripts: transcripts}
}

// SearchPlaylistRequest 搜索播放列表请求
type SearchPlaylistRequest struct {
	PlaylistID string `json:"playlist_id" form:"playlist_id"`
}

// SearchPlaylist 创建任务并同步抓取播放列表
func (h *PlaylistJobHandler) SearchPlaylist(c *gin.Context) {
	var req SearchPlaylistRequest
	_ = c.ShouldBind(&req)
	playlistID := strings.TrimSpace(req.PlaylistID)
	if playlistID == "" {
		abortWithError(c, http.StatusBadRequest, "Playlist ID required")
		return
	}

	job, err := h.ingest.Search(c.Request.Context(), playlistID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("%d videos added", job.VideoCount),
			"job_id":  job.ID,
		})
	case errors.Is(err, model.ErrDuplicateInFlight):
		abortWithError(c, http.StatusBadRequest, "Playlist already being processed")
	case errors.Is(err, youtube.ErrPlaylistNotFound):
		_ = c.Error(err)
		abortWithError(c, http.StatusNotFound, service.PlaylistNotFoundMessage)
	default:
		respondError(c, err)
	}
}

// ListJobs 任务列表，按创建时间倒序
func (h *PlaylistJobHandler) ListJobs(c *gin.Context) {
	page := parsePage(c)
	jobs, total, err := h.repo.ListJobs(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse[model.PlaylistSearchJob]{
		Count:    total,
		Page:     page.Number,
		PageSize: page.Size,
		Results:  jobs,
	})
}

// GetJob 任务详情，包含视频
func (h *PlaylistJobHandler) GetJob(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	job, err := h.repo.GetJobWithVideos(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if job.Videos == nil {
		job.Videos = []model.VideoRecord{}
	}
	c.JSON(http.StatusOK, job)
}

// DeleteJob 删除任务及其视频
func (h *PlaylistJobHandler) DeleteJob(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repo.DeleteJob(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FetchTranscripts 批量抓取任务下所有视频的字幕。开始后不随请求取消而中断
func (h *PlaylistJobHandler) FetchTranscripts(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := h.transcripts.FetchJob(ctx, id, service.FetchOptions{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Stats 各状态的任务数
func (h *PlaylistJobHandler) Stats(c *gin.Context) {
	counts, err := h.repo.CountJobsByStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{
		"total":      total,
		"pending":    counts[model.JobStatusPending],
		"processing": counts[model.JobStatusProcessing],
		"completed":  counts[model.JobStatusCompleted],
		"failed":     counts[model.JobStatusFailed],
	})
}
