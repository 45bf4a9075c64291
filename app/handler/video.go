package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"yt-transcripts/app/model"
	"yt-transcripts/app/repository"
	"yt-transcripts/app/service"

	"github.com/gin-gonic/gin"
)

// VideoHandler 视频接口
type VideoHandler struct {
	repo        repository.Repository
	transcripts *service.TranscriptService
}

// NewVideoHandler 创建视频处理器
func NewVideoHandler(repo repository.Repository, transcripts *service.TranscriptService) *VideoHandler {
	return &VideoHandler{repo: repo, transcripts: transcripts}
}

// ListVideos 视频列表，支持 job 和 transcript_fetched 过滤
func (h *VideoHandler) ListVideos(c *gin.Context) {
	var filter repository.VideoFilter
	if v := c.Query("job"); v != "" {
		jobID, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid job")
			return
		}
		filter.JobID = uint(jobID)
	}
	if v := c.Query("transcript_fetched"); v != "" {
		fetched, err := strconv.ParseBool(v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid transcript_fetched")
			return
		}
		filter.TranscriptFetched = &fetched
	}

	page := parsePage(c)
	videos, total, err := h.repo.ListVideos(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse[model.VideoRecord]{
		Count:    total,
		Page:     page.Number,
		PageSize: page.Size,
		Results:  videos,
	})
}

// GetVideo 视频详情
func (h *VideoHandler) GetVideo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	video, err := h.repo.GetVideo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// FetchTranscript 抓取单个视频的字幕
func (h *VideoHandler) FetchTranscript(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	video, err := h.transcripts.FetchVideo(c.Request.Context(), id)
	if err != nil {
		// 字幕不可用或重试用尽为 400，视频不存在为 404，其余为 500
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Transcript fetched for %s", video.Title)})
}

// GetTranscript 已保存的字幕，按开始时间排序
func (h *VideoHandler) GetTranscript(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	video, err := h.repo.GetVideo(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	lines, err := h.repo.TranscriptLines(ctx, video.VideoID)
	if err != nil {
		respondError(c, err)
		return
	}
	if lines == nil {
		lines = []model.TranscriptLine{}
	}
	c.JSON(http.StatusOK, gin.H{
		"video_id": video.VideoID,
		"lines":    lines,
	})
}
