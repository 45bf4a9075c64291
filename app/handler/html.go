package handler

import (
	"errors"
	"net/http"

	"yt-transcripts/app/model"
	"yt-transcripts/app/repository"

	"github.com/gin-gonic/gin"
)

// recentJobsOnIndex 首页显示的任务数
const recentJobsOnIndex = 10

// PageHandler HTML 页面
type PageHandler struct {
	repo repository.Repository
}

// NewPageHandler 创建页面处理器
func NewPageHandler(repo repository.Repository) *PageHandler {
	return &PageHandler{repo: repo}
}

// Index 最近的任务
func (h *PageHandler) Index(c *gin.Context) {
	jobs, err := h.repo.RecentJobs(c.Request.Context(), recentJobsOnIndex)
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.HTML(http.StatusOK, "index.tmpl", gin.H{"Jobs": jobs})
}

// JobDetail 任务及其视频
func (h *PageHandler) JobDetail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	job, err := h.repo.GetJobWithVideos(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.String(http.StatusNotFound, "job not found")
			return
		}
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.HTML(http.StatusOK, "job_detail.tmpl", gin.H{"Job": job})
}
