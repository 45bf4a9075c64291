package handler

import (
	"errors"
	"net/http"
	"strconv"

	"yt-transcripts/app/model"
	"yt-transcripts/app/repository"
	"yt-transcripts/app/youtube"

	"github.com/gin-gonic/gin"
)

// DefaultPageSize 列表接口每页条数
const DefaultPageSize = 20

// maxPageSize page_size 参数上限
const maxPageSize = 100

// ListResponse 分页列表响应
type ListResponse[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

// statusFor 把领域错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound), errors.Is(err, youtube.ErrPlaylistNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateInFlight), youtube.IsPermanent(err):
		return http.StatusBadRequest
	case errors.Is(err, youtube.ErrRetrievalFailed):
		// 重试用尽的字幕抓取失败同样是字幕错误
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError 以 {"error": ...} 结束请求
func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondError 按错误类型选择状态码
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	abortWithError(c, statusFor(err), err.Error())
}

// parseID 解析路径中的数字 ID，失败时已写入 404
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		abortWithError(c, http.StatusNotFound, model.ErrNotFound.Error())
		return 0, false
	}
	return uint(id), true
}

// parsePage 读取 page 和 page_size 查询参数
func parsePage(c *gin.Context) repository.Page {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	if err != nil || size < 1 {
		size = DefaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return repository.Page{Number: page, Size: size}
}
