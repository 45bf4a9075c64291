package model

import "errors"

var (
	// ErrNotFound 任务或视频不存在
	ErrNotFound = errors.New("not found")
	// ErrDuplicateInFlight 同一播放列表已有未完成的任务
	ErrDuplicateInFlight = errors.New("playlist already being processed")
	// ErrJobFinished 任务已是 completed 或 failed，不能再改变状态
	ErrJobFinished = errors.New("job already finished")
)
