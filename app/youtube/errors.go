package youtube

import "errors"

var (
	// ErrPlaylistNotFound 播放列表不存在
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrSourceUnavailable YouTube Data API 调用失败
	ErrSourceUnavailable = errors.New("youtube data api unavailable")

	// ErrTranscriptsDisabled 视频关闭了字幕，重试无意义
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	// ErrNoTranscriptFound 没有所需语言的字幕，重试无意义
	ErrNoTranscriptFound = errors.New("no transcript found for the requested languages")
	// ErrRetrievalFailed 暂时无法获取字幕，可以重试
	ErrRetrievalFailed = errors.New("could not retrieve transcript")
)

// IsPermanent 字幕错误是否为永久性的
func IsPermanent(err error) bool {
	return errors.Is(err, ErrTranscriptsDisabled) || errors.Is(err, ErrNoTranscriptFound)
}

// IsRetryable 只有 ErrRetrievalFailed 值得重试
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetrievalFailed) && !IsPermanent(err)
}
