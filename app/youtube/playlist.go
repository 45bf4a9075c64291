package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// PlaylistItem 播放列表中的一个视频
type PlaylistItem struct {
	VideoID     string
	Title       string
	ChannelName string
}

// DataAPI 通过 YouTube Data API v3 读取播放列表
type DataAPI struct {
	service  *yt.Service
	pageSize int64
}

// NewDataAPI 使用 API key 创建客户端，opts 可覆盖 endpoint 等选项
func NewDataAPI(ctx context.Context, apiKey string, pageSize int64, opts ...option.ClientOption) (*DataAPI, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建 youtube 客户端失败: %w", err)
	}
	if pageSize <= 0 || pageSize > 50 {
		pageSize = 50
	}
	return &DataAPI{service: service, pageSize: pageSize}, nil
}

// PlaylistTitle 返回播放列表标题，不存在时返回 ErrPlaylistNotFound
func (d *DataAPI) PlaylistTitle(ctx context.Context, playlistID string) (string, error) {
	response, err := d.service.Playlists.
		List([]string{"snippet"}).
		Id(playlistID).
		Context(ctx).
		Do()
	if err != nil {
		return "", classifyTitleError(err)
	}
	if len(response.Items) == 0 || response.Items[0].Snippet == nil {
		return "", ErrPlaylistNotFound
	}
	return response.Items[0].Snippet.Title, nil
}

// PlaylistPage 读取一页视频，返回下一页的 token，最后一页为空串。
// 没有视频 ID 的条目（已删除或私有视频）被跳过。
func (d *DataAPI) PlaylistPage(ctx context.Context, playlistID, pageToken string) ([]PlaylistItem, string, error) {
	call := d.service.PlaylistItems.
		List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(d.pageSize).
		Context(ctx)
	if pageToken != "" {
		call.PageToken(pageToken)
	}

	response, err := call.Do()
	if err != nil {
		// 标题已经查到，之后的 404 不再视为播放列表不存在
		return nil, "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	items := make([]PlaylistItem, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Snippet == nil || item.Snippet.ResourceId == nil || item.Snippet.ResourceId.VideoId == "" {
			continue
		}
		channel := item.Snippet.VideoOwnerChannelTitle
		if channel == "" {
			channel = item.Snippet.ChannelTitle
		}
		items = append(items, PlaylistItem{
			VideoID:     item.Snippet.ResourceId.VideoId,
			Title:       item.Snippet.Title,
			ChannelName: channel,
		})
	}

	return items, response.NextPageToken, nil
}

// ListPlaylistVideos 按顺序读取播放列表的全部视频
func (d *DataAPI) ListPlaylistVideos(ctx context.Context, playlistID string) ([]PlaylistItem, error) {
	var all []PlaylistItem
	token := ""
	for {
		items, next, err := d.PlaylistPage(ctx, playlistID, token)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}

func classifyTitleError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrPlaylistNotFound, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
}
