package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	"resty.dev/v3"
)

const (
	defaultWatchURL = "https://www.youtube.com/watch"
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// 观看页 HTML 中播放器数据的起始标记
	playerResponseMarker = "ytInitialPlayerResponse = "
)

// Segment 字幕中的一段
type Segment struct {
	Text     string
	Start    float64
	Duration float64
}

// TranscriptClient 从观看页提取字幕轨道并下载 timedtext 字幕
type TranscriptClient struct {
	client    *resty.Client
	watchURL  string
	languages []string
}

// NewTranscriptClient 创建字幕客户端，languages 为优先级顺序的语言代码
func NewTranscriptClient(languages []string) *TranscriptClient {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")

	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return &TranscriptClient{
		client:    client,
		watchURL:  defaultWatchURL,
		languages: languages,
	}
}

// WithWatchURL 替换观看页地址
func (t *TranscriptClient) WithWatchURL(u string) *TranscriptClient {
	t.watchURL = u
	return t
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // asr 表示自动生成
}

type timedText struct {
	Lines []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Text  string `xml:",chardata"`
	} `xml:"text"`
}

// FetchTranscript 获取视频字幕。永久性失败返回 ErrTranscriptsDisabled 或 ErrNoTranscriptFound，
// 其余失败返回 ErrRetrievalFailed
func (t *TranscriptClient) FetchTranscript(ctx context.Context, videoID string) ([]Segment, error) {
	player, err := t.fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if player.Captions == nil {
		if player.PlayabilityStatus != nil && player.PlayabilityStatus.Status != "OK" {
			return nil, fmt.Errorf("%w: %s: %s", ErrRetrievalFailed, player.PlayabilityStatus.Status, player.PlayabilityStatus.Reason)
		}
		return nil, fmt.Errorf("%w: %s", ErrTranscriptsDisabled, videoID)
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptsDisabled, videoID)
	}

	track, err := pickTrack(tracks, t.languages)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%s)", err, videoID, strings.Join(t.languages, ","))
	}

	return t.fetchTimedText(ctx, track.BaseURL)
}

func (t *TranscriptClient) fetchPlayerResponse(ctx context.Context, videoID string) (*playerResponse, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParam("v", videoID).
		Get(t.watchURL)
	if err != nil {
		return nil, fmt.Errorf("%w: 请求观看页失败: %v", ErrRetrievalFailed, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: 观看页状态码 %d", ErrRetrievalFailed, resp.StatusCode())
	}

	body := resp.String()
	idx := strings.Index(body, playerResponseMarker)
	if idx < 0 {
		return nil, fmt.Errorf("%w: 观看页中没有播放器数据", ErrRetrievalFailed)
	}
	raw := extractJSONObject(body[idx+len(playerResponseMarker):])
	if raw == "" {
		return nil, fmt.Errorf("%w: 播放器数据不完整", ErrRetrievalFailed)
	}

	var player playerResponse
	if err := json.Unmarshal([]byte(raw), &player); err != nil {
		return nil, fmt.Errorf("%w: 解析播放器数据失败: %v", ErrRetrievalFailed, err)
	}
	return &player, nil
}

func (t *TranscriptClient) fetchTimedText(ctx context.Context, baseURL string) ([]Segment, error) {
	resp, err := t.client.R().SetContext(ctx).Get(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: 请求字幕失败: %v", ErrRetrievalFailed, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: 字幕状态码 %d", ErrRetrievalFailed, resp.StatusCode())
	}
	body := resp.String()
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: 字幕内容为空", ErrRetrievalFailed)
	}
	return parseTimedText(body)
}

// pickTrack 按语言优先级先选人工字幕，再选自动生成字幕。需要 PoToken 的轨道无法在服务端下载
func pickTrack(tracks []captionTrack, languages []string) (captionTrack, error) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, tr := range tracks {
		if !strings.Contains(tr.BaseURL, "&exp=xpe") {
			usable = append(usable, tr)
		}
	}

	for _, generated := range []bool{false, true} {
		for _, lang := range languages {
			for _, tr := range tracks {
				if tr.LanguageCode == lang && (tr.Kind == "asr") == generated {
					if !containsTrack(usable, tr) {
						return captionTrack{}, fmt.Errorf("%w: 字幕轨道需要 PoToken", ErrRetrievalFailed)
					}
					return tr, nil
				}
			}
		}
	}
	return captionTrack{}, ErrNoTranscriptFound
}

func containsTrack(tracks []captionTrack, target captionTrack) bool {
	for _, tr := range tracks {
		if tr.BaseURL == target.BaseURL {
			return true
		}
	}
	return false
}

func parseTimedText(body string) ([]Segment, error) {
	var tt timedText
	if err := xml.Unmarshal([]byte(body), &tt); err != nil {
		return nil, fmt.Errorf("%w: 解析字幕 XML 失败: %v", ErrRetrievalFailed, err)
	}

	segments := make([]Segment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := strings.TrimSpace(norm.NFC.String(html.UnescapeString(line.Text)))
		if text == "" {
			continue
		}
		start, _ := strconv.ParseFloat(line.Start, 64)
		dur, _ := strconv.ParseFloat(line.Dur, 64)
		segments = append(segments, Segment{Text: text, Start: start, Duration: dur})
	}
	return segments, nil
}

// extractJSONObject 从 s 开头截取一个完整的 JSON 对象，忽略字符串内的括号
func extractJSONObject(s string) string {
	if !strings.HasPrefix(s, "{") {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
