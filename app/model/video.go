package model

import (
	"time"
)

// VideoRecord 任务发现的视频
type VideoRecord struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	PlaylistJobID     uint      `gorm:"not null;index" json:"playlist_job_id"`
	VideoID           string    `gorm:"size:255;not null;uniqueIndex" json:"video_id"`
	Title             string    `gorm:"size:500;not null" json:"title"`
	ChannelName       string    `gorm:"size:255" json:"channel_name"`
	Duration          int       `gorm:"not null;default:0" json:"duration"` // 秒，未知时为 0
	TranscriptFetched bool      `gorm:"not null;default:false" json:"transcript_fetched"`
	CreatedAt         time.Time `json:"created_at"`

	Transcripts []TranscriptLine `gorm:"foreignKey:VideoID;references:VideoID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (VideoRecord) TableName() string {
	return "videos"
}

// TranscriptLine 字幕中的一行
type TranscriptLine struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VideoID   string    `gorm:"size:255;not null;index" json:"video_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	StartTime float64   `json:"start_time"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (TranscriptLine) TableName() string {
	return "transcripts"
}

// TranscriptEnrichment 字幕的摘要、关键词等附加信息，由外部流程写入
type TranscriptEnrichment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VideoID   string    `gorm:"size:255;not null;index" json:"video_id"`
	Summary   string    `gorm:"type:text" json:"summary"`
	Keywords  string    `gorm:"type:text" json:"keywords"`
	Sentiment string    `gorm:"size:50" json:"sentiment"`
	Language  string    `gorm:"size:10" json:"language"`
	CreatedAt time.Time `json:"created_at"`

	Video *VideoRecord `gorm:"foreignKey:VideoID;references:VideoID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (TranscriptEnrichment) TableName() string {
	return "transcript_enrichments"
}
