package database

import (
	"yt-transcripts/app/model"

	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.PlaylistSearchJob{},
		&model.VideoRecord{},
		&model.TranscriptLine{},
		&model.TranscriptEnrichment{},
	)
}
