package cmd

import (
	"context"
	"fmt"

	"yt-transcripts/app/config"
	"yt-transcripts/app/database"
	"yt-transcripts/app/logger"
	"yt-transcripts/app/repository"
	"yt-transcripts/app/service"
	"yt-transcripts/app/utils/retry"
	"yt-transcripts/app/youtube"
)

// application 各子命令共用的依赖
type application struct {
	cfg         *config.Config
	log         *logger.Logger
	repo        *repository.GormRepository
	ingest      *service.IngestService
	transcripts *service.TranscriptService
	maintenance *service.MaintenanceService
}

// bootstrap 依次初始化配置、日志、数据库和工作流
func bootstrap(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Log)

	if err := database.Init(cfg, log); err != nil {
		log.Close()
		return nil, fmt.Errorf("数据库初始化失败: %w", err)
	}

	if cfg.YouTube.APIKey == "" {
		log.Warn("未设置 GOOGLE_DEVELOPER_API_KEY，播放列表搜索将会失败")
	}
	dataAPI, err := youtube.NewDataAPI(ctx, cfg.YouTube.APIKey, cfg.YouTube.PageSize)
	if err != nil {
		database.Close()
		log.Close()
		return nil, err
	}
	transcriptClient := youtube.NewTranscriptClient(cfg.YouTube.Languages)

	repo := repository.New(database.GetDB())
	return &application{
		cfg:         cfg,
		log:         log,
		repo:        repo,
		ingest:      service.NewIngestService(repo, dataAPI, log),
		transcripts: service.NewTranscriptService(repo, transcriptClient, cfg.Fetch, retry.Sleep, log),
		maintenance: service.NewMaintenanceService(repo, cfg.Maintenance, log),
	}, nil
}

func (a *application) close() {
	if err := database.Close(); err != nil {
		a.log.Errorf("关闭数据库连接失败: %v", err)
	}
	a.log.Close()
}
