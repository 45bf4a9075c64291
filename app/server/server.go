package server

import (
	"context"
	"fmt"
	"net/http"

	"yt-transcripts/app/config"
	"yt-transcripts/app/database"
	"yt-transcripts/app/handler"
	"yt-transcripts/app/logger"
	"yt-transcripts/app/middleware"
	"yt-transcripts/app/repository"
	"yt-transcripts/app/service"
	"yt-transcripts/app/web"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services 服务器使用的工作流
type Services struct {
	Repo        repository.Repository
	Ingest      *service.IngestService
	Transcripts *service.TranscriptService
	Maintenance *service.MaintenanceService
}

// Server 表示 HTTP 服务器
type Server struct {
	Config   *config.Config
	Logger   *logger.Logger
	db       *gorm.DB
	services Services
	gin      *gin.Engine
	http     *http.Server
}

// New 创建一个新的 Server 实例
func New(cfg *config.Config, log *logger.Logger, db *gorm.DB, services Services) (*Server, error) {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLog(log.Named("http")))

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("加载页面模板失败: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	s := &Server{
		Config:   cfg,
		Logger:   log,
		db:       db,
		services: services,
		gin:      router,
		http: &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: router,
		},
	}

	// 设置路由
	s.setupRoutes()

	return s, nil
}

// Handler 返回路由，用于测试
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start 启动服务器
func (s *Server) Start() error {
	s.Logger.Infof("在端口 %s 启动服务器", s.http.Addr)

	if s.services.Maintenance != nil {
		if err := s.services.Maintenance.Start(); err != nil {
			return err
		}
	}

	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.services.Maintenance != nil {
		s.services.Maintenance.Stop()
	}

	err := s.http.Shutdown(ctx)

	// 关闭数据库连接
	if cerr := database.Close(); cerr != nil {
		s.Logger.Errorf("关闭数据库连接失败: %v", cerr)
	}
	return err
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	jobHandler := handler.NewPlaylistJobHandler(s.services.Repo, s.services.Ingest, s.services.Transcripts)
	videoHandler := handler.NewVideoHandler(s.services.Repo, s.services.Transcripts)
	pageHandler := handler.NewPageHandler(s.services.Repo)
	healthHandler := handler.NewHealthHandler(s.db)

	// 页面
	s.gin.GET("/", pageHandler.Index)
	s.gin.GET("/job/:id", pageHandler.JobDetail)
	s.gin.GET("/healthz", healthHandler.Health)

	// API路由组
	api := s.gin.Group("/api")

	playlists := api.Group("/playlists")
	{
		playlists.GET("", jobHandler.ListJobs)
		playlists.GET("/stats", jobHandler.Stats)
		playlists.POST("/search_playlist", jobHandler.SearchPlaylist)
		playlists.GET("/:id", jobHandler.GetJob)
		playlists.DELETE("/:id", jobHandler.DeleteJob)
		playlists.POST("/:id/fetch_transcripts", jobHandler.FetchTranscripts)
	}

	videos := api.Group("/videos")
	{
		videos.GET("", videoHandler.ListVideos)
		videos.GET("/:id", videoHandler.GetVideo)
		videos.GET("/:id/transcript", videoHandler.GetTranscript)
		videos.POST("/:id/fetch_transcript", videoHandler.FetchTranscript)
	}
}
