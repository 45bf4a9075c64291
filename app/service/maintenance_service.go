package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yt-transcripts/app/config"
	"yt-transcripts/app/logger"
	"yt-transcripts/app/repository"

	"github.com/robfig/cron/v3"
)

// StaleJobMessage 中断任务的错误信息
const StaleJobMessage = "interrupted before completion"

// MaintenanceService 定期把长时间停留在处理中的任务标记为失败，
// 否则进程崩溃后该播放列表永远无法再次搜索
type MaintenanceService struct {
	repo       repository.Repository
	log        *logger.Logger
	schedule   string
	staleAfter time.Duration
	now        func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewMaintenanceService 创建维护服务
func NewMaintenanceService(repo repository.Repository, cfg config.MaintenanceConfig, log *logger.Logger) *MaintenanceService {
	return &MaintenanceService{
		repo:       repo,
		log:        log.Named("maintenance"),
		schedule:   cfg.Schedule,
		staleAfter: cfg.StaleAfter,
		now:        time.Now,
	}
}

// SweepStaleJobs 执行一次清理，返回被标记为失败的任务数
func (m *MaintenanceService) SweepStaleJobs(ctx context.Context) (int64, error) {
	before := m.now().Add(-m.staleAfter)
	n, err := m.repo.FailStaleJobs(ctx, before, StaleJobMessage)
	if err != nil {
		return 0, fmt.Errorf("清理中断任务失败: %w", err)
	}
	if n > 0 {
		m.log.Infof("已将 %d 个中断的任务标记为失败", n)
	}
	return n, nil
}

// Start 立即清理一次，然后按 cron 表达式定期清理
func (m *MaintenanceService) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	// 启动时清理上次进程遗留的任务
	if _, err := m.SweepStaleJobs(context.Background()); err != nil {
		m.log.Errorf("%v", err)
	}

	if m.schedule == "" {
		m.running = true
		m.log.Info("未配置维护计划，只在启动时清理一次")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(m.schedule, func() {
		if _, err := m.SweepStaleJobs(context.Background()); err != nil {
			m.log.Errorf("%v", err)
		}
	}); err != nil {
		return fmt.Errorf("无效的维护计划 %q: %w", m.schedule, err)
	}
	c.Start()

	m.cron = c
	m.running = true
	m.log.Infof("维护任务已启动: schedule=%s, stale_after=%s", m.schedule, m.staleAfter)
	return nil
}

// Stop 停止定时任务并等待正在执行的清理结束
func (m *MaintenanceService) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.cron != nil {
		<-m.cron.Stop().Done()
		m.cron = nil
	}
	m.running = false
	m.log.Info("维护任务已停止")
}
