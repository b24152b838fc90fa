/*
 * @module service/cleanup/history_cleanup_service
 * @description 历史清理服务，定期清理过期的加载与生成历史记录
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 定时触发 -> 读取保留配置 -> 执行清理 -> 记录结果
 * @rules 清理只涉及审计元数据，不影响内存中的数据集与正在运行的生成
 * @dependencies gorm.io/gorm, github.com/robfig/cron/v3
 * @refs service/models
 */

package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"milkmonitor-service/service/models"
)

// DefaultRetentionDays 历史记录默认保留天数
const DefaultRetentionDays = 30

// HistoryCleanupService 历史清理服务
type HistoryCleanupService struct {
	db      *gorm.DB
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewHistoryCleanupService 创建历史清理服务实例
func NewHistoryCleanupService(db *gorm.DB) *HistoryCleanupService {
	ctx, cancel := context.WithCancel(context.Background())

	return &HistoryCleanupService{
		db:     db,
		cron:   cron.New(cron.WithSeconds()),
		ctx:    ctx,
		cancel: cancel,
	}
}

// retentionDays 读取保留天数配置
func (s *HistoryCleanupService) retentionDays() int {
	days := cast.ToInt(os.Getenv("HISTORY_RETENTION_DAYS"))
	if days <= 0 {
		days = DefaultRetentionDays
	}
	return days
}

// CleanupExpiredHistory 清理过期历史记录
func (s *HistoryCleanupService) CleanupExpiredHistory(ctx context.Context) error {
	startTime := time.Now()
	retentionDays := s.retentionDays()
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	loadResult := s.db.Where("created_at < ?", cutoffDate).Delete(&models.LoadRecord{})
	if loadResult.Error != nil {
		return fmt.Errorf("删除加载历史失败: %w", loadResult.Error)
	}

	genResult := s.db.Where("created_at < ?", cutoffDate).Delete(&models.GenerationRecord{})
	if genResult.Error != nil {
		return fmt.Errorf("删除生成历史失败: %w", genResult.Error)
	}

	slog.Info("历史清理完成",
		"load_deleted", loadResult.RowsAffected,
		"generation_deleted", genResult.RowsAffected,
		"retention_days", retentionDays,
		"duration_ms", time.Since(startTime).Milliseconds())
	return nil
}

// StartScheduledCleanup 启动定时清理任务
func (s *HistoryCleanupService) StartScheduledCleanup() error {
	if s.started {
		return fmt.Errorf("历史清理调度器已经启动")
	}

	// Cron表达式：秒 分 时 日 月 周，默认每天凌晨2点执行
	spec := os.Getenv("HISTORY_CLEANUP_CRON")
	if spec == "" {
		spec = "0 0 2 * * *"
	}

	_, err := s.cron.AddFunc(spec, func() {
		if err := s.CleanupExpiredHistory(s.ctx); err != nil {
			slog.Error("定时历史清理失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("注册清理任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true
	slog.Info("历史清理调度器已启动", "cron", spec)
	return nil
}

// Stop 停止定时清理
func (s *HistoryCleanupService) Stop() {
	if s.started {
		s.cron.Stop()
		s.started = false
	}
	s.cancel()
}
