/*
 * @module service/analysis/analysis_service
 * @description 分析服务门面：接收更新请求、驱动视图调度、轮询分发事件并维护当前结果
 * @architecture 事件驱动架构 - 业务服务层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 过滤请求 -> 单飞行检查 -> 启动生成 -> 轮询取事件 -> 更新结果表 -> 推送Sink
 * @rules 当前结果表只由轮询分发步骤写入；生成失败时已送达的结果保持有效
 * @dependencies gorm.io/gorm, github.com/spf13/cast, milkmonitor-service/service/processor
 * @refs service/event, api/controllers
 */

package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cast"
	"gorm.io/gorm"

	"milkmonitor-service/service/models"
	"milkmonitor-service/service/processor"
)

// 轮询间隔，消费方按固定节奏取空事件队列，队列为空时立即返回
const pollInterval = 100 * time.Millisecond

// ErrNoDataset 尚未加载数据集
var ErrNoDataset = errors.New("尚未加载数据集")

// Sink 视图结果与状态事件的外部消费方
type Sink interface {
	Publish(event *models.SSEEvent)
}

// UpdateRequest 一次视图更新请求
type UpdateRequest struct {
	SubjectSelector string `json:"subject_selector"` // all 或具体奶牛编号
	RangeMode       string `json:"range_mode"`       // week 或 date
	WeekKey         string `json:"week_key"`         // 周模式下的周键，空或all表示全部
	StartDate       string `json:"start_date"`       // 日期模式起始，DD-MM-YYYY
	EndDate         string `json:"end_date"`         // 日期模式结束，DD-MM-YYYY
	ActiveView      string `json:"active_view"`      // 前端当前展示的视图，可为空
}

// UpdateAccepted 更新请求被接受后的同步响应
type UpdateAccepted struct {
	GenerationID string              `json:"generation_id"`
	JobCount     int                 `json:"job_count"`
	RowCount     int                 `json:"row_count"`
	Summary      models.SummaryStats `json:"summary"`
}

// AnalysisService 分析服务
type AnalysisService struct {
	db        *gorm.DB
	processor *processor.DataProcessor
	registry  *Registry
	scheduler *ViewScheduler
	sink      Sink

	mu      sync.RWMutex
	results map[string]*models.ViewResult // 视图名 -> 最近一次成功结果
	summary models.SummaryStats

	recordMu      sync.Mutex
	currentRecord *models.GenerationRecord
	startedAt     time.Time

	stop chan struct{}
}

// NewAnalysisService 创建分析服务并启动轮询分发循环
func NewAnalysisService(db *gorm.DB, proc *processor.DataProcessor, sink Sink) *AnalysisService {
	registry := NewRegistry()
	s := &AnalysisService{
		db:        db,
		processor: proc,
		registry:  registry,
		scheduler: NewViewScheduler(registry),
		sink:      sink,
		results:   make(map[string]*models.ViewResult),
		stop:      make(chan struct{}),
	}
	go s.pollLoop()
	return s
}

// Stop 停止轮询循环
func (s *AnalysisService) Stop() {
	close(s.stop)
}

// Registry 返回视图注册表
func (s *AnalysisService) Registry() *Registry {
	return s.registry
}

// Processor 返回数据集管理器
func (s *AnalysisService) Processor() *processor.DataProcessor {
	return s.processor
}

// RequestUpdate 请求一次视图更新。已有一代在运行时返回ErrGenerationBusy；
// 汇总统计在主流程同步计算并随响应返回
func (s *AnalysisService) RequestUpdate(req UpdateRequest) (*UpdateAccepted, error) {
	if !s.processor.HasData() {
		return nil, ErrNoDataset
	}

	criteria, err := s.buildCriteria(req)
	if err != nil {
		return nil, err
	}

	filtered := s.processor.Filter(criteria)
	summary := Summary(filtered)

	id, err := s.scheduler.Start(filtered, req.ActiveView)
	if err != nil {
		return nil, err
	}
	status := s.scheduler.Status()

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()

	record := &models.GenerationRecord{
		ID:              id,
		SubjectSelector: subjectSelectorLabel(criteria),
		RangeMode:       criteria.RangeMode,
		RangeValue:      rangeValueLabel(req, criteria),
		ActiveView:      req.ActiveView,
		JobCount:        status.Total,
		RowCount:        filtered.Len(),
		Status:          "running",
	}
	s.recordMu.Lock()
	s.currentRecord = record
	s.startedAt = time.Now()
	s.recordMu.Unlock()
	if s.db != nil {
		if err := s.db.Create(record).Error; err != nil {
			slog.Error("写入生成历史失败", "error", err)
		}
	}

	s.publish(models.NewSSEEvent("summary", summary))
	slog.Info("视图生成已启动",
		"generation", id, "jobs", status.Total, "rows", filtered.Len(),
		"subject", record.SubjectSelector, "range", record.RangeValue)

	return &UpdateAccepted{
		GenerationID: id,
		JobCount:     status.Total,
		RowCount:     filtered.Len(),
		Summary:      summary,
	}, nil
}

// buildCriteria 将请求转换为过滤条件。日期无法解析时保留nil，
// 过滤引擎对非法区间返回空子集而非报错
func (s *AnalysisService) buildCriteria(req UpdateRequest) (models.FilterCriteria, error) {
	criteria := models.FilterCriteria{RangeMode: req.RangeMode}
	if criteria.RangeMode == "" {
		criteria.RangeMode = models.RangeModeWeek
	}

	if req.SubjectSelector != "" && req.SubjectSelector != models.SubjectAll {
		id, err := cast.ToIntE(req.SubjectSelector)
		if err != nil {
			return criteria, fmt.Errorf("非法的奶牛编号: %q", req.SubjectSelector)
		}
		criteria.SubjectID = &id
	}

	switch criteria.RangeMode {
	case models.RangeModeDate:
		if start, err := time.Parse("02-01-2006", req.StartDate); err == nil {
			criteria.StartDate = &start
		}
		if end, err := time.Parse("02-01-2006", req.EndDate); err == nil {
			criteria.EndDate = &end
		}
	default:
		criteria.WeekKey = req.WeekKey
	}
	return criteria, nil
}

// pollLoop 固定节奏的轮询消费循环，是事件队列与当前结果表的唯一读写方
func (s *AnalysisService) pollLoop() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			for _, ev := range s.scheduler.Poll() {
				s.dispatch(ev)
			}
		}
	}
}

// dispatch 分发单个生成事件：结果写入当前结果表并推送，进度与终止状态直接推送
func (s *AnalysisService) dispatch(ev models.GenerationEvent) {
	switch ev.Type {
	case models.GenerationEventResult:
		s.mu.Lock()
		s.results[ev.View] = ev.Result
		s.mu.Unlock()
		s.publish(models.NewSSEEvent("view_result", ev))

	case models.GenerationEventProgress:
		s.publish(models.NewSSEEvent("progress", ev))

	case models.GenerationEventCompleted:
		s.finishRecord("completed", "")
		s.publish(models.NewSSEEvent("generation_completed", ev))
		slog.Info("视图生成完成", "generation", ev.GenerationID)

	case models.GenerationEventFailed:
		// 本代中止，此前已分发的视图结果保持有效
		s.finishRecord("failed", ev.Error)
		s.publish(models.NewSSEEvent("generation_failed", ev))
		slog.Error("视图生成失败", "generation", ev.GenerationID, "view", ev.View, "error", ev.Error)
	}
}

// finishRecord 回写生成历史的终止状态
func (s *AnalysisService) finishRecord(status, errMsg string) {
	s.recordMu.Lock()
	record := s.currentRecord
	startedAt := s.startedAt
	s.currentRecord = nil
	s.recordMu.Unlock()

	if record == nil || s.db == nil {
		return
	}
	updates := map[string]interface{}{
		"status":      status,
		"error_msg":   errMsg,
		"duration_ms": time.Since(startedAt).Milliseconds(),
	}
	if err := s.db.Model(record).Updates(updates).Error; err != nil {
		slog.Error("更新生成历史失败", "error", err)
	}
}

// publish 推送事件到Sink，未配置Sink时忽略
func (s *AnalysisService) publish(event *models.SSEEvent) {
	if s.sink != nil {
		s.sink.Publish(event)
	}
}

// Status 返回调度器状态快照
func (s *AnalysisService) Status() GenerationStatus {
	return s.scheduler.Status()
}

// Summary 返回最近一次过滤子集的汇总统计
func (s *AnalysisService) Summary() models.SummaryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Results 返回当前结果表的浅拷贝
func (s *AnalysisService) Results() map[string]*models.ViewResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.ViewResult, len(s.results))
	for view, result := range s.results {
		out[view] = result
	}
	return out
}

// Result 按视图名取当前结果
func (s *AnalysisService) Result(view string) (*models.ViewResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[view]
	return result, ok
}

// subjectSelectorLabel 历史记录用的奶牛选择描述
func subjectSelectorLabel(c models.FilterCriteria) string {
	if c.SubjectID == nil {
		return models.SubjectAll
	}
	return cast.ToString(*c.SubjectID)
}

// rangeValueLabel 历史记录用的区间描述
func rangeValueLabel(req UpdateRequest, c models.FilterCriteria) string {
	if c.RangeMode == models.RangeModeDate {
		return fmt.Sprintf("%s~%s", req.StartDate, req.EndDate)
	}
	if c.WeekKey == "" {
		return models.WeekAll
	}
	return c.WeekKey
}
