/*
 * @module service/processor/data_processor
 * @description 数据集管理与过滤引擎，维护原始快照并派生过滤子集
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 加载成功 -> 替换原始快照 -> 按条件派生子集 -> 提供给视图调度
 * @rules 过滤永远从原始快照出发，派生字段不重新计算；加载失败时保留上一份可用数据集
 * @dependencies gorm.io/gorm, milkmonitor-service/service/ingestion
 * @refs service/analysis
 */

package processor

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/gorm"

	"milkmonitor-service/service/ingestion"
	"milkmonitor-service/service/models"
)

// DataProcessor 数据集管理器，一个会话最多持有一份已加载数据集
type DataProcessor struct {
	db     *gorm.DB
	loader *ingestion.Loader

	mu       sync.RWMutex
	original *models.Dataset // 摄入产生的不可变快照
}

// NewDataProcessor 创建数据集管理器，db可为nil（不记录加载历史）
func NewDataProcessor(db *gorm.DB) *DataProcessor {
	return &DataProcessor{
		db:     db,
		loader: ingestion.NewLoader(),
	}
}

// Load 加载数据文件。成功时替换原始快照并返回新数据集；
// 失败时上一份数据集保持不变仍可使用
func (p *DataProcessor) Load(path string) (*models.Dataset, error) {
	start := time.Now()
	dataset, err := p.loader.Load(path)

	record := &models.LoadRecord{
		FileName:   filepath.Base(path),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		record.Status = "failed"
		record.ErrorMsg = err.Error()
		p.saveLoadRecord(record)
		return nil, err
	}

	record.Status = "success"
	record.RowCount = dataset.Len()
	record.SubjectCount = len(dataset.Subjects())
	if dataset.Len() > 0 {
		startDate, endDate := dataset.StartDate, dataset.EndDate
		record.StartDate = &startDate
		record.EndDate = &endDate
	}
	p.saveLoadRecord(record)

	p.mu.Lock()
	p.original = dataset
	p.mu.Unlock()

	return dataset, nil
}

// saveLoadRecord 写入加载历史，失败只记日志不影响加载结果
func (p *DataProcessor) saveLoadRecord(record *models.LoadRecord) {
	if p.db == nil {
		return
	}
	if err := p.db.Create(record).Error; err != nil {
		slog.Error("写入加载历史失败", "error", err)
	}
}

// HasData 是否已有加载成功的数据集
func (p *DataProcessor) HasData() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.original != nil
}

// Original 返回原始快照
func (p *DataProcessor) Original() *models.Dataset {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.original
}

// Subjects 返回升序奶牛编号列表，用于前端下拉框
func (p *DataProcessor) Subjects() []int {
	return p.Original().Subjects()
}

// Weeks 返回摄入时缓存的排序周键列表
func (p *DataProcessor) Weeks() []string {
	ds := p.Original()
	if ds == nil {
		return nil
	}
	return ds.Weeks
}

// DateRange 返回数据集日期边界
func (p *DataProcessor) DateRange() (time.Time, time.Time, bool) {
	ds := p.Original()
	if ds == nil || ds.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	return ds.StartDate, ds.EndDate, true
}

// Filter 按条件从原始快照派生子集。零行是合法结果而非错误；
// 日期区间缺失或非法时返回空子集，由调用方按无数据处理
func (p *DataProcessor) Filter(criteria models.FilterCriteria) *models.Dataset {
	original := p.Original()
	if original == nil {
		return nil
	}

	events := make([]*models.MilkingEvent, 0, original.Len())
	for _, e := range original.Events {
		if matches(e, criteria) {
			events = append(events, e)
		}
	}
	return original.SubsetWith(events)
}

// matches 判断单个事件是否满足过滤条件
func matches(e *models.MilkingEvent, c models.FilterCriteria) bool {
	if c.SubjectID != nil && e.SubjectID != *c.SubjectID {
		return false
	}

	switch c.RangeMode {
	case models.RangeModeDate:
		if c.StartDate == nil || c.EndDate == nil {
			// 非法区间选择产生空结果而不是报错
			return false
		}
		date := e.Date()
		start := truncateDate(*c.StartDate)
		end := truncateDate(*c.EndDate)
		if date.Before(start) || date.After(end) {
			return false
		}
	default:
		// 周模式，空键或all表示不过滤
		if c.WeekKey != "" && c.WeekKey != models.WeekAll && e.WeekKey != c.WeekKey {
			return false
		}
	}
	return true
}

// truncateDate 去除时间部分，区间比较按日历日进行
func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
