/*
 * @module service/models/milking_event
 * @description 挤奶事件数据模型，定义挤奶事件、数据集和过滤条件结构
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 原始文件 -> 解析 -> 派生字段计算 -> 数据集快照
 * @rules 事件一旦派生完成即不可变，派生字段不在过滤阶段重新计算
 * @dependencies time
 * @refs service/ingestion, service/processor
 */

package models

import (
	"fmt"
	"sort"
	"time"
)

// 过滤选择器常量
const (
	SubjectAll = "all" // 全部奶牛
	WeekAll    = "all" // 全部周

	RangeModeWeek = "week" // 按周过滤
	RangeModeDate = "date" // 按日期区间过滤
)

// MilkingEvent 单次挤奶事件，解析完成后不可变
type MilkingEvent struct {
	SubjectID     int       `json:"subject_id"`     // 奶牛编号
	LifetimeNo    string    `json:"lifetime_no"`    // 终身号
	Timestamp     time.Time `json:"timestamp"`      // 事件时间，秒级精度
	Status        string    `json:"status"`         // 状态码: OK, !, #
	VolumeLiters  float64   `json:"volume_liters"`  // 产奶量（升）
	FrameNo       string    `json:"frame_no"`       // 机架号
	BottleNo      string    `json:"bottle_no"`      // 奶瓶号
	SecondaryCode string    `json:"secondary_code"` // 辅助指标码

	// 派生字段，摄入时计算一次
	Hour          int      `json:"hour"`           // 小时 [0,23]
	Weekday       int      `json:"weekday"`        // 星期索引 [0,6]，周一为0
	ISOWeek       int      `json:"iso_week"`       // ISO周号
	ISOYear       int      `json:"iso_year"`       // ISO周所属年份
	WeekKey       string   `json:"week_key"`       // 周键 "{iso_year}-{iso_week:02d}"
	IntervalHours *float64 `json:"interval_hours"` // 距同一奶牛上次挤奶的小时数，首次为nil
}

// Date 返回事件所在日期（去除时间部分）
func (e *MilkingEvent) Date() time.Time {
	y, m, d := e.Timestamp.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.Timestamp.Location())
}

// MakeWeekKey 构造周键，周号补齐为两位以保证字典序即时间序
func MakeWeekKey(isoYear, isoWeek int) string {
	return fmt.Sprintf("%d-%02d", isoYear, isoWeek)
}

// Dataset 事件数据集。原始快照由摄入管线产生一次，
// 过滤子集共享事件指针，派生索引（周列表、日期边界）仅在摄入时计算
type Dataset struct {
	Events    []*MilkingEvent `json:"events"`
	Weeks     []string        `json:"weeks"`      // 排序后的全部周键
	StartDate time.Time       `json:"start_date"` // 最早事件日期
	EndDate   time.Time       `json:"end_date"`   // 最晚事件日期
}

// Len 返回事件数量
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Events)
}

// Subjects 返回升序排列的全部奶牛编号
func (d *Dataset) Subjects() []int {
	if d == nil {
		return nil
	}
	seen := make(map[int]bool)
	var ids []int
	for _, e := range d.Events {
		if !seen[e.SubjectID] {
			seen[e.SubjectID] = true
			ids = append(ids, e.SubjectID)
		}
	}
	sort.Ints(ids)
	return ids
}

// SubsetWith 基于给定事件构造子集，派生索引原样继承不重新计算
func (d *Dataset) SubsetWith(events []*MilkingEvent) *Dataset {
	return &Dataset{
		Events:    events,
		Weeks:     d.Weeks,
		StartDate: d.StartDate,
		EndDate:   d.EndDate,
	}
}

// FilterCriteria 过滤条件。周选择与日期区间二选一，不可组合
type FilterCriteria struct {
	SubjectID *int       `json:"subject_id,omitempty"` // nil 表示全部奶牛
	RangeMode string     `json:"range_mode"`           // week 或 date
	WeekKey   string     `json:"week_key,omitempty"`   // 空或 all 表示全部周
	StartDate *time.Time `json:"start_date,omitempty"` // 区间起始（含）
	EndDate   *time.Time `json:"end_date,omitempty"`   // 区间结束（含）
}
