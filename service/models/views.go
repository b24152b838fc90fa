/*
 * @module service/models/views
 * @description 统计视图目录与视图结果模型定义
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 过滤数据集 -> 视图计算 -> 视图结果 -> 队列投递
 * @rules 空数据集产生显式的无数据结果，不抛出错误
 * @refs service/analysis
 */

package models

// 视图名称常量，声明顺序即调度兜底顺序
const (
	ViewMilkingHeatmap     = "milking_heatmap"     // 挤奶次数热力图
	ViewVolumeHeatmap      = "volume_heatmap"      // 产奶量热力图
	ViewHourlyStats        = "hourly_stats"        // 小时统计
	ViewDailyStats         = "daily_stats"         // 星期统计
	ViewIntervalStats      = "interval_stats"      // 挤奶间隔分布
	ViewHourlyVolume       = "hourly_volume"       // 每小时总产奶量
	ViewDailyTrend         = "daily_trend"         // 日趋势
	ViewStatusDistribution = "status_distribution" // 状态分布
	ViewWeekComparison     = "week_comparison"     // 周对比
	ViewDailySpread        = "daily_spread"        // 产奶量按星期离散度
)

// ViewOrder 视图声明顺序
var ViewOrder = []string{
	ViewMilkingHeatmap,
	ViewVolumeHeatmap,
	ViewHourlyStats,
	ViewDailyStats,
	ViewIntervalStats,
	ViewHourlyVolume,
	ViewDailyTrend,
	ViewStatusDistribution,
	ViewWeekComparison,
	ViewDailySpread,
}

// ImportantViews 优先计算的重点视图顺序
var ImportantViews = []string{
	ViewDailyTrend,
	ViewMilkingHeatmap,
	ViewVolumeHeatmap,
}

// StatusLabels 状态码到展示标签的固定映射
var StatusLabels = map[string]string{
	"OK": "成功",
	"!":  "失败",
	"#":  "错误",
}

// WeekdayLabels 星期标签，周一在前，与事件的Weekday索引对应
var WeekdayLabels = []string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

// MaxIntervalHours 挤奶间隔的离群阈值，超过视为缺失前序事件，统计时剔除
const MaxIntervalHours = 24.0

// ViewResult 视图结果，按视图名区分载荷类型。
// NoData 为真时表示输入为空的合法结果而非错误
type ViewResult struct {
	View    string      `json:"view"`
	NoData  bool        `json:"no_data"`
	Payload interface{} `json:"payload,omitempty"`
}

// NoDataResult 构造无数据结果
func NoDataResult(view string) *ViewResult {
	return &ViewResult{View: view, NoData: true}
}

// SummaryStats 汇总统计
type SummaryStats struct {
	TotalMilkings    int     `json:"total_milkings"`     // 挤奶次数
	TotalVolume      float64 `json:"total_volume"`       // 总产奶量（升）
	AvgVolume        float64 `json:"avg_volume"`         // 平均每次产奶量
	AvgPerSubject    float64 `json:"avg_per_subject"`    // 平均每头奶牛挤奶次数
	AvgIntervalHours float64 `json:"avg_interval_hours"` // 平均挤奶间隔（小时，剔除>24h）
}

// HeatmapMatrix 7x24矩阵，行为星期（周一为0），列为小时
type HeatmapMatrix struct {
	Counts [7][24]int     `json:"counts,omitempty"`
	Values [7][24]float64 `json:"values,omitempty"`
}

// HourlyStat 单个小时的统计
type HourlyStat struct {
	Hour      int     `json:"hour"`
	Count     int     `json:"count"`
	AvgVolume float64 `json:"avg_volume"`
}

// DailyStat 单个星期索引的统计
type DailyStat struct {
	Weekday   int     `json:"weekday"`
	Label     string  `json:"label"`
	Count     int     `json:"count"`
	AvgVolume float64 `json:"avg_volume"`
}

// SubjectInterval 单头奶牛的平均挤奶间隔
type SubjectInterval struct {
	SubjectID        int     `json:"subject_id"`
	AvgIntervalHours float64 `json:"avg_interval_hours"`
	Count            int     `json:"count"`
}

// IntervalStats 挤奶间隔分布：原始值列表供消费方分桶，
// 以及平均间隔最短的前15头奶牛（升序）
type IntervalStats struct {
	Values      []float64         `json:"values"`
	TopSubjects []SubjectInterval `json:"top_subjects"`
}

// HourlyVolumePoint 每小时总产奶量及累计百分比
type HourlyVolumePoint struct {
	Hour          int     `json:"hour"`
	TotalVolume   float64 `json:"total_volume"`
	CumulativePct float64 `json:"cumulative_pct"`
}

// TrendPoint 单个日历日的趋势点
type TrendPoint struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	TotalVolume float64 `json:"total_volume"`
	Count       int     `json:"count"`
}

// StatusStat 单个状态码的分布
type StatusStat struct {
	Code       string  `json:"code"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Proportion float64 `json:"proportion"`
}

// WeekStat 单周汇总
type WeekStat struct {
	WeekKey     string  `json:"week_key"`
	Count       int     `json:"count"`
	TotalVolume float64 `json:"total_volume"`
}

// DaySpreadStat 单个星期索引上产奶量的五数概括
type DaySpreadStat struct {
	Weekday int     `json:"weekday"`
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Q1      float64 `json:"q1"`
	Median  float64 `json:"median"`
	Q3      float64 `json:"q3"`
	Max     float64 `json:"max"`
}
