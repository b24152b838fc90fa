/*
 * @module service/analysis/engine
 * @description 聚合引擎，提供视图注册表与各统计视图的纯函数计算
 * @architecture 分层架构 - 业务计算层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 过滤数据集 -> 按视图名查注册表 -> 纯函数计算 -> 视图结果
 * @rules 计算函数无副作用，空输入返回显式无数据结果；新增视图通过注册表注册而非继承
 * @dependencies milkmonitor-service/service/models
 * @refs service/analysis/scheduler
 */

package analysis

import (
	"sort"

	"milkmonitor-service/service/models"
)

// ViewFunc 视图计算函数
type ViewFunc func(ds *models.Dataset) *models.ViewResult

// Registry 视图注册表，按注册顺序维护视图目录
type Registry struct {
	order []string
	funcs map[string]ViewFunc
}

// NewRegistry 创建注册表并注册全部内置视图
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]ViewFunc)}
	r.Register(models.ViewMilkingHeatmap, MilkingHeatmap)
	r.Register(models.ViewVolumeHeatmap, VolumeHeatmap)
	r.Register(models.ViewHourlyStats, HourlyStats)
	r.Register(models.ViewDailyStats, DailyStats)
	r.Register(models.ViewIntervalStats, IntervalDistribution)
	r.Register(models.ViewHourlyVolume, HourlyVolume)
	r.Register(models.ViewDailyTrend, DailyTrend)
	r.Register(models.ViewStatusDistribution, StatusDistribution)
	r.Register(models.ViewWeekComparison, WeekComparison)
	r.Register(models.ViewDailySpread, DailySpread)
	return r
}

// Register 注册视图计算函数，重复注册覆盖原实现
func (r *Registry) Register(name string, fn ViewFunc) {
	if _, exists := r.funcs[name]; !exists {
		r.order = append(r.order, name)
	}
	r.funcs[name] = fn
}

// Get 按名称取视图计算函数
func (r *Registry) Get(name string) (ViewFunc, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Order 返回视图注册顺序的副本
func (r *Registry) Order() []string {
	order := make([]string, len(r.order))
	copy(order, r.order)
	return order
}

// Summary 汇总统计。空数据集返回全零结果
func Summary(ds *models.Dataset) models.SummaryStats {
	if ds.Len() == 0 {
		return models.SummaryStats{}
	}

	var stats models.SummaryStats
	stats.TotalMilkings = ds.Len()
	for _, e := range ds.Events {
		stats.TotalVolume += e.VolumeLiters
	}
	stats.AvgVolume = stats.TotalVolume / float64(stats.TotalMilkings)

	if subjects := ds.Subjects(); len(subjects) > 0 {
		stats.AvgPerSubject = float64(stats.TotalMilkings) / float64(len(subjects))
	}

	intervals := validIntervals(ds)
	if len(intervals) > 0 {
		var sum float64
		for _, v := range intervals {
			sum += v
		}
		stats.AvgIntervalHours = sum / float64(len(intervals))
	}
	return stats
}

// validIntervals 取非空且不超过离群阈值的挤奶间隔，
// 超过24小时视为漏记前序事件产生的离群值，剔除而非截断
func validIntervals(ds *models.Dataset) []float64 {
	var values []float64
	for _, e := range ds.Events {
		if e.IntervalHours != nil && *e.IntervalHours <= models.MaxIntervalHours {
			values = append(values, *e.IntervalHours)
		}
	}
	return values
}

// MilkingHeatmap 挤奶次数7x24热力图
func MilkingHeatmap(ds *models.Dataset) *models.ViewResult {
	if ds.Len() == 0 {
		return models.NoDataResult(models.ViewMilkingHeatmap)
	}
	var matrix models.HeatmapMatrix
	for _, e := range ds.Events {
		matrix.Counts[e.Weekday][e.Hour]++
	}
	return &models.ViewResult{View: models.ViewMilkingHeatmap, Payload: &matrix}
}

// VolumeHeatmap 平均产奶量7x24热力图，无事件的格子为零不做插值
func VolumeHeatmap(ds *models.Dataset) *models.ViewResult {
	if ds.Len() == 0 {
		return models.NoDataResult(models.ViewVolumeHeatmap)
	}
	var matrix models.HeatmapMatrix
	var sums [7][24]float64
	for _, e := range ds.Events {
		matrix.Counts[e.Weekday][e.Hour]++
		sums[e.Weekday][e.Hour] += e.VolumeLiters
	}
	for day := 0; day < 7; day++ {
		for hour := 0; hour < 24; hour++ {
			if n := matrix.Counts[day][hour]; n > 0 {
				matrix.Values[day][hour] = sums[day][hour] / float64(n)
			}
		}
	}
	return &models.ViewResult{View: models.ViewVolumeHeatmap, Payload: &matrix}
}

// HourlyStats 按小时的次数与平均产奶量，仅包含有事件的小时
func HourlyStats(ds *models.Dataset) *models.ViewResult {
	if ds.Len() == 0 {
		return models.NoDataResult(models.ViewHourlyStats)
	}
	var counts [24]int
	var sums [24]float64
	for _, e := range ds.Events {
		counts[e.Hour]++
		sums[e.Hour] += e.VolumeLiters
	}
	var rows []models.HourlyStat
	for hour := 0; hour < 24; hour++ {
		if counts[hour] == 0 {
			continue
		}
		rows = append(rows, models.HourlyStat{
			Hour:      hour,
			Count:     counts[hour],
			AvgVolume: sums[hour] / float64(counts[hour]),
		})
	}
	return &models.ViewResult{View: models.ViewHourlyStats, Payload: rows}
}

// DailyStats 按星期的次数与平均产奶量，固定周一在前
func DailyStats(ds *models.Dataset) *models.ViewResult {
	if ds.Len() == 0 {
		return models.NoDataResult(models.ViewDailyStats)
	}
	var counts [7]int
	var sums [7]float64
	for _, e := range ds.Events {
		counts[e.Weekday]++
		sums[e.Weekday] += e.VolumeLiters
	}
	var rows []models.DailyStat
	for day := 0; day < 7; day++ {
		if counts[day] == 0 {
			continue
		}
		rows = append(rows, models.DailyStat{
			Weekday:   day,
			Label:     models.WeekdayLabels[day],
			Count:     counts[day],
			AvgVolume: sums[day] / float64(counts[day]),
		})
	}
	return &models.ViewResult{View: models.ViewDailyStats, Payload: rows}
}

// IntervalDistribution 挤奶间隔分布：原始间隔值列表供直方图分桶，
// 以及平均间隔最短的前15头奶牛
func IntervalDistribution(ds *models.Dataset) *models.ViewResult {
	values := validIntervals(ds)
	if len(values) == 0 {
		return models.NoDataResult(models.ViewIntervalStats)
	}

	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, e := range ds.Events {
		if e.IntervalHours != nil && *e.IntervalHours <= models.MaxIntervalHours {
			sums[e.SubjectID] += *e.IntervalHours
			counts[e.SubjectID]++
		}
	}

	subjects := make([]models.SubjectInterval, 0, len(sums))
	for id, sum := range sums {
		subjects = append(subjects, models.SubjectInterval{
			SubjectID:        id,
			AvgIntervalHours: sum / float64(counts[id]),
			Count:            counts[id],
		})
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].AvgIntervalHours != subjects[j].AvgIntervalHours {
			return subjects[i].AvgIntervalHours < subjects[j].AvgIntervalHours
		}
		return subjects[i].SubjectID < subjects[j].SubjectID
	})
	if len(subjects) > 15 {
		subjects = subjects[:15]
	}

	return &models.ViewResult{
		View:    models.ViewIntervalStats,
		Payload: &models.IntervalStats{Values: values, TopSubjects: subjects},
	}
}

// HourlyVolume 每小时总产奶量及全区间累计百分比，
// 累计值单调不减且在最后一个非空小时到达100
func HourlyVolume(ds *models.Dataset) *models.ViewResult {
	if ds.Len() == 0 {
		return models.NoDataResult(models.ViewHourlyVolume)
	}
	var totals [24]float64
	var present [24]bool
	var grand float64
	for _, e := range ds.Events {
		totals[e.Hour] += e.VolumeLiters
		present[e.Hour] = true
		grand += e.VolumeLiters
	}

	var points []models.HourlyVolumePoint
	var cumulative float64
	for hour := 0; hour < 24; hour++ {
		if !present[hour] {
			continue
		}
		cumulative += totals[hour]
		pct := 0.0
		if grand > 0 {
			pct = cumulative / grand * 100
		}
		points = append(points, models.HourlyVolumePoint{
			Hour:          hour,
			TotalVolume:   totals[hour],
			CumulativePct: pct,
		})
	}
	return &models.ViewResult{View: models.ViewHourlyVolume, Payload: points}
}

// DailyTrend 按日历日的总产奶量与次数，时间升序
func DailyTrend(ds *models.Dataset) *models.ViewResult {
	if ds.Len() == 0 {
		return models.NoDataResult(models.ViewDailyTrend)
	}
	type agg struct {
		volume float64
		count  int
	}
	byDate := make(map[string]*agg)
	for _, e := range ds.Events {
		key := e.Date().Format("2006-01-02")
		a := byDate[key]
		if a == nil {
			a = &agg{}
			byDate[key] = a
		}
		a.volume += e.VolumeLiters
		a.count++
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]models.TrendPoint, 0, len(dates))
	for _, date := range dates {
		points = append(points, models.TrendPoint{
			Date:        date,
			TotalVolume: byDate[date].volume,
			Count:       byDate[date].count,
		})
	}
	return &models.ViewResult{View: models.ViewDailyTrend, Payload: points}
}

// StatusDistribution 按状态码的次数与占比，附固定展示标签
func StatusDistribution(ds *models.Dataset) *models.ViewResult {
	if ds.Len() == 0 {
		return models.NoDataResult(models.ViewStatusDistribution)
	}
	counts := make(map[string]int)
	for _, e := range ds.Events {
		counts[e.Status]++
	}

	rows := make([]models.StatusStat, 0, len(counts))
	total := float64(ds.Len())
	for code, count := range counts {
		label, ok := models.StatusLabels[code]
		if !ok {
			label = "未知"
		}
		rows = append(rows, models.StatusStat{
			Code:       code,
			Label:      label,
			Count:      count,
			Proportion: float64(count) / total,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Code < rows[j].Code
	})
	return &models.ViewResult{View: models.ViewStatusDistribution, Payload: rows}
}

// WeekComparison 按周键的次数与总产奶量，周键升序即时间升序
func WeekComparison(ds *models.Dataset) *models.ViewResult {
	if ds.Len() == 0 {
		return models.NoDataResult(models.ViewWeekComparison)
	}
	counts := make(map[string]int)
	volumes := make(map[string]float64)
	for _, e := range ds.Events {
		counts[e.WeekKey]++
		volumes[e.WeekKey] += e.VolumeLiters
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]models.WeekStat, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, models.WeekStat{
			WeekKey:     key,
			Count:       counts[key],
			TotalVolume: volumes[key],
		})
	}
	return &models.ViewResult{View: models.ViewWeekComparison, Payload: rows}
}

// DailySpread 按星期的产奶量五数概括，固定周一在前
func DailySpread(ds *models.Dataset) *models.ViewResult {
	if ds.Len() == 0 {
		return models.NoDataResult(models.ViewDailySpread)
	}
	var byDay [7][]float64
	for _, e := range ds.Events {
		byDay[e.Weekday] = append(byDay[e.Weekday], e.VolumeLiters)
	}

	var rows []models.DaySpreadStat
	for day := 0; day < 7; day++ {
		values := byDay[day]
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)
		rows = append(rows, models.DaySpreadStat{
			Weekday: day,
			Label:   models.WeekdayLabels[day],
			Count:   len(values),
			Min:     values[0],
			Q1:      quantile(values, 0.25),
			Median:  quantile(values, 0.5),
			Q3:      quantile(values, 0.75),
			Max:     values[len(values)-1],
		})
	}
	return &models.ViewResult{View: models.ViewDailySpread, Payload: rows}
}

// quantile 对已排序序列做线性插值分位数
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(pos)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
