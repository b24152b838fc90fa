/*
 * @module service/analysis/engine_test
 * @description 聚合引擎测试，覆盖汇总统计、各视图计算与注册表行为
 * @architecture 测试层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 构造数据集 -> 调用视图函数 -> 断言结果
 * @rules 视图函数为纯函数，同一输入必须产生同一输出
 * @dependencies testing, testify
 * @refs engine.go
 */

package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milkmonitor-service/service/models"
)

// eventSpec 测试事件的简写描述
type eventSpec struct {
	subject  int
	at       string // "2006-01-02 15:04:05"
	status   string
	volume   float64
	interval *float64
}

func hoursPtr(v float64) *float64 { return &v }

func buildDataset(t *testing.T, specs ...eventSpec) *models.Dataset {
	t.Helper()
	weekSet := make(map[string]bool)
	var events []*models.MilkingEvent
	for _, s := range specs {
		ts, err := time.Parse("2006-01-02 15:04:05", s.at)
		require.NoError(t, err)
		isoYear, isoWeek := ts.ISOWeek()
		weekKey := models.MakeWeekKey(isoYear, isoWeek)
		weekSet[weekKey] = true
		events = append(events, &models.MilkingEvent{
			SubjectID:     s.subject,
			Timestamp:     ts.UTC(),
			Status:        s.status,
			VolumeLiters:  s.volume,
			Hour:          ts.Hour(),
			Weekday:       (int(ts.Weekday()) + 6) % 7,
			ISOWeek:       isoWeek,
			ISOYear:       isoYear,
			WeekKey:       weekKey,
			IntervalHours: s.interval,
		})
	}

	ds := &models.Dataset{Events: events}
	for key := range weekSet {
		ds.Weeks = append(ds.Weeks, key)
	}
	if len(events) > 0 {
		ds.StartDate = events[0].Date()
		ds.EndDate = events[len(events)-1].Date()
	}
	return ds
}

func TestSummaryEmptyDatasetIsAllZero(t *testing.T) {
	stats := Summary(&models.Dataset{})
	assert.Equal(t, models.SummaryStats{}, stats)
}

func TestSummaryStats(t *testing.T) {
	// 间隔序列 [nil, 1, 5, 30]，30超出离群阈值被剔除，均值为3
	ds := buildDataset(t,
		eventSpec{subject: 1, at: "2024-01-08 06:00:00", status: "OK", volume: 0.5},
		eventSpec{subject: 1, at: "2024-01-08 07:00:00", status: "OK", volume: 0.7, interval: hoursPtr(1)},
		eventSpec{subject: 1, at: "2024-01-08 12:00:00", status: "OK", volume: 0.6, interval: hoursPtr(5)},
		eventSpec{subject: 2, at: "2024-01-09 18:00:00", status: "!", volume: 0.4, interval: hoursPtr(30)},
	)

	stats := Summary(ds)
	assert.Equal(t, 4, stats.TotalMilkings)
	assert.InDelta(t, 2.2, stats.TotalVolume, 1e-9)
	assert.InDelta(t, 0.55, stats.AvgVolume, 1e-9)
	assert.InDelta(t, 2.0, stats.AvgPerSubject, 1e-9)
	assert.InDelta(t, 3.0, stats.AvgIntervalHours, 1e-9)
}

func TestMilkingHeatmap(t *testing.T) {
	// 2024-01-08 是周一
	ds := buildDataset(t,
		eventSpec{subject: 1, at: "2024-01-08 06:00:00", status: "OK", volume: 0.5},
		eventSpec{subject: 1, at: "2024-01-08 06:30:00", status: "OK", volume: 0.6},
		eventSpec{subject: 2, at: "2024-01-14 23:00:00", status: "OK", volume: 0.4},
	)

	result := MilkingHeatmap(ds)
	require.False(t, result.NoData)
	matrix := result.Payload.(*models.HeatmapMatrix)
	assert.Equal(t, 2, matrix.Counts[0][6])
	assert.Equal(t, 1, matrix.Counts[6][23])
	assert.Equal(t, 0, matrix.Counts[3][12])
}

func TestVolumeHeatmapAveragesPerCell(t *testing.T) {
	ds := buildDataset(t,
		eventSpec{subject: 1, at: "2024-01-08 06:00:00", status: "OK", volume: 0.4},
		eventSpec{subject: 1, at: "2024-01-08 06:30:00", status: "OK", volume: 0.8},
	)

	result := VolumeHeatmap(ds)
	matrix := result.Payload.(*models.HeatmapMatrix)
	assert.InDelta(t, 0.6, matrix.Values[0][6], 1e-9)
	// 无事件的格子保持为零，不做插值
	assert.Zero(t, matrix.Values[0][7])
}

func TestHourlyStatsOnlyPresentHours(t *testing.T) {
	ds := buildDataset(t,
		eventSpec{subject: 1, at: "2024-01-08 06:00:00", status: "OK", volume: 0.5},
		eventSpec{subject: 1, at: "2024-01-08 18:00:00", status: "OK", volume: 0.7},
		eventSpec{subject: 2, at: "2024-01-09 06:15:00", status: "OK", volume: 0.3},
	)

	result := HourlyStats(ds)
	rows := result.Payload.([]models.HourlyStat)
	require.Len(t, rows, 2)
	assert.Equal(t, 6, rows[0].Hour)
	assert.Equal(t, 2, rows[0].Count)
	assert.InDelta(t, 0.4, rows[0].AvgVolume, 1e-9)
	assert.Equal(t, 18, rows[1].Hour)
}

func TestIntervalDistributionTopSubjects(t *testing.T) {
	// 18头奶牛，平均间隔与编号同步递增，只保留最短的前15头
	var specs []eventSpec
	for i := 1; i <= 18; i++ {
		specs = append(specs, eventSpec{
			subject:  i,
			at:       "2024-01-08 06:00:00",
			status:   "OK",
			volume:   0.5,
			interval: hoursPtr(float64(i)),
		})
	}
	ds := buildDataset(t, specs...)

	result := IntervalDistribution(ds)
	stats := result.Payload.(*models.IntervalStats)
	assert.Len(t, stats.Values, 18)
	require.Len(t, stats.TopSubjects, 15)
	assert.Equal(t, 1, stats.TopSubjects[0].SubjectID)
	assert.Equal(t, 15, stats.TopSubjects[14].SubjectID)
	for i := 1; i < len(stats.TopSubjects); i++ {
		assert.LessOrEqual(t,
			stats.TopSubjects[i-1].AvgIntervalHours,
			stats.TopSubjects[i].AvgIntervalHours)
	}
}

func TestIntervalDistributionNoValidIntervals(t *testing.T) {
	ds := buildDataset(t,
		eventSpec{subject: 1, at: "2024-01-08 06:00:00", status: "OK", volume: 0.5},
		eventSpec{subject: 1, at: "2024-01-10 06:00:00", status: "OK", volume: 0.5, interval: hoursPtr(48)},
	)

	result := IntervalDistribution(ds)
	assert.True(t, result.NoData)
}

func TestHourlyVolumeCumulativeReaches100(t *testing.T) {
	ds := buildDataset(t,
		eventSpec{subject: 1, at: "2024-01-08 06:00:00", status: "OK", volume: 0.5},
		eventSpec{subject: 1, at: "2024-01-08 12:00:00", status: "OK", volume: 0.3},
		eventSpec{subject: 2, at: "2024-01-08 20:00:00", status: "OK", volume: 0.2},
	)

	result := HourlyVolume(ds)
	points := result.Payload.([]models.HourlyVolumePoint)
	require.Len(t, points, 3)
	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].CumulativePct, points[i-1].CumulativePct)
	}
	assert.InDelta(t, 100.0, points[len(points)-1].CumulativePct, 1e-9)
}

func TestDailyTrendSortedByDate(t *testing.T) {
	ds := buildDataset(t,
		eventSpec{subject: 1, at: "2024-01-10 06:00:00", status: "OK", volume: 0.5},
		eventSpec{subject: 1, at: "2024-01-08 06:00:00", status: "OK", volume: 0.7},
		eventSpec{subject: 2, at: "2024-01-08 18:00:00", status: "OK", volume: 0.3},
	)

	result := DailyTrend(ds)
	points := result.Payload.([]models.TrendPoint)
	require.Len(t, points, 2)
	assert.Equal(t, "2024-01-08", points[0].Date)
	assert.Equal(t, 2, points[0].Count)
	assert.InDelta(t, 1.0, points[0].TotalVolume, 1e-9)
	assert.Equal(t, "2024-01-10", points[1].Date)
}

func TestStatusDistributionLabelsAndOrder(t *testing.T) {
	ds := buildDataset(t,
		eventSpec{subject: 1, at: "2024-01-08 06:00:00", status: "OK", volume: 0.5},
		eventSpec{subject: 1, at: "2024-01-08 07:00:00", status: "OK", volume: 0.5},
		eventSpec{subject: 2, at: "2024-01-08 08:00:00", status: "!", volume: 0.5},
		eventSpec{subject: 2, at: "2024-01-08 09:00:00", status: "??", volume: 0.5},
	)

	result := StatusDistribution(ds)
	rows := result.Payload.([]models.StatusStat)
	require.Len(t, rows, 3)
	assert.Equal(t, "OK", rows[0].Code)
	assert.Equal(t, "成功", rows[0].Label)
	assert.InDelta(t, 0.5, rows[0].Proportion, 1e-9)
	// 未知状态码保留原码并使用兜底标签
	for _, row := range rows {
		if row.Code == "??" {
			assert.Equal(t, "未知", row.Label)
		}
	}
}

func TestWeekComparisonTotalsMatchSummary(t *testing.T) {
	ds := buildDataset(t,
		eventSpec{subject: 1, at: "2024-01-08 06:00:00", status: "OK", volume: 0.5},
		eventSpec{subject: 1, at: "2024-01-10 06:00:00", status: "OK", volume: 0.7},
		eventSpec{subject: 2, at: "2024-01-16 06:00:00", status: "OK", volume: 0.3},
	)

	result := WeekComparison(ds)
	rows := result.Payload.([]models.WeekStat)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-02", rows[0].WeekKey)
	assert.Equal(t, "2024-03", rows[1].WeekKey)

	var total float64
	var count int
	for _, row := range rows {
		total += row.TotalVolume
		count += row.Count
	}
	stats := Summary(ds)
	assert.InDelta(t, stats.TotalVolume, total, 1e-9)
	assert.Equal(t, stats.TotalMilkings, count)
}

func TestDailySpreadQuartiles(t *testing.T) {
	ds := buildDataset(t,
		eventSpec{subject: 1, at: "2024-01-08 06:00:00", status: "OK", volume: 0.2},
		eventSpec{subject: 1, at: "2024-01-08 08:00:00", status: "OK", volume: 0.4},
		eventSpec{subject: 1, at: "2024-01-08 10:00:00", status: "OK", volume: 0.6},
		eventSpec{subject: 1, at: "2024-01-08 12:00:00", status: "OK", volume: 0.8},
		eventSpec{subject: 1, at: "2024-01-08 14:00:00", status: "OK", volume: 1.0},
	)

	result := DailySpread(ds)
	rows := result.Payload.([]models.DaySpreadStat)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, 0, row.Weekday)
	assert.Equal(t, "周一", row.Label)
	assert.Equal(t, 5, row.Count)
	assert.InDelta(t, 0.2, row.Min, 1e-9)
	assert.InDelta(t, 0.4, row.Q1, 1e-9)
	assert.InDelta(t, 0.6, row.Median, 1e-9)
	assert.InDelta(t, 0.8, row.Q3, 1e-9)
	assert.InDelta(t, 1.0, row.Max, 1e-9)
}

func TestViewFunctionsHandleEmptyDataset(t *testing.T) {
	registry := NewRegistry()
	empty := &models.Dataset{}
	for _, view := range registry.Order() {
		fn, ok := registry.Get(view)
		require.True(t, ok)
		result := fn(empty)
		require.NotNil(t, result, view)
		assert.True(t, result.NoData, view)
		assert.Equal(t, view, result.View)
	}
}

func TestRegistryOrderAndOverride(t *testing.T) {
	registry := NewRegistry()
	assert.Equal(t, models.ViewOrder, registry.Order())

	// 覆盖注册不改变目录顺序
	registry.Register(models.ViewDailyTrend, func(ds *models.Dataset) *models.ViewResult {
		return models.NoDataResult(models.ViewDailyTrend)
	})
	assert.Equal(t, models.ViewOrder, registry.Order())

	_, ok := registry.Get("unknown_view")
	assert.False(t, ok)
}
