/*
 * @module service/processor/data_processor_test
 * @description 过滤引擎测试，覆盖子集派生、幂等性与失败保留语义
 * @architecture 测试层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 加载数据集 -> 构造过滤条件 -> 断言子集
 * @rules 过滤永远从原始快照出发，零行是合法结果
 * @dependencies testing, testify
 * @refs data_processor.go
 */

package processor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milkmonitor-service/service/models"
)

func writeDataFile(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "melkdata.txt")
	content := "koe_id,levensnummer,datum,tijd,status,melk_ml,frame,fles,kengetal\n" + rows
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newLoadedProcessor(t *testing.T) *DataProcessor {
	t.Helper()
	path := writeDataFile(t,
		"1,NL000000001,08-01-2024,06:00:00,OK,500,1,2,100\n"+
			"1,NL000000001,08-01-2024,18:00:00,OK,700,1,2,100\n"+
			"2,NL000000002,10-01-2024,07:30:00,!,600,1,2,100\n"+
			"3,NL000000003,16-01-2024,05:15:00,#,450,1,2,100\n")

	p := NewDataProcessor(nil)
	_, err := p.Load(path)
	require.NoError(t, err)
	return p
}

func TestFilterAllReturnsOriginalContent(t *testing.T) {
	p := newLoadedProcessor(t)

	subset := p.Filter(models.FilterCriteria{RangeMode: models.RangeModeWeek, WeekKey: models.WeekAll})
	require.NotNil(t, subset)
	assert.Equal(t, p.Original().Len(), subset.Len())
	assert.Equal(t, p.Original().Events, subset.Events)
}

func TestFilterBySubjectIsExactAndIdempotent(t *testing.T) {
	p := newLoadedProcessor(t)

	id := 1
	criteria := models.FilterCriteria{SubjectID: &id, RangeMode: models.RangeModeWeek}
	subset := p.Filter(criteria)
	require.Equal(t, 2, subset.Len())
	for _, e := range subset.Events {
		assert.Equal(t, 1, e.SubjectID)
	}

	// 相同条件再次过滤得到相同子集
	again := p.Filter(criteria)
	assert.Equal(t, subset.Events, again.Events)

	// 派生字段原样保留，不重新计算
	require.NotNil(t, subset.Events[1].IntervalHours)
	assert.Equal(t, 12.0, *subset.Events[1].IntervalHours)
	assert.Equal(t, p.Original().Weeks, subset.Weeks)
}

func TestFilterByWeekKey(t *testing.T) {
	p := newLoadedProcessor(t)

	subset := p.Filter(models.FilterCriteria{RangeMode: models.RangeModeWeek, WeekKey: "2024-02"})
	require.Equal(t, 3, subset.Len())
	for _, e := range subset.Events {
		assert.Equal(t, "2024-02", e.WeekKey)
	}
}

func TestFilterByDateRangeInclusive(t *testing.T) {
	p := newLoadedProcessor(t)

	start := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	subset := p.Filter(models.FilterCriteria{
		RangeMode: models.RangeModeDate,
		StartDate: &start,
		EndDate:   &end,
	})
	// 边界日期两端均包含
	assert.Equal(t, 3, subset.Len())
}

func TestFilterInvalidDateRangeYieldsEmpty(t *testing.T) {
	p := newLoadedProcessor(t)

	subset := p.Filter(models.FilterCriteria{RangeMode: models.RangeModeDate})
	require.NotNil(t, subset)
	assert.Equal(t, 0, subset.Len())
}

func TestFilterNoMatchIsEmptyNotError(t *testing.T) {
	p := newLoadedProcessor(t)

	id := 99
	subset := p.Filter(models.FilterCriteria{SubjectID: &id, RangeMode: models.RangeModeWeek})
	require.NotNil(t, subset)
	assert.Equal(t, 0, subset.Len())
}

func TestLoadFailureKeepsPreviousDataset(t *testing.T) {
	p := newLoadedProcessor(t)
	require.True(t, p.HasData())
	before := p.Original()

	badPath := writeDataFile(t, "1,NL1,not-a-date,06:00:00,OK,500,1,2,100\n")
	_, err := p.Load(badPath)
	require.Error(t, err)

	// 上一份数据集保持不变仍可使用
	assert.True(t, p.HasData())
	assert.Same(t, before, p.Original())
	assert.Equal(t, 4, p.Original().Len())
}

func TestAccessors(t *testing.T) {
	p := newLoadedProcessor(t)

	assert.Equal(t, []int{1, 2, 3}, p.Subjects())
	assert.Equal(t, []string{"2024-02", "2024-03"}, p.Weeks())

	start, end, ok := p.DateRange()
	require.True(t, ok)
	assert.Equal(t, "2024-01-08", start.Format("2006-01-02"))
	assert.Equal(t, "2024-01-16", end.Format("2006-01-02"))
}
