/*
 * @module service/ingestion/loader
 * @description 挤奶记录摄入管线，解析机器人导出文件并构建规范化数据集
 * @architecture 分层架构 - 数据摄入层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 读取文件 -> 逐行解析 -> 单位换算 -> 派生字段 -> 排序 -> 间隔计算 -> 索引缓存
 * @rules 全量成功或全量失败，任何一行解析失败则整次加载失败，不保留部分数据
 * @dependencies golang.org/x/text, milkmonitor-service/service/models
 * @refs service/processor
 */

package ingestion

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"milkmonitor-service/service/models"
)

// 文件格式常量：固定9列，首行为描述性表头
const (
	fieldCount = 9
	dateLayout = "02-01-2006"
	timeLayout = "15:04:05"
)

// LoadErrorKind 加载错误类别
type LoadErrorKind string

const (
	ErrKindSchema LoadErrorKind = "schema" // 列数或编号字段非法
	ErrKindDate   LoadErrorKind = "date"   // 日期无法解析
	ErrKindTime   LoadErrorKind = "time"   // 时间无法解析
	ErrKindVolume LoadErrorKind = "volume" // 产奶量非数值
)

// LoadError 带行列上下文的加载错误，任何一个即导致整次加载失败
type LoadError struct {
	Kind  LoadErrorKind `json:"kind"`
	Row   int           `json:"row"` // 文件中的行号，表头为第1行
	Field string        `json:"field"`
	Value string        `json:"value"`
}

// Error 实现error接口
func (e *LoadError) Error() string {
	return fmt.Sprintf("第%d行字段%s解析失败(%s): %q", e.Row, e.Field, e.Kind, e.Value)
}

// Loader 摄入管线
type Loader struct {
	encoding string // utf-8 或 windows-1252，部分机器人终端以西欧编码导出
}

// NewLoader 创建摄入管线实例，编码来自 MILK_FILE_ENCODING 环境变量
func NewLoader() *Loader {
	encoding := strings.ToLower(os.Getenv("MILK_FILE_ENCODING"))
	if encoding == "" {
		encoding = "utf-8"
	}
	return &Loader{encoding: encoding}
}

// Load 加载指定路径的数据文件
func (l *Loader) Load(path string) (*models.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开数据文件失败: %w", err)
	}
	defer file.Close()

	dataset, err := l.LoadReader(file)
	if err != nil {
		return nil, err
	}

	slog.Info("数据文件加载完成",
		"file", filepath.Base(path),
		"rows", dataset.Len(),
		"subjects", len(dataset.Subjects()),
		"weeks", len(dataset.Weeks))
	return dataset, nil
}

// LoadReader 从任意Reader解析数据集，成功时返回完整数据集，
// 任何解析失败返回带行列上下文的LoadError且不产生部分数据
func (l *Loader) LoadReader(r io.Reader) (*models.Dataset, error) {
	switch l.encoding {
	case "windows-1252", "latin1", "iso-8859-1":
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var events []*models.MilkingEvent
	row := 0
	for scanner.Scan() {
		row++
		line := strings.TrimRight(scanner.Text(), "\r")
		if row == 1 {
			// 首行为描述性表头，跳过
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		event, err := parseRow(line, row)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取数据文件失败: %w", err)
	}

	return buildDataset(events), nil
}

// parseRow 解析单行记录
func parseRow(line string, row int) (*models.MilkingEvent, error) {
	fields := strings.Split(line, ",")
	if len(fields) != fieldCount {
		return nil, &LoadError{Kind: ErrKindSchema, Row: row, Field: "record", Value: fmt.Sprintf("%d列", len(fields))}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	subjectID, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, &LoadError{Kind: ErrKindSchema, Row: row, Field: "subject_id", Value: fields[0]}
	}

	date, err := time.Parse(dateLayout, fields[2])
	if err != nil {
		return nil, &LoadError{Kind: ErrKindDate, Row: row, Field: "date", Value: fields[2]}
	}

	clock, err := time.Parse(timeLayout, fields[3])
	if err != nil {
		return nil, &LoadError{Kind: ErrKindTime, Row: row, Field: "time", Value: fields[3]}
	}

	volumeML, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return nil, &LoadError{Kind: ErrKindVolume, Row: row, Field: "volume", Value: fields[5]}
	}

	timestamp := time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
	isoYear, isoWeek := timestamp.ISOWeek()

	return &models.MilkingEvent{
		SubjectID:     subjectID,
		LifetimeNo:    fields[1],
		Timestamp:     timestamp,
		Status:        fields[4],
		VolumeLiters:  volumeML / 1000, // 毫升换算为升，下游只见升
		FrameNo:       fields[6],
		BottleNo:      fields[7],
		SecondaryCode: fields[8],
		Hour:          timestamp.Hour(),
		Weekday:       (int(timestamp.Weekday()) + 6) % 7, // 周一为0
		ISOWeek:       isoWeek,
		ISOYear:       isoYear,
		WeekKey:       models.MakeWeekKey(isoYear, isoWeek),
	}, nil
}

// buildDataset 排序、计算间隔并缓存数据集级索引
func buildDataset(events []*models.MilkingEvent) *models.Dataset {
	// 间隔计算依赖(奶牛, 时间)升序，顺序错误会破坏间隔语义
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].SubjectID != events[j].SubjectID {
			return events[i].SubjectID < events[j].SubjectID
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	// 同一奶牛相邻事件的间隔，每头奶牛的首个事件为nil
	for i, e := range events {
		if i == 0 || events[i-1].SubjectID != e.SubjectID {
			continue
		}
		hours := e.Timestamp.Sub(events[i-1].Timestamp).Hours()
		e.IntervalHours = &hours
	}

	dataset := &models.Dataset{Events: events}

	weekSet := make(map[string]bool)
	for i, e := range events {
		weekSet[e.WeekKey] = true
		date := e.Date()
		if i == 0 {
			dataset.StartDate = date
			dataset.EndDate = date
			continue
		}
		if date.Before(dataset.StartDate) {
			dataset.StartDate = date
		}
		if date.After(dataset.EndDate) {
			dataset.EndDate = date
		}
	}
	for week := range weekSet {
		dataset.Weeks = append(dataset.Weeks, week)
	}
	sort.Strings(dataset.Weeks)

	return dataset
}
