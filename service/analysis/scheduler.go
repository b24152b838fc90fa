/*
 * @module service/analysis/scheduler
 * @description 视图调度器，单飞行代管理、优先级任务编排、工作协程与事件队列
 * @architecture 事件驱动架构 - 并发调度层
 * @documentReference dev_docs/requirements.md
 * @stateFlow Idle -> Running -> Completed|Failed -> Idle
 * @rules 同一时刻最多一代在运行；任务严格串行执行；首个任务失败即中止剩余任务；
 *        完成状态要求工作协程退出且事件队列被完全取空
 * @dependencies github.com/google/uuid, milkmonitor-service/service/models
 * @refs service/analysis/engine, service/analysis_service
 */

package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"milkmonitor-service/service/models"
)

// GenerationState 生成代状态
type GenerationState string

const (
	StateIdle      GenerationState = "idle"
	StateRunning   GenerationState = "running"
	StateCompleted GenerationState = "completed"
	StateFailed    GenerationState = "failed"
)

// ErrGenerationBusy 已有一代在运行时的拒绝信号，属正常控制流而非故障
var ErrGenerationBusy = errors.New("视图生成正在进行中")

// 任务间短暂停顿，降低资源争用，对正确性无要求
const interJobPause = 50 * time.Millisecond

// job 单个视图计算任务，每代临时构建，执行后即丢弃
type job struct {
	view string
	rank int
}

// GenerationStatus 调度器状态快照
type GenerationStatus struct {
	State        GenerationState `json:"state"`
	GenerationID string          `json:"generation_id,omitempty"`
	Progress     int             `json:"progress"`
	Total        int             `json:"total"`
}

// ViewScheduler 视图调度器。每代启动一个短生命周期工作协程，
// 工作协程与消费方之间只通过事件通道和单调进度计数通信
type ViewScheduler struct {
	registry *Registry
	pause    time.Duration

	mu           sync.Mutex
	state        GenerationState
	generationID string
	progress     int // 工作协程单调推进，代内不回退
	total        int
	events       chan models.GenerationEvent
}

// NewViewScheduler 创建视图调度器
func NewViewScheduler(registry *Registry) *ViewScheduler {
	return &ViewScheduler{
		registry: registry,
		pause:    interJobPause,
		state:    StateIdle,
	}
}

// Start 启动一代视图生成。activeView为调用方当前展示的视图名（可为空），
// 已有一代在运行时返回ErrGenerationBusy，请求被拒绝而不会排队
func (s *ViewScheduler) Start(ds *models.Dataset, activeView string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		return "", ErrGenerationBusy
	}

	jobs := s.buildJobs(activeView)
	id := uuid.New().String()

	s.state = StateRunning
	s.generationID = id
	s.progress = 0
	s.total = len(jobs)
	// 缓冲容纳整代全部消息（每任务结果+进度各一条，外加终止事件），
	// 工作协程入队永不阻塞
	s.events = make(chan models.GenerationEvent, 2*len(jobs)+1)

	go s.runWorker(id, ds, jobs)
	return id, nil
}

// buildJobs 构建本代任务列表：活动视图最先，其次固定顺序的重点视图，
// 其余按注册表声明顺序补齐
func (s *ViewScheduler) buildJobs(activeView string) []job {
	placed := make(map[string]bool)
	var views []string

	if activeView != "" {
		if _, ok := s.registry.Get(activeView); ok {
			views = append(views, activeView)
			placed[activeView] = true
		}
	}
	for _, view := range models.ImportantViews {
		if placed[view] {
			continue
		}
		if _, ok := s.registry.Get(view); ok {
			views = append(views, view)
			placed[view] = true
		}
	}
	for _, view := range s.registry.Order() {
		if !placed[view] {
			views = append(views, view)
			placed[view] = true
		}
	}

	jobs := make([]job, len(views))
	for i, view := range views {
		jobs[i] = job{view: view, rank: i}
	}
	return jobs
}

// runWorker 工作协程，严格串行执行任务并按执行顺序入队结果。
// 首个失败中止剩余任务并发出失败终止事件；终止事件始终是本代最后一条消息
func (s *ViewScheduler) runWorker(id string, ds *models.Dataset, jobs []job) {
	defer close(s.events)

	for i, j := range jobs {
		start := time.Now()
		result, err := s.compute(j.view, ds)
		if err != nil {
			slog.Error("视图计算失败，中止本代剩余任务",
				"generation", id, "view", j.view, "error", err)
			s.events <- models.GenerationEvent{
				Type:         models.GenerationEventFailed,
				GenerationID: id,
				View:         j.view,
				Error:        err.Error(),
			}
			return
		}

		s.events <- models.GenerationEvent{
			Type:         models.GenerationEventResult,
			GenerationID: id,
			View:         j.view,
			Result:       result,
		}

		s.mu.Lock()
		s.progress++
		progress := s.progress
		s.mu.Unlock()
		s.events <- models.GenerationEvent{
			Type:         models.GenerationEventProgress,
			GenerationID: id,
			Progress:     progress,
			Total:        len(jobs),
		}

		slog.Debug("视图计算完成",
			"generation", id, "view", j.view, "rank", j.rank,
			"duration", time.Since(start))

		if i < len(jobs)-1 {
			time.Sleep(s.pause)
		}
	}

	s.events <- models.GenerationEvent{
		Type:         models.GenerationEventCompleted,
		GenerationID: id,
		Progress:     len(jobs),
		Total:        len(jobs),
	}
}

// compute 执行单个视图计算，panic转换为错误以保持失败范围限定在本代
func (s *ViewScheduler) compute(view string, ds *models.Dataset) (result *models.ViewResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("视图计算异常: %v", r)
		}
	}()

	fn, ok := s.registry.Get(view)
	if !ok {
		return nil, fmt.Errorf("未注册的视图: %s", view)
	}
	return fn(ds), nil
}

// Poll 非阻塞取空当前事件队列并返回取到的事件。
// 终止事件位于队尾，取到它即表示工作协程已结束且结果全部送达，
// 此时状态迁移为Completed或Failed，调度器重新可用
func (s *ViewScheduler) Poll() []models.GenerationEvent {
	s.mu.Lock()
	events := s.events
	s.mu.Unlock()
	if events == nil {
		return nil
	}

	var drained []models.GenerationEvent
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// 通道已取空并关闭
				s.mu.Lock()
				if s.events == events {
					s.events = nil
				}
				s.mu.Unlock()
				return drained
			}
			switch ev.Type {
			case models.GenerationEventCompleted:
				s.setState(StateCompleted)
			case models.GenerationEventFailed:
				s.setState(StateFailed)
			}
			drained = append(drained, ev)
		default:
			return drained
		}
	}
}

// setState 记录终止状态
func (s *ViewScheduler) setState(state GenerationState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Status 返回状态快照
func (s *ViewScheduler) Status() GenerationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GenerationStatus{
		State:        s.state,
		GenerationID: s.generationID,
		Progress:     s.progress,
		Total:        s.total,
	}
}
