/*
 * @module service/models/event
 * @description 事件模型定义，包括视图生成事件和SSE推送事件
 * @architecture 事件驱动架构 - 数据模型层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 工作协程产生事件 -> 轮询分发 -> SSE推送客户端
 * @rules 工作协程只通过类型化事件与消费方通信，不共享可变状态
 * @dependencies github.com/google/uuid
 * @refs service/analysis, service/event
 */

package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationEventType 生成事件类型
type GenerationEventType string

const (
	GenerationEventResult    GenerationEventType = "result"    // 单个视图计算完成
	GenerationEventProgress  GenerationEventType = "progress"  // 进度推进
	GenerationEventCompleted GenerationEventType = "completed" // 整代完成
	GenerationEventFailed    GenerationEventType = "failed"    // 整代失败
)

// GenerationEvent 一次视图生成过程中工作协程发出的类型化事件
type GenerationEvent struct {
	Type         GenerationEventType `json:"type"`
	GenerationID string              `json:"generation_id"`
	View         string              `json:"view,omitempty"`
	Result       *ViewResult         `json:"result,omitempty"`
	Progress     int                 `json:"progress,omitempty"` // 已完成任务数，单调递增
	Total        int                 `json:"total,omitempty"`    // 本代任务总数
	Error        string              `json:"error,omitempty"`
}

// SSEEvent 推送到前端的SSE事件
type SSEEvent struct {
	ID        string      `json:"id"`
	EventType string      `json:"event_type"` // view_result, progress, generation_completed, generation_failed, dataset_loaded
	Data      interface{} `json:"data"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewSSEEvent 构造SSE事件
func NewSSEEvent(eventType string, data interface{}) *SSEEvent {
	return &SSEEvent{
		ID:        uuid.New().String(),
		EventType: eventType,
		Data:      data,
		CreatedAt: time.Now(),
	}
}
