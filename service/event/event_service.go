/*
 * @module service/event/event_service
 * @description 事件推送服务，管理SSE连接并向前端广播分析事件
 * @architecture 事件驱动架构 - 业务服务层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 事件产生 -> 广播分发 -> 客户端推送
 * @rules 推送通道带缓冲，客户端消费过慢时丢弃事件不阻塞广播方
 * @dependencies milkmonitor-service/service/models
 * @refs service/analysis, api/controllers
 */

package event

import (
	"log/slog"
	"sync"

	"milkmonitor-service/service/models"
)

// EventService 事件推送服务
type EventService struct {
	mu          sync.RWMutex
	connections map[string]map[string]*SSEClient // userName -> connectionID -> client
}

// SSEClient SSE客户端连接
type SSEClient struct {
	ID       string
	UserName string
	Channel  chan *models.SSEEvent
	Done     chan bool
	ClientIP string
}

// NewEventService 创建事件推送服务实例
func NewEventService() *EventService {
	return &EventService{
		connections: make(map[string]map[string]*SSEClient),
	}
}

// AddSSEConnection 添加SSE连接
func (s *EventService) AddSSEConnection(userName, connectionID, clientIP string) *SSEClient {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connections[userName] == nil {
		s.connections[userName] = make(map[string]*SSEClient)
	}

	client := &SSEClient{
		ID:       connectionID,
		UserName: userName,
		Channel:  make(chan *models.SSEEvent, 100), // 缓冲100个事件
		Done:     make(chan bool),
		ClientIP: clientIP,
	}
	s.connections[userName][connectionID] = client

	slog.Info("SSE连接建立", "user", userName, "connection", connectionID, "ip", clientIP)
	return client
}

// RemoveSSEConnection 移除SSE连接
func (s *EventService) RemoveSSEConnection(userName, connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, ok := s.connections[userName]
	if !ok {
		return
	}
	client, ok := clients[connectionID]
	if !ok {
		return
	}

	close(client.Done)
	delete(clients, connectionID)
	if len(clients) == 0 {
		delete(s.connections, userName)
	}

	slog.Info("SSE连接关闭", "user", userName, "connection", connectionID)
}

// ConnectionCount 当前连接数
func (s *EventService) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, clients := range s.connections {
		count += len(clients)
	}
	return count
}

// Publish 向全部连接广播事件，实现分析服务的Sink接口
func (s *EventService) Publish(event *models.SSEEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, clients := range s.connections {
		for _, client := range clients {
			select {
			case client.Channel <- event:
			default:
				// 客户端消费过慢，丢弃本条事件
				slog.Warn("SSE客户端通道已满，事件被丢弃",
					"user", client.UserName, "connection", client.ID, "event", event.EventType)
			}
		}
	}
}

// SendToUser 向指定用户的全部连接推送事件
func (s *EventService) SendToUser(userName string, event *models.SSEEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, client := range s.connections[userName] {
		select {
		case client.Channel <- event:
		default:
			slog.Warn("SSE客户端通道已满，事件被丢弃",
				"user", client.UserName, "connection", client.ID, "event", event.EventType)
		}
	}
}
