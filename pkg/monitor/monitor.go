package monitor

import (
	"sync"
	"time"

	"helpdesk/pkg/api"
)

// TurnEvent 代表一次完成的對話輪次
type TurnEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	TurnID        string    `json:"turn_id"`
	SessionID     string    `json:"session_id"`
	Channel       string    `json:"channel"`
	UserMessage   string    `json:"user_message"`
	Reply         string    `json:"reply"`
	ToolsCalled   []string  `json:"tools_called"`
	SourcesUsed   []string  `json:"sources_used"`
	TotalTokens   int       `json:"total_tokens"`
	Regenerations int       `json:"regenerations"`
	TookMs        int64     `json:"took_ms"`
}

// Monitor 介面定義了監控器的行為
type Monitor interface {
	// Start 啟動監控器
	Start() error

	// Stop 停止監控器
	Stop() error

	// OnTurn 接收並顯示一次輪次事件
	OnTurn(ev TurnEvent)
}

// MonitorFunc adapts a plain function to the Monitor interface.
type MonitorFunc func(TurnEvent)

func (f MonitorFunc) Start() error        { return nil }
func (f MonitorFunc) Stop() error         { return nil }
func (f MonitorFunc) OnTurn(ev TurnEvent) { f(ev) }

// Hub fans completed turns out to every registered monitor. It plugs
// into the session registry as its turn observer.
type Hub struct {
	mu       sync.RWMutex
	monitors []Monitor
}

// NewHub creates an empty monitor hub.
func NewHub() *Hub {
	return &Hub{}
}

// Register adds a monitor to the fan-out set.
func (h *Hub) Register(m Monitor) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.monitors = append(h.monitors, m)
}

// ObserveTurn builds the event and dispatches it to every monitor.
func (h *Hub) ObserveTurn(req *api.TurnRequest, res *api.TurnResult, took time.Duration) {
	ev := TurnEvent{
		Timestamp:     time.Now(),
		TurnID:        res.TurnID,
		SessionID:     res.SessionID,
		Channel:       req.Channel,
		UserMessage:   req.Message,
		Reply:         res.Message,
		ToolsCalled:   res.ToolsCalled,
		SourcesUsed:   res.SourcesUsed,
		TotalTokens:   res.TokenUsage.TotalTokens,
		Regenerations: res.Regenerations,
		TookMs:        took.Milliseconds(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.monitors {
		m.OnTurn(ev)
	}
}

// StartAll starts every registered monitor.
func (h *Hub) StartAll() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.monitors {
		if err := m.Start(); err != nil {
			return err
		}
	}
	return nil
}

// StopAll stops every registered monitor.
func (h *Hub) StopAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, m := range h.monitors {
		_ = m.Stop()
	}
}
