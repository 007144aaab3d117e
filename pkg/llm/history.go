package llm

import (
	"sync"
)

// DefaultHistoryLimit caps the number of retained conversation entries.
// User and assistant turns are appended in pairs, so the window always
// holds complete exchanges once trimmed.
const DefaultHistoryLimit = 40

// ChatHistory 管理對話歷史，支援滑動窗口 (Sliding Window) 限制長度
type ChatHistory struct {
	messages []Message
	limit    int
	mu       sync.RWMutex
}

// NewChatHistory 建立一個新的歷史管理員
func NewChatHistory(limit int) *ChatHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &ChatHistory{
		messages: make([]Message, 0),
		limit:    limit,
	}
}

// Add 加入一則新訊息，若超過長度則移除最舊的
func (h *ChatHistory) Add(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, msg)
	if len(h.messages) > h.limit {
		h.messages = h.messages[len(h.messages)-h.limit:]
	}
}

// AddPair appends a user/assistant exchange atomically so concurrent
// readers never observe a dangling user turn.
func (h *ChatHistory) AddPair(user, assistant Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, user, assistant)
	if len(h.messages) > h.limit {
		h.messages = h.messages[len(h.messages)-h.limit:]
	}
}

// GetMessages 取得目前的對話歷史副本
func (h *ChatHistory) GetMessages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// 返回副本
	cp := make([]Message, len(h.messages))
	copy(cp, h.messages)
	return cp
}

// Limit 返回滑動窗口上限
func (h *ChatHistory) Limit() int {
	return h.limit
}

// Len 返回目前的歷史長度
func (h *ChatHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}
