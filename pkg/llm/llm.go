package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Usage 定義通用的用量統計結構
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatRequest carries one completion-service call: the full message list,
// the tool catalog offered to the model, and per-call generation knobs.
type ChatRequest struct {
	Messages []Message
	Tools    []ToolDefinition

	// JSONOnly forces a JSON-object response (classifier/evaluator calls).
	JSONOnly bool

	// Temperature overrides the provider default when non-nil.
	Temperature *float64
}

// ChatResponse is the provider-neutral result of a completion call.
// A response carries either final text content, or one or more tool
// invocations the model wants executed before it will answer.
type ChatResponse struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     *Usage     `json:"usage,omitempty"` // nil when the provider omits counters
}

// Client 通用 LLM 客戶端介面
type Client interface {
	// Chat 發送一次完整的對話請求並等待最終回應
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Provider 返回提供者名稱 (如 "openai", "ollama", "gemini")
	Provider() string

	// IsTransientError 判斷是否為暫時性錯誤 (如 503, Rate Limit)
	IsTransientError(err error) bool
}

// FallbackClient 支援多個 Client 分級嘗試
type FallbackClient struct {
	Clients    []Client
	MaxRetries int
	RetryDelay time.Duration
}

func (f *FallbackClient) Provider() string {
	if len(f.Clients) > 0 {
		return f.Clients[0].Provider()
	}
	return "fallback"
}

func (f *FallbackClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var lastErr error
	for i, client := range f.Clients {
		if i > 0 {
			slog.Warn("Previous provider failed, trying fallback", "provider", client.Provider(), "rank", i+1)
		}

		// 使用配置的重試次數，若為 0 則至少執行 1 次
		maxRetries := f.MaxRetries
		if maxRetries <= 0 {
			maxRetries = 1
		}

		for retry := 1; retry <= maxRetries; retry++ {
			if retry > 1 {
				slog.Info("Retrying provider", "provider", client.Provider(), "attempt", fmt.Sprintf("%d/%d", retry, maxRetries))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(retry-1) * f.RetryDelay):
				}
			}

			resp, err := client.Chat(ctx, req)
			if err == nil {
				return resp, nil
			}

			lastErr = err

			if client.IsTransientError(err) && retry < maxRetries {
				slog.Warn("Transient provider error, retrying", "provider", client.Provider(), "error", err)
				continue
			}

			// 非暫時性錯誤，或者已達最大重試次數
			slog.Error("Provider failed", "provider", client.Provider(), "error", err)
			break
		}
	}
	return nil, fmt.Errorf("all fallback providers failed. Last error: %v", lastErr)
}

// IsTransientError 實作 Client 介面
// FallbackClient 的錯誤意味著所有 Child 都失敗了，因此視為非暫時性
func (f *FallbackClient) IsTransientError(err error) bool {
	return false
}
