package llm

import "time"

//----------------------------------------------------------------
// Message - 通用訊息結構
//----------------------------------------------------------------

// Message 表示一條對話訊息
type Message struct {
	Role      string `json:"role"`    // "system", "user", "assistant", "tool"
	Content   string `json:"content"` // 文字內容
	Timestamp int64  `json:"timestamp,omitempty"`

	// ToolCalls 包含 LLM 產生的工具調用請求（僅 role: assistant 時有效）
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID 關聯此訊息所屬的工具調用 ID（僅 role: tool 時有效）
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall 表示 LLM 產生的工具調用請求
type ToolCall struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Function FunctionCall `json:"function"`
}

// FunctionCall 包含具體的工具名稱與參數
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON 字串
}

// ToolDefinition describes a callable tool in the provider-neutral triplet
// form: name, human description, and a JSON-schema-shaped parameter object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema property map
	Required    []string       `json:"required,omitempty"`
}

// ParameterSchema assembles the full "object" schema expected by providers.
func (d ToolDefinition) ParameterSchema() map[string]any {
	props := d.Parameters
	if props == nil {
		props = map[string]any{}
	}
	required := d.Required
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

//----------------------------------------------------------------
// Helper Functions - Message
//----------------------------------------------------------------

// NewTextMessage 建立純文字訊息
func NewTextMessage(role, text string) Message {
	return Message{
		Role:      role,
		Content:   text,
		Timestamp: time.Now().Unix(),
	}
}

// NewSystemMessage 建立系統訊息
func NewSystemMessage(text string) Message {
	return NewTextMessage(RoleSystem, text)
}

// NewUserMessage 建立使用者訊息
func NewUserMessage(text string) Message {
	return NewTextMessage(RoleUser, text)
}

// NewAssistantMessage 建立助理訊息
func NewAssistantMessage(text string) Message {
	return NewTextMessage(RoleAssistant, text)
}

// NewToolMessage 建立工具結果訊息，透過 callID 與原始調用關聯
func NewToolMessage(callID, text string) Message {
	msg := NewTextMessage(RoleTool, text)
	msg.ToolCallID = callID
	return msg
}
