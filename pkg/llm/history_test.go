package llm

import (
	"fmt"
	"testing"
)

func TestChatHistorySlidingWindow(t *testing.T) {
	h := NewChatHistory(4)

	for i := 0; i < 10; i++ {
		h.Add(NewUserMessage(fmt.Sprintf("msg-%d", i)))
	}

	if h.Len() != 4 {
		t.Fatalf("expected 4 retained messages, got %d", h.Len())
	}

	msgs := h.GetMessages()
	if msgs[0].Content != "msg-6" || msgs[3].Content != "msg-9" {
		t.Errorf("window kept wrong entries: first=%q last=%q", msgs[0].Content, msgs[3].Content)
	}
}

func TestChatHistoryAddPairTrimsOldest(t *testing.T) {
	h := NewChatHistory(4)

	for i := 0; i < 5; i++ {
		h.AddPair(
			NewUserMessage(fmt.Sprintf("q-%d", i)),
			NewAssistantMessage(fmt.Sprintf("a-%d", i)),
		)
	}

	msgs := h.GetMessages()
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	// The window must hold whole exchanges, not a dangling user turn
	if msgs[0].Role != RoleUser || msgs[0].Content != "q-3" {
		t.Errorf("expected window to start at q-3, got %s %q", msgs[0].Role, msgs[0].Content)
	}
	if msgs[3].Role != RoleAssistant || msgs[3].Content != "a-4" {
		t.Errorf("expected window to end at a-4, got %s %q", msgs[3].Role, msgs[3].Content)
	}
}

func TestChatHistoryDefaultLimit(t *testing.T) {
	h := NewChatHistory(0)
	if h.Limit() != DefaultHistoryLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultHistoryLimit, h.Limit())
	}
}

func TestChatHistoryReturnsCopy(t *testing.T) {
	h := NewChatHistory(10)
	h.Add(NewUserMessage("original"))

	msgs := h.GetMessages()
	msgs[0].Content = "mutated"

	if h.GetMessages()[0].Content != "original" {
		t.Error("GetMessages must return a copy, not the backing slice")
	}
}

func TestToolDefinitionParameterSchema(t *testing.T) {
	def := ToolDefinition{
		Name: "get_order",
		Parameters: map[string]any{
			"order_id": map[string]any{"type": "string"},
		},
		Required: []string{"order_id"},
	}

	schema := def.ParameterSchema()
	if schema["type"] != "object" {
		t.Errorf("expected object schema, got %v", schema["type"])
	}
	if _, ok := schema["properties"].(map[string]any)["order_id"]; !ok {
		t.Error("expected order_id in properties")
	}

	// A definition with no parameters still yields a valid schema
	empty := ToolDefinition{Name: "list_products"}.ParameterSchema()
	if empty["properties"] == nil || empty["required"] == nil {
		t.Error("empty definition must still carry properties and required")
	}
}
