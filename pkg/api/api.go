package api

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MaxMessageLength bounds a single inbound user message.
const MaxMessageLength = 4000

// TurnRequest is one inbound user message bound for the orchestration engine.
type TurnRequest struct {
	// SessionID selects the conversation. Empty means "create a new session".
	SessionID string `json:"session_id,omitempty"`
	// Message is the raw user text, 1..MaxMessageLength characters after trimming.
	Message string `json:"message"`
	// Channel identifies the inbound surface ("web", "telegram", ...) for logging.
	Channel string `json:"channel,omitempty"`
}

// Validate normalizes the message and rejects empty or oversized input.
func (r *TurnRequest) Validate() error {
	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return fmt.Errorf("message must not be empty")
	}
	if len(r.Message) > MaxMessageLength {
		return fmt.Errorf("message exceeds %d characters", MaxMessageLength)
	}
	return nil
}

// TokenUsage carries the raw provider token counters from the turn's
// last model call. Turns that short-circuit before generation report
// zeros, as does a provider that omits the usage field.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TurnResult is the completed outcome of one turn.
type TurnResult struct {
	// TurnID is the correlation ID assigned to this turn, shared by the
	// log lines and monitor events it produced.
	TurnID string `json:"turn_id"`
	// SessionID echoes (or announces, for fresh sessions) the session.
	SessionID string `json:"session_id"`
	// Message is the final user-facing reply.
	Message string `json:"message"`
	// SourcesUsed lists the human-readable data sources consulted via
	// tools this turn, sorted and deduplicated.
	SourcesUsed []string `json:"sources_used"`
	// ToolsCalled lists the tool names invoked this turn, in call order.
	ToolsCalled []string `json:"tools_called"`
	// TokenUsage holds the final model call's usage counters.
	TokenUsage TokenUsage `json:"token_usage"`
	// Regenerations counts how many evaluator-driven rewrites occurred.
	Regenerations int `json:"regenerations"`
	// Timestamp marks when the turn completed.
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is one stored conversation entry exposed over the API.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRunner is what channels call to run turns and manage sessions.
// The session engine implements it; channels stay transport-only.
type TurnRunner interface {
	// RunTurn executes one full turn and blocks until it completes.
	RunTurn(ctx context.Context, req *TurnRequest) (*TurnResult, error)
	// NewSession allocates a fresh empty session and returns its ID.
	NewSession() string
	// ClearSession empties the session's history. Unknown IDs are a no-op
	// and report found=false.
	ClearSession(sessionID string) (found bool)
	// SessionHistory returns a copy of the session's stored entries.
	SessionHistory(sessionID string) ([]HistoryEntry, bool)
}

// Channel is one inbound message surface (web REST, telegram, ...).
type Channel interface {
	// ID returns the channel identifier used in config and logs.
	ID() string
	// Start begins serving. It must not block.
	Start(ctx context.Context) error
	// Stop gracefully shuts the channel down.
	Stop() error
}
