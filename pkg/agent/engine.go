package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"helpdesk/pkg/api"
	"helpdesk/pkg/llm"
)

// Engine orchestrates the turns of a single conversation session.
// Turns within one session are serialized; the registry fans concurrent
// sessions out to independent engines.
type Engine struct {
	sessionID        string
	classifier       *Classifier
	evaluator        *Evaluator
	driver           *Driver
	history          *llm.ChatHistory
	systemPrompt     string
	company          string
	maxRegenerations int
	turnTimeout      time.Duration

	mu           sync.Mutex
	customerName string
	lastActive   time.Time
}

// RunTurn processes one user message end to end: intake judgments,
// short-circuits, generation, bounded evaluation and personalization.
func (e *Engine) RunTurn(ctx context.Context, message string) (*api.TurnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastActive = time.Now()

	if e.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.turnTimeout)
		defer cancel()
	}

	result := &api.TurnResult{
		SessionID:   e.sessionID,
		SourcesUsed: []string{},
		ToolsCalled: []string{},
	}

	// 名稱擷取：只在尚未認識客戶時記住新名字
	extractedName := e.classifier.ExtractName(ctx, message)
	firstInteraction := e.customerName == "" && extractedName != ""
	if firstInteraction {
		e.customerName = extractedName
		slog.Info("Customer introduced themselves", "session", e.sessionID, "name", extractedName)
	}

	// 打招呼短路：純問候直接回覆模板，不走生成流程
	if e.classifier.IsGreetingOnly(ctx, message) {
		greeting := e.greetingReply()
		e.commit(message, greeting)
		result.Message = greeting
		return result, nil
	}

	// 語意檢查短路:無法理解的問題回覆澄清請求
	if coherent, clarification := e.classifier.CheckCoherence(ctx, message); !coherent {
		if e.customerName != "" {
			clarification = fmt.Sprintf("%s, %s", e.customerName, strings.ToLower(clarification))
		}
		e.commit(message, clarification)
		result.Message = clarification
		return result, nil
	}

	// 生成初始回答;token_usage 只保留最後一次模型呼叫的計數
	messages := e.buildMessages(message)
	gen, messages, err := e.driver.Generate(ctx, messages, &result.TokenUsage)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	// 評估迴圈:不滿意則帶著理由重新生成,最多 maxRegenerations 次
	for attempt := 0; attempt < e.maxRegenerations; attempt++ {
		satisfactory, reason := e.evaluator.Evaluate(ctx, message, gen.reply, gen.toolsCalled)
		if satisfactory {
			break
		}

		result.Regenerations++
		slog.Info("Regenerating unsatisfactory answer",
			"session", e.sessionID, "attempt", result.Regenerations, "reason", reason)

		messages = append(messages,
			llm.NewAssistantMessage(gen.reply),
			llm.NewUserMessage(fmt.Sprintf("The previous answer was not satisfactory: %s. Please provide a better answer.", reason)),
		)
		gen, messages, err = e.driver.Generate(ctx, messages, &result.TokenUsage)
		if err != nil {
			return nil, fmt.Errorf("regeneration failed: %w", err)
		}
	}

	final := personalize(gen.reply, e.customerName, firstInteraction)

	e.commit(message, final)

	result.Message = final
	result.ToolsCalled = append(result.ToolsCalled, gen.toolsCalled...)
	result.SourcesUsed = dedupeSorted(gen.sources)
	return result, nil
}

// greetingReply is the templated welcome for greeting-only turns.
func (e *Engine) greetingReply() string {
	if e.customerName != "" {
		return fmt.Sprintf("Hello %s! Welcome to %s support. I'm here to help you find the right products, check orders, and answer any questions you might have. How can I assist you today?", e.customerName, e.company)
	}
	return fmt.Sprintf("Hello! Welcome to %s support. I'm here to help you find the right products, check orders, and answer any questions you might have. How can I assist you today?", e.company)
}

// buildMessages assembles system prompt, stored history and the new user
// message for the completion service.
func (e *Engine) buildMessages(userMessage string) []llm.Message {
	systemPrompt := e.systemPrompt
	if e.customerName != "" {
		systemPrompt += fmt.Sprintf("\n\nIMPORTANT: The customer's name is %s. Use their name naturally in your responses to personalize the conversation.", e.customerName)
	}

	stored := e.history.GetMessages()
	messages := make([]llm.Message, 0, len(stored)+2)
	messages = append(messages, llm.NewSystemMessage(systemPrompt))
	messages = append(messages, stored...)
	messages = append(messages, llm.NewUserMessage(userMessage))
	return messages
}

// commit appends the exchange to the session history. Only the plain
// user/assistant pair is stored; tool transcripts stay per-turn.
func (e *Engine) commit(userMessage, reply string) {
	e.history.AddPair(llm.NewUserMessage(userMessage), llm.NewAssistantMessage(reply))
}

// historyEntries exposes the stored transcript for the API surface.
// Takes the engine lock: reset swaps the history pointer under it.
func (e *Engine) historyEntries() []api.HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	msgs := e.history.GetMessages()
	entries := make([]api.HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, api.HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return entries
}

// reset clears the conversation state, forgetting the customer's name.
func (e *Engine) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = llm.NewChatHistory(e.history.Limit())
	e.customerName = ""
}

// idleSince reports whether the session has seen no turn for d.
func (e *Engine) idleSince(d time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Since(e.lastActive) > d
}

// dedupeSorted returns the unique values in sorted order. The result is
// never nil so it serializes as an empty JSON array.
func dedupeSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
