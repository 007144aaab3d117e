package agent

import (
	"context"
	"log/slog"

	"helpdesk/pkg/api"
	"helpdesk/pkg/llm"
	"helpdesk/pkg/tools"
)

// emptyReplyApology ships when the model returns no content at all.
const emptyReplyApology = "I apologize, but I couldn't generate a response."

// toolLoopFallback ships when a generation keeps requesting tools past
// the iteration ceiling instead of converging on an answer.
const toolLoopFallback = "I'm sorry, I wasn't able to complete that request. Could you try asking in a simpler way, or contact our support team for further help?"

// generation is the outcome of one completion pass including its tool
// transcript.
type generation struct {
	reply       string
	toolsCalled []string
	sources     []string
}

// Driver runs the iterative completion loop: call the model, execute any
// requested tools, feed results back, repeat until the model answers in
// plain text or the iteration ceiling trips.
type Driver struct {
	client        llm.Client
	gateway       *tools.Gateway
	maxIterations int
	enableTools   bool
}

// NewDriver creates a completion driver.
func NewDriver(client llm.Client, gateway *tools.Gateway, maxIterations int, enableTools bool) *Driver {
	if maxIterations <= 0 {
		maxIterations = 10
	}
	return &Driver{
		client:        client,
		gateway:       gateway,
		maxIterations: maxIterations,
		enableTools:   enableTools,
	}
}

// setUsage copies the counters from one model call, zeroing them when
// the provider reported none. The turn carries the last call's numbers,
// not a sum.
func setUsage(usage *api.TokenUsage, u *llm.Usage) {
	if usage == nil {
		return
	}
	*usage = api.TokenUsage{}
	if u == nil {
		return
	}
	usage.PromptTokens = u.PromptTokens
	usage.CompletionTokens = u.CompletionTokens
	usage.TotalTokens = u.TotalTokens
}

// Generate produces one answer. The returned message slice includes the
// full tool transcript so a regeneration pass continues from it. Each
// model call overwrites usage, leaving the final call's counters.
func (d *Driver) Generate(ctx context.Context, messages []llm.Message, usage *api.TokenUsage) (*generation, []llm.Message, error) {
	gen := &generation{}

	// A catalog failure degrades to a tool-less answer instead of
	// failing the turn; the next turn retries the backends.
	var defs []llm.ToolDefinition
	if d.enableTools && d.gateway != nil {
		var err error
		defs, err = d.gateway.Catalog(ctx)
		if err != nil {
			slog.Warn("Proceeding without tools", "error", err)
			defs = nil
		}
	}

	resp, err := d.client.Chat(ctx, &llm.ChatRequest{
		Messages: messages,
		Tools:    defs,
	})
	if err != nil {
		return nil, messages, err
	}
	setUsage(usage, resp.Usage)

	iterations := 0
	for len(resp.ToolCalls) > 0 {
		iterations++
		if iterations > d.maxIterations {
			slog.Warn("Tool loop ceiling reached", "iterations", d.maxIterations)
			gen.reply = toolLoopFallback
			return gen, messages, nil
		}

		// Echo the assistant's tool request into the transcript, then
		// answer every call by ID.
		assistantMsg := llm.NewAssistantMessage(resp.Content)
		assistantMsg.ToolCalls = resp.ToolCalls
		messages = append(messages, assistantMsg)

		for _, tc := range resp.ToolCalls {
			args := map[string]any{}
			if tc.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					slog.Warn("Malformed tool arguments, using empty set", "tool", tc.Function.Name)
					args = map[string]any{}
				}
			}

			gen.toolsCalled = append(gen.toolsCalled, tc.Function.Name)
			result := d.gateway.Execute(ctx, tc.Function.Name, args)

			if label := tools.SourceLabel(tc.Function.Name); label != "" {
				gen.sources = append(gen.sources, label)
			}

			messages = append(messages, llm.NewToolMessage(tc.ID, result))
		}

		resp, err = d.client.Chat(ctx, &llm.ChatRequest{
			Messages: messages,
			Tools:    defs,
		})
		if err != nil {
			return nil, messages, err
		}
		setUsage(usage, resp.Usage)
	}

	gen.reply = resp.Content
	if gen.reply == "" {
		gen.reply = emptyReplyApology
	}
	return gen, messages, nil
}
