package openailm

import (
	"context"
	"fmt"
	"strings"

	"helpdesk/pkg/llm"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Client is a wrapper around the official OpenAI Go SDK
type Client struct {
	client   *openai.Client
	provider string
	model    string
	options  map[string]any
}

// NewClient creates a new OpenAI client
func NewClient(provider string, apiKey string, model string, baseURL string, options map[string]any) (*Client, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)

	return &Client{
		client:   &client,
		provider: provider,
		model:    model,
		options:  options,
	}, nil
}

func (c *Client) Provider() string {
	return c.provider
}

func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())

	// Transient: network-level issues
	if strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout") {
		return true
	}

	// Transient: server-side temporary failures
	if strings.Contains(msg, "500 internal") ||
		strings.Contains(msg, "502 bad gateway") ||
		strings.Contains(msg, "503 service unavailable") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "overloaded") {
		return true
	}

	// Everything else (400 Bad Request, 401 Unauthorized, etc.) is non-transient
	return false
}

// Chat 發送一次完整請求，等待最終回應 (含 tool calls 與用量統計)
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: c.convertMessages(req.Messages),
	}

	// Handle unified "temperature" option; per-request override wins
	if t, ok := c.options["temperature"].(float64); ok {
		params.Temperature = openai.Float(t)
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	// Handle unified "max_tokens" option
	if maxTok, ok := c.options["max_tokens"].(float64); ok {
		params.MaxCompletionTokens = openai.Int(int64(maxTok))
	}

	if req.JSONOnly {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	if tools := c.convertTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	choice := completion.Choices[0]
	resp := &llm.ChatResponse{
		Content: choice.Message.Content,
	}

	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Function: llm.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	if completion.Usage.TotalTokens > 0 {
		resp.Usage = &llm.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		}
	}

	return resp, nil
}

func (c *Client) convertMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	items := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			items = append(items, openai.SystemMessage(m.Content))
		case llm.RoleUser:
			items = append(items, openai.UserMessage(m.Content))
		case llm.RoleAssistant:
			if len(m.ToolCalls) > 0 {
				assistant := openai.ChatCompletionAssistantMessageParam{}
				if m.Content != "" {
					assistant.Content.OfString = openai.String(m.Content)
				}
				for _, tc := range m.ToolCalls {
					assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
						OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
							ID: tc.ID,
							Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
								Name:      tc.Function.Name,
								Arguments: tc.Function.Arguments,
							},
						},
					})
				}
				items = append(items, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
			} else {
				items = append(items, openai.AssistantMessage(m.Content))
			}
		case llm.RoleTool:
			items = append(items, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}

	return items
}

func (c *Client) convertTools(defs []llm.ToolDefinition) []openai.ChatCompletionToolUnionParam {
	var tools []openai.ChatCompletionToolUnionParam
	for _, def := range defs {
		tools = append(tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        def.Name,
			Description: openai.String(def.Description),
			Parameters:  shared.FunctionParameters(def.ParameterSchema()),
		}))
	}
	return tools
}
