package ollama

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"helpdesk/pkg/llm"

	jsoniter "github.com/json-iterator/go"
	"github.com/ollama/ollama/api"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OllamaClient Ollama API client
type OllamaClient struct {
	client  *api.Client
	model   string
	options map[string]any
}

// NewOllamaClient creates an Ollama client
func NewOllamaClient(model string, baseURL string, options map[string]any) (*OllamaClient, error) {
	var client *api.Client
	var err error

	// Custom Transport to ensure no timeouts are imposed by the client
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 0, // Explicitly no timeout
	}

	customClient := &http.Client{
		Transport: &JSONFixingRoundTripper{Proxied: transport},
		Timeout:   0, // Explicitly no timeout
	}

	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		client = api.NewClient(u, customClient)
	} else {
		client, err = api.ClientFromEnvironment()
	}

	if err != nil {
		return nil, err
	}

	slog.Info("Ollama client initialized", "model", model, "base_url", baseURL)

	return &OllamaClient{
		client:  client,
		model:   model,
		options: options,
	}, nil
}

func (o *OllamaClient) Provider() string {
	return "ollama"
}

// Chat 發送一次非串流請求，收斂 callback 結果為單一回應
func (o *OllamaClient) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	apiMessages := o.convertMessages(req.Messages)

	// Convert tools (using JSON conversion to work around SDK type mismatch issues)
	var ollamaTools []api.Tool
	if len(req.Tools) > 0 {
		wire := make([]map[string]any, 0, len(req.Tools))
		for _, def := range req.Tools {
			wire = append(wire, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        def.Name,
					"description": def.Description,
					"parameters":  def.ParameterSchema(),
				},
			})
		}
		rawB, err := json.Marshal(wire)
		if err != nil {
			slog.Error("Failed to marshal tools", "provider", "ollama", "error", err)
		} else if err := json.Unmarshal(rawB, &ollamaTools); err != nil {
			slog.Error("Failed to unmarshal to api.Tool", "provider", "ollama", "error", err)
		}
	}

	options := make(map[string]any, len(o.options)+1)
	for k, v := range o.options {
		options[k] = v
	}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}

	streamVal := false
	chatReq := &api.ChatRequest{
		Model:    o.model,
		Messages: apiMessages,
		Options:  options,
		Tools:    ollamaTools,
		Stream:   &streamVal,
	}

	if req.JSONOnly {
		chatReq.Format = []byte(`"json"`)
	}

	var resp *llm.ChatResponse
	err := o.client.Chat(ctx, chatReq, func(r api.ChatResponse) error {
		out := &llm.ChatResponse{
			Content: r.Message.Content,
		}

		for _, tc := range r.Message.ToolCalls {
			argsB, err := json.Marshal(tc.Function.Arguments)
			if err != nil {
				slog.Warn("Failed to marshal tool call arguments", "provider", "ollama", "error", err)
				argsB = []byte("{}")
			}
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Function: llm.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: string(argsB),
				},
			})
		}

		if r.Done {
			out.Usage = &llm.Usage{
				PromptTokens:     r.PromptEvalCount,
				CompletionTokens: r.EvalCount,
				TotalTokens:      r.PromptEvalCount + r.EvalCount,
			}
		}

		resp = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("ollama returned no response")
	}
	return resp, nil
}

// convertMessages converts messages to Ollama API format
func (o *OllamaClient) convertMessages(messages []llm.Message) []api.Message {
	var ollamaMsgs []api.Message

	for _, m := range messages {
		msg := api.Message{
			Role:    m.Role,
			Content: m.Content,
		}

		// Handle tool calls (if Assistant role and has ToolCalls)
		if m.Role == llm.RoleAssistant && len(m.ToolCalls) > 0 {
			var ollamaToolCalls []api.ToolCall
			for _, tc := range m.ToolCalls {
				// api.ToolCallFunctionArguments supports unmarshaling from the raw JSON string
				var apiArgs api.ToolCallFunctionArguments
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &apiArgs); err != nil {
					slog.Warn("Failed to unmarshal tool arguments for history", "provider", "ollama", "error", err)
				}

				ollamaToolCalls = append(ollamaToolCalls, api.ToolCall{
					ID: tc.ID,
					Function: api.ToolCallFunction{
						Name:      tc.Function.Name,
						Arguments: apiArgs,
					},
				})
			}
			msg.ToolCalls = ollamaToolCalls
		}

		// Handle tool results (if Tool role)
		if m.Role == llm.RoleTool {
			msg.ToolCallID = m.ToolCallID
		}

		ollamaMsgs = append(ollamaMsgs, msg)
	}

	return ollamaMsgs
}

// IsTransientError implements the llm.Client interface
func (o *OllamaClient) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()

	// 1. Connection related errors (Connection refused, reset)
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "connection reset") {
		return true
	}

	// 2. High load
	if strings.Contains(strings.ToLower(errMsg), "overloaded") {
		return true
	}

	return false
}

//----------------------------------------------------------------
// JSONFixingRoundTripper - Interceptor that fixes illegal JSON escapes
//----------------------------------------------------------------

// JSONFixingRoundTripper intercepts response and fixes illegal escapes (e.g., \$)
type JSONFixingRoundTripper struct {
	Proxied http.RoundTripper
}

func (j *JSONFixingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := j.Proxied.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(resp.Header.Get("Content-Type"), "application/x-ndjson") {
		resp.Body = &jsonFixingReadCloser{body: resp.Body}
	}
	return resp, nil
}

type jsonFixingReadCloser struct {
	body io.ReadCloser
}

var illegalEscapeRegex = regexp.MustCompile(`\\([^\/\\bfnrtu"])`)

func (j *jsonFixingReadCloser) Read(p []byte) (n int, err error) {
	n, err = j.body.Read(p)
	if n > 0 {
		// Preprocess illegal escapes in the buffer
		// e.g., convert \$ to $ to avoid JSON parsing failures
		content := string(p[:n])
		fixed := illegalEscapeRegex.ReplaceAllString(content, "$1")
		if len(fixed) < len(content) {
			copy(p, []byte(fixed))
			n = len(fixed)
		}
	}
	return n, err
}

func (j *jsonFixingReadCloser) Close() error {
	return j.body.Close()
}
