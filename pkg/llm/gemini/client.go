package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"helpdesk/pkg/llm"

	"google.golang.org/genai"
)

// GeminiClient Google Gemini API client
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client with a single model and API key
func NewGeminiClient(apiKey string, model string) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiClient) Provider() string {
	return "gemini"
}

// Chat implements llm.Client.Chat
func (g *GeminiClient) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	apiMessages, systemInstruction := g.convertMessages(req.Messages)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
	}

	// Convert tools
	if len(req.Tools) > 0 {
		var fds []*genai.FunctionDeclaration
		for _, def := range req.Tools {
			fd := &genai.FunctionDeclaration{
				Name:        def.Name,
				Description: def.Description,
			}
			// Schema struct is rebuilt through JSON to avoid manual field mapping
			schemaB, _ := json.Marshal(def.ParameterSchema())
			var schema genai.Schema
			if err := json.Unmarshal(schemaB, &schema); err == nil {
				fd.Parameters = &schema
			}
			fds = append(fds, fd)
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: fds}}
	}

	if req.JSONOnly {
		cfg.ResponseMIMEType = "application/json"
	}

	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, apiMessages, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini chat failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	out := &llm.ChatResponse{}
	var text strings.Builder

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			argsB, _ := json.Marshal(part.FunctionCall.Args)
			name := part.FunctionCall.Name
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:   name, // Gemini omits call IDs; the function name is unique per turn
				Name: name,
				Function: llm.FunctionCall{
					Name:      name,
					Arguments: string(argsB),
				},
			})
		}
	}
	out.Content = text.String()

	if u := resp.UsageMetadata; u != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}

	return out, nil
}

// convertMessages converts message list to GenAI format
func (g *GeminiClient) convertMessages(messages []llm.Message) ([]*genai.Content, *genai.Content) {
	var genaiContents []*genai.Content
	var systemInstruction *genai.Content

	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			// System role as SystemInstruction
			if msg.Content != "" {
				systemInstruction = &genai.Content{Parts: []*genai.Part{{Text: msg.Content}}}
			}
			continue
		}

		if msg.Role == llm.RoleTool {
			// Tool results are part of user role in Gemini
			genaiContents = append(genaiContents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{
					{
						FunctionResponse: &genai.FunctionResponse{
							Name:     msg.ToolCallID,
							Response: map[string]any{"result": msg.Content},
						},
					},
				},
			})
			continue
		}

		role := "user"
		if msg.Role == llm.RoleAssistant {
			role = "model"
		}

		var parts []*genai.Part
		// Check for previous ToolCalls (Gemini requires echoing them before response)
		for _, tc := range msg.ToolCalls {
			var args map[string]any
			json.Unmarshal([]byte(tc.Function.Arguments), &args)
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					Name: tc.Function.Name,
					Args: args,
				},
			})
		}

		if msg.Content != "" {
			parts = append(parts, &genai.Part{Text: msg.Content})
		}

		if len(parts) > 0 {
			genaiContents = append(genaiContents, &genai.Content{
				Role:  role,
				Parts: parts,
			})
		}
	}

	return genaiContents, systemInstruction
}

// IsTransientError implements the llm.Client interface
func (g *GeminiClient) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()

	// 1. Google API common 503 Service Unavailable / Overloaded
	if strings.Contains(errMsg, "503") || strings.Contains(strings.ToLower(errMsg), "overloaded") {
		return true
	}

	// 2. 429 Too Many Requests (Rate Limit)
	if strings.Contains(errMsg, "429") || strings.Contains(strings.ToLower(errMsg), "resource exhausted") {
		return true
	}

	// 3. 500 Internal Error (Occasional Google Gemini crashes)
	if strings.Contains(errMsg, "500") || strings.Contains(strings.ToLower(errMsg), "internal error") {
		return true
	}

	return false
}
