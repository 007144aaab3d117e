package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"helpdesk/pkg/llm"

	"github.com/google/jsonschema-go/jsonschema"
	jsoniter "github.com/json-iterator/go"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is a tool backend served by a remote MCP server over
// streamable HTTP. It connects lazily so a server that is down at
// startup only fails the turns that actually need it.
type Client struct {
	endpoint string

	mu      sync.Mutex
	session *sdk.ClientSession
}

// NewClient creates an MCP backend for the given server endpoint.
func NewClient(endpoint string) *Client {
	return &Client{endpoint: endpoint}
}

// connect establishes (or reuses) the MCP session.
func (c *Client) connect(ctx context.Context) (*sdk.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	client := sdk.NewClient(&sdk.Implementation{
		Name:    "helpdesk",
		Version: "1.0.0",
	}, nil)

	transport := &sdk.StreamableClientTransport{Endpoint: c.endpoint}
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp connect to %s failed: %w", c.endpoint, err)
	}

	slog.Info("MCP session established", "endpoint", c.endpoint)
	c.session = session
	return session, nil
}

// drop discards a session after a transport failure so the next call reconnects.
func (c *Client) drop(session *sdk.ClientSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == session {
		_ = session.Close()
		c.session = nil
	}
}

// ListTools implements tools.Backend.
func (c *Client) ListTools(ctx context.Context) ([]llm.ToolDefinition, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	res, err := session.ListTools(ctx, &sdk.ListToolsParams{})
	if err != nil {
		c.drop(session)
		return nil, fmt.Errorf("mcp list tools failed: %w", err)
	}

	defs := make([]llm.ToolDefinition, 0, len(res.Tools))
	for _, t := range res.Tools {
		def := llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
		}

		schema, _ := t.InputSchema.(*jsonschema.Schema)
		def.Parameters, def.Required = flattenSchema(schema)

		defs = append(defs, def)
	}
	return defs, nil
}

// flattenSchema converts a tool input schema to the generic
// properties/required shape the provider clients expect, one JSON
// round-trip per property.
func flattenSchema(s *jsonschema.Schema) (map[string]any, []string) {
	if s == nil {
		return map[string]any{}, nil
	}

	props := make(map[string]any, len(s.Properties))
	for name, prop := range s.Properties {
		var flat map[string]any
		if raw, err := json.Marshal(prop); err == nil {
			_ = json.Unmarshal(raw, &flat)
		}
		props[name] = flat
	}
	return props, s.Required
}

// CallTool implements tools.Backend. A tool-level error on the server
// side (IsError) comes back as a normal error so the gateway can contain
// it in the result text.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return "", err
	}

	res, err := session.CallTool(ctx, &sdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		c.drop(session)
		return "", fmt.Errorf("mcp call %s failed: %w", name, err)
	}

	var sb strings.Builder
	for _, content := range res.Content {
		if text, ok := content.(*sdk.TextContent); ok {
			sb.WriteString(text.Text)
		}
	}

	if res.IsError {
		return "", fmt.Errorf("%s", sb.String())
	}
	return sb.String(), nil
}

// Close terminates the MCP session if one is open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		err := c.session.Close()
		c.session = nil
		return err
	}
	return nil
}
