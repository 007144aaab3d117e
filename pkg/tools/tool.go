package tools

import (
	"context"
	"fmt"
	"sync"

	"helpdesk/pkg/llm"
)

// Tool is a single capability the agent can invoke during a turn.
type Tool interface {
	// Name returns the unique tool identifier offered to the model.
	Name() string
	// Description tells the model when to use this tool.
	Description() string
	// Parameters returns the JSON-schema property map for the arguments.
	Parameters() map[string]any
	// RequiredParameters lists the mandatory argument names.
	RequiredParameters() []string
	// Execute runs the tool and returns its textual result.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Registry acts as a central inventory for locally-implemented tools.
// It doubles as a Backend so local and remote tools share one gateway.
type Registry struct {
	mu    sync.RWMutex    // Protects concurrent access to the tools map
	tools map[string]Tool // Internal map of tool name to implementation
	order []string        // Registration order, keeps the catalog stable
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry
func (tr *Registry) Register(tool Tool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, exists := tr.tools[tool.Name()]; !exists {
		tr.order = append(tr.order, tool.Name())
	}
	tr.tools[tool.Name()] = tool
}

// Get retrieves a tool by name
func (tr *Registry) Get(name string) (Tool, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tool, ok := tr.tools[name]
	return tool, ok
}

// ListTools implements Backend. Definitions come back in registration order.
func (tr *Registry) ListTools(ctx context.Context) ([]llm.ToolDefinition, error) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	defs := make([]llm.ToolDefinition, 0, len(tr.order))
	for _, name := range tr.order {
		tool := tr.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
			Required:    tool.RequiredParameters(),
		})
	}
	return defs, nil
}

// CallTool implements Backend.
func (tr *Registry) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, ok := tr.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return tool.Execute(ctx, args)
}
