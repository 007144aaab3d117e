package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"helpdesk/pkg/llm"
)

// Backend serves a catalog of tool definitions and executes calls.
// The local Registry and the remote MCP client both satisfy it.
type Backend interface {
	ListTools(ctx context.Context) ([]llm.ToolDefinition, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Gateway fronts one or more backends behind a single merged catalog.
// The catalog is fetched lazily and cached only after the first fully
// successful listing, so a backend that was down at startup is retried
// on the next turn instead of being dropped for the process lifetime.
type Gateway struct {
	backends []Backend

	mu      sync.Mutex
	catalog []llm.ToolDefinition // nil until a listing succeeds
	routes  map[string]Backend   // tool name -> owning backend
}

// NewGateway creates a gateway over the given backends. Order matters:
// on a name collision the earlier backend wins.
func NewGateway(backends ...Backend) *Gateway {
	return &Gateway{backends: backends}
}

// Catalog returns the merged tool definitions, fetching from every
// backend on first use. A partial failure leaves the cache unset.
func (g *Gateway) Catalog(ctx context.Context) ([]llm.ToolDefinition, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.catalog != nil {
		return g.catalog, nil
	}

	var merged []llm.ToolDefinition
	routes := make(map[string]Backend)

	for _, backend := range g.backends {
		defs, err := backend.ListTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool catalog unavailable: %w", err)
		}
		for _, def := range defs {
			if _, dup := routes[def.Name]; dup {
				slog.Warn("Duplicate tool name, keeping first", "tool", def.Name)
				continue
			}
			routes[def.Name] = backend
			merged = append(merged, def)
		}
	}

	g.catalog = merged
	g.routes = routes
	slog.Info("Tool catalog loaded", "count", len(merged))
	return g.catalog, nil
}

// Ready reports whether the catalog has been fetched successfully.
func (g *Gateway) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.catalog != nil
}

// Execute routes a tool call to its backend. Failures are contained:
// the error text is returned as the tool result string so the model can
// recover, and err stays nil unless the catalog itself is unavailable.
func (g *Gateway) Execute(ctx context.Context, name string, args map[string]any) string {
	g.mu.Lock()
	backend := g.routes[name]
	g.mu.Unlock()

	if backend == nil {
		return fmt.Sprintf("Error executing %s: unknown tool", name)
	}

	result, err := backend.CallTool(ctx, name, args)
	if err != nil {
		slog.Warn("Tool execution failed", "tool", name, "error", err)
		return fmt.Sprintf("Error executing %s: %v", name, err)
	}
	return result
}

// toolSources maps tool names to the human-readable data source shown to
// the user in the turn result.
var toolSources = map[string]string{
	"list_products":         "Product Catalog",
	"get_product":           "Product Catalog",
	"search_products":       "Product Catalog",
	"list_orders":           "Order System",
	"get_order":             "Order System",
	"create_order":          "Order System",
	"get_customer":          "Customer Database",
	"verify_customer_pin":   "Customer Database",
	"search_knowledge_base": "Knowledge Base (RAG)",
}

// SourceLabel returns the data-source label for a tool, or "" when the
// tool maps to no user-visible source.
func SourceLabel(toolName string) string {
	return toolSources[toolName]
}
