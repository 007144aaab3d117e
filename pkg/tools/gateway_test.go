package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"helpdesk/pkg/llm"
)

// fakeBackend is a scriptable Backend for gateway tests.
type fakeBackend struct {
	defs      []llm.ToolDefinition
	listErr   error
	listCalls int
	result    string
	callErr   error
	lastName  string
}

func (f *fakeBackend) ListTools(ctx context.Context) ([]llm.ToolDefinition, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.defs, nil
}

func (f *fakeBackend) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	f.lastName = name
	if f.callErr != nil {
		return "", f.callErr
	}
	return f.result, nil
}

func TestGatewayCatalogMergesBackends(t *testing.T) {
	a := &fakeBackend{defs: []llm.ToolDefinition{{Name: "get_order"}, {Name: "list_orders"}}}
	b := &fakeBackend{defs: []llm.ToolDefinition{{Name: "search_knowledge_base"}}}

	g := NewGateway(a, b)
	defs, err := g.Catalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(defs))
	}
	if defs[0].Name != "get_order" || defs[2].Name != "search_knowledge_base" {
		t.Errorf("catalog order wrong: %v", defs)
	}
}

func TestGatewayCatalogCachesAfterSuccess(t *testing.T) {
	a := &fakeBackend{defs: []llm.ToolDefinition{{Name: "get_order"}}}
	g := NewGateway(a)

	if _, err := g.Catalog(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.Catalog(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.listCalls != 1 {
		t.Errorf("expected a single listing, got %d", a.listCalls)
	}
}

func TestGatewayReady(t *testing.T) {
	a := &fakeBackend{defs: []llm.ToolDefinition{{Name: "get_order"}}}
	g := NewGateway(a)

	if g.Ready() {
		t.Error("ready before first listing")
	}
	if _, err := g.Catalog(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.Ready() {
		t.Error("not ready after successful listing")
	}
}

func TestGatewayCatalogRetriesAfterFailure(t *testing.T) {
	a := &fakeBackend{listErr: errors.New("backend down")}
	g := NewGateway(a)

	if _, err := g.Catalog(context.Background()); err == nil {
		t.Fatal("expected error while backend is down")
	}

	// Backend recovers; the next listing must reach it again
	a.listErr = nil
	a.defs = []llm.ToolDefinition{{Name: "get_order"}}
	defs, err := g.Catalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if len(defs) != 1 {
		t.Errorf("expected 1 tool after recovery, got %d", len(defs))
	}
}

func TestGatewayDuplicateNamesFirstWins(t *testing.T) {
	a := &fakeBackend{defs: []llm.ToolDefinition{{Name: "get_order"}}, result: "from-a"}
	b := &fakeBackend{defs: []llm.ToolDefinition{{Name: "get_order"}}, result: "from-b"}

	g := NewGateway(a, b)
	defs, err := g.Catalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected deduplicated catalog, got %d entries", len(defs))
	}

	if got := g.Execute(context.Background(), "get_order", nil); got != "from-a" {
		t.Errorf("expected first backend to own the tool, got %q", got)
	}
}

func TestGatewayExecuteContainsFailures(t *testing.T) {
	a := &fakeBackend{defs: []llm.ToolDefinition{{Name: "get_order"}}, callErr: errors.New("order not found")}
	g := NewGateway(a)
	if _, err := g.Catalog(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := g.Execute(context.Background(), "get_order", map[string]any{"order_id": "ORD-0001"})
	if !strings.Contains(got, "Error executing get_order") || !strings.Contains(got, "order not found") {
		t.Errorf("failure not contained in result: %q", got)
	}
}

func TestGatewayExecuteUnknownTool(t *testing.T) {
	g := NewGateway(&fakeBackend{})
	got := g.Execute(context.Background(), "no_such_tool", nil)
	if !strings.Contains(got, "unknown tool") {
		t.Errorf("expected unknown-tool message, got %q", got)
	}
}

func TestSourceLabel(t *testing.T) {
	tests := []struct {
		tool string
		want string
	}{
		{"list_products", "Product Catalog"},
		{"create_order", "Order System"},
		{"verify_customer_pin", "Customer Database"},
		{"search_knowledge_base", "Knowledge Base (RAG)"},
		{"unmapped_tool", ""},
	}
	for _, tt := range tests {
		if got := SourceLabel(tt.tool); got != tt.want {
			t.Errorf("SourceLabel(%q) = %q, want %q", tt.tool, got, tt.want)
		}
	}
}

func TestRegistryListInRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(staticTool{name: "zeta"})
	r.Register(staticTool{name: "alpha"})

	defs, err := r.ListTools(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if defs[0].Name != "zeta" || defs[1].Name != "alpha" {
		t.Errorf("expected registration order, got %v", defs)
	}
}

// staticTool is a minimal Tool for registry tests.
type staticTool struct{ name string }

func (s staticTool) Name() string                 { return s.name }
func (s staticTool) Description() string          { return "static" }
func (s staticTool) Parameters() map[string]any   { return nil }
func (s staticTool) RequiredParameters() []string { return nil }
func (s staticTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return "ok", nil
}
