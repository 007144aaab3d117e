package rag

import (
	"context"
	"fmt"
	"strings"
)

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 4

// KnowledgeTool exposes the vector store to the agent as the
// search_knowledge_base tool.
type KnowledgeTool struct {
	embedder Embedder
	store    VectorStore
	topK     int
}

// NewKnowledgeTool wires an embedder and vector store into a tool.
func NewKnowledgeTool(embedder Embedder, store VectorStore, topK int) *KnowledgeTool {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &KnowledgeTool{
		embedder: embedder,
		store:    store,
		topK:     topK,
	}
}

func (t *KnowledgeTool) Name() string { return "search_knowledge_base" }

func (t *KnowledgeTool) Description() string {
	return "Search the company knowledge base for general information, policies and guides."
}

func (t *KnowledgeTool) Parameters() map[string]any {
	return map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "Search query for the knowledge base",
		},
	}
}

func (t *KnowledgeTool) RequiredParameters() []string { return []string{"query"} }

// Execute embeds the query, searches the store and renders each chunk
// with its source document and a coarse relevance grade.
func (t *KnowledgeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	vector, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return "", err
	}

	results, err := t.store.Search(ctx, vector, t.topK)
	if err != nil {
		return "", err
	}

	if len(results) == 0 {
		return "No relevant information found in the knowledge base.", nil
	}

	formatted := make([]string, 0, len(results))
	for _, r := range results {
		source := r.SourceFile
		if source == "" {
			source = "Unknown"
		}
		formatted = append(formatted, fmt.Sprintf("[Source: %s | Relevance: %s]\n%s",
			source, relevanceGrade(r.Score), r.Content))
	}
	return strings.Join(formatted, "\n\n---\n\n"), nil
}

// relevanceGrade buckets a cosine similarity score for the model.
func relevanceGrade(score float32) string {
	switch {
	case score >= 0.8:
		return "High"
	case score >= 0.5:
		return "Medium"
	default:
		return "Low"
	}
}
