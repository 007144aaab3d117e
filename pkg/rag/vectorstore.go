package rag

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// SearchResult is one retrieved knowledge-base chunk.
type SearchResult struct {
	// Score is the similarity score (0.0-1.0, higher is more similar).
	Score float32
	// Content is the chunk text.
	Content string
	// SourceFile names the document the chunk came from.
	SourceFile string
}

// VectorStore is a technology-agnostic interface for similarity search
// over the knowledge base.
type VectorStore interface {
	Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)
	Close() error
}

// QdrantStore implements VectorStore on a Qdrant collection. Chunks are
// expected to carry "content" and "source_file" payload fields.
type QdrantStore struct {
	client         *qdrant.Client
	collectionName string
}

// QdrantConfig holds Qdrant connection configuration.
type QdrantConfig struct {
	// URL is the Qdrant server address (e.g., "https://example.qdrant.io:6334").
	URL string
	// CollectionName is the name of the collection to search.
	CollectionName string
	// APIKey is optional API key for authentication.
	APIKey string
}

// NewQdrantStore creates a new Qdrant-backed vector store.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}

	parsedURL := cfg.URL
	if !strings.HasPrefix(parsedURL, "http://") && !strings.HasPrefix(parsedURL, "https://") {
		parsedURL = "https://" + parsedURL
	}

	u, err := url.Parse(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	host := u.Hostname()
	port := 6334 // default gRPC port
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantStore{
		client:         client,
		collectionName: cfg.CollectionName,
	}, nil
}

// Search implements VectorStore.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error) {
	limitUint64 := uint64(limit)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limitUint64,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		result := SearchResult{Score: point.Score}
		for k, v := range point.Payload {
			switch k {
			case "content":
				result.Content = v.GetStringValue()
			case "source_file":
				result.SourceFile = v.GetStringValue()
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// Close implements VectorStore.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Compile-time check that QdrantStore implements VectorStore.
var _ VectorStore = (*QdrantStore)(nil)
