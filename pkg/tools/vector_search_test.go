package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinegraph/cinegraph/pkg/graph"
)

func validEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vector: make([]float32, 1536), dimension: 1536}
}

func TestVectorSearchTool_Execute(t *testing.T) {
	store := &fakeStore{records: []graph.Record{
		{"title": "Dark City", "overview": "A man struggles with memories", "score": 0.93},
		{"title": "Equilibrium", "overview": "A future without feeling", "score": 0.91},
	}}
	tool := NewVectorSearchTool(store, validEmbedder(), "movieEmbeddingIndex", 5)

	result := tool.Execute(context.Background(), map[string]any{
		"query": "Find movies like The Matrix with more emotion",
	})

	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "Dark City", result.Records[0]["title"])
	assert.Equal(t, "movieEmbeddingIndex", store.lastParams["index"])
	assert.Equal(t, 5, store.lastParams["top_k"])
}

func TestVectorSearchTool_Execute_OverridesCallerTopK(t *testing.T) {
	store := &fakeStore{records: []graph.Record{{"title": "Dark City", "score": 0.9}}}
	tool := NewVectorSearchTool(store, validEmbedder(), "movieEmbeddingIndex", 5)

	result := tool.Execute(context.Background(), map[string]any{
		"query": "movies like The Matrix",
		"top_k": 50,
	})

	assert.Equal(t, StatusSuccess, result.Status)
	// The configured default wins regardless of the caller's value.
	assert.Equal(t, 5, store.lastParams["top_k"])
}

func TestVectorSearchTool_Execute_InvalidEmbeddingDimension(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{vector: make([]float32, 12), dimension: 1536}
	tool := NewVectorSearchTool(store, embedder, "movieEmbeddingIndex", 5)

	result := tool.Execute(context.Background(), map[string]any{"query": "anything"})

	assert.True(t, result.Failed())
	assert.Contains(t, result.Error, "invalid embedding")
	// Validation happens before any store call.
	assert.Equal(t, 0, store.calls)
}

func TestVectorSearchTool_Execute_EmbedderError(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{err: errors.New("rate limited"), dimension: 1536}
	tool := NewVectorSearchTool(store, embedder, "movieEmbeddingIndex", 5)

	result := tool.Execute(context.Background(), map[string]any{"query": "anything"})

	assert.True(t, result.Failed())
	assert.Contains(t, result.Error, "rate limited")
	assert.Equal(t, 0, store.calls)
}

func TestVectorSearchTool_Execute_NoResultsIsNotFailure(t *testing.T) {
	tool := NewVectorSearchTool(&fakeStore{}, validEmbedder(), "movieEmbeddingIndex", 5)

	result := tool.Execute(context.Background(), map[string]any{"query": "obscure query"})

	assert.Equal(t, StatusNoResults, result.Status)
	assert.False(t, result.Failed())
	assert.Equal(t, "No similar movies found", result.Text)
}

func TestVectorSearchTool_Execute_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("index not found")}
	tool := NewVectorSearchTool(store, validEmbedder(), "movieEmbeddingIndex", 5)

	result := tool.Execute(context.Background(), map[string]any{"query": "anything"})

	assert.True(t, result.Failed())
	assert.Contains(t, result.Error, "index not found")
}
