package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/cinegraph/cinegraph/pkg/logger"
)

// nearestMoviesQuery returns title/overview/score triples ordered by
// descending similarity score (the index orders them).
const nearestMoviesQuery = `
CALL db.index.vector.queryNodes($index, $top_k, $embedding)
YIELD node, score
RETURN node.title AS title, node.overview AS overview, score
`

// VectorSearchTool answers "find items like X" queries: it embeds the
// query text, validates the embedding dimension, and runs a
// nearest-neighbor lookup against the movie embedding index.
type VectorSearchTool struct {
	store    GraphExecutor
	embedder Embedder
	index    string
	topK     int
	log      *slog.Logger
}

// NewVectorSearchTool creates the similarity search adapter.
func NewVectorSearchTool(store GraphExecutor, embedder Embedder, index string, topK int) *VectorSearchTool {
	return &VectorSearchTool{
		store:    store,
		embedder: embedder,
		index:    index,
		topK:     topK,
		log:      logger.With("tool", ToolVectorSearch),
	}
}

func (t *VectorSearchTool) Name() string {
	return ToolVectorSearch
}

func (t *VectorSearchTool) Info() ToolInfo {
	return ToolInfo{
		Name:        ToolVectorSearch,
		Description: "Finds movies semantically similar to the query text. Use for recommendation and similarity questions. Always returns the default result count.",
		Parameters: []ToolParameter{
			{Name: "query", Type: "string", Description: "Free-text description of what to find", Required: true},
			{Name: "top_k", Type: "integer", Description: "Requested result count (the configured default is used regardless)", Required: false},
		},
	}
}

// Execute embeds the query and runs the nearest-neighbor lookup. A
// caller-supplied top_k is accepted but the configured default is used;
// the original behaved this way and callers depend on the fixed count.
func (t *VectorSearchTool) Execute(ctx context.Context, args map[string]any) Result {
	query, ok := stringArg(args, "query")
	if !ok {
		return failure(ToolVectorSearch, "search query text is required")
	}

	start := time.Now()
	embedding, err := t.embedder.Embed(ctx, query)
	if err != nil {
		t.log.Warn("embedding failed", "error", err)
		return failure(ToolVectorSearch, "embedding failed: %v", err)
	}

	// Validate before any store call.
	if len(embedding) != t.embedder.Dimension() {
		t.log.Warn("invalid embedding", "got", len(embedding), "want", t.embedder.Dimension())
		return failure(ToolVectorSearch, "invalid embedding: expected %d dimensions, got %d",
			t.embedder.Dimension(), len(embedding))
	}

	records, err := t.store.Execute(ctx, nearestMoviesQuery, map[string]any{
		"index":     t.index,
		"top_k":     t.topK,
		"embedding": embedding,
	})
	if err != nil {
		t.log.Warn("vector query failed", "error", err)
		return failure(ToolVectorSearch, "vector query failed: %v", err)
	}

	if len(records) == 0 {
		return noResults(ToolVectorSearch, "No similar movies found")
	}

	result := successRecords(ToolVectorSearch, records)
	result.Elapsed = time.Since(start)
	t.log.Debug("vector search done", "records", len(records), "elapsed", result.Elapsed)
	return result
}
