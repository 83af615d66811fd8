package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/cinegraph/cinegraph/pkg/logger"
)

// CypherTool answers structured factual queries. The routing model
// authors the cypher text itself from the declared schema; this adapter
// only executes it against the store and wraps the outcome. Query
// construction and query execution stay on opposite sides of this
// boundary on purpose.
type CypherTool struct {
	store GraphExecutor
	log   *slog.Logger
}

// NewCypherTool creates the structured lookup adapter.
func NewCypherTool(store GraphExecutor) *CypherTool {
	return &CypherTool{
		store: store,
		log:   logger.With("tool", ToolCypherQuery),
	}
}

func (t *CypherTool) Name() string {
	return ToolCypherQuery
}

func (t *CypherTool) Info() ToolInfo {
	return ToolInfo{
		Name:        ToolCypherQuery,
		Description: "Executes a cypher query against the movie graph and returns all matching records. Use for factual questions about directors, actors, runtime, genres, companies, countries and languages.",
		Parameters: []ToolParameter{
			{Name: "query", Type: "string", Description: "Executable cypher query text", Required: true},
		},
	}
}

// Execute runs the model-authored cypher verbatim. Store errors are
// wrapped as failure results, never raised.
func (t *CypherTool) Execute(ctx context.Context, args map[string]any) Result {
	query, ok := stringArg(args, "query")
	if !ok {
		return failure(ToolCypherQuery, "cypher query text is required")
	}

	start := time.Now()
	records, err := t.store.Execute(ctx, query, nil)
	if err != nil {
		t.log.Warn("cypher execution failed", "error", err)
		return failure(ToolCypherQuery, "cypher execution failed: %v", err)
	}

	result := successRecords(ToolCypherQuery, records)
	result.Elapsed = time.Since(start)
	t.log.Debug("cypher executed", "records", len(records), "elapsed", result.Elapsed)
	return result
}
