package tools

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cinegraph/cinegraph/pkg/llms"
	"github.com/cinegraph/cinegraph/pkg/logger"
)

// ReasoningTool answers open-ended, evaluative, or conversational
// queries by passing the query text straight to the completion model.
type ReasoningTool struct {
	llm llms.Completer
	log *slog.Logger
}

// NewReasoningTool creates the open-ended reasoning adapter.
func NewReasoningTool(llm llms.Completer) *ReasoningTool {
	return &ReasoningTool{
		llm: llm,
		log: logger.With("tool", ToolLLMReasoning),
	}
}

func (t *ReasoningTool) Name() string {
	return ToolLLMReasoning
}

func (t *ReasoningTool) Info() ToolInfo {
	return ToolInfo{
		Name:        ToolLLMReasoning,
		Description: "Answers open-ended, opinion-based or conversational movie questions that structured lookup and similarity search cannot.",
		Parameters: []ToolParameter{
			{Name: "query", Type: "string", Description: "The user's question verbatim", Required: true},
		},
	}
}

// Execute forwards the query to the completion model and returns the
// trimmed completion.
func (t *ReasoningTool) Execute(ctx context.Context, args map[string]any) Result {
	query, ok := stringArg(args, "query")
	if !ok {
		return failure(ToolLLMReasoning, "query text is required")
	}

	start := time.Now()
	completion, err := t.llm.Generate(ctx, []llms.Message{
		{Role: llms.RoleUser, Content: query},
	})
	if err != nil {
		t.log.Warn("reasoning completion failed", "error", err)
		return failure(ToolLLMReasoning, "reasoning completion failed: %v", err)
	}

	result := successText(ToolLLMReasoning, strings.TrimSpace(completion))
	result.Elapsed = time.Since(start)
	return result
}
