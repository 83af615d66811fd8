// Package synthesis turns raw tool output into the final user-facing
// answer via one completion call.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cinegraph/cinegraph/pkg/llms"
	"github.com/cinegraph/cinegraph/pkg/logger"
	"github.com/cinegraph/cinegraph/pkg/tools"
)

const synthesisInstruction = "You are a helpful assistant that summarizes tool outputs into natural language answers for the user."

// Fixed apology strings. Every pipeline failure surfaces to the user as
// one of these, never as a raw error.
const (
	// ApologyNoAnswer is returned when the tool stage produced nothing
	// to summarize.
	ApologyNoAnswer = "Sorry, no answer was generated."

	// ApologyNoResponse is returned when the summary call returned no
	// choices.
	ApologyNoResponse = "Sorry, no response generated."

	// ApologySynthesis is returned when the summary call itself failed.
	ApologySynthesis = "Sorry, I was unable to generate a summarized answer at this time."
)

// Synthesizer produces the final answer from (query, tool result).
type Synthesizer struct {
	llm llms.Completer
	log *slog.Logger
}

// New creates a Synthesizer over the given completion model.
func New(llm llms.Completer) *Synthesizer {
	return &Synthesizer{
		llm: llm,
		log: logger.With("component", "synthesizer"),
	}
}

// Synthesize returns the final natural-language answer. A failed or
// empty tool result short-circuits to the fixed apology without a model
// call; otherwise exactly one completion call is made.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, result tools.Result) string {
	if result.Failed() || result.Empty() {
		s.log.Info("skipping synthesis", "status", result.Status, "error", result.Error)
		return ApologyNoAnswer
	}

	messages := []llms.Message{
		{Role: llms.RoleSystem, Content: synthesisInstruction},
		{Role: llms.RoleUser, Content: fmt.Sprintf(
			"User query: %s \n\n Tool output: %s \n\n Please utilize the tool output to answer the user query.",
			query, result.Payload())},
	}

	answer, err := s.llm.Generate(ctx, messages)
	if err != nil {
		s.log.Warn("synthesis call failed", "error", err)
		// An empty choice list is "no response", not a call failure.
		if errors.Is(err, llms.ErrNoChoices) {
			return ApologyNoResponse
		}
		return ApologySynthesis
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ApologyNoResponse
	}
	return answer
}
