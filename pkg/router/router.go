// Package router maps a natural-language query to exactly one answering
// strategy and executes it. Selection is delegated to a function-calling
// model: the routing prompt enumerates the movie graph schema and the
// declared tools, and the model both picks the tool and, for structured
// lookup, authors the cypher text to run.
package router

import (
	"context"
	"log/slog"

	"github.com/cinegraph/cinegraph/pkg/llms"
	"github.com/cinegraph/cinegraph/pkg/logger"
	"github.com/cinegraph/cinegraph/pkg/tools"
)

// Capability is one of the enumerable answering strategies.
type Capability string

const (
	CapabilityStructuredLookup   Capability = "structured_lookup"
	CapabilitySimilaritySearch   Capability = "similarity_search"
	CapabilityOpenEndedReasoning Capability = "open_ended_reasoning"

	// CapabilityNone tags routing failures; no adapter was invoked.
	CapabilityNone Capability = "none"
)

// FailureNoAnswer is the routing failure message when the model
// produced no actionable instruction.
const FailureNoAnswer = "no answer generated"

// routingInstruction is the fixed policy prompt. It enumerates the
// graph schema so the model can author cypher directly.
const routingInstruction = `You are a helpful assistant for answering movie-related questions.
Use 'cypher_query' to answer factual database queries (directors, actors, runtime, etc).
Use 'vector_search' for semantic or similarity recommendations.
Use 'llm_reasoning' for open-ended or conversational queries you cannot answer with 'cypher_query' or 'vector_search'.

You are querying a Neo4j graph with the following structure:
- Nodes:
    - Movie:
        - Properties: id, title, original_language, release_date, runtime, vote_average, vote_count, popularity, budget, revenue, status, overview, tagline, homepage, movie_embedding
    - Person:
        - Properties: id, name, gender, job
    - Genre:
        - Properties: name
    - Keyword:
        - Properties: name
    - Company:
        - Properties: name
    - Country:
        - Properties: iso_3166_1, name
    - Language:
        - Properties: iso_639_1, name

- Relationships:
    - (:Movie)-[:IN_GENRE]->(:Genre)
    - (:Movie)-[:HAS_KEYWORD]->(:Keyword)
    - (:Movie)-[:PRODUCED_BY]->(:Company)
    - (:Movie)-[:RELEASED_IN_COUNTRY]->(:Country)
    - (:Movie)-[:SPOKEN_IN_LANGUAGE]->(:Language)
    - (:Person)-[:ACTED_IN]->(:Movie) with 'character' property
    - (:Person)-[:DIRECTED]->(:Movie)
    - (:Person)-[:CREW_ROLE]->(:Movie) with 'job' property`

// capabilityForTool maps a tool name to its capability tag.
func capabilityForTool(name string) Capability {
	switch name {
	case tools.ToolCypherQuery:
		return CapabilityStructuredLookup
	case tools.ToolVectorSearch:
		return CapabilitySimilaritySearch
	case tools.ToolLLMReasoning:
		return CapabilityOpenEndedReasoning
	default:
		return CapabilityNone
	}
}

// Router selects and executes one tool per query.
type Router struct {
	llm      llms.FunctionCaller
	registry *tools.Registry
	log      *slog.Logger
}

// New creates a Router over the given routing model and tool set.
func New(llm llms.FunctionCaller, registry *tools.Registry) *Router {
	return &Router{
		llm:      llm,
		registry: registry,
		log:      logger.With("component", "router"),
	}
}

// Route asks the routing model to pick a tool for the query and invokes
// it. Exactly one adapter runs per call; the adapter's result is
// returned unmodified. If the model produces no usable instruction the
// fixed failure is returned without retrying.
func (r *Router) Route(ctx context.Context, query string) (Capability, tools.Result) {
	messages := []llms.Message{
		{Role: llms.RoleSystem, Content: routingInstruction},
		{Role: llms.RoleUser, Content: query},
	}

	text, calls, err := r.llm.GenerateWithTools(ctx, messages, r.registry.Definitions())
	if err != nil {
		r.log.Warn("routing model call failed", "error", err)
		return CapabilityNone, routingFailure("routing failed: " + err.Error())
	}

	if len(calls) == 0 {
		r.log.Info("routing model returned no tool call", "text_len", len(text))
		return CapabilityNone, routingFailure(FailureNoAnswer)
	}

	// Only the first requested call is honored.
	call := calls[0]
	capability := capabilityForTool(call.Name)
	if capability == CapabilityNone {
		r.log.Warn("routing model requested unknown tool", "tool", call.Name)
		return CapabilityNone, routingFailure(FailureNoAnswer)
	}

	tool, ok := r.registry.Get(call.Name)
	if !ok {
		r.log.Warn("selected tool not registered", "tool", call.Name)
		return CapabilityNone, routingFailure(FailureNoAnswer)
	}

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	// Open-ended reasoning always receives the raw query; the other
	// tools use the model's own formulation.
	if call.Name == tools.ToolLLMReasoning {
		args["query"] = query
	} else if _, ok := args["query"]; !ok {
		args["query"] = query
	}

	r.log.Info("routing query", "tool", call.Name, "capability", capability)
	return capability, tool.Execute(ctx, args)
}

func routingFailure(message string) tools.Result {
	return tools.Result{Status: tools.StatusError, Error: message}
}
