// Package tools contains the answering strategy adapters. Each adapter
// wraps one or both external clients behind a uniform invoke contract
// and converts every failure into a Result value; no adapter lets an
// external client error escape.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cinegraph/cinegraph/pkg/graph"
)

// Tool names. The routing model selects among these.
const (
	ToolCypherQuery  = "cypher_query"
	ToolVectorSearch = "vector_search"
	ToolLLMReasoning = "llm_reasoning"
)

// Status tags a Result. An empty similarity result set is StatusNoResults,
// which is distinct from StatusError.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusNoResults Status = "no_results"
	StatusError     Status = "error"
)

// Result is the tagged outcome of one tool invocation. Either Records
// or Text carries the payload on success; Error carries the message on
// failure. A Result is never partially populated.
type Result struct {
	ToolName string         `json:"tool_name"`
	Status   Status         `json:"status"`
	Records  []graph.Record `json:"records,omitempty"`
	Text     string         `json:"text,omitempty"`
	Error    string         `json:"error,omitempty"`
	Elapsed  time.Duration  `json:"elapsed,omitempty"`
}

// Failed reports whether the invocation failed.
func (r Result) Failed() bool {
	return r.Status == StatusError
}

// Empty reports whether a successful invocation produced nothing worth
// summarizing.
func (r Result) Empty() bool {
	if r.Failed() {
		return false
	}
	return len(r.Records) == 0 && r.Text == ""
}

// Payload renders the raw tool output for the synthesizer. Record
// payloads are rendered as JSON; text payloads pass through.
func (r Result) Payload() string {
	if r.Text != "" {
		return r.Text
	}
	if len(r.Records) == 0 {
		return ""
	}
	data, err := json.Marshal(map[string]any{
		"status": r.Status,
		"count":  len(r.Records),
		"result": r.Records,
	})
	if err != nil {
		return fmt.Sprintf("%v", r.Records)
	}
	return string(data)
}

func successRecords(name string, records []graph.Record) Result {
	return Result{ToolName: name, Status: StatusSuccess, Records: records}
}

func successText(name, text string) Result {
	return Result{ToolName: name, Status: StatusSuccess, Text: text}
}

func noResults(name, message string) Result {
	return Result{ToolName: name, Status: StatusNoResults, Text: message}
}

func failure(name, format string, args ...any) Result {
	return Result{ToolName: name, Status: StatusError, Error: fmt.Sprintf(format, args...)}
}

// ToolParameter describes one parameter in a tool's schema.
type ToolParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolInfo describes a tool to the routing model.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters,omitempty"`
}

// Tool is one answering strategy behind a uniform invoke contract.
type Tool interface {
	Name() string
	Info() ToolInfo
	Execute(ctx context.Context, args map[string]any) Result
}

// GraphExecutor is the slice of the knowledge store client the adapters
// consume.
type GraphExecutor interface {
	Execute(ctx context.Context, query string, params map[string]any) ([]graph.Record, error)
}

// Embedder is the slice of the embedding client similarity search
// consumes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
