// Package llms contains the generative reasoning clients. Providers are
// thin typed wrappers over the upstream HTTP APIs; retries and backoff
// live in pkg/httpclient underneath them.
package llms

import (
	"context"
	"errors"
)

// ErrNoChoices is returned when the upstream call succeeded but carried
// no completion choices. Callers treat this as "no response" rather
// than a call failure.
var ErrNoChoices = errors.New("no choices in response")

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolDefinition declares a callable tool to the routing model.
// Parameters is a JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolCall is a tool invocation requested by the routing model.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Completer produces a text completion for a message list.
type Completer interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// FunctionCaller produces a completion that may instead request one or
// more tool calls from a declared set.
type FunctionCaller interface {
	GenerateWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (string, []ToolCall, error)
}
