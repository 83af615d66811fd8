// Package orchestrator sequences one query through routing, tool
// invocation and synthesis. Each request gets its own session id and
// its own state; nothing outlives the request and nothing is shared
// between concurrent requests.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cinegraph/cinegraph/pkg/logger"
	"github.com/cinegraph/cinegraph/pkg/metrics"
	"github.com/cinegraph/cinegraph/pkg/router"
	"github.com/cinegraph/cinegraph/pkg/synthesis"
	"github.com/cinegraph/cinegraph/pkg/tools"
)

// State of one request's pipeline.
type State string

const (
	StateRouting      State = "routing"
	StateInvoking     State = "invoking"
	StateSynthesizing State = "synthesizing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Outcome is the full result of one query cycle, retained for
// observability but never persisted.
type Outcome struct {
	SessionID   string            `json:"session_id"`
	Query       string            `json:"user_query"`
	Capability  router.Capability `json:"capability"`
	ToolResult  tools.Result      `json:"tool_output"`
	FinalAnswer string            `json:"final_answer"`
	State       State             `json:"state"`
	Elapsed     time.Duration     `json:"elapsed"`
}

// Routing selects and executes one tool for a query.
type Routing interface {
	Route(ctx context.Context, query string) (router.Capability, tools.Result)
}

// Synthesizing produces the final answer from a tool result.
type Synthesizing interface {
	Synthesize(ctx context.Context, query string, result tools.Result) string
}

// Orchestrator runs the per-request state machine.
type Orchestrator struct {
	router      Routing
	synthesizer Synthesizing
	log         *slog.Logger
}

// New creates an Orchestrator.
func New(r Routing, s Synthesizing) *Orchestrator {
	return &Orchestrator{
		router:      r,
		synthesizer: s,
		log:         logger.With("component", "orchestrator"),
	}
}

// Handle runs one query to completion. It never returns an error or
// panics; every failure becomes the fixed apology in the outcome.
func (o *Orchestrator) Handle(ctx context.Context, query string) (outcome Outcome) {
	start := time.Now()
	outcome = Outcome{
		SessionID: uuid.NewString(),
		Query:     query,
		State:     StateRouting,
	}

	defer func() {
		outcome.Elapsed = time.Since(start)
		metrics.QueryDuration.Observe(outcome.Elapsed.Seconds())

		if r := recover(); r != nil {
			o.log.Error("pipeline panic", "session", outcome.SessionID, "panic", r)
			outcome.State = StateFailed
			outcome.FinalAnswer = synthesis.ApologySynthesis
			metrics.FailuresTotal.WithLabelValues("pipeline").Inc()
		}
	}()

	log := o.log.With("session", outcome.SessionID)
	log.Info("handling query", "query", query)

	outcome.State = StateInvoking
	capability, result := o.router.Route(ctx, query)
	outcome.Capability = capability
	outcome.ToolResult = result
	metrics.QueriesTotal.WithLabelValues(string(capability)).Inc()
	if result.Failed() {
		stage := "invoking"
		if capability == router.CapabilityNone {
			stage = "routing"
		}
		metrics.FailuresTotal.WithLabelValues(stage).Inc()
	}

	// Control always passes to the synthesizer; it decides whether to
	// shortcut on failure or empty output.
	outcome.State = StateSynthesizing
	outcome.FinalAnswer = o.synthesizer.Synthesize(ctx, query, result)

	outcome.State = StateDone
	log.Info("query handled", "capability", capability, "state", outcome.State)
	return outcome
}
