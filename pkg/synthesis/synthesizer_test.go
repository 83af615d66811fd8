package synthesis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cinegraph/cinegraph/pkg/graph"
	"github.com/cinegraph/cinegraph/pkg/llms"
	"github.com/cinegraph/cinegraph/pkg/tools"
)

type fakeCompleter struct {
	completion  string
	err         error
	calls       int
	gotMessages []llms.Message
}

func (f *fakeCompleter) Generate(ctx context.Context, messages []llms.Message) (string, error) {
	f.calls++
	f.gotMessages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.completion, nil
}

func successResult() tools.Result {
	return tools.Result{
		ToolName: tools.ToolCypherQuery,
		Status:   tools.StatusSuccess,
		Records:  []graph.Record{{"p.name": "Christopher Nolan", "m.runtime": 148.0}},
	}
}

func TestSynthesize_Success(t *testing.T) {
	llm := &fakeCompleter{completion: "Inception was directed by Christopher Nolan and runs 148 minutes."}
	s := New(llm)

	answer := s.Synthesize(context.Background(), "Who directed Inception and what is its runtime?", successResult())

	assert.Equal(t, "Inception was directed by Christopher Nolan and runs 148 minutes.", answer)
	// Exactly one completion call per successful tool result.
	assert.Equal(t, 1, llm.calls)

	// The call embeds both the query and the raw payload.
	user := llm.gotMessages[len(llm.gotMessages)-1]
	assert.Contains(t, user.Content, "Who directed Inception")
	assert.Contains(t, user.Content, "Christopher Nolan")
}

func TestSynthesize_FailureSkipsModelCall(t *testing.T) {
	llm := &fakeCompleter{completion: "unused"}
	s := New(llm)

	answer := s.Synthesize(context.Background(), "anything", tools.Result{
		Status: tools.StatusError,
		Error:  "cypher execution failed: timeout",
	})

	assert.Equal(t, ApologyNoAnswer, answer)
	assert.Equal(t, 0, llm.calls)
}

func TestSynthesize_EmptySuccessSkipsModelCall(t *testing.T) {
	llm := &fakeCompleter{completion: "unused"}
	s := New(llm)

	answer := s.Synthesize(context.Background(), "anything", tools.Result{
		Status: tools.StatusSuccess,
	})

	assert.Equal(t, ApologyNoAnswer, answer)
	assert.Equal(t, 0, llm.calls)
}

func TestSynthesize_NoResultsStillSummarized(t *testing.T) {
	// A no_results tool outcome carries a message payload; it is
	// summarized, not apologized for.
	llm := &fakeCompleter{completion: "I could not find similar movies."}
	s := New(llm)

	answer := s.Synthesize(context.Background(), "movies like X", tools.Result{
		Status: tools.StatusNoResults,
		Text:   "No similar movies found",
	})

	assert.Equal(t, "I could not find similar movies.", answer)
	assert.Equal(t, 1, llm.calls)
}

func TestSynthesize_ModelError(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("connection reset")}
	s := New(llm)

	answer := s.Synthesize(context.Background(), "anything", successResult())

	assert.Equal(t, ApologySynthesis, answer)
}

func TestSynthesize_NoChoicesIsNoResponse(t *testing.T) {
	// An empty choice list from the model maps to the no-response
	// apology, not the synthesis-failure one.
	llm := &fakeCompleter{err: fmt.Errorf("OpenAI: %w", llms.ErrNoChoices)}
	s := New(llm)

	answer := s.Synthesize(context.Background(), "anything", successResult())

	assert.Equal(t, ApologyNoResponse, answer)
}

func TestSynthesize_EmptyCompletion(t *testing.T) {
	llm := &fakeCompleter{completion: "   \n"}
	s := New(llm)

	answer := s.Synthesize(context.Background(), "anything", successResult())

	assert.Equal(t, ApologyNoResponse, answer)
}
