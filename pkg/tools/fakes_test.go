package tools

import (
	"context"

	"github.com/cinegraph/cinegraph/pkg/graph"
	"github.com/cinegraph/cinegraph/pkg/llms"
)

// fakeStore records the queries it receives and replays canned results.
type fakeStore struct {
	records    []graph.Record
	err        error
	lastQuery  string
	lastParams map[string]any
	calls      int
}

func (f *fakeStore) Execute(ctx context.Context, query string, params map[string]any) ([]graph.Record, error) {
	f.calls++
	f.lastQuery = query
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeEmbedder struct {
	vector    []float32
	err       error
	dimension int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) Dimension() int {
	return f.dimension
}

type fakeCompleter struct {
	completion string
	err        error
	calls      int
}

func (f *fakeCompleter) Generate(ctx context.Context, messages []llms.Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.completion, nil
}
