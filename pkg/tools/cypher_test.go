package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinegraph/cinegraph/pkg/graph"
)

func TestCypherTool_Execute(t *testing.T) {
	store := &fakeStore{records: []graph.Record{
		{"p.name": "Christopher Nolan", "m.runtime": 148.0},
	}}
	tool := NewCypherTool(store)

	result := tool.Execute(context.Background(), map[string]any{
		"query": "MATCH (p:Person)-[:DIRECTED]->(m:Movie {title: 'Inception'}) RETURN p.name, m.runtime",
	})

	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "Christopher Nolan", result.Records[0]["p.name"])
	assert.Contains(t, store.lastQuery, "DIRECTED")
}

func TestCypherTool_Execute_MissingQuery(t *testing.T) {
	tool := NewCypherTool(&fakeStore{})

	result := tool.Execute(context.Background(), map[string]any{})

	assert.True(t, result.Failed())
	assert.Contains(t, result.Error, "required")
}

func TestCypherTool_Execute_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	tool := NewCypherTool(store)

	result := tool.Execute(context.Background(), map[string]any{"query": "MATCH (m:Movie) RETURN m"})

	assert.True(t, result.Failed())
	assert.Contains(t, result.Error, "connection refused")
}

func TestCypherTool_Execute_EmptyRecords(t *testing.T) {
	tool := NewCypherTool(&fakeStore{})

	result := tool.Execute(context.Background(), map[string]any{"query": "MATCH (m:Movie {title: 'Nope'}) RETURN m"})

	// Empty structured results are still a success; the synthesizer
	// decides how to answer.
	assert.Equal(t, StatusSuccess, result.Status)
	assert.True(t, result.Empty())
}
