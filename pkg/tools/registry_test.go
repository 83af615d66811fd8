package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	registry := NewRegistry()
	require.NoError(t, registry.Register(NewCypherTool(&fakeStore{})))
	require.NoError(t, registry.Register(NewVectorSearchTool(&fakeStore{}, validEmbedder(), "movieEmbeddingIndex", 5)))
	require.NoError(t, registry.Register(NewReasoningTool(&fakeCompleter{})))
	return registry
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := newTestRegistry(t)

	tool, ok := registry.Get(ToolCypherQuery)
	require.True(t, ok)
	assert.Equal(t, ToolCypherQuery, tool.Name())

	_, ok = registry.Get("unknown_tool")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	registry := newTestRegistry(t)

	err := registry.Register(NewCypherTool(&fakeStore{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_ListSorted(t *testing.T) {
	registry := newTestRegistry(t)

	infos := registry.List()
	require.Len(t, infos, 3)
	assert.Equal(t, ToolCypherQuery, infos[0].Name)
	assert.Equal(t, ToolLLMReasoning, infos[1].Name)
	assert.Equal(t, ToolVectorSearch, infos[2].Name)
}

func TestRegistry_Definitions(t *testing.T) {
	registry := newTestRegistry(t)

	defs := registry.Definitions()
	require.Len(t, defs, 3)

	cypher := defs[0]
	assert.Equal(t, ToolCypherQuery, cypher.Name)
	assert.Equal(t, "object", cypher.Parameters["type"])

	properties, ok := cypher.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, properties, "query")

	required, ok := cypher.Parameters["required"].([]string)
	require.True(t, ok)
	assert.Contains(t, required, "query")
}
