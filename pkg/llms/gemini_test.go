package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinegraph/cinegraph/pkg/config"
)

func testGeminiConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		Provider:   config.LLMProviderGemini,
		Model:      "gemini-2.5-flash",
		APIKey:     "gm-test",
		BaseURL:    baseURL,
		MaxTokens:  1000,
		Timeout:    5,
		MaxRetries: 1,
		RetryDelay: 1,
	}
}

func TestGeminiProvider_GenerateWithTools_FunctionCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.Contains(r.URL.Path, "gemini-2.5-flash:generateContent"))
		assert.Equal(t, "gm-test", r.Header.Get("x-goog-api-key"))
		// The key never appears in the URL.
		assert.Empty(t, r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Tools, 1)
		assert.Len(t, req.Tools[0].FunctionDeclarations, 2)
		require.NotNil(t, req.SystemInstruction)

		resp := geminiResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{
					Role: "model",
					Parts: []geminiPart{{
						"functionCall": map[string]any{
							"name": "cypher_query",
							"args": map[string]any{
								"query": "MATCH (p:Person)-[:DIRECTED]->(m:Movie {title: 'Inception'}) RETURN p.name, m.runtime",
							},
						},
					}},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(testGeminiConfig(server.URL))
	require.NoError(t, err)

	text, calls, err := provider.GenerateWithTools(context.Background(),
		[]Message{
			{Role: RoleSystem, Content: "You are a movie assistant."},
			{Role: RoleUser, Content: "Who directed Inception and what is its runtime?"},
		},
		[]ToolDefinition{
			{Name: "cypher_query", Description: "Run cypher."},
			{Name: "vector_search", Description: "Similarity search."},
		})
	require.NoError(t, err)

	assert.Empty(t, text)
	require.Len(t, calls, 1)
	assert.Equal(t, "cypher_query", calls[0].Name)
	assert.Contains(t, calls[0].Arguments["query"], "DIRECTED")
}

func TestGeminiProvider_GenerateWithTools_TextOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := geminiResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{
					Role:  "model",
					Parts: []geminiPart{{"text": "I could not pick a tool."}},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(testGeminiConfig(server.URL))
	require.NoError(t, err)

	text, calls, err := provider.GenerateWithTools(context.Background(),
		[]Message{{Role: RoleUser, Content: "hello"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "I could not pick a tool.", text)
	assert.Empty(t, calls)
}

func TestGeminiProvider_GenerateWithTools_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{
			Error: &geminiError{Code: 400, Message: "API key not valid", Status: "INVALID_ARGUMENT"},
		})
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(testGeminiConfig(server.URL))
	require.NoError(t, err)

	_, _, err = provider.GenerateWithTools(context.Background(),
		[]Message{{Role: RoleUser, Content: "hello"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGeminiProvider_GenerateWithTools_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{})
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(testGeminiConfig(server.URL))
	require.NoError(t, err)

	_, _, err = provider.GenerateWithTools(context.Background(),
		[]Message{{Role: RoleUser, Content: "hello"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}
