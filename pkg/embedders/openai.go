// Package embedders contains the text embedding client used by
// similarity search and the batch embedding pipeline.
package embedders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cinegraph/cinegraph/pkg/config"
	"github.com/cinegraph/cinegraph/pkg/httpclient"
)

// OpenAIEmbedder produces fixed-dimension embeddings via the OpenAI
// embeddings API.
type OpenAIEmbedder struct {
	httpClient *httpclient.Client
	apiKey     string
	baseURL    string
	model      string
	dimension  int
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIEmbedder creates an embedder from config.
func NewOpenAIEmbedder(cfg config.EmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for OpenAI embedder")
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-ada-002"
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = config.DefaultEmbeddingDimension
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	httpClient := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
	)

	return &OpenAIEmbedder{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		dimension:  dimension,
	}, nil
}

// Dimension returns the expected embedding length.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// Embed returns the embedding vector for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := embedRequest{
		Model: e.model,
		Input: []string{text},
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	// The client may return both a response and an error; close the
	// body either way.
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp embedResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("embedding API error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data in response")
	}

	return apiResp.Data[0].Embedding, nil
}
