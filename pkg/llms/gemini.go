package llms

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

// GeminiProvider implements FunctionCaller against the Gemini
// generateContent API. The strategy router uses it to pick a tool:
// tool declarations go out as functionDeclarations, and functionCall
// parts come back as ToolCalls.
type GeminiProvider struct {
	config     config.LLMConfig
	httpClient *httpclient.Client
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	Tools             []geminiToolSet         `json:"tools,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart is a loosely typed content part: text, functionCall, or
// functionResponse.
type geminiPart map[string]any

type geminiToolSet struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations,omitempty"`
}

type geminiFunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewGeminiProvider creates a provider from config.
func NewGeminiProvider(cfg config.LLMConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}

	httpClient := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
		httpclient.WithBaseDelay(time.Duration(cfg.RetryDelay)*time.Second),
	)

	return &GeminiProvider{
		config:     cfg,
		httpClient: httpClient,
	}, nil
}

// ModelName returns the configured model identifier.
func (p *GeminiProvider) ModelName() string {
	return p.config.Model
}

// GenerateWithTools sends one generateContent request with the given
// tool declarations. System messages become the systemInstruction;
// assistant messages map to the "model" role.
func (p *GeminiProvider) GenerateWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (string, []ToolCall, error) {
	req := p.buildRequest(messages, tools)

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		p.config.BaseURL, p.config.Model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// The key travels in a header, never in the URL, so transport
	// errors and logs cannot embed it.
	httpReq.Header.Set("x-goog-api-key", p.config.APIKey)

	resp, err := p.httpClient.Do(httpReq)
	// The client may return both a response and an error; close the
	// body either way.
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return "", nil, fmt.Errorf("Gemini API request failed: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", nil, fmt.Errorf("failed to parse Gemini response: %w", err)
	}

	if apiResp.Error != nil {
		return "", nil, fmt.Errorf("Gemini API error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Candidates) == 0 {
		return "", nil, fmt.Errorf("no candidates in Gemini response")
	}

	return parseCandidate(&apiResp.Candidates[0])
}

func (p *GeminiProvider) buildRequest(messages []Message, tools []ToolDefinition) *geminiRequest {
	req := &geminiRequest{
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     p.config.Temperature,
			MaxOutputTokens: p.config.MaxTokens,
		},
	}

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			req.SystemInstruction = &geminiContent{
				Parts: []geminiPart{{"text": m.Content}},
			}
		case RoleAssistant:
			req.Contents = append(req.Contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{"text": m.Content}},
			})
		default:
			req.Contents = append(req.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{"text": m.Content}},
			})
		}
	}

	if len(tools) > 0 {
		declarations := make([]geminiFunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			declarations = append(declarations, geminiFunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
		req.Tools = []geminiToolSet{{FunctionDeclarations: declarations}}
	}

	return req
}

// parseCandidate extracts text and functionCall parts from a candidate.
func parseCandidate(candidate *geminiCandidate) (string, []ToolCall, error) {
	var text string
	var toolCalls []ToolCall

	for _, part := range candidate.Content.Parts {
		if t, ok := part["text"].(string); ok {
			text += t
			continue
		}
		if fc, ok := part["functionCall"].(map[string]any); ok {
			name, _ := fc["name"].(string)
			if name == "" {
				continue
			}
			call := ToolCall{Name: name}
			if args, ok := fc["args"].(map[string]any); ok {
				call.Arguments = args
			}
			toolCalls = append(toolCalls, call)
		}
	}

	return text, toolCalls, nil
}
