package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/signald/internal/config"
)

// Default configuration values.
const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-3-5-sonnet-20241022"
	defaultFastModel = "claude-3-5-haiku-20241022"
	defaultMaxTokens = 1024
	defaultTimeout   = 60 * time.Second
)

// Rate limiter defaults: 50 requests per minute.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// AnthropicClient implements Client against the Anthropic Messages API.
type AnthropicClient struct {
	model      string
	fastModel  string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAnthropicClient creates a client from inference config.
func NewAnthropicClient(cfg config.InferenceConfig) (*AnthropicClient, error) {
	if cfg.APIKey.Value() == "" {
		return nil, fmt.Errorf("anthropic API key required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &AnthropicClient{
		model:     model,
		fastModel: defaultFastModel,
		apiKey:    cfg.APIKey.Value(),
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}, nil
}

// anthropicRequest is the Messages API request body.
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the Messages API response body.
type anthropicResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete performs a single Messages API call. There is no retry: the
// caller races this against its own timeout and a failed attempt is final.
func (a *AnthropicClient) Complete(ctx context.Context, req Request) (*Result, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	model := a.model
	if req.Quality == QualityFast {
		model = a.fastModel
	}

	body := anthropicRequest{
		Model:       model,
		MaxTokens:   defaultMaxTokens,
		Temperature: 0.3, // Low temperature for consistent classification
		System:      req.SystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: scrubSecrets(req.UserPrompt)},
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", a.apiKey)
	httpReq.Header.Set("Anthropic-Version", "2023-06-01")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp anthropicError
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	text := parsed.Content[0].Text
	result := &Result{Raw: text}

	if req.ExpectJSON {
		payload, err := extractJSON(text)
		if err != nil {
			return nil, err
		}
		result.Parsed = payload
	} else {
		quoted, _ := json.Marshal(text)
		result.Parsed = quoted
	}

	return result, nil
}

// extractJSON strips markdown fences and validates the payload is a JSON
// object. Models sometimes wrap JSON in ```json fences despite instructions.
func extractJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	return json.RawMessage(content), nil
}

// Ensure interface is implemented.
var _ Client = (*AnthropicClient)(nil)
