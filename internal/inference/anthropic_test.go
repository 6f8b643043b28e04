package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/signald/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewAnthropicClient(config.InferenceConfig{
		Provider: "anthropic",
		APIKey:   config.Secret("test-key"),
		BaseURL:  server.URL,
	})
	require.NoError(t, err)
	return client
}

func messagesResponse(text string) string {
	return `{"id":"msg_1","content":[{"type":"text","text":` + mustQuote(text) + `}],"stop_reason":"end_turn"}`
}

func mustQuote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	_, err := NewAnthropicClient(config.InferenceConfig{Provider: "anthropic"})
	assert.Error(t, err)
}

func TestComplete_JSONResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		w.Write([]byte(messagesResponse(`{"rating": 7}`)))
	})

	result, err := client.Complete(context.Background(), Request{
		SystemPrompt: "score this",
		UserPrompt:   "nice work",
		ExpectJSON:   true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rating": 7}`, string(result.Parsed))
}

func TestComplete_StripsMarkdownFences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(messagesResponse("```json\n{\"rating\": 3}\n```")))
	})

	result, err := client.Complete(context.Background(), Request{ExpectJSON: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rating": 3}`, string(result.Parsed))
}

func TestComplete_InvalidJSONPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(messagesResponse("sorry, I cannot produce JSON")))
	})

	_, err := client.Complete(context.Background(), Request{ExpectJSON: true})
	assert.Error(t, err)
}

func TestComplete_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad model"}}`))
	})

	_, err := client.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad model")
}

func TestComplete_FastQualitySelectsFastModel(t *testing.T) {
	var gotModel string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		w.Write([]byte(messagesResponse("ok")))
	})

	_, err := client.Complete(context.Background(), Request{Quality: QualityFast})
	require.NoError(t, err)
	assert.Equal(t, defaultFastModel, gotModel)
}

func TestComplete_ScrubsSecretsFromPrompt(t *testing.T) {
	var gotContent string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotContent = req.Messages[0].Content
		w.Write([]byte(messagesResponse("ok")))
	})

	_, err := client.Complete(context.Background(), Request{
		UserPrompt: "my key is sk-ant-REDACTED leaking",
	})
	require.NoError(t, err)
	assert.NotContains(t, gotContent, "sk-ant-REDACTED")
	assert.Contains(t, gotContent, "[REDACTED:ANTHROPIC_KEY]")
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
