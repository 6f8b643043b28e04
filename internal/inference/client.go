// Package inference defines the black-box inference collaborator: given a
// system prompt and a user prompt, it returns parsed structured output or
// failure. Callers own their own deadline; the only implementation here is
// a raw HTTP Anthropic client.
package inference

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Quality selects the speed/quality trade-off for a request.
type Quality string

const (
	// QualityFast prefers a small, low-latency model.
	QualityFast Quality = "fast"
	// QualityStandard prefers the configured default model.
	QualityStandard Quality = "standard"
)

// Request describes one inference invocation.
type Request struct {
	SystemPrompt string
	UserPrompt   string

	// ExpectJSON asks the backend for a single JSON object; the client
	// strips markdown fences and validates the payload parses.
	ExpectJSON bool

	// Timeout bounds this single attempt. No retries are made.
	Timeout time.Duration

	Quality Quality
}

// Result is a successful inference response.
type Result struct {
	// Parsed is the validated JSON payload when ExpectJSON was set,
	// otherwise the raw text wrapped as a JSON string.
	Parsed json.RawMessage

	// Raw is the unmodified completion text.
	Raw string
}

// Client is the inference collaborator.
type Client interface {
	Complete(ctx context.Context, req Request) (*Result, error)
}

// ErrNotConfigured is returned when no inference backend is available.
var ErrNotConfigured = errors.New("inference backend not configured")

// Unavailable is a Client that always fails. Used when the provider is
// set to "none"; the pipeline degrades to skipping sentiment capture.
type Unavailable struct{}

// Complete implements Client.
func (Unavailable) Complete(context.Context, Request) (*Result, error) {
	return nil, ErrNotConfigured
}
