package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/signald/internal/config"
	"github.com/fyrsmithlabs/signald/internal/inference"
	"github.com/fyrsmithlabs/signald/internal/transcript"
)

// neutralRating is the normalized value for an absent rating.
const neutralRating = 5

// Classifier scores user messages against the satisfaction rubric via the
// inference collaborator, racing each call against a fixed timeout.
type Classifier struct {
	client inference.Client
	cfg    config.SentimentConfig
	logger *zap.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(client inference.Client, cfg config.SentimentConfig, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// modelPayload is the JSON shape the rubric prompt requests.
type modelPayload struct {
	Rating          *int    `json:"rating"`
	Sentiment       string  `json:"sentiment"`
	Confidence      float64 `json:"confidence"`
	Summary         string  `json:"summary"`
	DetailedContext string  `json:"detailed_context"`
}

// Classify scores one user message. Recent turns are context only. Every
// outcome is a Classification; nothing here is an error the caller should
// propagate.
func (c *Classifier) Classify(ctx context.Context, message string, recent []transcript.Turn) Classification {
	if IsExplicitRating(message) {
		return Classification{
			Disposition: DispositionDeferred,
			Reason:      "message is an explicit numeric rating",
		}
	}

	if len([]rune(message)) < c.cfg.MinMessageLength {
		return Classification{
			Disposition: DispositionSkipped,
			Reason:      fmt.Sprintf("message shorter than %d runes", c.cfg.MinMessageLength),
		}
	}

	req := inference.Request{
		SystemPrompt: rubricPrompt,
		UserPrompt:   buildUserPrompt(message, recent),
		ExpectJSON:   true,
		Quality:      inference.QualityFast,
	}

	type settled struct {
		result *inference.Result
		err    error
	}

	// Race the inference call against the fixed timeout. The buffered
	// channel lets the losing branch finish and have its result discarded;
	// the in-flight call is never cancelled.
	ch := make(chan settled, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- settled{err: fmt.Errorf("inference panicked: %v", r)}
			}
		}()
		result, err := c.client.Complete(ctx, req)
		ch <- settled{result: result, err: err}
	}()

	timer := time.NewTimer(c.cfg.Timeout.Duration())
	defer timer.Stop()

	var out settled
	select {
	case out = <-ch:
	case <-timer.C:
		return Classification{
			Disposition: DispositionFailed,
			Reason:      fmt.Sprintf("inference timed out after %s", c.cfg.Timeout.Duration()),
		}
	case <-ctx.Done():
		return Classification{
			Disposition: DispositionFailed,
			Reason:      fmt.Sprintf("cancelled: %v", ctx.Err()),
		}
	}

	if out.err != nil {
		return Classification{
			Disposition: DispositionFailed,
			Reason:      fmt.Sprintf("inference failed: %v", out.err),
		}
	}

	result, err := c.parsePayload(out.result.Parsed)
	if err != nil {
		return Classification{
			Disposition: DispositionFailed,
			Reason:      fmt.Sprintf("unusable inference payload: %v", err),
		}
	}

	if result.Confidence < c.cfg.MinConfidence {
		c.logger.Debug("classification below confidence gate",
			zap.Float64("confidence", result.Confidence),
			zap.Float64("min_confidence", c.cfg.MinConfidence))
		return Classification{
			Disposition: DispositionLowConfidence,
			Result:      result,
			Reason:      fmt.Sprintf("confidence %.2f below %.2f", result.Confidence, c.cfg.MinConfidence),
		}
	}

	return Classification{Disposition: DispositionScored, Result: result}
}

// parsePayload validates the model's JSON into a Result, normalizing an
// absent rating to the neutral default.
func (c *Classifier) parsePayload(raw json.RawMessage) (*Result, error) {
	var payload modelPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}

	result := &Result{
		Rating:          neutralRating,
		Sentiment:       normalizeSentiment(payload.Sentiment),
		Confidence:      clamp01(payload.Confidence),
		Summary:         payload.Summary,
		DetailedContext: payload.DetailedContext,
	}

	if payload.Rating != nil {
		r := *payload.Rating
		if r < 1 || r > 10 {
			return nil, fmt.Errorf("rating %d out of range", r)
		}
		result.Rating = r
		result.RatingInferred = true
	}

	return result, nil
}

// normalizeSentiment maps free-form model output onto the bounded set.
func normalizeSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return Sentiment(s)
	default:
		return SentimentNeutral
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
