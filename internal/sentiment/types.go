package sentiment

// Sentiment is the bounded category of a classified user message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Result is the ephemeral product of one classification. It is owned by the
// handler invocation that produced it; only derived records are persisted.
type Result struct {
	// Rating is the 1-10 satisfaction rating. When the model reports no
	// rating (genuinely neutral), it is normalized to 5 and RatingInferred
	// is false.
	Rating int

	// RatingInferred is true when the model supplied an explicit rating,
	// false when Rating is the normalized neutral default.
	RatingInferred bool

	Sentiment  Sentiment
	Confidence float64

	// Summary is a short one-line characterization.
	Summary string

	// DetailedContext is the longer free-text rationale.
	DetailedContext string
}

// Disposition says what the classifier did with a message. Skips and
// failures are ordinary outcomes that callers log, not errors.
type Disposition string

const (
	// DispositionScored means a Result was produced above the confidence gate.
	DispositionScored Disposition = "scored"

	// DispositionDeferred means the message is an explicit numeric rating;
	// ownership transfers to the explicit-capture path and the classifier
	// must not run.
	DispositionDeferred Disposition = "deferred"

	// DispositionSkipped means the message was too short to carry signal.
	DispositionSkipped Disposition = "skipped"

	// DispositionLowConfidence means a Result came back below the
	// confidence gate; nothing is persisted.
	DispositionLowConfidence Disposition = "low-confidence"

	// DispositionFailed means the inference call failed or timed out.
	DispositionFailed Disposition = "failed"
)

// Classification is the full outcome of one classifier invocation.
type Classification struct {
	Disposition Disposition

	// Result is set for DispositionScored and DispositionLowConfidence.
	Result *Result

	// Reason explains skips and failures for logging.
	Reason string
}
