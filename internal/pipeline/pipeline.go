package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/signald/internal/config"
	"github.com/fyrsmithlabs/signald/internal/inference"
	"github.com/fyrsmithlabs/signald/internal/learning"
	"github.com/fyrsmithlabs/signald/internal/response"
	"github.com/fyrsmithlabs/signald/internal/sentiment"
	"github.com/fyrsmithlabs/signald/internal/signal"
	"github.com/fyrsmithlabs/signald/internal/task"
	"github.com/fyrsmithlabs/signald/internal/transcript"
)

// UserTurnEvent is an inbound user message.
type UserTurnEvent struct {
	SessionID      string `json:"sessionId"`
	Message        string `json:"message"`
	TranscriptPath string `json:"transcriptPath,omitempty"`
}

// AssistantTurnEvent is a completed assistant response.
type AssistantTurnEvent struct {
	SessionID      string `json:"sessionId"`
	Response       string `json:"response"`
	TranscriptPath string `json:"transcriptPath,omitempty"`
}

// Pipeline holds the capture components and exposes the host-facing
// handlers.
type Pipeline struct {
	cfg        *config.Config
	logger     *zap.Logger
	classifier *sentiment.Classifier
	store      *signal.Store
	recorder   *learning.Recorder
	updater    *task.Updater
	reader     *transcript.Reader
}

// New assembles a pipeline from config, a logger, and the inference
// collaborator.
func New(cfg *config.Config, logger *zap.Logger, client inference.Client) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		classifier: sentiment.NewClassifier(client, cfg.Sentiment, logger.Named("sentiment")),
		store:      signal.NewStore(cfg.Paths.SignalsDir),
		recorder:   learning.NewRecorder(cfg.Paths.LearningsDir),
		updater:    task.NewUpdater(cfg.Paths.SessionDir, cfg.Paths.TaskDir, logger.Named("task")),
		reader:     transcript.NewReader(),
	}
}

// HandleUserTurn classifies a user message and, on a confident score,
// appends a rating entry and synthesizes a learning record for low ratings.
// It never fails the enclosing turn.
func (p *Pipeline) HandleUserTurn(ctx context.Context, ev UserTurnEvent) {
	defer p.recoverHandler("user-turn")

	log := p.logger.With(zap.String("session_id", ev.SessionID))

	var recent []transcript.Turn
	if ev.TranscriptPath != "" {
		turns, err := p.reader.Recent(ev.TranscriptPath,
			p.cfg.Sentiment.ContextTurns, p.cfg.Sentiment.ContextCharLimit)
		if err != nil {
			log.Info("transcript unavailable, classifying without context", zap.Error(err))
		} else {
			recent = turns
		}
	}

	classification := p.classifier.Classify(ctx, ev.Message, recent)

	switch classification.Disposition {
	case sentiment.DispositionScored:
		p.persistScore(log, ev, classification.Result)
	case sentiment.DispositionDeferred,
		sentiment.DispositionSkipped,
		sentiment.DispositionLowConfidence:
		log.Debug("sentiment not captured",
			zap.String("disposition", string(classification.Disposition)),
			zap.String("reason", classification.Reason))
	case sentiment.DispositionFailed:
		log.Warn("sentiment classification failed",
			zap.String("reason", classification.Reason))
	}
}

// persistScore appends the rating entry and, for low ratings, writes a
// learning record combining the rationale with the prior assistant response.
func (p *Pipeline) persistScore(log *zap.Logger, ev UserTurnEvent, result *sentiment.Result) {
	entry := signal.RatingEntry{
		Rating:           result.Rating,
		SessionID:        ev.SessionID,
		Source:           signal.SourceSentimentInference,
		SentimentSummary: result.Summary,
		Confidence:       result.Confidence,
	}
	if err := p.store.Append(entry); err != nil {
		log.Warn("failed to append rating entry", zap.Error(err))
		return
	}
	log.Info("rating captured",
		zap.Int("rating", result.Rating),
		zap.String("sentiment", string(result.Sentiment)),
		zap.Float64("confidence", result.Confidence))

	if result.Rating >= learning.LowRatingThreshold {
		return
	}

	var prior string
	if ev.TranscriptPath != "" {
		text, err := p.reader.LastAssistantText(ev.TranscriptPath)
		if err != nil {
			log.Info("no prior assistant response available", zap.Error(err))
		} else {
			prior = text
		}
	}

	path, err := p.recorder.Write(learning.Record{
		Kind:          learning.KindLowRating,
		Rating:        result.Rating,
		Source:        signal.SourceSentimentInference,
		Summary:       result.Summary,
		Detail:        result.DetailedContext,
		PriorResponse: prior,
		Tags:          []string{string(result.Sentiment)},
	})
	if err != nil {
		log.Warn("failed to write learning record", zap.Error(err))
		return
	}
	log.Info("learning record written", zap.String("path", path))
}

// HandleAssistantTurn extracts structured fields from a completed assistant
// response, merge-patches the active task's documents, and captures
// insight-shaped responses as learning records.
func (p *Pipeline) HandleAssistantTurn(ctx context.Context, ev AssistantTurnEvent) {
	defer p.recoverHandler("assistant-turn")

	log := p.logger.With(zap.String("session_id", ev.SessionID))

	fields := response.Extract(ev.Response)

	iscOut, threadOut := p.updater.Update(ev.Response, fields)
	logOutcome(log, "isc", iscOut)
	logOutcome(log, "thread", threadOut)

	// A response carrying both an analysis and its results has the shape
	// of a capturable insight.
	if fields.Analysis != "" && fields.Results != "" {
		path, err := p.recorder.Write(learning.Record{
			Kind:    learning.KindInsight,
			Source:  "assistant-response",
			Summary: fields.Summary,
			Detail:  fields.Analysis + "\n\n" + fields.Results,
		})
		if err != nil {
			log.Warn("failed to write insight record", zap.Error(err))
		} else {
			log.Info("insight record written", zap.String("path", path))
		}
	}
}

// logOutcome logs one document update outcome at the appropriate level.
func logOutcome(log *zap.Logger, doc string, out task.Outcome) {
	switch out.Disposition {
	case task.DispositionApplied:
		log.Info("task document updated", zap.String("document", doc))
	case task.DispositionSkipped:
		log.Debug("task document untouched",
			zap.String("document", doc), zap.String("reason", out.Reason))
	case task.DispositionFailed:
		log.Warn("task document update failed",
			zap.String("document", doc), zap.String("reason", out.Reason))
	}
}

// recoverHandler is the outermost boundary: unexpected panics are logged
// with context and never rethrown to the host.
func (p *Pipeline) recoverHandler(handler string) {
	if r := recover(); r != nil {
		p.logger.Error("handler panicked",
			zap.String("handler", handler),
			zap.Any("panic", r))
	}
}
