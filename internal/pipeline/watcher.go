package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/signald/internal/transcript"
)

// Watcher drives the pipeline from transcript appends instead of host
// dispatch: it watches a directory of session JSONL files and feeds each
// new turn to the matching handler.
type Watcher struct {
	pipeline *Pipeline
	reader   *transcript.Reader
	logger   *zap.Logger
	dir      string

	// processed tracks how many turns of each file have been handled.
	processed map[string]int
}

// NewWatcher creates a watcher over a transcript directory.
func NewWatcher(p *Pipeline, dir string, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		pipeline:  p,
		reader:    transcript.NewReader(),
		logger:    logger,
		dir:       dir,
		processed: make(map[string]int),
	}
}

// Run watches until the context is cancelled. Existing transcript content
// is treated as already handled; only turns appended after start are
// processed.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	// Record current positions so a restart does not replay old turns.
	matches, _ := filepath.Glob(filepath.Join(w.dir, "*.jsonl"))
	for _, path := range matches {
		if turns, err := w.reader.Read(path); err == nil {
			w.processed[path] = len(turns)
		}
	}

	w.logger.Info("watching transcripts", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".jsonl") {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.drain(ctx, ev.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// drain handles every turn appended to path since the last call.
func (w *Watcher) drain(ctx context.Context, path string) {
	turns, err := w.reader.Read(path)
	if err != nil {
		w.logger.Warn("failed to read transcript", zap.String("path", path), zap.Error(err))
		return
	}

	start := w.processed[path]
	if start > len(turns) {
		// File was truncated or replaced; start over.
		start = 0
	}

	sessionID := strings.TrimSuffix(filepath.Base(path), ".jsonl")

	for _, turn := range turns[start:] {
		switch turn.Role {
		case transcript.RoleUser:
			w.pipeline.HandleUserTurn(ctx, UserTurnEvent{
				SessionID:      sessionID,
				Message:        turn.Content,
				TranscriptPath: path,
			})
		case transcript.RoleAssistant:
			w.pipeline.HandleAssistantTurn(ctx, AssistantTurnEvent{
				SessionID:      sessionID,
				Response:       turn.Content,
				TranscriptPath: path,
			})
		}
	}

	w.processed[path] = len(turns)
}
