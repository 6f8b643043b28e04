package task

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/signald/internal/response"
)

// Disposition says what the updater did with one document. Skips are
// ordinary outcomes (no active task, no document); failures are loggable
// but never propagate past the pipeline boundary.
type Disposition string

const (
	DispositionApplied Disposition = "applied"
	DispositionSkipped Disposition = "skipped"
	DispositionFailed  Disposition = "failed"
)

// Outcome is the result of updating one document.
type Outcome struct {
	Disposition Disposition
	Reason      string
}

func applied() Outcome { return Outcome{Disposition: DispositionApplied} }

func skipped(reason string) Outcome {
	return Outcome{Disposition: DispositionSkipped, Reason: reason}
}

func failed(reason string) Outcome {
	return Outcome{Disposition: DispositionFailed, Reason: reason}
}

// Updater applies extracted assistant-response fields to the active task's
// criteria and thread documents. It performs synchronous read-modify-write
// with no locking; the host dispatches one turn at a time per session, so
// same-task races do not occur in normal operation.
type Updater struct {
	sessionDir string
	taskDir    string
	logger     *zap.Logger
	now        func() time.Time
}

// NewUpdater creates an updater.
func NewUpdater(sessionDir, taskDir string, logger *zap.Logger) *Updater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Updater{
		sessionDir: sessionDir,
		taskDir:    taskDir,
		logger:     logger,
		now:        time.Now,
	}
}

// Update extracts a merge-patch from the response text and applies it to
// the current task's two documents. Re-running with the same text is
// idempotent: an unchanged document is not rewritten and updatedAt is not
// refreshed.
func (u *Updater) Update(text string, fields response.Fields) (isc, thread Outcome) {
	pointer, err := readWorkPointer(u.sessionDir)
	if err != nil {
		reason := fmt.Sprintf("no current-work pointer: %v", err)
		return skipped(reason), skipped(reason)
	}
	if pointer.CurrentTask == "" {
		return skipped("no active task"), skipped("no active task")
	}

	patch := ExtractPatch(text)
	isc = u.applyISCPatch(pointer.CurrentTask, patch)
	thread = u.patchThread(pointer.CurrentTask, patch, fields)
	return isc, thread
}

// applyISCPatch merge-patches the criteria document. Fields absent from the
// patch are left untouched; existing fields are never deleted.
func (u *Updater) applyISCPatch(taskID string, patch Patch) Outcome {
	path := criteriaPath(u.taskDir, taskID)

	doc, err := readISC(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			u.logger.Info("ISC document missing, skipping",
				zap.String("task_id", taskID))
			return skipped("ISC document missing")
		}
		// Malformed JSON: leave the document as-is for this turn.
		u.logger.Warn("ISC document unreadable, leaving unmodified",
			zap.String("task_id", taskID), zap.Error(err))
		return failed(fmt.Sprintf("unreadable ISC document: %v", err))
	}

	changed := false

	if patch.Effort != nil && doc.EffortLevel != *patch.Effort {
		doc.EffortLevel = *patch.Effort
		changed = true
	}

	if patch.Satisfaction != nil {
		if doc.Satisfaction == nil || *doc.Satisfaction != *patch.Satisfaction {
			s := *patch.Satisfaction
			doc.Satisfaction = &s
			changed = true
		}
	}

	if status := patch.derivedStatus(); status != "" && doc.Status != status {
		doc.Status = status
		changed = true
	}

	if !changed {
		return skipped("no field changes")
	}

	doc.UpdatedAt = u.now()
	if err := writeISC(path, doc); err != nil {
		u.logger.Warn("failed to write ISC document",
			zap.String("task_id", taskID), zap.Error(err))
		return failed(fmt.Sprintf("writing ISC document: %v", err))
	}

	u.logger.Debug("ISC document updated",
		zap.String("task_id", taskID),
		zap.String("status", doc.Status))
	return applied()
}
