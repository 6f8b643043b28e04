package task

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/signald/internal/response"
)

// Thread header keys. The header is a marker-delimited metadata block at
// the top of the document; the body below it is never rewritten.
const (
	headerDelimiter = "---"
	statusKey       = "status"
	completedKey    = "completed"
	summaryKey      = "summary"

	statusInProgress = "in-progress"
	statusDone       = "done"
)

// maxSummaryChars bounds the summary written into the thread header.
const maxSummaryChars = 200

// patchThread applies string-level patches to the thread document header.
// The status flip happens only on a completion or summary signal; the
// completed timestamp and summary are first-write-wins, so re-running on
// the same input neither duplicates nor overwrites header fields.
func (u *Updater) patchThread(taskID string, patch Patch, fields response.Fields) Outcome {
	path := threadPath(u.taskDir, taskID)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			u.logger.Info("thread document missing, skipping",
				zap.String("task_id", taskID))
			return skipped("thread document missing")
		}
		return failed(fmt.Sprintf("reading thread document: %v", err))
	}

	header, body, ok := splitThread(string(raw))
	if !ok {
		u.logger.Warn("thread document has no header block, leaving unmodified",
			zap.String("task_id", taskID))
		return failed("thread document has no header block")
	}

	completionSignal := patch.ForceComplete || fields.Completed != ""
	summary := firstNonEmpty(fields.Completed, fields.Summary)
	doneSignal := completionSignal || summary != ""

	changed := false

	if doneSignal {
		for i, line := range header {
			key, value := splitHeaderLine(line)
			if key == statusKey && value == statusInProgress {
				header[i] = statusKey + ": " + statusDone
				changed = true
			}
		}
	}

	if completionSignal && !hasHeaderKey(header, completedKey) {
		header = append(header, completedKey+": "+u.now().Format(time.RFC3339))
		changed = true
	}

	if summary != "" && !hasHeaderKey(header, summaryKey) {
		header = append(header, summaryKey+": "+truncateSummary(summary))
		changed = true
	}

	if !changed {
		return skipped("no header changes")
	}

	var b strings.Builder
	b.WriteString(headerDelimiter + "\n")
	for _, line := range header {
		b.WriteString(line + "\n")
	}
	b.WriteString(headerDelimiter + "\n")
	b.WriteString(body)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return failed(fmt.Sprintf("writing thread document: %v", err))
	}

	u.logger.Debug("thread document updated", zap.String("task_id", taskID))
	return applied()
}

// splitThread separates the header block from the body. The header is the
// lines between the leading delimiter pair.
func splitThread(doc string) (header []string, body string, ok bool) {
	lines := strings.SplitAfter(doc, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\n") != headerDelimiter {
		return nil, "", false
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\n") == headerDelimiter {
			return header, strings.Join(lines[i+1:], ""), true
		}
		header = append(header, strings.TrimRight(lines[i], "\n"))
	}
	return nil, "", false
}

// splitHeaderLine parses "key: value" from a header line.
func splitHeaderLine(line string) (key, value string) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

// hasHeaderKey reports whether the header already carries a key.
func hasHeaderKey(header []string, key string) bool {
	for _, line := range header {
		if k, _ := splitHeaderLine(line); k == key {
			return true
		}
	}
	return false
}

func truncateSummary(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxSummaryChars {
		return s[:maxSummaryChars]
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
