package task

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EffortLevel is the bounded effort classification for a task.
type EffortLevel string

const (
	EffortMinimal     EffortLevel = "minimal"
	EffortModerate    EffortLevel = "moderate"
	EffortSubstantial EffortLevel = "substantial"
	EffortExhaustive  EffortLevel = "exhaustive"
)

// ValidEffortLevels maps the recognized effort tokens.
var ValidEffortLevels = map[string]EffortLevel{
	"minimal":     EffortMinimal,
	"moderate":    EffortModerate,
	"substantial": EffortSubstantial,
	"exhaustive":  EffortExhaustive,
}

// Satisfaction counts criteria outcomes. Partial and failed are
// informational; only satisfied vs total determines completion status.
type Satisfaction struct {
	Satisfied int `json:"satisfied"`
	Partial   int `json:"partial"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// ISCDocument is a task's ideal-state-criteria document. Mutated only by
// merge-patch: fields absent from the latest extraction are left untouched.
type ISCDocument struct {
	TaskID       string        `json:"taskId"`
	Status       string        `json:"status"`
	EffortLevel  EffortLevel   `json:"effortLevel,omitempty"`
	Criteria     []string      `json:"criteria"`
	AntiCriteria []string      `json:"antiCriteria,omitempty"`
	Satisfaction *Satisfaction `json:"satisfaction"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// WorkPointer is the current-work pointer document. Read-only from this
// pipeline's perspective.
type WorkPointer struct {
	SessionID   string    `json:"sessionId"`
	SessionDir  string    `json:"sessionDir"`
	CurrentTask string    `json:"currentTask"`
	TaskCount   int       `json:"taskCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// File names inside the session and per-task directories.
const (
	workPointerFile = "current-work.json"
	criteriaFile    = "criteria.json"
	threadFile      = "thread.md"
)

// readWorkPointer loads the current-work pointer from the session directory.
func readWorkPointer(sessionDir string) (*WorkPointer, error) {
	data, err := os.ReadFile(filepath.Join(sessionDir, workPointerFile))
	if err != nil {
		return nil, err
	}
	var p WorkPointer
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing work pointer: %w", err)
	}
	return &p, nil
}

// criteriaPath returns the ISC document path for a task.
func criteriaPath(taskDir, taskID string) string {
	return filepath.Join(taskDir, taskID, criteriaFile)
}

// threadPath returns the thread document path for a task.
func threadPath(taskDir, taskID string) string {
	return filepath.Join(taskDir, taskID, threadFile)
}

// readISC loads and parses an ISC document.
func readISC(path string) (*ISCDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc ISCDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing ISC document: %w", err)
	}
	return &doc, nil
}

// writeISC writes an ISC document pretty-printed.
func writeISC(path string, doc *ISCDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ISC document: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
