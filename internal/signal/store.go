// Package signal persists satisfaction ratings as an append-only JSONL log.
package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SourceSentimentInference tags entries produced by the sentiment classifier,
// as opposed to the explicit-capture path.
const SourceSentimentInference = "sentiment-inference"

// ratingsFile is the store file name inside the signals directory.
const ratingsFile = "ratings.jsonl"

// Store errors.
var (
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 10")
	ErrEmptySessionID   = errors.New("session ID cannot be empty")
)

// RatingEntry is one persisted rating event. Entries are immutable once
// written; the store is only ever appended to.
type RatingEntry struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Rating           int       `json:"rating"`
	SessionID        string    `json:"sessionId"`
	Source           string    `json:"source"`
	SentimentSummary string    `json:"sentimentSummary"`
	Confidence       float64   `json:"confidence"`
}

// Store appends rating entries to a JSONL file. Each record is written with
// a single O_APPEND write, so a crash mid-write never corrupts lines that
// were already persisted.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Append writes one entry as a complete, independently-parseable JSONL line.
// A zero ID or Timestamp is filled in; the rating must already be normalized
// (absent ratings become 5 upstream, never here).
func (s *Store) Append(entry RatingEntry) error {
	if entry.Rating < 1 || entry.Rating > 10 {
		return fmt.Errorf("%w: got %d", ErrRatingOutOfRange, entry.Rating)
	}
	if entry.SessionID == "" {
		return ErrEmptySessionID
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}
	line = append(line, '\n')

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating signals directory: %w", err)
	}

	path := filepath.Join(s.dir, ratingsFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("appending entry: %w", err)
	}
	return nil
}

// Path returns the store file location. Consumers read it independently.
func (s *Store) Path() string {
	return filepath.Join(s.dir, ratingsFile)
}
