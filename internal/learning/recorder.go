// Package learning synthesizes categorized markdown incident records for
// later retrospective review: one file per incident, created once, never
// updated.
package learning

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the capture path that produced a record.
type Kind string

const (
	// KindLowRating records a low satisfaction rating with its rationale.
	KindLowRating Kind = "low-rating"

	// KindInsight records a capturable insight from an assistant response.
	KindInsight Kind = "insight"
)

// LowRatingThreshold bounds the ratings that produce low-rating records:
// anything below it is an incident worth a retrospective record.
const LowRatingThreshold = 6

// maxPriorResponseChars bounds the embedded prior assistant response.
const maxPriorResponseChars = 1500

// Record is the input for one learning record.
type Record struct {
	Kind    Kind
	Rating  int
	Source  string
	Summary string

	// Detail is the detailed rationale (the classifier's detailedContext,
	// or the insight body).
	Detail string

	// PriorResponse is the most recent assistant response, if available.
	PriorResponse string

	Tags []string
}

// Recorder writes learning records under <dir>/<category>/<YYYY-MM>/.
type Recorder struct {
	dir string
	now func() time.Time
}

// NewRecorder creates a recorder rooted at dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir, now: time.Now}
}

// Write creates one markdown record and returns its path. Low-rating
// records are only legal for ratings below the threshold.
func (r *Recorder) Write(rec Record) (string, error) {
	if rec.Kind == KindLowRating && rec.Rating >= LowRatingThreshold {
		return "", fmt.Errorf("rating %d is not a low rating", rec.Rating)
	}
	if rec.Summary == "" && rec.Detail == "" {
		return "", fmt.Errorf("record has no content")
	}

	now := r.now()
	category := Categorize(rec.Detail + " " + rec.Summary)

	dir := filepath.Join(r.dir, string(category), now.Format("2006-01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating record directory: %w", err)
	}

	// Timestamp plus a short uuid suffix keeps filenames unique per
	// invocation without a collision guard.
	name := fmt.Sprintf("%s-%s-%s.md",
		now.Format("20060102T150405"), rec.Kind, uuid.New().String()[:8])
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(r.render(rec, category, now)), 0o644); err != nil {
		return "", fmt.Errorf("writing record: %w", err)
	}
	return path, nil
}

// render produces the record's markdown body.
func (r *Recorder) render(rec Record, category Category, now time.Time) string {
	var b strings.Builder

	b.WriteString("---\n")
	fmt.Fprintf(&b, "capture: %s\n", rec.Kind)
	fmt.Fprintf(&b, "timestamp: %s\n", now.Format(time.RFC3339))
	if rec.Kind == KindLowRating {
		fmt.Fprintf(&b, "rating: %d\n", rec.Rating)
	}
	fmt.Fprintf(&b, "source: %s\n", rec.Source)
	fmt.Fprintf(&b, "category: %s\n", category)
	if len(rec.Tags) > 0 {
		fmt.Fprintf(&b, "tags: %s\n", strings.Join(rec.Tags, ", "))
	}
	b.WriteString("---\n\n")

	if rec.Kind == KindLowRating {
		fmt.Fprintf(&b, "# Low rating: %d/10\n\n", rec.Rating)
	} else {
		b.WriteString("# Captured insight\n\n")
	}

	if rec.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", rec.Summary)
	}

	if rec.Detail != "" {
		b.WriteString("## Rationale\n\n")
		fmt.Fprintf(&b, "%s\n\n", rec.Detail)
	}

	if rec.PriorResponse != "" {
		b.WriteString("## Prior assistant response\n\n")
		prior := rec.PriorResponse
		if len(prior) > maxPriorResponseChars {
			prior = prior[:maxPriorResponseChars] + "\n\n[truncated]"
		}
		fmt.Fprintf(&b, "```\n%s\n```\n\n", prior)
	}

	b.WriteString("## Improvement notes\n\n")
	b.WriteString("- What should have happened:\n")
	b.WriteString("- What to change next time:\n")

	return b.String()
}
