package learning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedRecorder(dir string) *Recorder {
	r := NewRecorder(dir)
	r.now = func() time.Time {
		return time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)
	}
	return r
}

func TestWrite_LowRatingRecord(t *testing.T) {
	dir := t.TempDir()
	r := fixedRecorder(dir)

	path, err := r.Write(Record{
		Kind:          KindLowRating,
		Rating:        2,
		Source:        "sentiment-inference",
		Summary:       "assistant deleted uncommitted work",
		Detail:        "The user lost the staged changes when the assistant ran a destructive command.",
		PriorResponse: "I cleaned up the working tree for you.",
		Tags:          []string{"negative"},
	})
	require.NoError(t, err)

	// Category and year-month drive the directory layout.
	rel, err := filepath.Rel(dir, path)
	require.NoError(t, err)
	parts := strings.Split(rel, string(filepath.Separator))
	require.Len(t, parts, 3)
	assert.Equal(t, string(CategoryCorrectness), parts[0])
	assert.Equal(t, "2026-08", parts[1])
	assert.True(t, strings.HasSuffix(parts[2], ".md"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "capture: low-rating")
	assert.Contains(t, text, "rating: 2")
	assert.Contains(t, text, "# Low rating: 2/10")
	assert.Contains(t, text, "assistant deleted uncommitted work")
	assert.Contains(t, text, "## Prior assistant response")
	assert.Contains(t, text, "I cleaned up the working tree for you.")
	assert.Contains(t, text, "## Improvement notes")
	assert.Contains(t, text, "tags: negative")
}

func TestWrite_RejectsHighRating(t *testing.T) {
	r := fixedRecorder(t.TempDir())

	_, err := r.Write(Record{Kind: KindLowRating, Rating: 7, Summary: "fine actually"})
	assert.Error(t, err)
}

func TestWrite_RejectsEmptyRecord(t *testing.T) {
	r := fixedRecorder(t.TempDir())

	_, err := r.Write(Record{Kind: KindInsight})
	assert.Error(t, err)
}

func TestWrite_TruncatesPriorResponse(t *testing.T) {
	r := fixedRecorder(t.TempDir())

	path, err := r.Write(Record{
		Kind:          KindLowRating,
		Rating:        3,
		Summary:       "rambling",
		Detail:        "too verbose",
		PriorResponse: strings.Repeat("x", 5000),
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[truncated]")
	assert.Less(t, len(content), 4000)
}

func TestWrite_InsightRecord(t *testing.T) {
	r := fixedRecorder(t.TempDir())

	path, err := r.Write(Record{
		Kind:    KindInsight,
		Source:  "assistant-response",
		Summary: "flag ordering matters for the migration tool",
		Detail:  "Passing --dry-run after the subcommand silently disables it.",
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "capture: insight")
	assert.Contains(t, text, "# Captured insight")
	assert.NotContains(t, text, "rating:")
}

func TestWrite_UniqueFilenames(t *testing.T) {
	r := fixedRecorder(t.TempDir())

	rec := Record{Kind: KindInsight, Summary: "same summary", Detail: "same detail"}

	first, err := r.Write(rec)
	require.NoError(t, err)
	second, err := r.Write(rec)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
