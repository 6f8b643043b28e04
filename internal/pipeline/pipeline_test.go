package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/signald/internal/config"
	"github.com/fyrsmithlabs/signald/internal/inference"
	"github.com/fyrsmithlabs/signald/internal/signal"
	"github.com/fyrsmithlabs/signald/internal/task"
)

// stubClient returns a fixed classification payload.
type stubClient struct {
	payload string
	err     error
}

func (s *stubClient) Complete(ctx context.Context, req inference.Request) (*inference.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &inference.Result{Parsed: json.RawMessage(s.payload)}, nil
}

func testPipeline(t *testing.T, client inference.Client) (*Pipeline, *config.Config) {
	t.Helper()

	cfg := config.NewDefault()
	cfg.Paths.SessionDir = t.TempDir()
	cfg.Paths.TaskDir = t.TempDir()
	cfg.Paths.SignalsDir = t.TempDir()
	cfg.Paths.LearningsDir = t.TempDir()
	cfg.Sentiment.Timeout = config.Duration(time.Second)
	require.NoError(t, cfg.Validate())

	return New(cfg, nil, client), cfg
}

func readRatings(t *testing.T, cfg *config.Config) []signal.RatingEntry {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(cfg.Paths.SignalsDir, "ratings.jsonl"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var entries []signal.RatingEntry
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry signal.RatingEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func listLearnings(t *testing.T, cfg *config.Config) []string {
	t.Helper()

	var paths []string
	err := filepath.WalkDir(cfg.Paths.LearningsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	require.NoError(t, err)
	return paths
}

func TestHandleUserTurn_LowRatingCapturesSignalAndLearning(t *testing.T) {
	client := &stubClient{payload: `{"rating":2,"sentiment":"negative","confidence":0.9,"summary":"assistant deleted a file","detailed_context":"The user lost the staged changes."}`}
	p, cfg := testPipeline(t, client)

	p.HandleUserTurn(context.Background(), UserTurnEvent{
		SessionID: "session-1",
		Message:   "What the f*** happened to my file?!",
	})

	entries := readRatings(t, cfg)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Rating)
	assert.Equal(t, "session-1", entries[0].SessionID)
	assert.Equal(t, signal.SourceSentimentInference, entries[0].Source)

	learnings := listLearnings(t, cfg)
	require.Len(t, learnings, 1)

	content, err := os.ReadFile(learnings[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "rating: 2")
}

func TestHandleUserTurn_HighRatingSkipsLearning(t *testing.T) {
	client := &stubClient{payload: `{"rating":9,"sentiment":"positive","confidence":0.95,"summary":"user delighted"}`}
	p, cfg := testPipeline(t, client)

	p.HandleUserTurn(context.Background(), UserTurnEvent{
		SessionID: "session-1",
		Message:   "Perfect, exactly what I needed",
	})

	entries := readRatings(t, cfg)
	require.Len(t, entries, 1)
	assert.Equal(t, 9, entries[0].Rating)

	assert.Empty(t, listLearnings(t, cfg))
}

func TestHandleUserTurn_LowConfidencePersistsNothing(t *testing.T) {
	client := &stubClient{payload: `{"rating":2,"sentiment":"negative","confidence":0.2,"summary":"unsure"}`}
	p, cfg := testPipeline(t, client)

	p.HandleUserTurn(context.Background(), UserTurnEvent{
		SessionID: "session-1",
		Message:   "hmm, that's an interesting approach I guess",
	})

	assert.Empty(t, readRatings(t, cfg))
	assert.Empty(t, listLearnings(t, cfg))
}

func TestHandleUserTurn_ExplicitRatingDefers(t *testing.T) {
	client := &stubClient{payload: `{"rating":1,"sentiment":"negative","confidence":0.9,"summary":"should never run"}`}
	p, cfg := testPipeline(t, client)

	p.HandleUserTurn(context.Background(), UserTurnEvent{
		SessionID: "session-1",
		Message:   "8 great job",
	})

	assert.Empty(t, readRatings(t, cfg))
}

func TestHandleUserTurn_InferenceFailureIsSilent(t *testing.T) {
	p, cfg := testPipeline(t, inference.Unavailable{})

	p.HandleUserTurn(context.Background(), UserTurnEvent{
		SessionID: "session-1",
		Message:   "this should not blow anything up",
	})

	assert.Empty(t, readRatings(t, cfg))
}

func TestHandleUserTurn_UsesPriorResponseInLearning(t *testing.T) {
	client := &stubClient{payload: `{"rating":3,"sentiment":"negative","confidence":0.8,"summary":"rework needed","detailed_context":"The fix broke the build."}`}
	p, cfg := testPipeline(t, client)

	transcriptPath := filepath.Join(t.TempDir(), "session-1.jsonl")
	lines := `{"type":"assistant","message":{"role":"assistant","content":"I pushed the fix to main."}}` + "\n"
	require.NoError(t, os.WriteFile(transcriptPath, []byte(lines), 0o644))

	p.HandleUserTurn(context.Background(), UserTurnEvent{
		SessionID:      "session-1",
		Message:        "now the build is broken again",
		TranscriptPath: transcriptPath,
	})

	learnings := listLearnings(t, cfg)
	require.Len(t, learnings, 1)

	content, err := os.ReadFile(learnings[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "I pushed the fix to main.")
}

func setupActiveTask(t *testing.T, cfg *config.Config) string {
	t.Helper()

	taskID := "build-pipeline"
	pointer := task.WorkPointer{
		SessionID:   "session-1",
		SessionDir:  cfg.Paths.SessionDir,
		CurrentTask: taskID,
		TaskCount:   1,
		CreatedAt:   time.Now(),
	}
	data, err := json.Marshal(pointer)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.SessionDir, "current-work.json"), data, 0o644))

	taskPath := filepath.Join(cfg.Paths.TaskDir, taskID)
	require.NoError(t, os.MkdirAll(taskPath, 0o755))

	doc := task.ISCDocument{
		TaskID:   taskID,
		Status:   "not-started",
		Criteria: []string{"ci green"},
	}
	docData, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(taskPath, "criteria.json"), docData, 0o644))

	thread := "---\nstatus: in-progress\n---\nbody\n"
	require.NoError(t, os.WriteFile(filepath.Join(taskPath, "thread.md"), []byte(thread), 0o644))

	return filepath.Join(taskPath, "criteria.json")
}

func TestHandleAssistantTurn_UpdatesTaskState(t *testing.T) {
	p, cfg := testPipeline(t, inference.Unavailable{})
	criteriaPath := setupActiveTask(t, cfg)

	p.HandleAssistantTurn(context.Background(), AssistantTurnEvent{
		SessionID: "session-1",
		Response:  "SUMMARY: CI fixed.\n3 criteria, all satisfied. TASK COMPLETE",
	})

	data, err := os.ReadFile(criteriaPath)
	require.NoError(t, err)

	var doc task.ISCDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "complete", doc.Status)
	require.NotNil(t, doc.Satisfaction)
	assert.Equal(t, 3, doc.Satisfaction.Satisfied)
}

func TestHandleAssistantTurn_CapturesInsight(t *testing.T) {
	p, cfg := testPipeline(t, inference.Unavailable{})

	p.HandleAssistantTurn(context.Background(), AssistantTurnEvent{
		SessionID: "session-1",
		Response:  "ANALYSIS: The flaky test depends on wall-clock time.\nRESULTS: Pinning the clock fixed all ten runs.",
	})

	learnings := listLearnings(t, cfg)
	require.Len(t, learnings, 1)

	content, err := os.ReadFile(learnings[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "capture: insight")
	assert.Contains(t, string(content), "wall-clock time")
}

func TestHandleAssistantTurn_NoTaskNoInsightIsQuiet(t *testing.T) {
	p, cfg := testPipeline(t, inference.Unavailable{})

	p.HandleAssistantTurn(context.Background(), AssistantTurnEvent{
		SessionID: "session-1",
		Response:  "Sure, let me look at that.",
	})

	assert.Empty(t, listLearnings(t, cfg))
	assert.Empty(t, readRatings(t, cfg))
}
