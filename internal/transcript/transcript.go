// Package transcript reads agent-session JSONL transcripts. Each line is a
// JSON object with a type field (user/assistant) and a message whose content
// is either a plain string or an ordered list of typed content blocks; both
// shapes are normalized to flat text before any downstream matching runs.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Role identifies the sender of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one normalized transcript entry.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// jsonlEntry is the raw per-line structure.
type jsonlEntry struct {
	Type      string          `json:"type"`
	Message   json.RawMessage `json:"message,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// rawMessage is the nested message structure when content is block-shaped.
type rawMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// contentBlock is a typed block within a block-shaped content list.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Reader parses session transcripts.
type Reader struct{}

// NewReader creates a transcript reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read parses a JSONL transcript file. Unparseable lines are skipped so a
// torn final line never hides the rest of the session.
func (r *Reader) Read(path string) ([]Turn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)

	// Increase buffer size for large messages
	const maxScanTokenSize = 10 * 1024 * 1024 // 10MB
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	var turns []Turn
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var entry jsonlEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Type != "user" && entry.Type != "assistant" {
			continue
		}

		content := normalizeContent(entry.Message)
		if content == "" {
			continue
		}

		turns = append(turns, Turn{
			Role:      Role(entry.Type),
			Content:   content,
			Timestamp: parseTimestamp(entry.Timestamp),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning transcript: %w", err)
	}
	return turns, nil
}

// Recent returns up to n of the most recent turns, each truncated to
// charLimit characters. The slice is ordered oldest first.
func (r *Reader) Recent(path string, n, charLimit int) ([]Turn, error) {
	turns, err := r.Read(path)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	for i := range turns {
		turns[i].Content = truncate(turns[i].Content, charLimit)
	}
	return turns, nil
}

// LastAssistantText returns the content of the most recent assistant turn,
// or "" if the transcript has none.
func (r *Reader) LastAssistantText(path string) (string, error) {
	turns, err := r.Read(path)
	if err != nil {
		return "", err
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleAssistant {
			return turns[i].Content, nil
		}
	}
	return "", nil
}

// normalizeContent flattens the two legal content shapes (plain string, or a
// message object whose content is a string or typed block list) to text.
func normalizeContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	// Message may itself be a bare string.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var msg rawMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ""
	}
	return flattenContent(msg.Content)
}

// flattenContent handles content that is a string or a list of typed blocks.
func flattenContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// parseTimestamp parses RFC3339 timestamps, falling back to zero time.
func parseTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// truncate caps s at limit characters.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}
