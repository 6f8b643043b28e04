package sentiment

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/signald/internal/transcript"
)

// rubricPrompt is the fixed scoring rubric sent as the system prompt.
const rubricPrompt = `You analyze one user message from a working session between a user and an AI assistant, and score the user's satisfaction with the assistant's work.

Scoring rubric:
- 1-2: severe negative (anger, the assistant broke or lost something)
- 3-4: mild negative (frustration, wrong direction, rework needed)
- 5: neutral / baseline (requests, questions, no satisfaction signal)
- 6-7: positive (approval, progress acknowledged)
- 8-9: strong positive (explicit praise, delight)
- 10: extraordinary (reserved for exceptional outcomes)

Rules:
- Profanity is ambiguous: it can signal either extreme. Disambiguate by
  whether the emotion targets the assistant's work. "What the f*** happened
  to my file?!" is severe negative; "f*** yes, that's perfect" is strong
  positive.
- Score sarcasm by the underlying sentiment, not surface lexical polarity.
- If the message carries no satisfaction signal at all, report rating null.

Respond ONLY with a JSON object:
{
  "rating": <integer 1-10, or null if no signal>,
  "sentiment": "positive" | "negative" | "neutral",
  "confidence": <0.0 to 1.0>,
  "summary": "<one short sentence>",
  "detailed_context": "<100-256 word rationale>"
}`

// buildUserPrompt assembles the message under analysis plus recent turns as
// disambiguating context.
func buildUserPrompt(message string, recent []transcript.Turn) string {
	var b strings.Builder

	if len(recent) > 0 {
		b.WriteString("Recent turns (oldest first, for context only):\n")
		for _, t := range recent {
			fmt.Fprintf(&b, "[%s] %s\n", t.Role, t.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("Message to score:\n")
	b.WriteString(message)
	return b.String()
}
