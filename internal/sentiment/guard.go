package sentiment

import (
	"regexp"
	"strings"
)

// explicitRatingPattern matches a message that opens with an integer 1-10,
// optionally followed by punctuation and a justification.
var explicitRatingPattern = regexp.MustCompile(`^\s*(10|[1-9])\b[\s.,:;!-]*(.*)$`)

// countedWords are nouns and prepositions that mark a leading number as part
// of a sentence rather than a rating: "3 bugs fixed" counts bugs, it does
// not rate the assistant a 3.
var countedWords = map[string]bool{
	"bug": true, "bugs": true,
	"error": true, "errors": true,
	"issue": true, "issues": true,
	"file": true, "files": true,
	"test": true, "tests": true,
	"failure": true, "failures": true,
	"warning": true, "warnings": true,
	"task": true, "tasks": true,
	"item": true, "items": true,
	"thing": true, "things": true,
	"time": true, "times": true,
	"line": true, "lines": true,
	"case": true, "cases": true,
	"change": true, "changes": true,
	"commit": true, "commits": true,
	"attempt": true, "attempts": true,
	"criteria": true, "criterion": true,
	"minute": true, "minutes": true,
	"hour": true, "hours": true,
	"day": true, "days": true,
	"week": true, "weeks": true,
	"percent": true, "points": true,
	"of": true, "out": true, "more": true, "per": true,
}

// IsExplicitRating reports whether a user message is itself an explicit
// numeric rating. When true the classifier must not run; the signal belongs
// to the explicit-capture path.
func IsExplicitRating(message string) bool {
	m := explicitRatingPattern.FindStringSubmatch(message)
	if m == nil {
		return false
	}

	rest := strings.TrimSpace(m[2])
	if rest == "" {
		return true
	}

	firstWord := strings.ToLower(rest)
	if i := strings.IndexAny(firstWord, " \t\n.,:;!?"); i >= 0 {
		firstWord = firstWord[:i]
	}
	return !countedWords[firstWord]
}
