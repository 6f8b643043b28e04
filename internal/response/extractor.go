// Package response parses an assistant turn's free text into the bounded set
// of labeled sections used downstream by the task updater and the learning
// recorder.
package response

import (
	"regexp"
	"strings"
)

// Fields holds the optional labeled sections of one assistant response.
// An empty string means the section was absent; callers must treat absent
// as "do not overwrite".
type Fields struct {
	Summary   string
	Analysis  string
	Actions   string
	Results   string
	Status    string
	NextSteps string

	// Completed is the short spoken/display completion line.
	Completed string
}

// IsEmpty reports whether no section was recognized.
func (f Fields) IsEmpty() bool {
	return f == Fields{}
}

// sectionPattern matches a recognized marker at the start of a line.
// The section's content runs until the next recognized marker or end of text.
var sectionPattern = regexp.MustCompile(`(?mi)^(SUMMARY|ANALYSIS|ACTIONS|RESULTS|STATUS|NEXT STEPS|COMPLETED):`)

// Extract parses an assistant response into its labeled sections. A response
// with no recognizable markers yields an empty Fields, never an error.
func Extract(text string) Fields {
	var fields Fields

	matches := sectionPattern.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		marker := strings.ToUpper(text[m[2]:m[3]])

		start := m[1] // just past the colon
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(text[start:end])

		switch marker {
		case "SUMMARY":
			fields.Summary = content
		case "ANALYSIS":
			fields.Analysis = content
		case "ACTIONS":
			fields.Actions = content
		case "RESULTS":
			fields.Results = content
		case "STATUS":
			fields.Status = content
		case "NEXT STEPS":
			fields.NextSteps = content
		case "COMPLETED":
			fields.Completed = content
		}
	}

	return fields
}
