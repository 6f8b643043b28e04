package task

import (
	"regexp"
	"strconv"
	"strings"
)

// CompletionMarker is the literal that forces a task to complete regardless
// of satisfaction counts. Literal-marker detection deliberately has priority
// over numeric satisfaction data.
const CompletionMarker = "TASK COMPLETE"

// effortPattern recognizes "level <token>" with one of the four effort values.
var effortPattern = regexp.MustCompile(`(?i)\blevel\s+(minimal|moderate|substantial|exhaustive)\b`)

// Satisfaction phrasings:
//
//	"6 criteria, all satisfied"  -> satisfied = total = 6
//	"2/5 criteria satisfied"     -> satisfied = 2, total = 5
var (
	allSatisfiedPattern = regexp.MustCompile(`(?i)\b(\d+)\s+criteria,\s*all\s+satisfied\b`)
	ratioPattern        = regexp.MustCompile(`(?i)\b(\d+)\s*/\s*(\d+)\s+criteria\s+satisfied\b`)
)

// Patch holds the fields extracted from one assistant response. Nil fields
// mean "no data, do not overwrite".
type Patch struct {
	Effort       *EffortLevel
	Satisfaction *Satisfaction

	// ForceComplete is set when the literal completion marker was present.
	ForceComplete bool
}

// IsEmpty reports whether the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Effort == nil && p.Satisfaction == nil && !p.ForceComplete
}

// ExtractPatch parses an assistant response into a merge-patch for the
// task's ISC document.
func ExtractPatch(text string) Patch {
	var patch Patch

	if m := effortPattern.FindStringSubmatch(text); m != nil {
		level := ValidEffortLevels[strings.ToLower(m[1])]
		patch.Effort = &level
	}

	if m := allSatisfiedPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			patch.Satisfaction = &Satisfaction{Satisfied: n, Total: n}
		}
	} else if m := ratioPattern.FindStringSubmatch(text); m != nil {
		satisfied, err1 := strconv.Atoi(m[1])
		total, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			patch.Satisfaction = &Satisfaction{Satisfied: satisfied, Total: total}
		}
	}

	if strings.Contains(strings.ToUpper(text), CompletionMarker) {
		patch.ForceComplete = true
	}

	return patch
}

// derivedStatus computes the status a patch implies, or "" when the patch
// carries no status information. The literal marker wins over counts.
func (p Patch) derivedStatus() string {
	if p.ForceComplete {
		return "complete"
	}
	if p.Satisfaction != nil {
		if p.Satisfaction.Satisfied == p.Satisfaction.Total {
			return "complete"
		}
		return "partial"
	}
	return ""
}
