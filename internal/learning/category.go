package learning

import "regexp"

// Category classifies what kind of failure or insight a learning record
// captures. Categories drive the directory layout for retrospective review.
type Category string

const (
	// CategoryCommunication covers tone, verbosity, unclear answers, and
	// misread intent.
	CategoryCommunication Category = "communication"

	// CategoryCorrectness covers wrong output, broken builds, lost or
	// clobbered work.
	CategoryCorrectness Category = "correctness"

	// CategorySpeed covers slowness, stalls, and unnecessary work.
	CategorySpeed Category = "speed"

	// CategoryContext covers forgotten instructions, ignored constraints,
	// and missing session context.
	CategoryContext Category = "context"

	// CategoryTooling covers misuse of tools, commands, and files.
	CategoryTooling Category = "tooling"

	// CategoryGeneral is the fallback when no specific category matches.
	CategoryGeneral Category = "general"
)

// categoryRule pairs a compiled regex with the category it detects.
// Rules are evaluated in order; the first match wins.
type categoryRule struct {
	regex    *regexp.Regexp
	category Category
}

// maxMatchLength truncates input before matching to bound regex cost.
const maxMatchLength = 8192

var categoryRules = []categoryRule{
	{
		regexp.MustCompile(`(?i)\b(?:delet|overwr|clobber|lost\s+(?:my|the)|broke|broken|wrong\s+(?:file|answer|result)|incorrect|regression|corrupt)`),
		CategoryCorrectness,
	},
	{
		regexp.MustCompile(`(?i)\b(?:forgot|ignor(?:ed|ing)|didn'?t\s+(?:listen|read|follow)|told\s+you|already\s+(?:said|asked)|instructions?\b.*\b(?:ignored|missed)|context)`),
		CategoryContext,
	},
	{
		regexp.MustCompile(`(?i)\b(?:command|terminal|shell|script|tool\s+(?:call|use)|wrong\s+director|permission|git\b|build\s+fail)`),
		CategoryTooling,
	},
	{
		regexp.MustCompile(`(?i)\b(?:slow|stall|taking\s+(?:too\s+)?long|forever|waste(?:d)?\s+time|too\s+many\s+(?:steps|turns)|hurry)`),
		CategorySpeed,
	},
	{
		regexp.MustCompile(`(?i)\b(?:verbose|rambl|unclear|confus|tone|condescend|didn'?t\s+understand|misunderst|explain)`),
		CategoryCommunication,
	},
}

// Categorize returns the best-matching category for the combined
// rationale+summary text. Falls back to CategoryGeneral.
func Categorize(text string) Category {
	if len(text) > maxMatchLength {
		text = text[:maxMatchLength]
	}
	for _, rule := range categoryRules {
		if rule.regex.MatchString(text) {
			return rule.category
		}
	}
	return CategoryGeneral
}
