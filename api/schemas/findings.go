package schemas

// -- Finding Schemas --

// Severity classifies rule output. The values are lowercase to keep them
// stable across JSON output and configuration files.
type Severity string

const (
	// SeverityAction marks an issue that should be fixed before release.
	SeverityAction Severity = "action"
	// SeverityAdvice marks a recommendation the team may choose to defer.
	SeverityAdvice Severity = "advice"
)

// ValidSeverity reports whether s is one of the recognized severity classes.
func ValidSeverity(s Severity) bool {
	return s == SeverityAction || s == SeverityAdvice
}

// Violation is detector-level output: a single issue located inside one
// script fragment, before it has been attributed to a rule. The line is
// relative to the fragment the detector analyzed; the engine resolves it to
// an absolute document line when promoting the violation to a Finding.
type Violation struct {
	Message string            `json:"message"`
	Line    int               `json:"line"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Finding is the rule-level, user-facing report of one issue, fully
// attributed to a rule and an absolute source location. It is the only
// analysis result entity exposed to collaborators.
type Finding struct {
	RuleID      string   `json:"rule_id"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Message     string   `json:"message"`
	FilePath    string   `json:"file_path"`
	Line        int      `json:"line"`
}
