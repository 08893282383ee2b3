package schemas

import "time"

// -- Run Report Schemas --

// SkippedCheck records that a rule could not fully execute because some
// cross-file context was missing. It feeds the completeness report; it is
// never an error.
type SkippedCheck struct {
	RuleID    string   `json:"rule_id"`
	Reason    string   `json:"reason"`
	SubChecks []string `json:"sub_checks,omitempty"`
}

// ToolDiagnostic reports a fault inside the tool itself (for example a rule
// implementation panicking). Diagnostics are kept apart from Findings so a
// broken rule never masquerades as an application issue.
type ToolDiagnostic struct {
	RuleID  string `json:"rule_id"`
	Message string `json:"message"`
}

// PartialRule describes a rule that ran with reduced confidence: which
// sub-checks were skipped and why.
type PartialRule struct {
	Reason    string   `json:"reason"`
	SubChecks []string `json:"sub_checks"`
}

// CompletenessSummary is the end-of-run digest of every SkippedCheck,
// answering "how much of the rule set actually ran against this bundle".
type CompletenessSummary struct {
	// AbsentKinds lists document kinds the bundle did not contain.
	AbsentKinds []DocumentKind `json:"absent_kinds"`
	// SkippedRules maps rule id -> reason for rules that did not run at all.
	SkippedRules map[string]string `json:"skipped_rules"`
	// PartialRules maps rule id -> the sub-checks that were skipped and the
	// reason they were.
	PartialRules map[string]PartialRule `json:"partial_rules"`
}

/// AnalysisReport is the complete output of one analysis run: the ordered
// Finding list plus everything a consumer needs to judge its completeness.
type AnalysisReport struct {
	RunID       string              `json:"run_id"`
	AppID       string              `json:"app_id,omitempty"`
	Findings    []Finding           `json:"findings"`
	Diagnostics []ToolDiagnostic    `json:"diagnostics,omitempty"`
	Coverage    CompletenessSummary `json:"coverage"`
	Files       int                 `json:"files"`
	Duration    time.Duration       `json:"duration"`
}

// Summary aggregates finding counts by severity, mirroring what the console
// renderer prints.
func (r *AnalysisReport) Summary() map[string]int {
	summary := map[string]int{"total": len(r.Findings)}
	for _, f := range r.Findings {
		summary[string(f.Severity)]++
	}
	return summary
}
