// Package tracker collects SkippedCheck entries while rules execute. Rules
// running in parallel share one tracker per run, so the sink is a mutex-
// guarded append-only list; nothing ever removes or rewrites an entry.
package tracker

import (
	"sort"
	"sync"

	"github.com/fenwicklabs/canvaslint/api/schemas"
)

// Tracker is the thread-safe SkippedCheck sink for one analysis run.
type Tracker struct {
	mu      sync.Mutex
	skipped []schemas.SkippedCheck
}

// New creates an empty tracker. One per run.
func New() *Tracker {
	return &Tracker{}
}

// Record appends one skipped-check entry. An entry identical to one
// already recorded is dropped, so a rule visiting many documents can report
// the same missing context once per run. Safe for concurrent use.
func (t *Tracker) Record(check schemas.SkippedCheck) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, prev := range t.skipped {
		if sameCheck(prev, check) {
			return
		}
	}
	t.skipped = append(t.skipped, check)
}

func sameCheck(a, b schemas.SkippedCheck) bool {
	if a.RuleID != b.RuleID || a.Reason != b.Reason || len(a.SubChecks) != len(b.SubChecks) {
		return false
	}
	for i := range a.SubChecks {
		if a.SubChecks[i] != b.SubChecks[i] {
			return false
		}
	}
	return true
}

// Skip is shorthand for recording a full rule skip.
func (t *Tracker) Skip(ruleID, reason string) {
	t.Record(schemas.SkippedCheck{RuleID: ruleID, Reason: reason})
}

// Partial records a reduced-confidence run where only the named sub-checks
// were skipped.
func (t *Tracker) Partial(ruleID, reason string, subChecks ...string) {
	t.Record(schemas.SkippedCheck{RuleID: ruleID, Reason: reason, SubChecks: subChecks})
}

// Entries returns a copy of everything recorded so far.
func (t *Tracker) Entries() []schemas.SkippedCheck {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]schemas.SkippedCheck, len(t.skipped))
	copy(out, t.skipped)
	return out
}

// Summarize compiles the completeness report once all rules have run.
// presentKinds is the set of document kinds the bundle actually contained.
func (t *Tracker) Summarize(presentKinds map[schemas.DocumentKind]bool) schemas.CompletenessSummary {
	summary := schemas.CompletenessSummary{
		SkippedRules: make(map[string]string),
		PartialRules: make(map[string]schemas.PartialRule),
	}
	for _, kind := range schemas.AllDocumentKinds() {
		if !presentKinds[kind] {
			summary.AbsentKinds = append(summary.AbsentKinds, kind)
		}
	}
	for _, check := range t.Entries() {
		if len(check.SubChecks) == 0 {
			summary.SkippedRules[check.RuleID] = check.Reason
			continue
		}
		partial := summary.PartialRules[check.RuleID]
		if partial.Reason == "" {
			partial.Reason = check.Reason
		} else if check.Reason != "" && check.Reason != partial.Reason {
			partial.Reason += "; " + check.Reason
		}
		partial.SubChecks = append(partial.SubChecks, check.SubChecks...)
		summary.PartialRules[check.RuleID] = partial
	}
	for id, partial := range summary.PartialRules {
		sort.Strings(partial.SubChecks)
		summary.PartialRules[id] = partial
	}
	return summary
}
