package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/fenwicklabs/canvaslint/api/schemas"
	"github.com/fenwicklabs/canvaslint/internal/ruleconfig"
	"github.com/fenwicklabs/canvaslint/internal/rules"
	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// onlyRules builds an effective config with just the named rules enabled.
func onlyRules(t *testing.T, registry *rules.Registry, ids ...string) *ruleconfig.EffectiveConfig {
	t.Helper()
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	off, on := false, true
	entries := map[string]ruleconfig.Entry{}
	for _, id := range registry.IDs() {
		enabled := off
		if wanted[id] {
			enabled = on
		}
		entries[id] = ruleconfig.Entry{Enabled: &enabled}
	}
	cfg, err := ruleconfig.Merge(registry.Defaults(), ruleconfig.Layer{Name: "test", Entries: entries})
	require.NoError(t, err)
	return cfg
}

func allRules(t *testing.T, registry *rules.Registry) *ruleconfig.EffectiveConfig {
	t.Helper()
	cfg, err := ruleconfig.Merge(registry.Defaults())
	require.NoError(t, err)
	return cfg
}

func TestRunVarAndConsoleEndToEnd(t *testing.T) {
	t.Parallel()

	registry := rules.Builtin()
	e := New(registry, zaptest.NewLogger(t), Options{})

	files := []schemas.SourceFile{{
		Path: "scripts/legacy.js",
		Kind: schemas.KindScriptFile,
		Text: "var x = 1;\nconsole.log(x);",
	}}
	report, err := e.Run(context.Background(), files, onlyRules(t, registry, "var-keyword", "console-statement"))
	require.NoError(t, err)

	require.Len(t, report.Findings, 2)
	assert.Equal(t, "var-keyword", report.Findings[0].RuleID)
	assert.Equal(t, 1, report.Findings[0].Line)
	assert.Equal(t, "console-statement", report.Findings[1].RuleID)
	assert.Equal(t, 2, report.Findings[1].Line)
	for _, f := range report.Findings {
		assert.Equal(t, schemas.SeverityAdvice, f.Severity)
		assert.Equal(t, "scripts/legacy.js", f.FilePath)
	}
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.Files)
}

func TestRunResolvesAbsoluteLines(t *testing.T) {
	t.Parallel()

	registry := rules.Builtin()
	e := New(registry, zaptest.NewLogger(t), Options{})

	// The console call sits on the second line of the fragment. The field
	// opens on line 4 of the document, so the absolute line is 4 + (2-1).
	files := []schemas.SourceFile{{
		Path: "pages/p.page",
		Kind: schemas.KindPage,
		Text: `{
  "id": "p",
  "securityDomains": ["internal"],
  "onLoad": "<% setup();\nconsole.log('loaded'); %>"
}`,
	}}
	report, err := e.Run(context.Background(), files, onlyRules(t, registry, "console-statement"))
	require.NoError(t, err)

	require.Len(t, report.Findings, 1)
	assert.Equal(t, 5, report.Findings[0].Line)
}

func TestRunIdenticalFragmentsMapToOwnLines(t *testing.T) {
	t.Parallel()

	registry := rules.Builtin()
	e := New(registry, zaptest.NewLogger(t), Options{})

	files := []schemas.SourceFile{{
		Path: "pages/twins.page",
		Kind: schemas.KindPage,
		Text: `{
  "id": "twins",
  "onShow": "<% console.log('x'); %>",
  "onHide": "<% console.log('x'); %>"
}`,
	}}
	report, err := e.Run(context.Background(), files, onlyRules(t, registry, "console-statement"))
	require.NoError(t, err)

	require.Len(t, report.Findings, 2)
	assert.Equal(t, 3, report.Findings[0].Line)
	assert.Equal(t, 4, report.Findings[1].Line)
}

func TestRunParseFailureBecomesSingleDiagnostic(t *testing.T) {
	t.Parallel()

	registry := rules.Builtin()
	e := New(registry, zaptest.NewLogger(t), Options{})

	files := []schemas.SourceFile{{
		Path: "scripts/broken.js",
		Kind: schemas.KindScriptFile,
		Text: "function oops( {",
	}}
	report, err := e.Run(context.Background(), files, allRules(t, registry))
	require.NoError(t, err)

	assert.Empty(t, report.Findings)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, "parser", report.Diagnostics[0].RuleID)
	assert.Contains(t, report.Diagnostics[0].Message, "scripts/broken.js")
}

type panickingRule struct{}

func (panickingRule) Info() rules.Info {
	return rules.Info{
		ID:              "test-panic",
		Description:     "always panics",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (panickingRule) Detect(*ast.Node, rules.FieldContext, ruleconfig.RuleView) []schemas.Violation {
	panic("rule bug")
}

func TestRunIsolatesPanickingRule(t *testing.T) {
	t.Parallel()

	registry := rules.NewRegistry()
	require.NoError(t, registry.RegisterScript(panickingRule{}))
	e := New(registry, zaptest.NewLogger(t), Options{})

	files := []schemas.SourceFile{{
		Path: "scripts/s.js",
		Kind: schemas.KindScriptFile,
		Text: "let a = 1;",
	}}
	report, err := e.Run(context.Background(), files, allRules(t, registry))
	require.NoError(t, err)

	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, "test-panic", report.Diagnostics[0].RuleID)
	assert.Contains(t, report.Diagnostics[0].Message, "rule bug")
}

func TestRunHonorsCancellation(t *testing.T) {
	t.Parallel()

	registry := rules.Builtin()
	e := New(registry, zaptest.NewLogger(t), Options{Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []schemas.SourceFile{{
		Path: "scripts/s.js",
		Kind: schemas.KindScriptFile,
		Text: "let a = 1;",
	}}
	_, err := e.Run(ctx, files, allRules(t, registry))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunStableOrderAcrossRepetitions(t *testing.T) {
	t.Parallel()

	registry := rules.Builtin()
	e := New(registry, zaptest.NewLogger(t), Options{Concurrency: 8})
	cfg := allRules(t, registry)

	files := []schemas.SourceFile{
		{
			Path: "pages/b.page", Kind: schemas.KindPage,
			Text: `{"id": "b", "onLoad": "<% var a = 1; console.log(a); %>"}`,
		},
		{
			Path: "pages/a.page", Kind: schemas.KindPage,
			Text: `{"id": "a", "onLoad": "<% var z = 2; console.log(z); %>"}`,
		},
	}

	first, err := e.Run(context.Background(), files, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, first.Findings)

	for i := 0; i < 5; i++ {
		again, err := e.Run(context.Background(), files, cfg)
		require.NoError(t, err)
		require.Len(t, again.Findings, len(first.Findings))
		for j := range first.Findings {
			assert.Equal(t, first.Findings[j].RuleID, again.Findings[j].RuleID)
			assert.Equal(t, first.Findings[j].FilePath, again.Findings[j].FilePath)
			assert.Equal(t, first.Findings[j].Line, again.Findings[j].Line)
		}
	}
	// Files sort ahead of their input order.
	assert.Equal(t, "pages/a.page", first.Findings[0].FilePath)
}

func TestRunAllRulesDisabledYieldsNoFindings(t *testing.T) {
	t.Parallel()

	registry := rules.Builtin()
	e := New(registry, zaptest.NewLogger(t), Options{})

	files := []schemas.SourceFile{{
		Path: "scripts/noisy.js",
		Kind: schemas.KindScriptFile,
		Text: "var x = 99;\nconsole.log(x + 42);",
	}}
	report, err := e.Run(context.Background(), files, onlyRules(t, registry))
	require.NoError(t, err)

	assert.Empty(t, report.Findings)
	assert.Empty(t, report.Diagnostics)
	assert.Equal(t, 1, report.Files)
}

func TestRunCoverageReportsAbsentKinds(t *testing.T) {
	t.Parallel()

	registry := rules.Builtin()
	e := New(registry, zaptest.NewLogger(t), Options{})

	files := []schemas.SourceFile{{
		Path: "pages/p.page", Kind: schemas.KindPage,
		Text: `{"id": "p", "securityDomains": ["internal"]}`,
	}}
	report, err := e.Run(context.Background(), files, allRules(t, registry))
	require.NoError(t, err)

	assert.Contains(t, report.Coverage.AbsentKinds, schemas.KindSecurityDescriptor)
	assert.Contains(t, report.Coverage.AbsentKinds, schemas.KindScriptFile)
	// No security descriptor: the domain-existence sub-check is skipped.
	partial := report.Coverage.PartialRules["security-domains"]
	assert.Equal(t, "no security descriptor in bundle", partial.Reason)
	assert.Equal(t, []string{"domain-existence"}, partial.SubChecks)
}
