package schemas_test

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/canvaslint/api/schemas"
)

func TestValidSeverity(t *testing.T) {
	t.Parallel()
	assert.True(t, schemas.ValidSeverity(schemas.SeverityAction))
	assert.True(t, schemas.ValidSeverity(schemas.SeverityAdvice))
	assert.False(t, schemas.ValidSeverity("warning"))
	assert.False(t, schemas.ValidSeverity(""))
}

func TestAllDocumentKindsStableOrder(t *testing.T) {
	t.Parallel()
	kinds := schemas.AllDocumentKinds()
	require.Equal(t, []schemas.DocumentKind{
		schemas.KindPage,
		schemas.KindComponent,
		schemas.KindAppDescriptor,
		schemas.KindSecurityDescriptor,
		schemas.KindScriptFile,
	}, kinds)
}

func TestReportSummaryCountsBySeverity(t *testing.T) {
	t.Parallel()
	report := schemas.AnalysisReport{
		Findings: []schemas.Finding{
			{RuleID: "complexity", Severity: schemas.SeverityAction},
			{RuleID: "var-keyword", Severity: schemas.SeverityAdvice},
			{RuleID: "var-keyword", Severity: schemas.SeverityAdvice},
		},
	}
	summary := report.Summary()
	assert.Equal(t, 3, summary["total"])
	assert.Equal(t, 1, summary["action"])
	assert.Equal(t, 2, summary["advice"])
}

func TestReportSummaryEmpty(t *testing.T) {
	t.Parallel()
	report := schemas.AnalysisReport{}
	assert.Equal(t, map[string]int{"total": 0}, report.Summary())
}

// SourceFile.Text never belongs in serialized output; reports would balloon
// with full document bodies otherwise.
func TestSourceFileTextNotSerialized(t *testing.T) {
	t.Parallel()
	data, err := jsoniter.Marshal(schemas.SourceFile{
		Path: "home.page.json",
		Text: "{\"id\": \"home\"}",
		Kind: schemas.KindPage,
	})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "home\\\"")
	assert.Contains(t, string(data), `"path":"home.page.json"`)
	assert.Contains(t, string(data), `"kind":"page"`)
}

func TestFindingJSONShape(t *testing.T) {
	t.Parallel()
	f := schemas.Finding{
		RuleID:      "nesting-depth",
		Severity:    schemas.SeverityAdvice,
		Description: "Flags deeply nested control flow.",
		Message:     "nesting depth 5 exceeds the maximum of 4",
		FilePath:    "checkout.page.json",
		Line:        12,
	}
	data, err := jsoniter.Marshal(f)
	require.NoError(t, err)

	var back schemas.Finding
	require.NoError(t, jsoniter.Unmarshal(data, &back))
	assert.Equal(t, f, back)
}
