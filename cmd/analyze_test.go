package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/canvaslint/api/schemas"
)

func TestInferKind(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		kind schemas.DocumentKind
		ok   bool
	}{
		{"checkout.page.json", schemas.KindPage, true},
		{"price-card.component.json", schemas.KindComponent, true},
		{"app.json", schemas.KindAppDescriptor, true},
		{"security.json", schemas.KindSecurityDescriptor, true},
		{"helpers.script", schemas.KindScriptFile, true},
		{"helpers.js", schemas.KindScriptFile, true},
		{"readme.md", "", false},
		{"page.json", "", false},
	}
	for _, tc := range cases {
		kind, ok := inferKind(tc.name)
		assert.Equal(t, tc.ok, ok, tc.name)
		assert.Equal(t, tc.kind, kind, tc.name)
	}
}

func TestLoadBundleWalksAndSorts(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	write := func(rel, text string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	}
	write("pages/b.page.json", `{"id": "b"}`)
	write("pages/a.page.json", `{"id": "a"}`)
	write("app.json", `{"id": "shop"}`)
	write("notes.txt", "ignored")

	files, err := loadBundle(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "app.json", files[0].Path)
	assert.Equal(t, "pages/a.page.json", files[1].Path)
	assert.Equal(t, "pages/b.page.json", files[2].Path)
	assert.Equal(t, schemas.KindPage, files[1].Kind)
	assert.Equal(t, `{"id": "a"}`, files[1].Text)
}

func TestLoadRuleLayer(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
var-keyword:
  severity_override: action
complexity:
  enabled: false
  custom_settings:
    max: 20
`), 0o644))

	layer, err := loadRuleLayer(path)
	require.NoError(t, err)
	assert.Equal(t, path, layer.Name)
	assert.Equal(t, schemas.SeverityAction, layer.Entries["var-keyword"].SeverityOverride)
	require.NotNil(t, layer.Entries["complexity"].Enabled)
	assert.False(t, *layer.Entries["complexity"].Enabled)
	assert.Equal(t, 20, layer.Entries["complexity"].CustomSettings["max"])
}

func TestLoadRuleLayerMissingFile(t *testing.T) {
	t.Parallel()
	_, err := loadRuleLayer(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func writeBundle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	page := `{
  "id": "home",
  "securityDomains": ["user"],
  "presentation": {"id": "root", "type": "panel", "onLoad": "<% var x = 1; %>"}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.page.json"), []byte(page), 0o644))
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeCommandReportsAdvice(t *testing.T) {
	dir := writeBundle(t)

	out, err := runCLI(t, "analyze", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "var-keyword")
	assert.Contains(t, out, "home.page.json:4")
	assert.Contains(t, out, "advice")
}

func TestAnalyzeCommandActionFindingsFailTheRun(t *testing.T) {
	dir := writeBundle(t)
	rulesFile := filepath.Join(t.TempDir(), "strict.yaml")
	require.NoError(t, os.WriteFile(rulesFile, []byte("var-keyword:\n  severity_override: action\n"), 0o644))

	out, err := runCLI(t, "analyze", dir, "--rules", rulesFile)
	assert.ErrorIs(t, err, ErrActionFindings)
	assert.Contains(t, out, "action")
}

func TestAnalyzeCommandWritesJSONReport(t *testing.T) {
	dir := writeBundle(t)
	reportPath := filepath.Join(t.TempDir(), "report.json")

	_, err := runCLI(t, "analyze", dir, "--output", reportPath)
	require.NoError(t, err)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var report schemas.AnalysisReport
	require.NoError(t, jsoniter.Unmarshal(data, &report))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.Files)
	assert.NotEmpty(t, report.Findings)
}

func TestAnalyzeCommandEmptyDirFails(t *testing.T) {
	_, err := runCLI(t, "analyze", t.TempDir())
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "canvaslint")
}
