package ruleconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/canvaslint/api/schemas"
)

func boolPtr(b bool) *bool { return &b }

func testDefaults() map[string]Default {
	return map[string]Default{
		"script-complexity":    {Enabled: true, Severity: schemas.SeverityAction},
		"script-console":       {Enabled: true, Severity: schemas.SeverityAdvice},
		"structure-widget-ids": {Enabled: false, Severity: schemas.SeverityAdvice},
	}
}

func TestMergeDefaultsOnly(t *testing.T) {
	t.Parallel()

	cfg, err := Merge(testDefaults())
	require.NoError(t, err)

	r := cfg.Rule("script-complexity")
	assert.True(t, r.Enabled)
	assert.Equal(t, schemas.SeverityAction, r.Severity)
	assert.Nil(t, r.Settings)
	assert.False(t, cfg.Enabled("structure-widget-ids"))
}

func TestMergeFieldsIndependently(t *testing.T) {
	t.Parallel()

	// The project layer downgrades severity; the CLI layer disables the
	// rule without touching severity. Each field keeps the last writer.
	project := Layer{Name: "project", Entries: map[string]Entry{
		"script-complexity": {SeverityOverride: schemas.SeverityAdvice},
	}}
	cli := Layer{Name: "cli", Entries: map[string]Entry{
		"script-complexity": {Enabled: boolPtr(false)},
	}}

	cfg, err := Merge(testDefaults(), project, cli)
	require.NoError(t, err)

	r := cfg.Rule("script-complexity")
	assert.False(t, r.Enabled)
	assert.Equal(t, schemas.SeverityAdvice, r.Severity)
}

func TestCustomSettingsReplaceWholesale(t *testing.T) {
	t.Parallel()

	lower := Layer{Name: "lower", Entries: map[string]Entry{
		"script-complexity": {CustomSettings: map[string]any{"max": 15, "grace": 2}},
	}}
	higher := Layer{Name: "higher", Entries: map[string]Entry{
		"script-complexity": {CustomSettings: map[string]any{"max": 8}},
	}}

	cfg, err := Merge(testDefaults(), lower, higher)
	require.NoError(t, err)

	// The higher layer's settings replace the lower layer's entirely;
	// "grace" does not survive.
	assert.Equal(t, 8, cfg.IntSetting("script-complexity", "max", 10))
	assert.Equal(t, -1, cfg.IntSetting("script-complexity", "grace", -1))
}

func TestMergeRejectsUnknownRule(t *testing.T) {
	t.Parallel()

	layer := Layer{Name: "project", Entries: map[string]Entry{
		"no-such-rule": {Enabled: boolPtr(true)},
	}}
	_, err := Merge(testDefaults(), layer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-rule")
	assert.Contains(t, err.Error(), "project")
}

func TestMergeRejectsMalformedSeverity(t *testing.T) {
	t.Parallel()

	layer := Layer{Name: "project", Entries: map[string]Entry{
		"script-console": {SeverityOverride: "critical"},
	}}
	_, err := Merge(testDefaults(), layer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "critical")
}

func TestIntSettingCoercesJSONNumbers(t *testing.T) {
	t.Parallel()

	layer := Layer{Name: "file", Entries: map[string]Entry{
		"script-complexity": {CustomSettings: map[string]any{"max": float64(12)}},
	}}
	cfg, err := Merge(testDefaults(), layer)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.IntSetting("script-complexity", "max", 10))
}

func TestStringListSetting(t *testing.T) {
	t.Parallel()

	layer := Layer{Name: "file", Entries: map[string]Entry{
		"script-console": {CustomSettings: map[string]any{"allowed": []any{"warn", "error"}}},
	}}
	cfg, err := Merge(testDefaults(), layer)
	require.NoError(t, err)
	assert.Equal(t, []string{"warn", "error"}, cfg.StringListSetting("script-console", "allowed"))
	assert.Nil(t, cfg.StringListSetting("script-console", "missing"))
}

func TestEnabledRuleIDsStableOrder(t *testing.T) {
	t.Parallel()

	cfg, err := Merge(testDefaults())
	require.NoError(t, err)
	assert.Equal(t, []string{"script-complexity", "script-console"}, cfg.EnabledRuleIDs())
}
