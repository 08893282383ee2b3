// Package ruleconfig resolves layered rule configuration into the single
// effective view the engine consults. Layers are ordered lowest to highest
// precedence; each field of an entry is merged independently, so a later
// layer can flip a rule's severity without restating its enablement.
package ruleconfig

import (
	"fmt"
	"sort"

	"github.com/fenwicklabs/canvaslint/api/schemas"
)

// Entry is one rule's configuration inside a layer. Nil/empty fields mean
// "this layer has no opinion" and leave the lower layers' value standing.
type Entry struct {
	Enabled          *bool            `json:"enabled,omitempty" mapstructure:"enabled"`
	SeverityOverride schemas.Severity `json:"severity_override,omitempty" mapstructure:"severity_override"`
	// CustomSettings replaces wholesale: the highest layer that defines any
	// settings for a rule defines all of them.
	CustomSettings map[string]any `json:"custom_settings,omitempty" mapstructure:"custom_settings"`
}

// Layer is one configuration source (built-in defaults file, project file,
// command line). Name appears in validation errors.
type Layer struct {
	Name    string
	Entries map[string]Entry
}

// Default carries a rule's built-in enablement and severity, supplied by
// the rule registry.
type Default struct {
	Enabled  bool
	Severity schemas.Severity
}

// Resolved is the effective configuration of one rule after merging.
type Resolved struct {
	Enabled  bool
	Severity schemas.Severity
	Settings map[string]any
}

// EffectiveConfig is the merged, validated view over every known rule.
type EffectiveConfig struct {
	rules map[string]Resolved
}

// Merge folds the layers over the defaults, validating as it goes. Any
// reference to an unknown rule id or a malformed severity fails the whole
// merge: configuration errors are fatal before any document is analyzed.
func Merge(defaults map[string]Default, layers ...Layer) (*EffectiveConfig, error) {
	resolved := make(map[string]Resolved, len(defaults))
	for id, d := range defaults {
		resolved[id] = Resolved{Enabled: d.Enabled, Severity: d.Severity}
	}

	for _, layer := range layers {
		for _, id := range sortedIDs(layer.Entries) {
			entry := layer.Entries[id]
			current, known := resolved[id]
			if !known {
				return nil, fmt.Errorf("layer %q configures unknown rule %q", layer.Name, id)
			}
			if entry.Enabled != nil {
				current.Enabled = *entry.Enabled
			}
			if entry.SeverityOverride != "" {
				if !schemas.ValidSeverity(entry.SeverityOverride) {
					return nil, fmt.Errorf("layer %q sets invalid severity %q for rule %q",
						layer.Name, entry.SeverityOverride, id)
				}
				current.Severity = entry.SeverityOverride
			}
			if entry.CustomSettings != nil {
				current.Settings = entry.CustomSettings
			}
			resolved[id] = current
		}
	}
	return &EffectiveConfig{rules: resolved}, nil
}

// Rule returns the effective configuration for a rule id. Unknown ids come
// back disabled; the engine only asks about registered rules.
func (c *EffectiveConfig) Rule(id string) Resolved {
	return c.rules[id]
}

// Enabled reports whether the rule runs.
func (c *EffectiveConfig) Enabled(id string) bool {
	return c.rules[id].Enabled
}

// EnabledRuleIDs returns the ids of all enabled rules in a stable order.
func (c *EffectiveConfig) EnabledRuleIDs() []string {
	var ids []string
	for id, r := range c.rules {
		if r.Enabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// IntSetting reads a numeric custom setting for a rule, falling back when
// the rule has no setting under that key. JSON and YAML decoders hand
// numbers over as float64 or int depending on the source; both are accepted.
func (c *EffectiveConfig) IntSetting(ruleID, key string, fallback int) int {
	raw, ok := c.rules[ruleID].Settings[key]
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// StringListSetting reads a list-of-strings custom setting.
func (c *EffectiveConfig) StringListSetting(ruleID, key string) []string {
	raw, ok := c.rules[ruleID].Settings[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// View binds the config to one rule id so detectors read their own
// settings without carrying the id around.
func (c *EffectiveConfig) View(ruleID string) RuleView {
	return RuleView{cfg: c, id: ruleID}
}

// RuleView is one rule's window onto the effective configuration.
type RuleView struct {
	cfg *EffectiveConfig
	id  string
}

// Int reads a numeric setting with a fallback.
func (v RuleView) Int(key string, fallback int) int {
	if v.cfg == nil {
		return fallback
	}
	return v.cfg.IntSetting(v.id, key, fallback)
}

// StringList reads a list-of-strings setting.
func (v RuleView) StringList(key string) []string {
	if v.cfg == nil {
		return nil
	}
	return v.cfg.StringListSetting(v.id, key)
}

// Severity returns the rule's effective severity.
func (v RuleView) Severity() schemas.Severity {
	if v.cfg == nil {
		return ""
	}
	return v.cfg.Rule(v.id).Severity
}

func sortedIDs(entries map[string]Entry) []string {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
