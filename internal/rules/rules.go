// Package rules holds the rule descriptors and the registry the engine
// iterates. Registration is explicit: a rule exists because something
// registered it, never because a scan discovered it. Experimental rules
// stay out of Builtin until they earn their place.
package rules

import (
	"fmt"
	"sort"

	"github.com/fenwicklabs/canvaslint/api/schemas"
	"github.com/fenwicklabs/canvaslint/internal/docmodel"
	"github.com/fenwicklabs/canvaslint/internal/project"
	"github.com/fenwicklabs/canvaslint/internal/ruleconfig"
	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

// Info is the static descriptor of a rule.
type Info struct {
	ID              string
	Description     string
	DefaultSeverity schemas.Severity
	DefaultEnabled  bool
}

// FieldContext locates the script fragment a ScriptRule is looking at and
// gives it the project read surface for cross-fragment and cross-file
// checks.
type FieldContext struct {
	Document *docmodel.DocumentModel
	Field    docmodel.ScriptField
	Project  *project.Context
}

// ScriptRule examines one parsed script fragment at a time. Returned
// violation lines are fragment-relative; the engine resolves them.
type ScriptRule interface {
	Info() Info
	Detect(tree *ast.Node, field FieldContext, settings ruleconfig.RuleView) []schemas.Violation
}

// StructureRule examines one document model at a time and emits findings
// directly, already attributed to absolute locations.
type StructureRule interface {
	Info() Info
	Visit(model *docmodel.DocumentModel, proj *project.Context, settings ruleconfig.RuleView) []schemas.Finding
}

// Registry is the explicit rule catalog for one engine instance.
type Registry struct {
	script    []ScriptRule
	structure []StructureRule
	byID      map[string]Info
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Info)}
}

// RegisterScript adds a script rule. A duplicate id is a programming error.
func (r *Registry) RegisterScript(rule ScriptRule) error {
	if err := r.claim(rule.Info()); err != nil {
		return err
	}
	r.script = append(r.script, rule)
	return nil
}

// RegisterStructure adds a structure rule.
func (r *Registry) RegisterStructure(rule StructureRule) error {
	if err := r.claim(rule.Info()); err != nil {
		return err
	}
	r.structure = append(r.structure, rule)
	return nil
}

func (r *Registry) claim(info Info) error {
	if info.ID == "" {
		return fmt.Errorf("rule has empty id")
	}
	if _, dup := r.byID[info.ID]; dup {
		return fmt.Errorf("rule id %q registered twice", info.ID)
	}
	if !schemas.ValidSeverity(info.DefaultSeverity) {
		return fmt.Errorf("rule %q has invalid default severity %q", info.ID, info.DefaultSeverity)
	}
	r.byID[info.ID] = info
	return nil
}

// ScriptRules returns the registered script rules in registration order.
func (r *Registry) ScriptRules() []ScriptRule { return r.script }

// StructureRules returns the registered structure rules in registration order.
func (r *Registry) StructureRules() []StructureRule { return r.structure }

// Describe returns a rule's descriptor.
func (r *Registry) Describe(id string) (Info, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// IDs lists every registered rule id, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Defaults exports the registry's built-in enablement and severity per
// rule, the base layer of configuration resolution.
func (r *Registry) Defaults() map[string]ruleconfig.Default {
	defaults := make(map[string]ruleconfig.Default, len(r.byID))
	for id, info := range r.byID {
		defaults[id] = ruleconfig.Default{
			Enabled:  info.DefaultEnabled,
			Severity: info.DefaultSeverity,
		}
	}
	return defaults
}

// Builtin returns a registry loaded with the full built-in rule set.
func Builtin() *Registry {
	r := NewRegistry()
	for _, rule := range builtinScriptRules() {
		if err := r.RegisterScript(rule); err != nil {
			panic(err)
		}
	}
	for _, rule := range builtinStructureRules() {
		if err := r.RegisterStructure(rule); err != nil {
			panic(err)
		}
	}
	return r
}
