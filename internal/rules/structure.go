package rules

import (
	"fmt"

	"github.com/fenwicklabs/canvaslint/api/schemas"
	"github.com/fenwicklabs/canvaslint/internal/docmodel"
	"github.com/fenwicklabs/canvaslint/internal/project"
	"github.com/fenwicklabs/canvaslint/internal/ruleconfig"
)

func builtinStructureRules() []StructureRule {
	return []StructureRule{
		securityDomainsRule{},
		missingIncludesRule{},
		unusedIncludesRule{},
		widgetIDsRule{},
	}
}

// structureFinding builds a fully attributed Finding. Structure findings
// point at the document head; the path detail in the message locates the
// offending section.
func structureFinding(info Info, settings ruleconfig.RuleView, model *docmodel.DocumentModel, format string, args ...any) schemas.Finding {
	sev := settings.Severity()
	if sev == "" {
		sev = info.DefaultSeverity
	}
	return schemas.Finding{
		RuleID:      info.ID,
		Severity:    sev,
		Description: info.Description,
		Message:     fmt.Sprintf(format, args...),
		FilePath:    model.Path,
		Line:        1,
	}
}

// -- security-domains --

type securityDomainsRule struct{}

func (securityDomainsRule) Info() Info {
	return Info{
		ID:              "security-domains",
		Description:     "A page or component must declare security domains that exist in the security descriptor.",
		DefaultSeverity: schemas.SeverityAction,
		DefaultEnabled:  true,
	}
}

func (r securityDomainsRule) Visit(model *docmodel.DocumentModel, proj *project.Context, settings ruleconfig.RuleView) []schemas.Finding {
	info := r.Info()

	var declared []string
	var hasDomains bool
	switch {
	case model.Page != nil:
		if model.Page.MicroConclusion {
			// Terminal confirmation screens inherit their flow's domains.
			return nil
		}
		if isErrorPage(model.ID(), proj.Security) {
			// Error pages are reachable outside any authenticated flow, so
			// the descriptor routes to them without a domain declaration.
			return nil
		}
		declared, hasDomains = model.Page.SecurityDomains, model.Page.HasSecurityDomains
	case model.Component != nil:
		declared, hasDomains = model.Component.SecurityDomains, model.Component.HasSecurityDomains
	default:
		return nil
	}
	if model.IsDegraded("securityDomains") {
		proj.Tracker.Skip(info.ID, "securityDomains section malformed in "+model.Path)
		return nil
	}

	var findings []schemas.Finding
	if !hasDomains || len(declared) == 0 {
		findings = append(findings, structureFinding(info, settings, model,
			"%s declares no security domains", model.ID()))
	}

	if proj.Security == nil || proj.Security.Security == nil {
		// Presence was still checked; only domain existence is skipped.
		proj.Tracker.Partial(info.ID, "no security descriptor in bundle", "domain-existence")
		return findings
	}
	known := make(map[string]bool, len(proj.Security.Security.Domains))
	for _, d := range proj.Security.Security.Domains {
		known[d] = true
	}
	for _, d := range declared {
		if !known[d] {
			findings = append(findings, structureFinding(info, settings, model,
				"security domain %q is not defined in the security descriptor", d))
		}
	}
	return findings
}

// isErrorPage reports whether the security descriptor routes an error code
// to the page with the given id.
func isErrorPage(pageID string, sec *docmodel.DocumentModel) bool {
	if pageID == "" || sec == nil || sec.Security == nil {
		return false
	}
	for _, cfg := range sec.Security.ErrorPageConfigurations {
		if cfg.Page == pageID {
			return true
		}
	}
	return false
}

// -- missing-includes --

type missingIncludesRule struct{}

func (missingIncludesRule) Info() Info {
	return Info{
		ID:              "missing-includes",
		Description:     "An include entry names a script file that is not part of the bundle.",
		DefaultSeverity: schemas.SeverityAction,
		DefaultEnabled:  true,
	}
}

func (r missingIncludesRule) Visit(model *docmodel.DocumentModel, proj *project.Context, settings ruleconfig.RuleView) []schemas.Finding {
	info := r.Info()
	if model.IsDegraded("include") {
		proj.Tracker.Skip(info.ID, "include section malformed in "+model.Path)
		return nil
	}
	var findings []schemas.Finding
	for _, inc := range proj.IncludesFor(model) {
		if inc.File == nil {
			findings = append(findings, structureFinding(info, settings, model,
				"include %q does not resolve to any script file", inc.Name))
		}
	}
	return findings
}

// -- unused-includes --

type unusedIncludesRule struct{}

func (unusedIncludesRule) Info() Info {
	return Info{
		ID:              "unused-includes",
		Description:     "An included script file contributes no exported member the document actually uses.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (r unusedIncludesRule) Visit(model *docmodel.DocumentModel, proj *project.Context, settings ruleconfig.RuleView) []schemas.Finding {
	info := r.Info()
	if model.IsDegraded("include") {
		proj.Tracker.Skip(info.ID, "include section malformed in "+model.Path)
		return nil
	}
	var findings []schemas.Finding
	for _, inc := range proj.IncludesFor(model) {
		// Unresolvable entries belong to missing-includes.
		if inc.File == nil {
			continue
		}
		if len(inc.UsedMembers) == 0 {
			findings = append(findings, structureFinding(info, settings, model,
				"include %q is never used by this document", inc.Name))
		}
	}
	return findings
}

// -- widget-ids --

type widgetIDsRule struct{}

func (widgetIDsRule) Info() Info {
	return Info{
		ID:              "widget-ids",
		Description:     "A widget in the presentation tree has no identifier.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (r widgetIDsRule) Visit(model *docmodel.DocumentModel, _ *project.Context, settings ruleconfig.RuleView) []schemas.Finding {
	info := r.Info()
	var widgets []docmodel.Widget
	switch {
	case model.Page != nil:
		widgets = model.Page.Widgets
	case model.Component != nil:
		widgets = model.Component.Widgets
	default:
		return nil
	}
	var findings []schemas.Finding
	for _, w := range widgets {
		if w.ID == "" {
			findings = append(findings, structureFinding(info, settings, model,
				"widget %q at %s has no id", w.Type, w.Path))
		}
	}
	return findings
}
