package rules

import (
	"fmt"

	"github.com/fenwicklabs/canvaslint/api/schemas"
	"github.com/fenwicklabs/canvaslint/internal/analysis"
	"github.com/fenwicklabs/canvaslint/internal/ruleconfig"
	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

func builtinScriptRules() []ScriptRule {
	return []ScriptRule{
		complexityRule{},
		nestingDepthRule{},
		unusedVariablesRule{},
		unusedParametersRule{},
		unusedFunctionsRule{},
		returnConsistencyRule{},
		unreachableCodeRule{},
		deadExportsRule{},
		nestedSearchRule{},
		magicNumbersRule{},
		stringConcatRule{},
		verboseBooleanRule{},
		emptyFunctionRule{},
		namingConventionRule{},
		parameterCountRule{},
		shortCallbackParamsRule{},
		varKeywordRule{},
		consoleStatementRule{},
	}
}

// violation builds a Violation with a fragment-relative line.
func violation(line int, format string, args ...any) schemas.Violation {
	return schemas.Violation{Message: fmt.Sprintf(format, args...), Line: line}
}

// -- complexity --

type complexityRule struct{}

func (complexityRule) Info() Info {
	return Info{
		ID:              "complexity",
		Description:     "Cyclomatic complexity of a function (or whole script) exceeds the configured maximum.",
		DefaultSeverity: schemas.SeverityAction,
		DefaultEnabled:  true,
	}
}

func (complexityRule) Detect(tree *ast.Node, _ FieldContext, settings ruleconfig.RuleView) []schemas.Violation {
	max := settings.Int("max", 10)
	var out []schemas.Violation
	for _, score := range analysis.Complexity(tree) {
		if score.Score > max {
			out = append(out, violation(score.Line,
				"%s has cyclomatic complexity %d (maximum %d)", score.Unit, score.Score, max))
		}
	}
	return out
}

// -- nesting-depth --

type nestingDepthRule struct{}

func (nestingDepthRule) Info() Info {
	return Info{
		ID:              "nesting-depth",
		Description:     "Control structures nest deeper than the configured maximum.",
		DefaultSeverity: schemas.SeverityAction,
		DefaultEnabled:  true,
	}
}

func (nestingDepthRule) Detect(tree *ast.Node, _ FieldContext, settings ruleconfig.RuleView) []schemas.Violation {
	max := settings.Int("max", 4)
	res := analysis.NestingDepth(tree)
	if res.Depth <= max {
		return nil
	}
	return []schemas.Violation{violation(res.Line,
		"nesting reaches depth %d (maximum %d)", res.Depth, max)}
}

// -- unused-variables / unused-parameters --

type unusedVariablesRule struct{}

func (unusedVariablesRule) Info() Info {
	return Info{
		ID:              "unused-variables",
		Description:     "A local variable is declared but never referenced in its scope.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (unusedVariablesRule) Detect(tree *ast.Node, _ FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	var out []schemas.Violation
	for _, u := range analysis.UnusedIdentifiers(tree) {
		if u.Kind == analysis.UnusedVar {
			out = append(out, violation(u.Line, "variable %q is never used", u.Name))
		}
	}
	return out
}

type unusedParametersRule struct{}

func (unusedParametersRule) Info() Info {
	return Info{
		ID:              "unused-parameters",
		Description:     "A function parameter is never referenced in the function body.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (unusedParametersRule) Detect(tree *ast.Node, _ FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	var out []schemas.Violation
	for _, u := range analysis.UnusedIdentifiers(tree) {
		if u.Kind == analysis.UnusedParam {
			out = append(out, violation(u.Line, "parameter %q is never used", u.Name))
		}
	}
	return out
}

// -- unused-functions --

type unusedFunctionsRule struct{}

func (unusedFunctionsRule) Info() Info {
	return Info{
		ID:              "unused-functions",
		Description:     "A top-level function is never called from any script field of its document.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (unusedFunctionsRule) Detect(tree *ast.Node, field FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	if field.Document != nil && field.Document.Kind == schemas.KindScriptFile {
		// Standalone files have an export surface; dead-exports owns them.
		return nil
	}
	candidates := analysis.UnusedTopLevelFunctions(tree)
	if len(candidates) == 0 {
		return nil
	}
	// Clear candidates against the whole document: a function declared in
	// one field may be called from a sibling field's fragment.
	var refs map[string]bool
	if field.Project != nil && field.Document != nil {
		refs = field.Project.FragmentIdentifiers(field.Document)
	}
	var out []schemas.Violation
	for _, c := range candidates {
		if refs[c.Name] {
			continue
		}
		out = append(out, violation(c.Line, "function %q is never called", c.Name))
	}
	return out
}

// -- return-consistency / unreachable-code --

type returnConsistencyRule struct{}

func (returnConsistencyRule) Info() Info {
	return Info{
		ID:              "return-consistency",
		Description:     "A function returns a value on some paths but falls off the end on others.",
		DefaultSeverity: schemas.SeverityAction,
		DefaultEnabled:  true,
	}
}

func (returnConsistencyRule) Detect(tree *ast.Node, _ FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	var out []schemas.Violation
	for _, issue := range analysis.ReturnPaths(tree) {
		if issue.Kind == analysis.ReturnInconsistent {
			out = append(out, violation(issue.Line, "%s does not return on every path", issue.Unit))
		}
	}
	return out
}

type unreachableCodeRule struct{}

func (unreachableCodeRule) Info() Info {
	return Info{
		ID:              "unreachable-code",
		Description:     "Code follows an unconditional return in the same block.",
		DefaultSeverity: schemas.SeverityAction,
		DefaultEnabled:  true,
	}
}

func (unreachableCodeRule) Detect(tree *ast.Node, _ FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	var out []schemas.Violation
	for _, issue := range analysis.ReturnPaths(tree) {
		if issue.Kind == analysis.ReturnUnreachable {
			out = append(out, violation(issue.Line, "unreachable code in %s", issue.Unit))
		}
	}
	return out
}

// -- dead-exports --

type deadExportsRule struct{}

func (deadExportsRule) Info() Info {
	return Info{
		ID:              "dead-exports",
		Description:     "A top-level declaration of a standalone script file is neither exported nor reachable from an export.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (deadExportsRule) Detect(tree *ast.Node, field FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	if field.Document == nil || field.Document.Kind != schemas.KindScriptFile {
		return nil
	}
	// A function the file keeps private but a including document still
	// calls directly is alive, not dead.
	external := map[string]bool{}
	if field.Project != nil {
		for _, doc := range field.Project.Models {
			if doc == field.Document {
				continue
			}
			for _, inc := range field.Project.IncludesFor(doc) {
				if inc.File != field.Document {
					continue
				}
				for name := range field.Project.FragmentIdentifiers(doc) {
					external[name] = true
				}
			}
		}
	}
	var out []schemas.Violation
	for _, d := range analysis.DeadExports(tree, external) {
		out = append(out, violation(d.Line,
			"function %q is neither exported nor reachable from an export", d.Name))
	}
	return out
}

// -- nested-search --

type nestedSearchRule struct{}

func (nestedSearchRule) Info() Info {
	return Info{
		ID:              "nested-search",
		Description:     "A find/filter scans an unrelated collection inside an iteration callback, making the loop quadratic.",
		DefaultSeverity: schemas.SeverityAction,
		DefaultEnabled:  true,
	}
}

func (nestedSearchRule) Detect(tree *ast.Node, _ FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	var out []schemas.Violation
	for _, occ := range analysis.NestedSearches(tree) {
		out = append(out, violation(occ.Line,
			"%s over an unrelated collection inside an iteration callback; index it once outside the loop", occ.Detail))
	}
	return out
}

// -- magic-numbers --

type magicNumbersRule struct{}

func (magicNumbersRule) Info() Info {
	return Info{
		ID:              "magic-numbers",
		Description:     "A numeric literal appears outside a named declaration.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (magicNumbersRule) Detect(tree *ast.Node, _ FieldContext, settings ruleconfig.RuleView) []schemas.Violation {
	allowed := map[string]bool{"0": true, "1": true, "-1": true}
	if list := settings.StringList("allowed"); list != nil {
		allowed = make(map[string]bool, len(list))
		for _, v := range list {
			allowed[v] = true
		}
	}
	var out []schemas.Violation
	for _, occ := range analysis.MagicNumbers(tree, allowed) {
		out = append(out, violation(occ.Line, "magic number %s; give it a name", occ.Detail))
	}
	return out
}

// -- string-concat --

type stringConcatRule struct{}

func (stringConcatRule) Info() Info {
	return Info{
		ID:              "string-concat",
		Description:     "String concatenation with + where template syntax is clearer.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (stringConcatRule) Detect(tree *ast.Node, _ FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	var out []schemas.Violation
	for _, occ := range analysis.StringConcat(tree) {
		out = append(out, violation(occ.Line, "use a template literal instead of string concatenation"))
	}
	return out
}

// -- verbose-boolean --

type verboseBooleanRule struct{}

func (verboseBooleanRule) Info() Info {
	return Info{
		ID:              "verbose-boolean",
		Description:     "A boolean expression compares against true/false or spells out a ternary over literals.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (verboseBooleanRule) Detect(tree *ast.Node, _ FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	var out []schemas.Violation
	for _, occ := range analysis.VerboseBooleans(tree) {
		out = append(out, violation(occ.Line, "verbose boolean expression; use the condition directly"))
	}
	return out
}

// -- empty-function --

type emptyFunctionRule struct{}

func (emptyFunctionRule) Info() Info {
	return Info{
		ID:              "empty-function",
		Description:     "A function body contains no statements.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (emptyFunctionRule) Detect(tree *ast.Node, _ FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	var out []schemas.Violation
	for _, occ := range analysis.EmptyFunctions(tree) {
		out = append(out, violation(occ.Line, "%s has an empty body", occ.Detail))
	}
	return out
}

// -- naming-convention --

type namingConventionRule struct{}

func (namingConventionRule) Info() Info {
	return Info{
		ID:              "naming-convention",
		Description:     "A parameter or variable name is not lowerCamelCase.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (namingConventionRule) Detect(tree *ast.Node, _ FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	var out []schemas.Violation
	for _, occ := range analysis.BadNames(tree) {
		out = append(out, violation(occ.Line, "%q is not lowerCamelCase", occ.Detail))
	}
	return out
}

// -- parameter-count --

type parameterCountRule struct{}

func (parameterCountRule) Info() Info {
	return Info{
		ID:              "parameter-count",
		Description:     "A function declares more parameters than the configured maximum.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (parameterCountRule) Detect(tree *ast.Node, _ FieldContext, settings ruleconfig.RuleView) []schemas.Violation {
	max := settings.Int("max", 4)
	var out []schemas.Violation
	for _, occ := range analysis.ParameterCounts(tree, max) {
		out = append(out, violation(occ.Line, "%s (maximum %d)", occ.Detail, max))
	}
	return out
}

// -- short-callback-params --

type shortCallbackParamsRule struct{}

func (shortCallbackParamsRule) Info() Info {
	return Info{
		ID:              "short-callback-params",
		Description:     "A functional-method callback names its parameter with a single letter.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (shortCallbackParamsRule) Detect(tree *ast.Node, _ FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	var out []schemas.Violation
	for _, occ := range analysis.ShortCallbackParams(tree) {
		out = append(out, violation(occ.Line, "single-letter callback parameter %s", occ.Detail))
	}
	return out
}

// -- var-keyword --

type varKeywordRule struct{}

func (varKeywordRule) Info() Info {
	return Info{
		ID:              "var-keyword",
		Description:     "A declaration uses var where block-scoped let/const is expected.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (varKeywordRule) Detect(tree *ast.Node, _ FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	var out []schemas.Violation
	for _, occ := range analysis.VarKeywords(tree) {
		out = append(out, violation(occ.Line, "use let or const instead of var"))
	}
	return out
}

// -- console-statement --

type consoleStatementRule struct{}

func (consoleStatementRule) Info() Info {
	return Info{
		ID:              "console-statement",
		Description:     "A console call was left in production script.",
		DefaultSeverity: schemas.SeverityAdvice,
		DefaultEnabled:  true,
	}
}

func (consoleStatementRule) Detect(tree *ast.Node, _ FieldContext, _ ruleconfig.RuleView) []schemas.Violation {
	var out []schemas.Violation
	for _, occ := range analysis.ConsoleStatements(tree) {
		out = append(out, violation(occ.Line, "%s left in script", occ.Detail))
	}
	return out
}
