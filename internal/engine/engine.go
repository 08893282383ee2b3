// Package engine orchestrates one analysis run: building document models in
// parallel, assembling the project context, executing every enabled rule,
// and compiling the ordered report. Rule execution order is an
// implementation detail; the final Finding list is stable-sorted so two
// runs over the same bundle always produce identical output.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fenwicklabs/canvaslint/api/schemas"
	"github.com/fenwicklabs/canvaslint/internal/docmodel"
	"github.com/fenwicklabs/canvaslint/internal/project"
	"github.com/fenwicklabs/canvaslint/internal/ruleconfig"
	"github.com/fenwicklabs/canvaslint/internal/rules"
	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

// Options tunes an engine instance.
type Options struct {
	// Concurrency bounds the parallel model-build and rule phases.
	// Zero or negative falls back to a sensible default.
	Concurrency int
}

const defaultConcurrency = 4

// Engine runs registered rules over application bundles. One engine may
// serve many Run calls; each call gets its own project context, cache and
// tracker, so concurrent runs never share state.
type Engine struct {
	registry    *rules.Registry
	builder     *docmodel.Builder
	logger      *zap.Logger
	concurrency int
}

// New creates an engine over the given rule registry.
func New(registry *rules.Registry, logger *zap.Logger, opts Options) *Engine {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Engine{
		registry:    registry,
		builder:     docmodel.NewBuilder(logger),
		logger:      logger.Named("engine"),
		concurrency: concurrency,
	}
}

// Run analyzes one bundle under the given effective configuration. The
// returned report is complete even when ctx is cancelled mid-run; the error
// then reports the cancellation.
func (e *Engine) Run(ctx context.Context, files []schemas.SourceFile, cfg *ruleconfig.EffectiveConfig) (*schemas.AnalysisReport, error) {
	start := time.Now()
	report := &schemas.AnalysisReport{
		RunID: uuid.NewString(),
		Files: len(files),
	}
	logger := e.logger.With(zap.String("run_id", report.RunID))
	logger.Info("analysis run starting",
		zap.Int("files", len(files)),
		zap.Int("concurrency", e.concurrency))

	proj, err := e.buildModels(ctx, files, logger)
	if err != nil {
		return report, err
	}
	report.AppID = proj.AppID

	sink := &resultSink{}
	e.warmCache(ctx, proj, sink)
	err = e.runRules(ctx, proj, cfg, sink)

	report.Findings = sink.sortedFindings()
	report.Diagnostics = sink.sortedDiagnostics()
	report.Coverage = proj.Tracker.Summarize(proj.PresentKinds())
	report.Duration = time.Since(start)

	stats := proj.Cache.Stats()
	logger.Info("analysis run finished",
		zap.Duration("duration", report.Duration),
		zap.Int("findings", len(report.Findings)),
		zap.Int("diagnostics", len(report.Diagnostics)),
		zap.Int("cache_hits", stats.Hits),
		zap.Int("cache_misses", stats.Misses),
		zap.Int("parse_failures", stats.Failures))
	return report, err
}

// buildModels is phase one: every document model is built in parallel, in
// input order.
func (e *Engine) buildModels(ctx context.Context, files []schemas.SourceFile, logger *zap.Logger) (*project.Context, error) {
	models := make([]*docmodel.DocumentModel, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			models[i] = e.builder.Build(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("model build phase: %w", err)
	}
	return project.Assemble(models, logger), nil
}

// warmCache parses every script fragment once up front. Fragments that do
// not parse produce a single diagnostic here instead of one per rule.
func (e *Engine) warmCache(ctx context.Context, proj *project.Context, sink *resultSink) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, doc := range proj.Models {
		doc := doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for _, field := range doc.ScriptFields {
				if _, fail := proj.Cache.GetOrParse(field.Source); fail != nil {
					line := absoluteLine(doc, field, fail.Line)
					sink.addDiagnostic(schemas.ToolDiagnostic{
						RuleID: "parser",
						Message: fmt.Sprintf("%s: script field %s does not parse at line %d: %s",
							doc.Path, field.Path, line, fail.Message),
					})
				}
			}
			return nil
		})
	}
	// Cancellation surfaces from the rule phase; parse warming is best effort.
	_ = g.Wait()
}

// runRules is phase two. Each enabled rule runs against every document; a
// panicking rule is reported as a diagnostic and the rest continue.
func (e *Engine) runRules(ctx context.Context, proj *project.Context, cfg *ruleconfig.EffectiveConfig, sink *resultSink) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, rule := range e.registry.ScriptRules() {
		rule := rule
		if !cfg.Enabled(rule.Info().ID) {
			continue
		}
		g.Go(func() error {
			return e.runScriptRule(gctx, rule, proj, cfg, sink)
		})
	}
	for _, rule := range e.registry.StructureRules() {
		rule := rule
		if !cfg.Enabled(rule.Info().ID) {
			continue
		}
		g.Go(func() error {
			return e.runStructureRule(gctx, rule, proj, cfg, sink)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("rule phase: %w", err)
	}
	return nil
}

func (e *Engine) runScriptRule(ctx context.Context, rule rules.ScriptRule, proj *project.Context, cfg *ruleconfig.EffectiveConfig, sink *resultSink) error {
	info := rule.Info()
	severity := cfg.Rule(info.ID).Severity
	settings := cfg.View(info.ID)

	for _, doc := range proj.Models {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, field := range doc.ScriptFields {
			tree, fail := proj.Cache.GetOrParse(field.Source)
			if fail != nil {
				continue
			}
			violations := e.detect(rule, tree, rules.FieldContext{
				Document: doc,
				Field:    field,
				Project:  proj,
			}, settings, sink)
			for _, v := range violations {
				sink.addFinding(schemas.Finding{
					RuleID:      info.ID,
					Severity:    severity,
					Description: info.Description,
					Message:     v.Message,
					FilePath:    doc.Path,
					Line:        absoluteLine(doc, field, v.Line),
				})
			}
		}
	}
	return nil
}

// detect invokes a script rule with panic isolation. A faulty rule yields
// one diagnostic for the fragment and no findings; every other rule is
// unaffected.
func (e *Engine) detect(rule rules.ScriptRule, tree *ast.Node, field rules.FieldContext, settings ruleconfig.RuleView, sink *resultSink) (violations []schemas.Violation) {
	defer func() {
		if r := recover(); r != nil {
			id := rule.Info().ID
			e.logger.Error("script rule panicked",
				zap.String("rule", id),
				zap.String("file", field.Document.Path),
				zap.String("field", field.Field.Path),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			sink.addDiagnostic(schemas.ToolDiagnostic{
				RuleID:  id,
				Message: fmt.Sprintf("rule panicked on %s field %s: %v", field.Document.Path, field.Field.Path, r),
			})
			violations = nil
		}
	}()
	return rule.Detect(tree, field, settings)
}

func (e *Engine) runStructureRule(ctx context.Context, rule rules.StructureRule, proj *project.Context, cfg *ruleconfig.EffectiveConfig, sink *resultSink) error {
	info := rule.Info()
	for _, doc := range proj.Models {
		if err := ctx.Err(); err != nil {
			return err
		}
		findings := e.visit(rule, doc, proj, cfg.View(info.ID), sink)
		for _, f := range findings {
			sink.addFinding(f)
		}
	}
	return nil
}

// visit invokes a structure rule with the same panic isolation as detect.
func (e *Engine) visit(rule rules.StructureRule, doc *docmodel.DocumentModel, proj *project.Context, settings ruleconfig.RuleView, sink *resultSink) (findings []schemas.Finding) {
	defer func() {
		if r := recover(); r != nil {
			id := rule.Info().ID
			e.logger.Error("structure rule panicked",
				zap.String("rule", id),
				zap.String("file", doc.Path),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			sink.addDiagnostic(schemas.ToolDiagnostic{
				RuleID:  id,
				Message: fmt.Sprintf("rule panicked on %s: %v", doc.Path, r),
			})
			findings = nil
		}
	}()
	return rule.Visit(doc, proj, settings)
}

// absoluteLine resolves a fragment-relative line to a document line through
// the source map. When the fragment cannot be located (degraded documents),
// the relative line is better than nothing.
func absoluteLine(doc *docmodel.DocumentModel, field docmodel.ScriptField, relative int) int {
	if relative < 1 {
		relative = 1
	}
	start, ok := doc.SourceMap.StartLine(field.Source, field.Occurrence)
	if !ok {
		return relative
	}
	return start + relative - 1
}

// resultSink collects findings and diagnostics from concurrently running
// rules.
type resultSink struct {
	mu          sync.Mutex
	findings    []schemas.Finding
	diagnostics []schemas.ToolDiagnostic
}

func (s *resultSink) addFinding(f schemas.Finding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = append(s.findings, f)
}

func (s *resultSink) addDiagnostic(d schemas.ToolDiagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnostics = append(s.diagnostics, d)
}

// sortedFindings orders by (file path, line, rule id) so output is stable
// regardless of which goroutine produced a finding first.
func (s *resultSink) sortedFindings() []schemas.Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.SliceStable(s.findings, func(i, j int) bool {
		a, b := s.findings[i], s.findings[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.RuleID < b.RuleID
	})
	return s.findings
}

func (s *resultSink) sortedDiagnostics() []schemas.ToolDiagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.SliceStable(s.diagnostics, func(i, j int) bool {
		if s.diagnostics[i].RuleID != s.diagnostics[j].RuleID {
			return s.diagnostics[i].RuleID < s.diagnostics[j].RuleID
		}
		return s.diagnostics[i].Message < s.diagnostics[j].Message
	})
	return s.diagnostics
}
