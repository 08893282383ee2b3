package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fenwicklabs/canvaslint/api/schemas"
	"github.com/fenwicklabs/canvaslint/internal/config"
	"github.com/fenwicklabs/canvaslint/internal/engine"
	"github.com/fenwicklabs/canvaslint/internal/observability"
	"github.com/fenwicklabs/canvaslint/internal/ruleconfig"
	"github.com/fenwicklabs/canvaslint/internal/rules"
)

// ErrActionFindings is returned when the run completes but produced at least
// one action-severity finding, so scripts can distinguish "issues found" from
// "the tool broke".
var ErrActionFindings = fmt.Errorf("analysis reported action-severity findings")

func newAnalyzeCmd(getCfg func() *config.Config) *cobra.Command {
	var (
		ruleFiles   []string
		outputPath  string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "analyze <bundle-dir>",
		Short: "Analyze an application bundle directory and report findings.",
		Long: `Analyze loads every recognized document under the given directory,
runs the full rule set against the bundle, and prints the findings.

Document kinds are inferred from file names:

  *.page.json       page
  *.component.json  component
  app.json          app-descriptor
  security.json     security-descriptor
  *.script, *.js    script-file

The exit status is non-zero when any action-severity finding is reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()
			if concurrency > 0 {
				cfg.SetEngineConcurrency(concurrency)
			}
			logger := observability.GetLogger().Named("cli")

			files, err := loadBundle(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no recognized documents under %s", args[0])
			}
			logger.Info("bundle loaded",
				zap.String("dir", args[0]), zap.Int("files", len(files)))

			registry := rules.Builtin()
			layers := []ruleconfig.Layer{
				{Name: "config", Entries: cfg.Rules()},
			}
			for _, path := range ruleFiles {
				layer, err := loadRuleLayer(path)
				if err != nil {
					return err
				}
				layers = append(layers, layer)
			}
			effective, err := ruleconfig.Merge(registry.Defaults(), layers...)
			if err != nil {
				return fmt.Errorf("rule configuration: %w", err)
			}

			eng := engine.New(registry, observability.GetLogger(), engine.Options{
				Concurrency: cfg.Engine().Concurrency,
			})
			report, err := eng.Run(cmd.Context(), files, effective)
			if err != nil {
				return err
			}

			if outputPath != "" {
				if err := writeReport(outputPath, report); err != nil {
					return err
				}
				logger.Info("report written", zap.String("path", outputPath))
			}
			printReport(cmd, report)

			if report.Summary()[string(schemas.SeverityAction)] > 0 {
				return ErrActionFindings
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&ruleFiles, "rules", nil,
		"additional rule configuration files (YAML), highest precedence last")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"write the full report as JSON to this path")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0,
		"override engine concurrency (0 keeps the configured value)")
	return cmd
}

// loadBundle walks the directory and collects every file whose name maps to
// a known document kind. Unrecognized files are skipped silently; a bundle
// directory routinely carries assets the analyzer has no opinion on.
func loadBundle(dir string) ([]schemas.SourceFile, error) {
	var files []schemas.SourceFile
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		kind, ok := inferKind(info.Name())
		if !ok {
			return nil
		}
		text, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		files = append(files, schemas.SourceFile{
			Path: filepath.ToSlash(rel),
			Text: string(text),
			Kind: kind,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning bundle: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// inferKind maps a file name to its document kind.
func inferKind(name string) (schemas.DocumentKind, bool) {
	switch {
	case name == "app.json":
		return schemas.KindAppDescriptor, true
	case name == "security.json":
		return schemas.KindSecurityDescriptor, true
	case strings.HasSuffix(name, ".page.json"):
		return schemas.KindPage, true
	case strings.HasSuffix(name, ".component.json"):
		return schemas.KindComponent, true
	case strings.HasSuffix(name, ".script"), strings.HasSuffix(name, ".js"):
		return schemas.KindScriptFile, true
	default:
		return "", false
	}
}

// loadRuleLayer reads one --rules file: a YAML map of rule id to entry.
func loadRuleLayer(path string) (ruleconfig.Layer, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return ruleconfig.Layer{}, fmt.Errorf("reading rules file %s: %w", path, err)
	}
	entries := make(map[string]ruleconfig.Entry)
	if err := v.Unmarshal(&entries); err != nil {
		return ruleconfig.Layer{}, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	return ruleconfig.Layer{Name: path, Entries: entries}, nil
}

func writeReport(path string, report *schemas.AnalysisReport) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// printReport renders the findings and run digest on the command's stdout.
func printReport(cmd *cobra.Command, report *schemas.AnalysisReport) {
	out := cmd.OutOrStdout()
	for _, f := range report.Findings {
		fmt.Fprintf(out, "%s:%d [%s] %s: %s\n",
			f.FilePath, f.Line, f.Severity, f.RuleID, f.Message)
	}
	for _, d := range report.Diagnostics {
		fmt.Fprintf(out, "diagnostic [%s] %s\n", d.RuleID, d.Message)
	}
	summary := report.Summary()
	fmt.Fprintf(out, "\n%d finding(s): %d action, %d advice across %d file(s) in %s\n",
		summary["total"],
		summary[string(schemas.SeverityAction)],
		summary[string(schemas.SeverityAdvice)],
		report.Files,
		report.Duration.Round(time.Millisecond).String())
	if len(report.Coverage.SkippedRules) > 0 || len(report.Coverage.PartialRules) > 0 {
		fmt.Fprintf(out, "coverage: %d rule(s) skipped, %d partial\n",
			len(report.Coverage.SkippedRules), len(report.Coverage.PartialRules))
	}
}
