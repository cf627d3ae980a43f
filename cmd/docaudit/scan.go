package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docaudit/internal/audit"
	auditerrors "docaudit/internal/errors"
	"docaudit/internal/exitcode"
	"docaudit/internal/paths"
	"docaudit/internal/project"
	"docaudit/internal/report"
	"docaudit/internal/storage"
)

var (
	scanRules       string
	scanProjectType string
	scanExclude     []string
	scanOutput      string
	scanFormat      string
	scanNoSpecs     bool
	scanHistory     bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Audit the project's documentation",
	Long: `Run every rule against the project, in dependency order, and print the report.

Examples:
  docaudit scan
  docaudit scan ../service --format json
  docaudit scan --rules docs/rules.toml --project-type rust
  docaudit scan --output reports/latest.json.zst --history`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanRules, "rules", "", "Rule document (.toml, .yaml) replacing the default rules")
	scanCmd.Flags().StringVar(&scanProjectType, "project-type", "", "Override project classification (rust, go, node, python, java, generic)")
	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil, "Extra directory names to skip")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Also write the JSON report to this file (.zst and .gz are compressed)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format (human, json)")
	scanCmd.Flags().BoolVar(&scanNoSpecs, "no-specs", false, "Skip spec validation and cross-referencing")
	scanCmd.Flags().BoolVar(&scanHistory, "history", false, "Record this scan in the history database")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig()
	opts, err := scanOptions(cmd, rootFlag)
	if err != nil {
		return err
	}

	result, err := audit.NewAnalyzer(cliLogger).Analyze(cmd.Context(), opts)
	if err != nil {
		return err
	}

	output, err := FormatResponse(result, OutputFormat(scanFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)

	if scanOutput != "" {
		if err := report.WriteFile(scanOutput, result); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		cliLogger.Info("Report written", "path", scanOutput, "compression", string(report.CompressionFor(scanOutput)))
	}

	if scanHistory || cfg.History.Enabled {
		recordHistory(result, cfg.HistoryPath(result.Root), cfg.History.Keep)
	}

	return exitFor(result, result.Specs, result.CrossRef)
}

// scanOptions merges flags over the loaded configuration.
func scanOptions(cmd *cobra.Command, root string) (audit.Options, error) {
	cfg := loadedConfig()
	opts := audit.Options{
		Root:         root,
		RulesPath:    cfg.RulesPath(rootFlag),
		ProjectType:  cfg.Project.Type,
		Exclude:      cfg.Scan.Exclude,
		MaxFileBytes: cfg.Scan.MaxFileBytes,
		SpecsEnabled: cfg.Specs.Enabled && !scanNoSpecs,
		Logger:       cliLogger,
	}
	if cmd.Flags().Changed("rules") {
		opts.RulesPath = scanRules
	}
	if scanProjectType != "" {
		if _, ok := project.ParseClassification(scanProjectType); !ok {
			return opts, auditerrors.Newf(auditerrors.ConfigInvalid, "unknown project type %q", scanProjectType).
				WithDetails(map[string]interface{}{"known": project.Known})
		}
		opts.ProjectType = scanProjectType
	}
	if len(scanExclude) > 0 {
		opts.Exclude = append(append([]string{}, opts.Exclude...), scanExclude...)
	}
	return opts, nil
}

// recordHistory stores the scan. History problems never change the exit code.
func recordHistory(r *audit.Report, dbPath string, keep int) {
	start := time.Now()
	db, err := storage.Open(dbPath, cliLogger)
	if err != nil {
		cliLogger.Warn("History unavailable", "path", paths.Display(dbPath, r.Root), "error", err.Error())
		return
	}
	defer db.Close()

	history := storage.NewHistory(db)
	if err := history.Save(r); err != nil {
		cliLogger.Warn("Failed to record scan", "scan", r.ScanID, "error", err.Error())
		return
	}
	if _, err := history.Prune(keep); err != nil {
		cliLogger.Warn("Failed to prune history", "error", err.Error())
	}
	cliLogger.Debug("Recorded scan", "scan", r.ScanID, "duration", time.Since(start))
}

// exitFor turns failing outcomes into an exit result.
func exitFor(outcomes ...exitcode.Outcome) error {
	if code := exitcode.ForOutcome(outcomes...); code != exitcode.ExitClean {
		return &exitcode.ExitResult{Code: code}
	}
	return nil
}
