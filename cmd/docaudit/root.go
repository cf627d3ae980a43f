package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docaudit/internal/config"
	"docaudit/internal/slogutil"
	"docaudit/internal/version"
)

var (
	rootFlag      string
	verbosityFlag int
	quietFlag     bool
	logFileFlag   string
	logFormatFlag string

	// set by PersistentPreRunE
	cliConfig *config.LoadResult
	cliLogger = slogutil.NewDiscardLogger()
	logFile   *os.File
)

var rootCmd = &cobra.Command{
	Use:   "docaudit",
	Short: "docaudit - documentation compliance auditor",
	Long: `docaudit audits a project's documentation tree against a configurable rule set
and validates and cross-references its structured spec documents.

Exit codes: 0 clean, 1 at least one failure, 2 the scan could not start.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupCommand,
}

func init() {
	rootCmd.SetVersionTemplate("docaudit version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&rootFlag, "root", "C", ".", "Project root directory")
	rootCmd.PersistentFlags().CountVarP(&verbosityFlag, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress all logs")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Also write debug logs to this file")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format (human, json)")
}

// setupCommand loads the configuration for the selected root and builds the
// command logger from it and the verbosity flags. A path given to scan is the
// root.
func setupCommand(cmd *cobra.Command, args []string) error {
	if cmd == scanCmd && len(args) == 1 {
		rootFlag = args[0]
	}
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return err
	}
	rootFlag = root

	result, err := config.LoadConfigWithDetails(root)
	if err != nil {
		return err
	}
	cliConfig = result

	logger, err := buildLogger(cmd.ErrOrStderr(), result.Config.Logging)
	if err != nil {
		return err
	}
	cliLogger = logger
	return nil
}

// buildLogger honours -v/-q first, then the configured level.
func buildLogger(w io.Writer, cfg config.LoggingConfig) (*slog.Logger, error) {
	level := slogutil.LevelFromString(cfg.Level)
	if verbosityFlag > 0 || quietFlag {
		level = slogutil.LevelFromVerbosity(verbosityFlag, quietFlag)
	}
	format := cfg.Format
	if logFormatFlag != "" {
		format = logFormatFlag
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slogutil.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	if logFileFlag != "" {
		f, err := slogutil.OpenLogFile(logFileFlag)
		if err != nil {
			return nil, err
		}
		logFile = f
		handler = slogutil.NewTeeHandler(handler,
			slogutil.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(handler), nil
}

func closeLogFile() {
	if logFile != nil {
		_ = logFile.Close()
	}
}

// loadedConfig returns the configuration of the current command.
func loadedConfig() *config.Config {
	if cliConfig == nil {
		return config.DefaultConfig()
	}
	return cliConfig.Config
}
