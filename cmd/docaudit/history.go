package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	auditerrors "docaudit/internal/errors"
	"docaudit/internal/storage"
)

var (
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded scans",
	Long: `List scans recorded with 'docaudit scan --history' (or history.enabled).

Examples:
  docaudit history
  docaudit history show 4f1c2d9e
  docaudit history trend 9 --limit 20`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Print the stored JSON report of a scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyTrendCmd = &cobra.Command{
	Use:   "trend <check-id>",
	Short: "Show one check's outcome across recorded scans",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryTrend,
}

func init() {
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	historyCmd.PersistentFlags().StringVar(&historyFormat, "format", "human", "Output format (human, json)")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyTrendCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the configured history database.
func openHistory() (*storage.DB, *storage.History, error) {
	dbPath := loadedConfig().HistoryPath(rootFlag)
	db, err := storage.Open(dbPath, cliLogger)
	if err != nil {
		return nil, nil, auditerrors.New(auditerrors.HistoryUnavailable, "cannot open history database "+dbPath, err)
	}
	return db, storage.NewHistory(db), nil
}

// RunList is the history list response.
type RunList struct {
	Runs []storage.Run `json:"runs"`
}

// CheckTrend is the history trend response.
type CheckTrend struct {
	CheckID int                   `json:"checkId"`
	Records []storage.CheckRecord `json:"records"`
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	db, history, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := history.List(historyLimit)
	if err != nil {
		return err
	}
	output, err := FormatResponse(&RunList{Runs: runs}, OutputFormat(historyFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	db, history, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	raw, err := history.Report(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return nil
}

func runHistoryTrend(cmd *cobra.Command, args []string) error {
	checkID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("check id must be a number: %q", args[0])
	}

	db, history, err := openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := history.CheckTrend(checkID, historyLimit)
	if err != nil {
		return err
	}
	output, err := FormatResponse(&CheckTrend{CheckID: checkID, Records: records}, OutputFormat(historyFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
