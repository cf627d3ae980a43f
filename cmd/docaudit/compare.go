package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"docaudit/internal/exitcode"
	"docaudit/internal/report"
)

var compareCmd = &cobra.Command{
	Use:   "compare <a> <b>",
	Short: "Compare two scan reports",
	Long: `Compare two reports, ignoring scan IDs and timestamps. Each argument is a report
file written with 'scan --output' (.json, .json.zst, .json.gz) or the ID of a
scan in the history.

Exits 0 when the reports match and 1 when they differ.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

// StatusChange is one check whose status differs between two reports.
type StatusChange struct {
	CheckID int    `json:"checkId"`
	Before  string `json:"before"`
	After   string `json:"after"`
}

func runCompare(cmd *cobra.Command, args []string) error {
	a, err := loadReport(args[0])
	if err != nil {
		return err
	}
	b, err := loadReport(args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	same, reason := report.Compare(a, b)
	if same {
		fmt.Fprintln(out, "Reports match")
		return nil
	}

	fmt.Fprintf(out, "Reports differ: %s\n", reason)
	changes, err := statusChanges(a, b)
	if err != nil {
		return err
	}
	for _, c := range changes {
		fmt.Fprintf(out, "  check %d: %s → %s\n", c.CheckID, c.Before, c.After)
	}
	return &exitcode.ExitResult{Code: exitcode.ExitFailures}
}

// loadReport reads a report file, or a stored report when ref is not a file.
func loadReport(ref string) ([]byte, error) {
	if _, err := os.Stat(ref); err == nil {
		return report.ReadFile(ref)
	}

	db, history, err := openHistory()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return history.Report(ref)
}

// statusChanges lists checks whose status differs, by check ID. A check
// missing from one side is reported as "absent".
func statusChanges(a, b []byte) ([]StatusChange, error) {
	before, err := checkStatuses(a)
	if err != nil {
		return nil, err
	}
	after, err := checkStatuses(b)
	if err != nil {
		return nil, err
	}

	ids := map[int]bool{}
	for id := range before {
		ids[id] = true
	}
	for id := range after {
		ids[id] = true
	}

	var changes []StatusChange
	for id := range ids {
		was, now := valueOrDefault(before[id], "absent"), valueOrDefault(after[id], "absent")
		if was != now {
			changes = append(changes, StatusChange{CheckID: id, Before: was, After: now})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].CheckID < changes[j].CheckID })
	return changes, nil
}

func checkStatuses(raw []byte) (map[int]string, error) {
	var parsed struct {
		Checks []struct {
			ID     int    `json:"id"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid report: %w", err)
	}
	out := make(map[int]string, len(parsed.Checks))
	for _, c := range parsed.Checks {
		out[c.ID] = c.Status
	}
	return out, nil
}
