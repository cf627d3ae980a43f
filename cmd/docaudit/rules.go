package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docaudit/internal/checks"
	"docaudit/internal/rules"
)

var (
	rulesFile     string
	rulesFormat   string
	rulesHandlers bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the loaded rule set",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in document order",
	Long: `List the rules that a scan would run.

Examples:
  docaudit rules list
  docaudit rules list --rules docs/rules.yaml --format json
  docaudit rules list --handlers`,
	RunE: runRulesList,
}

var rulesOrderCmd = &cobra.Command{
	Use:   "order",
	Short: "Show the execution order and dependencies",
	RunE:  runRulesOrder,
}

var rulesDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in rule document",
	Long: `Print the embedded default rule document, as a starting point for a custom
rules file.

Examples:
  docaudit rules default > docs/rules.toml`,
	Args: cobra.NoArgs,
	RunE: runRulesDefault,
}

func init() {
	for _, c := range []*cobra.Command{rulesListCmd, rulesOrderCmd} {
		c.Flags().StringVar(&rulesFile, "rules", "", "Rule document instead of the configured one")
		c.Flags().StringVar(&rulesFormat, "format", "human", "Output format (human, json)")
	}
	rulesListCmd.Flags().BoolVar(&rulesHandlers, "handlers", false, "List the builtin handlers instead")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesOrderCmd)
	rulesCmd.AddCommand(rulesDefaultCmd)
	rootCmd.AddCommand(rulesCmd)
}

// RuleListing is the rules list/order response.
type RuleListing struct {
	Source  string        `json:"source"`
	Ordered bool          `json:"ordered"`
	Rules   []*rules.Rule `json:"rules"`
}

// HandlerListing is the rules list --handlers response.
type HandlerListing struct {
	Handlers []HandlerInfo `json:"handlers"`
}

// HandlerInfo describes one builtin handler.
type HandlerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// loadRuleRegistry loads and validates the rule set the way a scan would.
func loadRuleRegistry(cmd *cobra.Command) (*checks.Registry, error) {
	path := loadedConfig().RulesPath(rootFlag)
	if cmd.Flags().Changed("rules") {
		path = rulesFile
	}
	set, err := rules.Load(path)
	if err != nil {
		return nil, err
	}
	return checks.NewRegistry(set)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	var resp interface{}
	if rulesHandlers {
		listing := &HandlerListing{}
		for _, h := range checks.Handlers() {
			listing.Handlers = append(listing.Handlers, HandlerInfo{Name: h.String(), Description: h.Description()})
		}
		resp = listing
	} else {
		registry, err := loadRuleRegistry(cmd)
		if err != nil {
			return err
		}
		set := registry.Rules()
		resp = &RuleListing{Source: set.Source, Rules: set.Rules()}
	}

	output, err := FormatResponse(resp, OutputFormat(rulesFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

func runRulesOrder(cmd *cobra.Command, args []string) error {
	registry, err := loadRuleRegistry(cmd)
	if err != nil {
		return err
	}
	set := registry.Rules()

	output, err := FormatResponse(&RuleListing{Source: set.Source, Ordered: true, Rules: set.Ordered()}, OutputFormat(rulesFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

func runRulesDefault(cmd *cobra.Command, args []string) error {
	_, err := cmd.OutOrStdout().Write(rules.DefaultDocument())
	return err
}
