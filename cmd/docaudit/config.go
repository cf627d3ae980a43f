package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"docaudit/internal/config"
	"docaudit/internal/paths"
)

var (
	configFormat   string
	configShowDiff bool
	configForce    bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage docaudit configuration",
	Long:  "View and manage docaudit configuration stored in .docaudit/config.json or config.yaml",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective docaudit configuration.

Examples:
  docaudit config show                # Pretty-print current config
  docaudit config show --format json  # Raw JSON output
  docaudit config show --diff         # Only show non-default values`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to .docaudit/config.json",
	RunE:  runConfigInit,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Long:  "Display all supported docaudit environment variable overrides",
	RunE:  runConfigEnv,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (json, human)")
	configShowCmd.Flags().BoolVar(&configShowDiff, "diff", false, "Only show non-default values")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	ConfigPath   string                 `json:"configPath,omitempty"`
	UsedDefaults bool                   `json:"usedDefaults"`
	EnvOverrides []config.EnvOverride   `json:"envOverrides,omitempty"`
	Config       map[string]interface{} `json:"config"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	result := cliConfig
	if result == nil {
		return fmt.Errorf("configuration not loaded")
	}

	current, err := toMap(result.Config)
	if err != nil {
		return err
	}
	if configShowDiff {
		defaults, err := toMap(config.DefaultConfig())
		if err != nil {
			return err
		}
		current = computeDiff(current, defaults)
	}

	out := cmd.OutOrStdout()
	if configFormat == "json" {
		data, err := json.MarshalIndent(ConfigShowResponse{
			ConfigPath:   result.ConfigPath,
			UsedDefaults: result.UsedDefaults,
			EnvOverrides: result.EnvOverrides,
			Config:       current,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	outputConfigHuman(out, result, current)
	return nil
}

func outputConfigHuman(w io.Writer, result *config.LoadResult, values map[string]interface{}) {
	fmt.Fprintln(w, "docaudit Configuration")
	fmt.Fprintln(w, strings.Repeat("─", 50))

	if result.UsedDefaults {
		fmt.Fprintln(w, "Source: defaults (no config file found)")
	} else if result.ConfigPath != "" {
		fmt.Fprintf(w, "Source: %s\n", paths.Display(result.ConfigPath, rootFlag))
	}

	if len(result.EnvOverrides) > 0 {
		fmt.Fprintln(w, "\nEnvironment Overrides:")
		for _, ov := range result.EnvOverrides {
			fmt.Fprintf(w, "  %s=%s → %s\n", ov.EnvVar, ov.Value, ov.Path)
		}
	}
	fmt.Fprintln(w)

	defaults, _ := toMap(config.DefaultConfig())
	flatDefaults := flatten(defaults, "")
	flat := flatten(values, "")
	if len(flat) == 0 {
		fmt.Fprintln(w, "  (no modifications - using all defaults)")
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		modified := ""
		if def, ok := flatDefaults[k]; !ok || !isEqual(flat[k], def) {
			modified = fmt.Sprintf(" (default: %v)", valueOrDefault(fmt.Sprint(flatDefaults[k]), "unset"))
		}
		fmt.Fprintf(w, "%s: %v%s\n", k, flat[k], modified)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Use 'docaudit config show --format json' for full configuration")
	fmt.Fprintln(w, "Use 'docaudit config env' to see supported environment variables")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	target := filepath.Join(paths.ConfigDir(rootFlag), "config.json")
	if _, err := os.Stat(target); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", paths.Display(target, rootFlag))
	}

	written, err := config.DefaultConfig().Save(rootFlag)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", paths.Display(written, rootFlag))
	return nil
}

type envVarInfo struct {
	name    string
	desc    string
	varType string
}

func runConfigEnv(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Supported docaudit Environment Variables")
	fmt.Fprintln(w, strings.Repeat("─", 50))
	fmt.Fprintln(w)

	categories := map[string][]envVarInfo{
		"General": {
			{config.ConfigPathEnvVar, "Path to config file", "string"},
			{paths.DataDirEnvVar, "Data directory (default .docaudit)", "string"},
			{"DOCAUDIT_RULES", "Rule document replacing the default rules", "string"},
			{"DOCAUDIT_PROJECT_TYPE", "Project classification override", "string"},
		},
		"Scan": {
			{"DOCAUDIT_SCAN_EXCLUDE", "Extra directory names to skip (comma-separated)", "list"},
			{"DOCAUDIT_SCAN_MAX_FILE_BYTES", "Largest file whose content is read", "int"},
			{"DOCAUDIT_SPECS_ENABLED", "Run spec validation and cross-referencing", "bool"},
		},
		"History": {
			{"DOCAUDIT_HISTORY_ENABLED", "Record every scan", "bool"},
			{"DOCAUDIT_HISTORY_PATH", "History database path", "string"},
			{"DOCAUDIT_HISTORY_KEEP", "Runs to keep (0 keeps all)", "int"},
		},
		"Logging": {
			{"DOCAUDIT_LOG_LEVEL", "Log level (debug, info, warn, error)", "string"},
			{"DOCAUDIT_LOG_FORMAT", "Log format (human, json)", "string"},
		},
	}

	known := map[string]bool{}
	for _, v := range config.SupportedEnvVars() {
		known[v] = true
	}

	order := []string{"General", "Scan", "History", "Logging"}
	for _, cat := range order {
		fmt.Fprintf(w, "%s:\n", cat)
		for _, v := range categories[cat] {
			if !known[v.name] && v.name != paths.DataDirEnvVar {
				continue
			}
			fmt.Fprintf(w, "  %-30s %s (%s)\n", v.name, v.desc, v.varType)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Example usage:")
	fmt.Fprintln(w, "  DOCAUDIT_LOG_LEVEL=debug docaudit scan")
	fmt.Fprintln(w, "  DOCAUDIT_SPECS_ENABLED=false docaudit scan --format json")
	return nil
}

func toMap(cfg *config.Config) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// flatten turns nested maps into dotted keys.
func flatten(m map[string]interface{}, prefix string) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range m {
		if nested, ok := v.(map[string]interface{}); ok {
			for nk, nv := range flatten(nested, prefix+k+".") {
				out[nk] = nv
			}
			continue
		}
		out[prefix+k] = v
	}
	return out
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" || value == "<nil>" {
		return defaultValue
	}
	return value
}

func isEqual(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func computeDiff(current, defaults map[string]interface{}) map[string]interface{} {
	diff := make(map[string]interface{})
	computeDiffRecursive(current, defaults, diff)
	return diff
}

func computeDiffRecursive(current, defaults map[string]interface{}, diff map[string]interface{}) {
	for key, currentVal := range current {
		defaultVal, exists := defaults[key]
		if !exists {
			diff[key] = currentVal
			continue
		}

		currentMap, currentIsMap := currentVal.(map[string]interface{})
		defaultMap, defaultIsMap := defaultVal.(map[string]interface{})

		if currentIsMap && defaultIsMap {
			nestedDiff := make(map[string]interface{})
			computeDiffRecursive(currentMap, defaultMap, nestedDiff)
			if len(nestedDiff) > 0 {
				diff[key] = nestedDiff
			}
		} else if !isEqual(currentVal, defaultVal) {
			diff[key] = currentVal
		}
	}
}
