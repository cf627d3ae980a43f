// Package config loads docaudit settings from .docaudit/config.{yaml,json},
// DOCAUDIT_* environment variables and built-in defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	auditerrors "docaudit/internal/errors"
	"docaudit/internal/paths"
	"docaudit/internal/project"
	"docaudit/internal/slogutil"
)

// CurrentVersion is the config schema version this build understands.
const CurrentVersion = 1

// ConfigPathEnvVar points at an explicit config file.
const ConfigPathEnvVar = "DOCAUDIT_CONFIG_PATH"

// Config is the complete docaudit configuration.
type Config struct {
	Version int `json:"version" mapstructure:"version"`
	// Rules is a rule document replacing the embedded default set.
	Rules string `json:"rules" mapstructure:"rules"`

	Project ProjectConfig `json:"project" mapstructure:"project"`
	Scan    ScanConfig    `json:"scan" mapstructure:"scan"`
	Specs   SpecsConfig   `json:"specs" mapstructure:"specs"`
	History HistoryConfig `json:"history" mapstructure:"history"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ProjectConfig overrides project classification.
type ProjectConfig struct {
	Type string `json:"type" mapstructure:"type"`
}

// ScanConfig controls the project walk.
type ScanConfig struct {
	Exclude      []string `json:"exclude" mapstructure:"exclude"`
	MaxFileBytes int64    `json:"maxFileBytes" mapstructure:"maxFileBytes"`
}

// SpecsConfig toggles the spec pipeline.
type SpecsConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// HistoryConfig controls the SQLite scan history.
type HistoryConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Path overrides the database location; empty means .docaudit/history.db.
	Path string `json:"path" mapstructure:"path"`
	// Keep is the number of runs retained; 0 keeps everything.
	Keep int `json:"keep" mapstructure:"keep"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Scan: ScanConfig{
			Exclude:      []string{},
			MaxFileBytes: 4 << 20,
		},
		Specs: SpecsConfig{
			Enabled: true,
		},
		History: HistoryConfig{
			Enabled: false,
			Keep:    100,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "warn",
		},
	}
}

// EnvOverride records one environment variable that changed a setting.
type EnvOverride struct {
	EnvVar string `json:"envVar"`
	Path   string `json:"path"`
	Value  string `json:"value"`
}

// LoadResult is a loaded configuration with its provenance.
type LoadResult struct {
	Config       *Config       `json:"config"`
	ConfigPath   string        `json:"configPath,omitempty"`
	UsedDefaults bool          `json:"usedDefaults"`
	EnvOverrides []EnvOverride `json:"envOverrides,omitempty"`
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"rules":             "DOCAUDIT_RULES",
	"project.type":      "DOCAUDIT_PROJECT_TYPE",
	"scan.exclude":      "DOCAUDIT_SCAN_EXCLUDE",
	"scan.maxFileBytes": "DOCAUDIT_SCAN_MAX_FILE_BYTES",
	"specs.enabled":     "DOCAUDIT_SPECS_ENABLED",
	"history.enabled":   "DOCAUDIT_HISTORY_ENABLED",
	"history.path":      "DOCAUDIT_HISTORY_PATH",
	"history.keep":      "DOCAUDIT_HISTORY_KEEP",
	"logging.level":     "DOCAUDIT_LOG_LEVEL",
	"logging.format":    "DOCAUDIT_LOG_FORMAT",
}

// SupportedEnvVars lists every environment variable LoadConfig reads, sorted.
func SupportedEnvVars() []string {
	vars := []string{ConfigPathEnvVar}
	for _, env := range envBindings {
		vars = append(vars, env)
	}
	sort.Strings(vars)
	return vars
}

// LoadConfig loads the configuration for the project at root.
func LoadConfig(root string) (*Config, error) {
	result, err := LoadConfigWithDetails(root)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads the configuration and reports where each part
// came from. Precedence: environment, then config file, then defaults. The
// result is validated.
func LoadConfigWithDetails(root string) (*LoadResult, error) {
	v := newViper()

	if explicit := os.Getenv(ConfigPathEnvVar); explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(paths.ConfigDir(root))
	}

	result := &LoadResult{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, auditerrors.New(auditerrors.ConfigInvalid, "cannot read config file", err)
		}
		result.UsedDefaults = true
	} else {
		result.ConfigPath = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, auditerrors.New(auditerrors.ConfigInvalid, "invalid config", err)
	}
	if cfg.Scan.Exclude == nil {
		cfg.Scan.Exclude = []string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, auditerrors.New(auditerrors.ConfigInvalid, "invalid config", err)
	}

	result.Config = &cfg
	result.EnvOverrides = envOverrides()
	return result, nil
}

// newViper returns a viper instance with every key defaulted and bound to its
// environment variable.
func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("rules", def.Rules)
	v.SetDefault("project.type", def.Project.Type)
	v.SetDefault("scan.exclude", def.Scan.Exclude)
	v.SetDefault("scan.maxFileBytes", def.Scan.MaxFileBytes)
	v.SetDefault("specs.enabled", def.Specs.Enabled)
	v.SetDefault("history.enabled", def.History.Enabled)
	v.SetDefault("history.path", def.History.Path)
	v.SetDefault("history.keep", def.History.Keep)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

func envOverrides() []EnvOverride {
	var out []EnvOverride
	for key, env := range envBindings {
		if value, ok := os.LookupEnv(env); ok && value != "" {
			out = append(out, EnvOverride{EnvVar: env, Path: key, Value: value})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnvVar < out[j].EnvVar })
	return out
}

// Save writes the configuration to .docaudit/config.json under root.
func (c *Config) Save(root string) (string, error) {
	dir := paths.ConfigDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(dir, "config.json")
	return configPath, os.WriteFile(configPath, append(data, '\n'), 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if c.Scan.MaxFileBytes < 0 {
		return &ConfigError{Field: "scan.maxFileBytes", Message: "must not be negative"}
	}
	if c.History.Keep < 0 {
		return &ConfigError{Field: "history.keep", Message: "must not be negative"}
	}
	if c.Project.Type != "" {
		if _, ok := project.ParseClassification(c.Project.Type); !ok {
			return &ConfigError{Field: "project.type", Message: fmt.Sprintf("unknown project type %q", c.Project.Type)}
		}
	}
	if !slogutil.ValidLevel(c.Logging.Level) {
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	return nil
}

// HistoryPath returns the history database for the project at root.
func (c *Config) HistoryPath(root string) string {
	if c.History.Path != "" {
		if filepath.IsAbs(c.History.Path) {
			return c.History.Path
		}
		return filepath.Join(root, c.History.Path)
	}
	return paths.HistoryPath(root)
}

// RulesPath returns the rule document path resolved against root, or "" for
// the embedded default.
func (c *Config) RulesPath(root string) string {
	if c.Rules == "" || filepath.IsAbs(c.Rules) {
		return c.Rules
	}
	return filepath.Join(root, c.Rules)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
