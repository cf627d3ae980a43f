// Package audit runs one documentation-compliance scan: it loads rules, walks
// the project once, runs every check in dependency order and assembles the
// report handed to renderers.
package audit

import (
	"log/slog"
	"time"

	"docaudit/internal/checks"
	"docaudit/internal/crossref"
	"docaudit/internal/project"
	"docaudit/internal/rules"
	"docaudit/internal/specs"
)

// Report is the result of one scan.
type Report struct {
	ScanID      string            `json:"scanId"`
	Root        string            `json:"root"`
	Rules       string            `json:"rules"`
	Project     project.Detection `json:"project"`
	Fingerprint string            `json:"fingerprint"`
	Files       int               `json:"files"`
	StartedAt   time.Time         `json:"startedAt"`
	Duration    time.Duration     `json:"-"`

	Checks     []checks.CheckResult `json:"checks"`
	Summary    checks.Summary       `json:"summary"`
	Categories []CategorySummary    `json:"categories"`

	// Specs and CrossRef are nil when the spec pipeline is disabled.
	Specs    *specs.ValidationReport `json:"specs,omitempty"`
	CrossRef *crossref.Report        `json:"crossref,omitempty"`
}

// HasFailures reports whether any check failed. Spec and cross-reference
// reports carry their own failures.
func (r *Report) HasFailures() bool {
	return r != nil && r.Summary.Failed > 0
}

// Failures returns the failed checks in execution order.
func (r *Report) Failures() []checks.CheckResult {
	var out []checks.CheckResult
	for _, c := range r.Checks {
		if c.Status == checks.StatusFail {
			out = append(out, c)
		}
	}
	return out
}

// CategorySummary counts results for one rule category.
type CategorySummary struct {
	Category   string `json:"category"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	Violations int    `json:"violations"`
}

// Options configures a scan.
type Options struct {
	Root string
	// Rules is used as-is when set; otherwise RulesPath is loaded, and an
	// empty RulesPath selects the embedded default.
	Rules     *rules.RuleSet
	RulesPath string
	// ProjectType overrides classification.
	ProjectType  string
	Exclude      []string
	MaxFileBytes int64
	SpecsEnabled bool
	Logger       *slog.Logger
}
