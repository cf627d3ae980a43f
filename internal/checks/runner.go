package checks

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"docaudit/internal/rules"
	"docaudit/internal/slogutil"
)

// CheckResult is the outcome of one check together with the rule it came from.
type CheckResult struct {
	ID          int            `json:"id"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Severity    rules.Severity `json:"severity"`
	Type        rules.Shape    `json:"type"`
	Handler     string         `json:"handler,omitempty"`
	Result
	Duration time.Duration `json:"-"`
}

// Summary counts results by status. Passed+Failed+Skipped equals the number
// of checks run.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Outcome is every check result in execution order.
type Outcome struct {
	Results []CheckResult `json:"results"`
	Summary Summary       `json:"summary"`
}

// HasFailures reports whether any check failed.
func (o *Outcome) HasFailures() bool {
	return o != nil && o.Summary.Failed > 0
}

// Result returns the result for a rule ID.
func (o *Outcome) Result(id int) (CheckResult, bool) {
	for _, r := range o.Results {
		if r.ID == id {
			return r, true
		}
	}
	return CheckResult{}, false
}

// Failures returns the failed results.
func (o *Outcome) Failures() []CheckResult {
	var out []CheckResult
	for _, r := range o.Results {
		if r.Status == StatusFail {
			out = append(out, r)
		}
	}
	return out
}

// Runner executes a registry's checks in dependency order.
type Runner struct {
	registry *Registry
	logger   *slog.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(registry *Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Runner{registry: registry, logger: logger}
}

// runState tracks how each finished check affects its dependents.
type runState struct {
	status map[int]Status
	// blocked holds checks skipped because a prerequisite failed or was
	// itself blocked. Skips for any other reason do not propagate.
	blocked map[int]bool
}

// Run executes every check once. A check whose applies_to excludes the project
// is skipped. A check whose prerequisite failed, or was skipped for that
// reason, is skipped without running. ctx only carries logging values.
func (r *Runner) Run(ctx context.Context, cc *Context) *Outcome {
	state := runState{status: map[int]Status{}, blocked: map[int]bool{}}
	out := &Outcome{Results: make([]CheckResult, 0, r.registry.Len())}
	class := string(cc.Project.Class)

	for _, check := range r.registry.Checks() {
		rule := check.Rule()
		entry := CheckResult{
			ID:          rule.ID,
			Category:    rule.Category,
			Description: rule.Description,
			Severity:    rule.Severity,
			Type:        rule.Type,
			Handler:     rule.Handler,
		}

		switch {
		case !rule.Applies(class):
			entry.Result = Skipf("applies to %s projects; project is %s", strings.Join(rule.AppliesTo, ", "), class)
		default:
			if reason, blocked := state.blockedBy(rule); blocked {
				entry.Result = Skip(reason)
				state.blocked[rule.ID] = true
			} else {
				start := time.Now()
				entry.Result = r.runCheck(check, cc)
				entry.Duration = time.Since(start)
			}
		}

		state.status[rule.ID] = entry.Status
		out.add(entry)
		r.logResult(ctx, entry)
	}

	r.logger.InfoContext(ctx, "Checks finished",
		"total", out.Summary.Total,
		"passed", out.Summary.Passed,
		"failed", out.Summary.Failed,
		"skipped", out.Summary.Skipped,
	)
	return out
}

// blockedBy returns the skip reason for the first prerequisite, by ascending
// ID, that prevents rule from running.
func (s runState) blockedBy(rule *rules.Rule) (string, bool) {
	for _, dep := range rule.DependsOn {
		if s.status[dep] == StatusFail {
			return fmt.Sprintf("dependency check %d failed", dep), true
		}
		if s.blocked[dep] {
			return fmt.Sprintf("dependency check %d skipped", dep), true
		}
	}
	return "", false
}

// runCheck runs one check, converting a panic into a failure of that check.
func (r *Runner) runCheck(check Check, cc *Context) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Check panicked",
				"check", check.ID(),
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()),
			)
			res = Fail(Violation{
				CheckID:  check.ID(),
				Message:  fmt.Sprintf("internal error: %v", p),
				Severity: check.Rule().Severity,
			})
		}
	}()

	res = check.Run(cc)
	if res.Status == StatusFail && len(res.Violations) == 0 {
		res.Violations = []Violation{{
			CheckID:  check.ID(),
			Message:  "check failed",
			Severity: check.Rule().Severity,
		}}
	}
	return res
}

func (r *Runner) logResult(ctx context.Context, entry CheckResult) {
	switch entry.Status {
	case StatusFail:
		r.logger.DebugContext(ctx, "Check failed", "check", entry.ID, "violations", len(entry.Violations), "duration", entry.Duration)
	case StatusSkip:
		r.logger.DebugContext(ctx, "Check skipped", "check", entry.ID, "reason", entry.Reason)
	default:
		r.logger.DebugContext(ctx, "Check passed", "check", entry.ID, "duration", entry.Duration)
	}
}

func (o *Outcome) add(entry CheckResult) {
	o.Results = append(o.Results, entry)
	o.Summary.Total++
	switch entry.Status {
	case StatusPass:
		o.Summary.Passed++
	case StatusFail:
		o.Summary.Failed++
	case StatusSkip:
		o.Summary.Skipped++
	}
}
