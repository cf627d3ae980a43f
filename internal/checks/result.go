// Package checks turns loaded rules into runnable checks and executes them in
// dependency order against one project listing.
package checks

import (
	"fmt"

	"docaudit/internal/rules"
)

// Status is the outcome of a check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Violation is one reason a check failed.
type Violation struct {
	CheckID  int            `json:"checkId"`
	File     string         `json:"file,omitempty"`
	Line     int            `json:"line,omitempty"`
	Message  string         `json:"message"`
	Severity rules.Severity `json:"severity"`
}

func (v Violation) String() string {
	switch {
	case v.File != "" && v.Line > 0:
		return fmt.Sprintf("%s:%d: %s", v.File, v.Line, v.Message)
	case v.File != "":
		return fmt.Sprintf("%s: %s", v.File, v.Message)
	default:
		return v.Message
	}
}

// Result is Pass, Fail with violations, or Skip with a reason. Results are
// never modified once returned.
type Result struct {
	Status     Status      `json:"status"`
	Violations []Violation `json:"violations,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// Pass is the passing result.
func Pass() Result {
	return Result{Status: StatusPass}
}

// Fail returns a failing result. A failure always carries a violation.
func Fail(violations ...Violation) Result {
	return Result{Status: StatusFail, Violations: violations}
}

// Skip returns a skip result with a reason.
func Skip(reason string) Result {
	return Result{Status: StatusSkip, Reason: reason}
}

// Skipf returns a skip result with a formatted reason.
func Skipf(format string, args ...interface{}) Result {
	return Skip(fmt.Sprintf(format, args...))
}

// collector gathers violations for one rule.
type collector struct {
	rule       *rules.Rule
	violations []Violation
}

func newCollector(rule *rules.Rule) *collector {
	return &collector{rule: rule}
}

func (c *collector) add(file string, line int, format string, args ...interface{}) {
	c.violations = append(c.violations, Violation{
		CheckID:  c.rule.ID,
		File:     file,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
		Severity: c.rule.Severity,
	})
}

func (c *collector) result() Result {
	if len(c.violations) == 0 {
		return Pass()
	}
	return Fail(c.violations...)
}
