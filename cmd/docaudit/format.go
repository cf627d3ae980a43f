package main

import (
	"fmt"
	"strings"
	"time"

	"docaudit/internal/audit"
	"docaudit/internal/checks"
	"docaudit/internal/crossref"
	"docaudit/internal/project"
	"docaudit/internal/report"
	"docaudit/internal/specs"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as deterministic indented JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := report.DeterministicEncodeIndented(resp, "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *audit.Report:
		return formatReportHuman(v), nil
	case *specs.ValidationReport:
		return formatValidationHuman(v), nil
	case *crossref.Report:
		return formatCrossRefHuman(v), nil
	case *RuleListing:
		return formatRulesHuman(v), nil
	case *HandlerListing:
		return formatHandlersHuman(v), nil
	case *RunList:
		return formatRunsHuman(v), nil
	case *CheckTrend:
		return formatTrendHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func statusMark(s checks.Status) string {
	switch s {
	case checks.StatusPass:
		return "✓"
	case checks.StatusFail:
		return "✗"
	default:
		return "-"
	}
}

func formatReportHuman(r *audit.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Documentation audit: %s\n", r.Root))
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(fmt.Sprintf("Project: %s", project.DisplayName(r.Project.Class)))
	if r.Project.Manifest != "" {
		b.WriteString(fmt.Sprintf(" (%s)", r.Project.Manifest))
	} else if r.Project.Overridden {
		b.WriteString(" (configured)")
	}
	b.WriteString(fmt.Sprintf("\nRules: %s\nFiles: %d\n\n", r.Rules, r.Files))

	for _, c := range r.Checks {
		b.WriteString(fmt.Sprintf("%s [%2d] %-12s %s", statusMark(c.Status), c.ID, c.Category, c.Description))
		if c.Status == checks.StatusSkip && c.Reason != "" {
			b.WriteString(fmt.Sprintf(" (skipped: %s)", c.Reason))
		}
		b.WriteString("\n")
		for _, v := range c.Violations {
			b.WriteString(fmt.Sprintf("       %s %s\n", severityTag(v), v.String()))
		}
	}

	if r.Specs != nil && r.Specs.Specs > 0 {
		b.WriteString(fmt.Sprintf("\nSpecs: %d documents, %d passed, %d failed\n", r.Specs.Specs, r.Specs.Passed, r.Specs.Failed))
	}
	if r.CrossRef != nil && r.CrossRef.Passed+r.CrossRef.Failed > 0 {
		b.WriteString(fmt.Sprintf("Cross-references: %d passed, %d failed\n", r.CrossRef.Passed, r.CrossRef.Failed))
	}

	if len(r.Categories) > 0 && r.Summary.Failed > 0 {
		b.WriteString("\nBy category:\n")
		for _, cat := range r.Categories {
			if cat.Failed == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("  %s\n", cat.String()))
		}
	}

	b.WriteString(fmt.Sprintf("\n%d checks: %d passed, %d failed, %d skipped (%s)\n",
		r.Summary.Total, r.Summary.Passed, r.Summary.Failed, r.Summary.Skipped,
		r.Duration.Round(time.Millisecond)))
	return strings.TrimSuffix(b.String(), "\n")
}

func severityTag(v checks.Violation) string {
	if v.Severity == "" {
		return "-"
	}
	return string(v.Severity) + ":"
}

func formatValidationHuman(r *specs.ValidationReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Spec validation: %d documents, %d passed, %d failed\n", r.Specs, r.Passed, r.Failed))
	if len(r.Diagnostics) > 0 {
		b.WriteString("\n")
		for _, d := range r.Diagnostics {
			b.WriteString(fmt.Sprintf("  ✗ [%s] %s\n", d.Kind, d.String()))
		}
	}
	if len(r.Duplicates) > 0 {
		b.WriteString("\nDuplicate IDs:\n")
		for _, dup := range r.Duplicates {
			b.WriteString(fmt.Sprintf("  %s: %s\n", dup.ID, strings.Join(dup.Files, ", ")))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatCrossRefHuman(r *crossref.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Cross-references: %d passed, %d failed\n", r.Passed, r.Failed))
	for _, g := range r.Groups {
		if len(g.Results) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n%s (%d passed, %d failed)\n", g.Category, g.Passed, g.Failed))
		for _, res := range g.Results {
			mark := "✓"
			if res.Status == crossref.Fail {
				mark = "✗"
			}
			b.WriteString(fmt.Sprintf("  %s %s\n", mark, res.String()))
			if res.Status == crossref.Fail {
				for _, d := range res.Details {
					b.WriteString(fmt.Sprintf("      %s\n", d))
				}
			}
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatRulesHuman(l *RuleListing) string {
	var b strings.Builder

	title := "Rules"
	if l.Ordered {
		title = "Execution order"
	}
	b.WriteString(fmt.Sprintf("%s (%s, %d rules)\n", title, l.Source, len(l.Rules)))
	b.WriteString(strings.Repeat("─", 60) + "\n")
	for i, r := range l.Rules {
		prefix := fmt.Sprintf("[%2d]", r.ID)
		if l.Ordered {
			prefix = fmt.Sprintf("%2d. [%2d]", i+1, r.ID)
		}
		b.WriteString(fmt.Sprintf("%s %-12s %-8s %-24s %s\n", prefix, r.Category, r.Severity, r.Type, r.Description))

		var extra []string
		if target := r.Target(); target != "" {
			extra = append(extra, "target: "+target)
		}
		if len(r.DependsOn) > 0 {
			ids := make([]string, len(r.DependsOn))
			for j, id := range r.DependsOn {
				ids[j] = fmt.Sprint(id)
			}
			extra = append(extra, "depends on: "+strings.Join(ids, ", "))
		}
		if !r.AppliesToAll() {
			extra = append(extra, "applies to: "+strings.Join(r.AppliesTo, ", "))
		}
		if len(extra) > 0 {
			b.WriteString(fmt.Sprintf("      %s\n", strings.Join(extra, "; ")))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatHandlersHuman(l *HandlerListing) string {
	var b strings.Builder
	b.WriteString("Builtin handlers\n")
	b.WriteString(strings.Repeat("─", 60) + "\n")
	for _, h := range l.Handlers {
		b.WriteString(fmt.Sprintf("%-20s %s\n", h.Name, h.Description))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatRunsHuman(l *RunList) string {
	if len(l.Runs) == 0 {
		return "No recorded scans. Run 'docaudit scan --history' to record one."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-10s %-20s %-8s %6s %6s %6s %8s\n", "SCAN", "STARTED", "PROJECT", "PASS", "FAIL", "SKIP", "TIME"))
	for _, run := range l.Runs {
		b.WriteString(fmt.Sprintf("%-10s %-20s %-8s %6d %6d %6d %8s\n",
			shortID(run.ScanID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Project,
			run.Passed, run.Failed, run.Skipped,
			run.Duration.Round(time.Millisecond)))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatTrendHuman(t *CheckTrend) string {
	if len(t.Records) == 0 {
		return fmt.Sprintf("No recorded results for check %d.", t.CheckID)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Check %d (%s)\n", t.CheckID, t.Records[0].Category))
	for _, rec := range t.Records {
		line := fmt.Sprintf("  %s %-20s %s", shortID(rec.ScanID), rec.StartedAt.Local().Format("2006-01-02 15:04:05"), rec.Status)
		switch {
		case rec.Violations > 0:
			line += fmt.Sprintf(" (%d violations)", rec.Violations)
		case rec.Reason != "":
			line += fmt.Sprintf(" (%s)", rec.Reason)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
